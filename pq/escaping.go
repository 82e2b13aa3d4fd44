package pq

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Servers from 9.0 emit and prefer the hex bytea format.
var hexByteaMinVersion = semver.MustParse("9.0.0")

// Escaping provides SQL escaping helpers. The bytea escape format tracks the
// server version: hex for 9.0 and later, the octal escape format for older
// servers. A nil server version is treated as a current server.
type Escaping struct {
	serverVersion *semver.Version
}

// NewEscaping returns an Escaping for a server of the given version, which
// may be nil when unknown.
func NewEscaping(serverVersion *semver.Version) *Escaping {
	return &Escaping{serverVersion: serverVersion}
}

func (e *Escaping) hexBytea() bool {
	return e.serverVersion == nil || !e.serverVersion.LessThan(hexByteaMinVersion)
}

// EscapeLiteral renders data as a quoted SQL string literal. Quotes are
// doubled; if the value contains backslashes the E'' form is used so the
// result is valid regardless of standard_conforming_strings.
func (e *Escaping) EscapeLiteral(data []byte) []byte {
	body := make([]byte, 0, len(data)+2)
	hasBackslash := false
	for _, c := range data {
		switch c {
		case '\'':
			body = append(body, '\'', '\'')
		case '\\':
			hasBackslash = true
			body = append(body, '\\', '\\')
		default:
			body = append(body, c)
		}
	}

	out := make([]byte, 0, len(body)+3)
	if hasBackslash {
		out = append(out, 'E')
	}
	out = append(out, '\'')
	out = append(out, body...)
	return append(out, '\'')
}

// EscapeString escapes s for interpolation inside an existing pair of single
// quotes. It assumes standard_conforming_strings is on, so only quotes need
// doubling. EscapeLiteral is the safer choice when the whole literal is under
// your control.
func (e *Escaping) EscapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// EscapeIdentifier renders data as a quoted SQL identifier.
func (e *Escaping) EscapeIdentifier(data []byte) []byte {
	out := make([]byte, 0, len(data)+2)
	out = append(out, '"')
	for _, c := range data {
		if c == '"' {
			out = append(out, '"', '"')
		} else {
			out = append(out, c)
		}
	}
	return append(out, '"')
}

// EscapeBytea renders binary data in the bytea text input format: `\x` hex
// for servers that understand it, octal escapes otherwise.
func (e *Escaping) EscapeBytea(data []byte) []byte {
	if e.hexBytea() {
		out := make([]byte, 2+hex.EncodedLen(len(data)))
		out[0] = '\\'
		out[1] = 'x'
		hex.Encode(out[2:], data)
		return out
	}

	out := make([]byte, 0, len(data))
	for _, c := range data {
		switch {
		case c == '\\':
			out = append(out, '\\', '\\')
		case c < 0x20 || c > 0x7e:
			out = append(out, '\\', '0'+(c>>6), '0'+((c>>3)&7), '0'+(c&7))
		default:
			out = append(out, c)
		}
	}
	return out
}

// UnescapeBytea parses the bytea text output format. Both the hex format and
// the octal escape format used by servers before 9.0 are accepted.
func (e *Escaping) UnescapeBytea(data []byte) ([]byte, error) {
	if len(data) >= 2 && data[0] == '\\' && data[1] == 'x' {
		return unescapeHexBytea(data[2:])
	}
	return unescapeEscapeBytea(data)
}

func unescapeHexBytea(data []byte) ([]byte, error) {
	// The hex input format allows whitespace between pairs of digits.
	digits := data
	for _, c := range data {
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			digits = nil
			break
		}
	}
	if digits == nil {
		digits = make([]byte, 0, len(data))
		for _, c := range data {
			switch c {
			case ' ', '\t', '\n', '\r':
			default:
				digits = append(digits, c)
			}
		}
	}

	out := make([]byte, hex.DecodedLen(len(digits)))
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("invalid hex bytea: %w", err)
	}
	return out, nil
}

func unescapeEscapeBytea(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		c := data[i]
		if c != '\\' {
			out = append(out, c)
			i++
			continue
		}
		if i+1 < len(data) && data[i+1] == '\\' {
			out = append(out, '\\')
			i += 2
			continue
		}
		if i+3 < len(data) && isOctal(data[i+1]) && isOctal(data[i+2]) && isOctal(data[i+3]) {
			out = append(out, (data[i+1]-'0')<<6|(data[i+2]-'0')<<3|(data[i+3]-'0'))
			i += 4
			continue
		}
		return nil, fmt.Errorf("invalid bytea escape sequence at offset %d", i)
	}
	return out, nil
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }
