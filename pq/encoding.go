package pq

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// Client encodings that are not UTF-8 but have a conversion table. UTF8 needs
// no conversion and SQL_ASCII means "no conversion at all": its values pass
// through as raw bytes.
var pgEncodings = map[string]encoding.Encoding{
	"LATIN1":  charmap.ISO8859_1,
	"LATIN2":  charmap.ISO8859_2,
	"LATIN3":  charmap.ISO8859_3,
	"LATIN4":  charmap.ISO8859_4,
	"LATIN5":  charmap.ISO8859_9,
	"LATIN6":  charmap.ISO8859_10,
	"LATIN7":  charmap.ISO8859_13,
	"LATIN8":  charmap.ISO8859_14,
	"LATIN9":  charmap.ISO8859_15,
	"LATIN10": charmap.ISO8859_16,

	"ISO_8859_5": charmap.ISO8859_5,
	"ISO_8859_6": charmap.ISO8859_6,
	"ISO_8859_7": charmap.ISO8859_7,
	"ISO_8859_8": charmap.ISO8859_8,

	"WIN866":  charmap.CodePage866,
	"WIN874":  charmap.Windows874,
	"WIN1250": charmap.Windows1250,
	"WIN1251": charmap.Windows1251,
	"WIN1252": charmap.Windows1252,
	"WIN1253": charmap.Windows1253,
	"WIN1254": charmap.Windows1254,
	"WIN1255": charmap.Windows1255,
	"WIN1256": charmap.Windows1256,
	"WIN1257": charmap.Windows1257,
	"WIN1258": charmap.Windows1258,

	"KOI8R": charmap.KOI8R,
	"KOI8U": charmap.KOI8U,

	"EUC_JP":  japanese.EUCJP,
	"SJIS":    japanese.ShiftJIS,
	"EUC_KR":  korean.EUCKR,
	"GBK":     simplifiedchinese.GBK,
	"GB18030": simplifiedchinese.GB18030,
	"BIG5":    traditionalchinese.Big5,
}

// canonicalNames maps cleaned encoding names to their canonical PostgreSQL
// spelling, including the aliases the server accepts.
var canonicalNames map[string]string

func init() {
	canonicalNames = make(map[string]string, len(pgEncodings)+8)
	for name := range pgEncodings {
		canonicalNames[cleanEncodingName(name)] = name
	}
	for alias, name := range map[string]string{
		"UTF8":      "UTF8",
		"UNICODE":   "UTF8",
		"SQL_ASCII": "SQL_ASCII",
		"ALT":       "WIN866",
		"TCVN":      "WIN1258",
		"WIN":       "WIN1251",
		"SHIFT_JIS": "SJIS",
	} {
		canonicalNames[cleanEncodingName(alias)] = name
	}
}

// The server compares encoding names ignoring case and punctuation, so
// "iso-8859-5", "ISO_8859_5" and "Iso88595" all name the same encoding.
func cleanEncodingName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			b.WriteByte(c)
		}
	}
	return b.String()
}

// NormalizeEncoding returns the canonical PostgreSQL spelling of a
// client_encoding name. Unrecognized names are returned cleaned up but
// otherwise untouched.
func NormalizeEncoding(name string) string {
	key := cleanEncodingName(name)
	if canonical, ok := canonicalNames[key]; ok {
		return canonical
	}
	return key
}

// Codec returns the conversion table for a client encoding name. ok is false
// when no conversion applies, which includes UTF8 and SQL_ASCII.
func Codec(name string) (encoding.Encoding, bool) {
	e, ok := pgEncodings[NormalizeEncoding(name)]
	return e, ok
}

// KnownEncoding reports whether name is a client encoding this package can
// handle, either by conversion or by passthrough.
func KnownEncoding(name string) bool {
	switch NormalizeEncoding(name) {
	case "UTF8", "SQL_ASCII":
		return true
	}
	_, ok := Codec(name)
	return ok
}

// DecodeText converts src from the named client encoding to UTF-8. UTF8 and
// SQL_ASCII return src unchanged.
func DecodeText(name string, src []byte) ([]byte, error) {
	switch NormalizeEncoding(name) {
	case "", "UTF8", "SQL_ASCII":
		return src, nil
	}
	e, ok := Codec(name)
	if !ok {
		return nil, fmt.Errorf("unknown client encoding %q", name)
	}
	out, err := e.NewDecoder().Bytes(src)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", NormalizeEncoding(name), err)
	}
	return out, nil
}

// EncodeText converts UTF-8 src to the named client encoding. UTF8 and
// SQL_ASCII return src unchanged.
func EncodeText(name string, src []byte) ([]byte, error) {
	switch NormalizeEncoding(name) {
	case "", "UTF8", "SQL_ASCII":
		return src, nil
	}
	e, ok := Codec(name)
	if !ok {
		return nil, fmt.Errorf("unknown client encoding %q", name)
	}
	out, err := e.NewEncoder().Bytes(src)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", NormalizeEncoding(name), err)
	}
	return out, nil
}
