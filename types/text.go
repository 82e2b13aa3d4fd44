package types

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// dumperEncoding returns the encoding string values are dumped in: the
// connection's client encoding, except for SQL_ASCII databases which take
// UTF-8 as is.
func dumperEncoding(ctx adapt.AdaptContext) string {
	if conn := adapt.ConnFromContext(ctx); conn != nil {
		if enc := pq.NormalizeEncoding(conn.ClientEncoding()); enc != "SQL_ASCII" && enc != "" {
			return enc
		}
	}
	return "UTF8"
}

func asString(v interface{}) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// StringDumper dumps Go strings in the text format, converting them to the
// connection's client encoding.
type StringDumper struct {
	encoding string
}

// NewStringDumper is the registered constructor for StringDumper.
func NewStringDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return &StringDumper{encoding: dumperEncoding(ctx)}
}

func (d *StringDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	s, ok := asString(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as text", v)
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, fmt.Errorf("PostgreSQL text fields cannot contain NUL (0x00) bytes")
	}
	out, err := pq.EncodeText(d.encoding, []byte(s))
	if err != nil {
		return nil, err
	}
	if buf == nil && len(out) == 0 {
		// the empty string is a value, not NULL
		return []byte{}, nil
	}
	return append(buf, out...), nil
}

func (d *StringDumper) Oid() oids.Oid     { return oids.InvalidOid }
func (d *StringDumper) Format() pq.Format { return pq.TextFormat }

// StringBinaryDumper dumps Go strings in the binary format, which for text
// types is the same byte sequence without the NUL restriction applied client
// side.
type StringBinaryDumper struct {
	encoding string
}

// NewStringBinaryDumper is the registered constructor for StringBinaryDumper.
func NewStringBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return &StringBinaryDumper{encoding: dumperEncoding(ctx)}
}

func (d *StringBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	s, ok := asString(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as text", v)
	}
	out, err := pq.EncodeText(d.encoding, []byte(s))
	if err != nil {
		return nil, err
	}
	if buf == nil && len(out) == 0 {
		return []byte{}, nil
	}
	return append(buf, out...), nil
}

func (d *StringBinaryDumper) Oid() oids.Oid     { return oids.InvalidOid }
func (d *StringBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// TextLoader loads textual columns as strings in the connection's client
// encoding. On a SQL_ASCII database it returns the raw bytes undecoded.
type TextLoader struct {
	raw  bool
	dec  *encoding.Decoder
	name string
}

// NewTextLoader is the registered constructor for TextLoader.
func NewTextLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	l := &TextLoader{}
	enc := "UTF8"
	if conn := adapt.ConnFromContext(ctx); conn != nil {
		enc = pq.NormalizeEncoding(conn.ClientEncoding())
	}
	switch enc {
	case "SQL_ASCII":
		l.raw = true
	case "", "UTF8":
	default:
		l.name = enc
		if e, ok := pq.Codec(enc); ok {
			l.dec = e.NewDecoder()
		}
	}
	return l
}

func (l *TextLoader) Load(data []byte) (interface{}, error) {
	switch {
	case l.raw:
		return data, nil
	case l.dec != nil:
		out, err := l.dec.Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", l.name, err)
		}
		return string(out), nil
	case l.name != "":
		return nil, fmt.Errorf("unknown client encoding %q", l.name)
	default:
		return string(data), nil
	}
}

// LoadBuffer lets SQL_ASCII passthrough alias the result storage instead of
// copying every cell.
func (l *TextLoader) LoadBuffer(data []byte) (interface{}, error) {
	return l.Load(data)
}

// NameLoader loads catalog string types such as name and bpchar. Unlike
// TextLoader it decodes even on a SQL_ASCII database, since catalog names
// are in the server encoding regardless.
type NameLoader struct {
	name string
}

// NewNameLoader is the registered constructor for NameLoader.
func NewNameLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	l := &NameLoader{name: "UTF8"}
	if conn := adapt.ConnFromContext(ctx); conn != nil {
		if enc := pq.NormalizeEncoding(conn.ClientEncoding()); enc != "" && enc != "SQL_ASCII" {
			l.name = enc
		}
	}
	return l
}

func (l *NameLoader) Load(data []byte) (interface{}, error) {
	out, err := pq.DecodeText(l.name, data)
	if err != nil {
		return nil, err
	}
	return string(out), nil
}

func init() {
	stringType := reflect.TypeOf("")
	must(adapt.RegisterDumper(stringType, nil, pq.TextFormat, NewStringDumper))
	must(adapt.RegisterBinaryDumper(stringType, nil, NewStringBinaryDumper))

	for _, oid := range []oids.Oid{oids.Text, oids.Varchar} {
		must(adapt.RegisterLoader(oid, nil, pq.TextFormat, NewTextLoader))
		must(adapt.RegisterBinaryLoader(oid, nil, NewTextLoader))
	}
	// Fallback for result columns of unregistered types in the text format.
	must(adapt.RegisterLoader(oids.InvalidOid, nil, pq.TextFormat, NewTextLoader))

	for _, oid := range []oids.Oid{oids.Name, oids.BPChar} {
		must(adapt.RegisterLoader(oid, nil, pq.TextFormat, NewNameLoader))
		must(adapt.RegisterBinaryLoader(oid, nil, NewNameLoader))
	}
}
