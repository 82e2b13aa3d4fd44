package types

import (
	"fmt"
	"reflect"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// connEscaping returns the escaping helper of the context's connection when
// it exposes one, so bytea output tracks the server version.
func connEscaping(ctx adapt.AdaptContext) *pq.Escaping {
	if conn := adapt.ConnFromContext(ctx); conn != nil {
		if e, ok := conn.(interface{ Escaping() *pq.Escaping }); ok {
			return e.Escaping()
		}
	}
	return pq.NewEscaping(nil)
}

func asBytes(v interface{}) ([]byte, bool) {
	if b, ok := v.([]byte); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		return rv.Bytes(), true
	}
	return nil, false
}

// BytesDumper dumps []byte in the text format using the bytea escape syntax
// the connected server prefers.
type BytesDumper struct {
	esc *pq.Escaping
}

// NewBytesDumper is the registered constructor for BytesDumper.
func NewBytesDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return &BytesDumper{esc: connEscaping(ctx)}
}

func (d *BytesDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	b, ok := asBytes(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as bytea", v)
	}
	// a nil slice dumps as NULL, an allocated empty one as an empty value
	if b == nil {
		return nil, nil
	}
	out := d.esc.EscapeBytea(b)
	if buf == nil && len(out) == 0 {
		return []byte{}, nil
	}
	return append(buf, out...), nil
}

func (d *BytesDumper) Oid() oids.Oid     { return oids.Bytea }
func (d *BytesDumper) Format() pq.Format { return pq.TextFormat }

// BytesBinaryDumper dumps []byte in the binary format, which is the bytes
// themselves.
type BytesBinaryDumper struct{}

// NewBytesBinaryDumper is the registered constructor for BytesBinaryDumper.
func NewBytesBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return BytesBinaryDumper{}
}

func (BytesBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	b, ok := asBytes(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as bytea", v)
	}
	if b == nil {
		return nil, nil
	}
	if buf == nil && len(b) == 0 {
		return []byte{}, nil
	}
	return append(buf, b...), nil
}

func (BytesBinaryDumper) Oid() oids.Oid     { return oids.Bytea }
func (BytesBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// ByteaLoader loads text format bytea, accepting both the hex and the old
// escape syntax.
type ByteaLoader struct {
	esc *pq.Escaping
}

// NewByteaLoader is the registered constructor for ByteaLoader.
func NewByteaLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return &ByteaLoader{esc: pq.NewEscaping(nil)}
}

func (l *ByteaLoader) Load(data []byte) (interface{}, error) {
	return l.esc.UnescapeBytea(data)
}

// ByteaBinaryLoader loads binary format bytea, which is the bytes
// themselves. It also serves as the fallback for unknown column types in the
// binary format.
type ByteaBinaryLoader struct{}

// NewByteaBinaryLoader is the registered constructor for ByteaBinaryLoader.
func NewByteaBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return ByteaBinaryLoader{}
}

func (ByteaBinaryLoader) Load(data []byte) (interface{}, error) { return data, nil }

// LoadBuffer aliases the result storage: binary bytea needs no conversion at
// all.
func (ByteaBinaryLoader) LoadBuffer(data []byte) (interface{}, error) { return data, nil }

func init() {
	byteSliceType := reflect.TypeOf([]byte(nil))
	must(adapt.RegisterDumper(byteSliceType, nil, pq.TextFormat, NewBytesDumper))
	must(adapt.RegisterBinaryDumper(byteSliceType, nil, NewBytesBinaryDumper))

	must(adapt.RegisterLoader(oids.Bytea, nil, pq.TextFormat, NewByteaLoader))
	must(adapt.RegisterBinaryLoader(oids.Bytea, nil, NewByteaBinaryLoader))
	// Fallback for result columns of unregistered types in the binary
	// format.
	must(adapt.RegisterBinaryLoader(oids.InvalidOid, nil, NewByteaBinaryLoader))
}
