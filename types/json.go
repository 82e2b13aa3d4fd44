package types

import (
	"fmt"
	"reflect"

	json "github.com/goccy/go-json"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// JSON wraps a value to be dumped as the json type. Any value accepted by
// json.Marshal works, including nil for the JSON null.
type JSON struct {
	Value interface{}
}

// JSONB wraps a value to be dumped as the jsonb type.
type JSONB struct {
	Value interface{}
}

const jsonbVersion = 1

func marshalJSONValue(v interface{}, buf []byte) ([]byte, error) {
	var inner interface{}
	switch w := v.(type) {
	case JSON:
		inner = w.Value
	case *JSON:
		if w == nil {
			return nil, nil
		}
		inner = w.Value
	case JSONB:
		inner = w.Value
	case *JSONB:
		if w == nil {
			return nil, nil
		}
		inner = w.Value
	default:
		return nil, fmt.Errorf("cannot dump %T as json", v)
	}
	out, err := json.Marshal(inner)
	if err != nil {
		return nil, err
	}
	return append(buf, out...), nil
}

// JSONDumper dumps JSON wrapper values. The json type has no distinct binary
// representation so one dumper serves both formats.
type JSONDumper struct {
	format pq.Format
}

// NewJSONDumper is the registered constructor for the text format JSONDumper.
func NewJSONDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return JSONDumper{format: pq.TextFormat}
}

// NewJSONBinaryDumper is the registered constructor for the binary format
// JSONDumper.
func NewJSONBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return JSONDumper{format: pq.BinaryFormat}
}

func (d JSONDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	return marshalJSONValue(v, buf)
}

func (d JSONDumper) Oid() oids.Oid     { return oids.JSON }
func (d JSONDumper) Format() pq.Format { return d.format }

// JSONBDumper dumps JSONB wrapper values. The binary format carries a
// leading version byte before the payload.
type JSONBDumper struct {
	format pq.Format
}

// NewJSONBDumper is the registered constructor for the text format
// JSONBDumper.
func NewJSONBDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return JSONBDumper{format: pq.TextFormat}
}

// NewJSONBBinaryDumper is the registered constructor for the binary format
// JSONBDumper.
func NewJSONBBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return JSONBDumper{format: pq.BinaryFormat}
}

func (d JSONBDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	if d.format == pq.BinaryFormat {
		buf = append(buf, jsonbVersion)
	}
	out, err := marshalJSONValue(v, buf)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return out, nil
}

func (d JSONBDumper) Oid() oids.Oid     { return oids.JSONB }
func (d JSONBDumper) Format() pq.Format { return d.format }

// JSONLoader parses json and jsonb text data, and json binary data, which is
// plain json text as well.
type JSONLoader struct{}

// NewJSONLoader is the registered constructor for JSONLoader.
func NewJSONLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return JSONLoader{}
}

func (JSONLoader) Load(data []byte) (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return v, nil
}

// JSONBBinaryLoader parses binary jsonb data: a version byte followed by
// json text.
type JSONBBinaryLoader struct{}

// NewJSONBBinaryLoader is the registered constructor for JSONBBinaryLoader.
func NewJSONBBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return JSONBBinaryLoader{}
}

func (JSONBBinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("jsonb data is empty")
	}
	if data[0] != jsonbVersion {
		return nil, fmt.Errorf("unknown jsonb version byte: %d", data[0])
	}
	var v interface{}
	if err := json.Unmarshal(data[1:], &v); err != nil {
		return nil, fmt.Errorf("invalid jsonb: %w", err)
	}
	return v, nil
}

func init() {
	for _, v := range []interface{}{JSON{}, (*JSON)(nil)} {
		must(adapt.RegisterDumper(v, nil, pq.TextFormat, NewJSONDumper))
		must(adapt.RegisterBinaryDumper(v, nil, NewJSONBinaryDumper))
	}
	for _, v := range []interface{}{JSONB{}, (*JSONB)(nil)} {
		must(adapt.RegisterDumper(v, nil, pq.TextFormat, NewJSONBDumper))
		must(adapt.RegisterBinaryDumper(v, nil, NewJSONBBinaryDumper))
	}

	must(adapt.RegisterLoader(oids.JSON, nil, pq.TextFormat, NewJSONLoader))
	must(adapt.RegisterBinaryLoader(oids.JSON, nil, NewJSONLoader))
	must(adapt.RegisterLoader(oids.JSONB, nil, pq.TextFormat, NewJSONLoader))
	must(adapt.RegisterBinaryLoader(oids.JSONB, nil, NewJSONBBinaryLoader))
}
