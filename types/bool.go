package types

import (
	"fmt"
	"reflect"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func asBool(v interface{}) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Bool {
		return rv.Bool(), true
	}
	return false, false
}

// BoolDumper dumps bools in the text format as "t" or "f".
type BoolDumper struct{}

// NewBoolDumper is the registered constructor for BoolDumper.
func NewBoolDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return BoolDumper{}
}

func (BoolDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	b, ok := asBool(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as bool", v)
	}
	if b {
		return append(buf, 't'), nil
	}
	return append(buf, 'f'), nil
}

func (BoolDumper) Oid() oids.Oid     { return oids.Bool }
func (BoolDumper) Format() pq.Format { return pq.TextFormat }

// BoolBinaryDumper dumps bools in the binary format as one byte.
type BoolBinaryDumper struct{}

// NewBoolBinaryDumper is the registered constructor for BoolBinaryDumper.
func NewBoolBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return BoolBinaryDumper{}
}

func (BoolBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	b, ok := asBool(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as bool", v)
	}
	if b {
		return append(buf, 1), nil
	}
	return append(buf, 0), nil
}

func (BoolBinaryDumper) Oid() oids.Oid     { return oids.Bool }
func (BoolBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// BoolLoader loads text format bool.
type BoolLoader struct{}

// NewBoolLoader is the registered constructor for BoolLoader.
func NewBoolLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return BoolLoader{}
}

func (BoolLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("invalid length for bool: %v", len(data))
	}
	switch data[0] {
	case 't':
		return true, nil
	case 'f':
		return false, nil
	}
	return nil, fmt.Errorf("invalid bool text: %q", data)
}

// BoolBinaryLoader loads binary format bool.
type BoolBinaryLoader struct{}

// NewBoolBinaryLoader is the registered constructor for BoolBinaryLoader.
func NewBoolBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return BoolBinaryLoader{}
}

func (BoolBinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("invalid length for bool: %v", len(data))
	}
	return data[0] == 1, nil
}

func init() {
	must(adapt.RegisterDumper(false, nil, pq.TextFormat, NewBoolDumper))
	must(adapt.RegisterBinaryDumper(false, nil, NewBoolBinaryDumper))
	must(adapt.RegisterLoader(oids.Bool, nil, pq.TextFormat, NewBoolLoader))
	must(adapt.RegisterBinaryLoader(oids.Bool, nil, NewBoolBinaryLoader))
}
