package types

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/jackc/pgio"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func asFloat64(v interface{}) (float64, bool) {
	switch f := v.(type) {
	case float32:
		return float64(f), true
	case float64:
		return f, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func appendFloatText(buf []byte, f float64, bits int) []byte {
	switch {
	case math.IsInf(f, 1):
		return append(buf, "Infinity"...)
	case math.IsInf(f, -1):
		return append(buf, "-Infinity"...)
	case math.IsNaN(f):
		return append(buf, "NaN"...)
	}
	return strconv.AppendFloat(buf, f, 'f', -1, bits)
}

// FloatDumper dumps floats in the text format, spelling the special values
// the way the server does.
type FloatDumper struct {
	oid  oids.Oid
	bits int
}

// NewFloatDumper is the registered constructor for FloatDumper.
func NewFloatDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	if typ.Kind() == reflect.Float32 {
		return &FloatDumper{oid: oids.Float4, bits: 32}
	}
	return &FloatDumper{oid: oids.Float8, bits: 64}
}

func (d *FloatDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	f, ok := asFloat64(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as float", v)
	}
	return appendFloatText(buf, f, d.bits), nil
}

func (d *FloatDumper) Oid() oids.Oid     { return d.oid }
func (d *FloatDumper) Format() pq.Format { return pq.TextFormat }

// FloatBinaryDumper dumps floats in the binary format: IEEE 754 big endian
// at the width of the declared OID.
type FloatBinaryDumper struct {
	oid oids.Oid
}

// NewFloatBinaryDumper is the registered constructor for FloatBinaryDumper.
func NewFloatBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	if typ.Kind() == reflect.Float32 {
		return &FloatBinaryDumper{oid: oids.Float4}
	}
	return &FloatBinaryDumper{oid: oids.Float8}
}

func (d *FloatBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	f, ok := asFloat64(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as float", v)
	}
	if d.oid == oids.Float4 {
		return pgio.AppendUint32(buf, math.Float32bits(float32(f))), nil
	}
	return pgio.AppendUint64(buf, math.Float64bits(f)), nil
}

func (d *FloatBinaryDumper) Oid() oids.Oid     { return d.oid }
func (d *FloatBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// Float4Loader loads float4 columns as float32.
type Float4Loader struct{}

// NewFloat4Loader is the registered constructor for Float4Loader.
func NewFloat4Loader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Float4Loader{}
}

func (Float4Loader) Load(data []byte) (interface{}, error) {
	f, err := strconv.ParseFloat(string(data), 32)
	if err != nil {
		return nil, err
	}
	return float32(f), nil
}

// Float4BinaryLoader loads binary float4 columns as float32.
type Float4BinaryLoader struct{}

// NewFloat4BinaryLoader is the registered constructor for Float4BinaryLoader.
func NewFloat4BinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Float4BinaryLoader{}
}

func (Float4BinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("invalid length for float4: %v", len(data))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(data)), nil
}

// Float8Loader loads float8 columns as float64.
type Float8Loader struct{}

// NewFloat8Loader is the registered constructor for Float8Loader.
func NewFloat8Loader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Float8Loader{}
}

func (Float8Loader) Load(data []byte) (interface{}, error) {
	return strconv.ParseFloat(string(data), 64)
}

// Float8BinaryLoader loads binary float8 columns as float64.
type Float8BinaryLoader struct{}

// NewFloat8BinaryLoader is the registered constructor for Float8BinaryLoader.
func NewFloat8BinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Float8BinaryLoader{}
}

func (Float8BinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("invalid length for float8: %v", len(data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}

func init() {
	for _, v := range []interface{}{float32(0), float64(0)} {
		must(adapt.RegisterDumper(v, nil, pq.TextFormat, NewFloatDumper))
		must(adapt.RegisterBinaryDumper(v, nil, NewFloatBinaryDumper))
	}

	must(adapt.RegisterLoader(oids.Float4, nil, pq.TextFormat, NewFloat4Loader))
	must(adapt.RegisterBinaryLoader(oids.Float4, nil, NewFloat4BinaryLoader))
	must(adapt.RegisterLoader(oids.Float8, nil, pq.TextFormat, NewFloat8Loader))
	must(adapt.RegisterBinaryLoader(oids.Float8, nil, NewFloat8BinaryLoader))
}
