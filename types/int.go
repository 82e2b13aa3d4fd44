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

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	}
	return 0, false
}

func asUint64(v interface{}) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	}
	return 0, false
}

// IntDumper dumps signed integers in the text format. The declared OID
// matches the width of the Go type the dumper was resolved for.
type IntDumper struct {
	oid oids.Oid
}

// NewIntDumper is the registered constructor for IntDumper.
func NewIntDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return &IntDumper{oid: intOidForType(typ)}
}

func intOidForType(typ reflect.Type) oids.Oid {
	switch typ.Kind() {
	case reflect.Int8, reflect.Int16:
		return oids.Int2
	case reflect.Int32:
		return oids.Int4
	default:
		return oids.Int8
	}
}

func (d *IntDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	n, ok := asInt64(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as integer", v)
	}
	return strconv.AppendInt(buf, n, 10), nil
}

func (d *IntDumper) Oid() oids.Oid     { return d.oid }
func (d *IntDumper) Format() pq.Format { return pq.TextFormat }

// IntBinaryDumper dumps signed integers in the binary format at the width of
// their declared OID.
type IntBinaryDumper struct {
	oid oids.Oid
}

// NewIntBinaryDumper is the registered constructor for IntBinaryDumper.
func NewIntBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return &IntBinaryDumper{oid: intOidForType(typ)}
}

func (d *IntBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	n, ok := asInt64(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as integer", v)
	}
	switch d.oid {
	case oids.Int2:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, fmt.Errorf("%d is out of range for int2", n)
		}
		return pgio.AppendInt16(buf, int16(n)), nil
	case oids.Int4:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%d is out of range for int4", n)
		}
		return pgio.AppendInt32(buf, int32(n)), nil
	default:
		return pgio.AppendInt64(buf, n), nil
	}
}

func (d *IntBinaryDumper) Oid() oids.Oid     { return d.oid }
func (d *IntBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// UintDumper dumps unsigned integers in the text format. Values above the
// int8 range are declared as numeric.
type UintDumper struct {
	oid oids.Oid
}

// NewUintDumper is the registered constructor for UintDumper.
func NewUintDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	switch typ.Kind() {
	case reflect.Uint8, reflect.Uint16:
		return &UintDumper{oid: oids.Int4}
	case reflect.Uint32:
		return &UintDumper{oid: oids.Int8}
	default:
		return &UintDumper{oid: oids.Numeric}
	}
}

func (d *UintDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	n, ok := asUint64(v)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as integer", v)
	}
	return strconv.AppendUint(buf, n, 10), nil
}

func (d *UintDumper) Oid() oids.Oid     { return d.oid }
func (d *UintDumper) Format() pq.Format { return pq.TextFormat }

// Int2Loader loads int2 columns as int16.
type Int2Loader struct{}

// NewInt2Loader is the registered constructor for Int2Loader.
func NewInt2Loader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Int2Loader{}
}

func (Int2Loader) Load(data []byte) (interface{}, error) {
	n, err := strconv.ParseInt(string(data), 10, 16)
	if err != nil {
		return nil, err
	}
	return int16(n), nil
}

// Int2BinaryLoader loads binary int2 columns as int16.
type Int2BinaryLoader struct{}

// NewInt2BinaryLoader is the registered constructor for Int2BinaryLoader.
func NewInt2BinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Int2BinaryLoader{}
}

func (Int2BinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("invalid length for int2: %v", len(data))
	}
	return int16(binary.BigEndian.Uint16(data)), nil
}

// Int4Loader loads int4 columns as int32.
type Int4Loader struct{}

// NewInt4Loader is the registered constructor for Int4Loader.
func NewInt4Loader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Int4Loader{}
}

func (Int4Loader) Load(data []byte) (interface{}, error) {
	n, err := strconv.ParseInt(string(data), 10, 32)
	if err != nil {
		return nil, err
	}
	return int32(n), nil
}

// Int4BinaryLoader loads binary int4 columns as int32.
type Int4BinaryLoader struct{}

// NewInt4BinaryLoader is the registered constructor for Int4BinaryLoader.
func NewInt4BinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Int4BinaryLoader{}
}

func (Int4BinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("invalid length for int4: %v", len(data))
	}
	return int32(binary.BigEndian.Uint32(data)), nil
}

// Int8Loader loads int8 columns as int64.
type Int8Loader struct{}

// NewInt8Loader is the registered constructor for Int8Loader.
func NewInt8Loader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Int8Loader{}
}

func (Int8Loader) Load(data []byte) (interface{}, error) {
	return strconv.ParseInt(string(data), 10, 64)
}

// Int8BinaryLoader loads binary int8 columns as int64.
type Int8BinaryLoader struct{}

// NewInt8BinaryLoader is the registered constructor for Int8BinaryLoader.
func NewInt8BinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Int8BinaryLoader{}
}

func (Int8BinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("invalid length for int8: %v", len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), nil
}

// OidLoader loads oid columns as uint32.
type OidLoader struct{}

// NewOidLoader is the registered constructor for OidLoader.
func NewOidLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return OidLoader{}
}

func (OidLoader) Load(data []byte) (interface{}, error) {
	n, err := strconv.ParseUint(string(data), 10, 32)
	if err != nil {
		return nil, err
	}
	return uint32(n), nil
}

// OidBinaryLoader loads binary oid columns as uint32.
type OidBinaryLoader struct{}

// NewOidBinaryLoader is the registered constructor for OidBinaryLoader.
func NewOidBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return OidBinaryLoader{}
}

func (OidBinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("invalid length for oid: %v", len(data))
	}
	return binary.BigEndian.Uint32(data), nil
}

func init() {
	for _, v := range []interface{}{int(0), int8(0), int16(0), int32(0), int64(0)} {
		must(adapt.RegisterDumper(v, nil, pq.TextFormat, NewIntDumper))
		must(adapt.RegisterBinaryDumper(v, nil, NewIntBinaryDumper))
	}
	for _, v := range []interface{}{uint(0), uint8(0), uint16(0), uint32(0), uint64(0)} {
		must(adapt.RegisterDumper(v, nil, pq.TextFormat, NewUintDumper))
	}

	must(adapt.RegisterLoader(oids.Int2, nil, pq.TextFormat, NewInt2Loader))
	must(adapt.RegisterBinaryLoader(oids.Int2, nil, NewInt2BinaryLoader))
	must(adapt.RegisterLoader(oids.Int4, nil, pq.TextFormat, NewInt4Loader))
	must(adapt.RegisterBinaryLoader(oids.Int4, nil, NewInt4BinaryLoader))
	must(adapt.RegisterLoader(oids.Int8, nil, pq.TextFormat, NewInt8Loader))
	must(adapt.RegisterBinaryLoader(oids.Int8, nil, NewInt8BinaryLoader))
	must(adapt.RegisterLoader(oids.OidOid, nil, pq.TextFormat, NewOidLoader))
	must(adapt.RegisterBinaryLoader(oids.OidOid, nil, NewOidBinaryLoader))
}
