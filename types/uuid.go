package types

import (
	"encoding/hex"
	"fmt"
	"reflect"

	"github.com/gofrs/uuid"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// asUUID converts v to a uuid.UUID. The dumpers are registered by type name
// so v may be any other library's 16 byte uuid.UUID as well.
func asUUID(v interface{}) (uuid.UUID, bool, error) {
	switch u := v.(type) {
	case uuid.UUID:
		return u, false, nil
	case *uuid.UUID:
		if u == nil {
			return uuid.UUID{}, true, nil
		}
		return *u, false, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return uuid.UUID{}, true, nil
		}
		rv = rv.Elem()
	}
	if rv.IsValid() && rv.Type().ConvertibleTo(uuidType) {
		return rv.Convert(uuidType).Interface().(uuid.UUID), false, nil
	}
	return uuid.UUID{}, false, fmt.Errorf("cannot dump %T as uuid", v)
}

// UUIDDumper dumps uuids in the text format as 32 hexadecimal digits.
type UUIDDumper struct{}

// NewUUIDDumper is the registered constructor for UUIDDumper.
func NewUUIDDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return UUIDDumper{}
}

func (UUIDDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	u, null, err := asUUID(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	out := make([]byte, 32)
	hex.Encode(out, u.Bytes())
	return append(buf, out...), nil
}

func (UUIDDumper) Oid() oids.Oid     { return oids.UUID }
func (UUIDDumper) Format() pq.Format { return pq.TextFormat }

// UUIDBinaryDumper dumps uuids in the binary format as the raw 16 bytes.
type UUIDBinaryDumper struct{}

// NewUUIDBinaryDumper is the registered constructor for UUIDBinaryDumper.
func NewUUIDBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return UUIDBinaryDumper{}
}

func (UUIDBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	u, null, err := asUUID(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return append(buf, u.Bytes()...), nil
}

func (UUIDBinaryDumper) Oid() oids.Oid     { return oids.UUID }
func (UUIDBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// UUIDLoader parses text format uuid values, with or without dashes.
type UUIDLoader struct{}

// NewUUIDLoader is the registered constructor for UUIDLoader.
func NewUUIDLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return UUIDLoader{}
}

func (UUIDLoader) Load(data []byte) (interface{}, error) {
	u, err := uuid.FromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid uuid: %w", err)
	}
	return u, nil
}

// UUIDBinaryLoader loads binary format uuid values.
type UUIDBinaryLoader struct{}

// NewUUIDBinaryLoader is the registered constructor for UUIDBinaryLoader.
func NewUUIDBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return UUIDBinaryLoader{}
}

func (UUIDBinaryLoader) Load(data []byte) (interface{}, error) {
	u, err := uuid.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid: %w", err)
	}
	return u, nil
}

func init() {
	// Registered by name so uuid.UUID types from other libraries match too.
	must(adapt.RegisterDumper("uuid.UUID", nil, pq.TextFormat, NewUUIDDumper))
	must(adapt.RegisterBinaryDumper("uuid.UUID", nil, NewUUIDBinaryDumper))
	must(adapt.RegisterDumper(reflect.TypeOf((*uuid.UUID)(nil)), nil, pq.TextFormat, NewUUIDDumper))
	must(adapt.RegisterBinaryDumper(reflect.TypeOf((*uuid.UUID)(nil)), nil, NewUUIDBinaryDumper))

	must(adapt.RegisterLoader(oids.UUID, nil, pq.TextFormat, NewUUIDLoader))
	must(adapt.RegisterBinaryLoader(oids.UUID, nil, NewUUIDBinaryLoader))
}
