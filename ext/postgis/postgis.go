// Package postgis adapts PostGIS geometry and geography values to and from
// github.com/twpayne/go-geom types.
//
// PostGIS allocates its type OIDs when the extension is installed, so
// nothing is registered by default: the caller queries the OIDs from pg_type
// and passes them to Register.
package postgis

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"reflect"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// Register installs dumpers for geom.T values and loaders for the geometry
// and geography column types in ctx's scope. geographyOid may be
// oids.InvalidOid when the database has no geography columns.
func Register(ctx adapt.AdaptContext, geometryOid, geographyOid oids.Oid) error {
	if geometryOid == oids.InvalidOid {
		return &adapt.InvalidRegistrationError{Reason: "geometry oid is required"}
	}

	if err := adapt.RegisterDumper((*geom.T)(nil), ctx, pq.TextFormat, newDumperFunc(geometryOid, pq.TextFormat)); err != nil {
		return err
	}
	if err := adapt.RegisterBinaryDumper((*geom.T)(nil), ctx, newDumperFunc(geometryOid, pq.BinaryFormat)); err != nil {
		return err
	}

	loaderOids := []oids.Oid{geometryOid}
	if geographyOid != oids.InvalidOid {
		loaderOids = append(loaderOids, geographyOid)
	}
	for _, oid := range loaderOids {
		if err := adapt.RegisterLoader(oid, ctx, pq.TextFormat, NewLoader); err != nil {
			return err
		}
		if err := adapt.RegisterBinaryLoader(oid, ctx, NewBinaryLoader); err != nil {
			return err
		}
	}
	return nil
}

func newDumperFunc(oid oids.Oid, format pq.Format) adapt.DumperFunc {
	return func(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
		return &Dumper{oid: oid, format: format}
	}
}

func asGeometry(v interface{}) (geom.T, bool, error) {
	g, ok := v.(geom.T)
	if !ok {
		return nil, false, fmt.Errorf("cannot dump %T as a PostGIS geometry", v)
	}
	rv := reflect.ValueOf(g)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, true, nil
	}
	return g, false, nil
}

// Dumper dumps geom.T geometries: hex EWKB in the text format, raw EWKB in
// the binary format. The SRID set on the geometry is carried along.
type Dumper struct {
	oid    oids.Oid
	format pq.Format
}

func (d *Dumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	g, null, err := asGeometry(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}

	data, err := ewkb.Marshal(g, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	if d.format == pq.BinaryFormat {
		return append(buf, data...), nil
	}
	return append(buf, hex.EncodeToString(data)...), nil
}

func (d *Dumper) Oid() oids.Oid     { return d.oid }
func (d *Dumper) Format() pq.Format { return d.format }

// Loader loads hex EWKB text data as a geom.T.
type Loader struct{}

// NewLoader is the registered constructor for Loader.
func NewLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Loader{}
}

func (Loader) Load(data []byte) (interface{}, error) {
	b, err := hex.DecodeString(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	g, err := ewkb.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	return g, nil
}

// BinaryLoader loads EWKB binary data as a geom.T.
type BinaryLoader struct{}

// NewBinaryLoader is the registered constructor for BinaryLoader.
func NewBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return BinaryLoader{}
}

func (BinaryLoader) Load(data []byte) (interface{}, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	return g, nil
}
