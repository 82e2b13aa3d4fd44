package types

import (
	"fmt"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// FieldInfo describes one attribute of a composite type.
type FieldInfo struct {
	Name string
	Oid  oids.Oid
}

// CompositeInfo describes a composite type as found in the catalog: pg_type
// name and OIDs plus the attributes in declaration order. Fetching it is the
// caller's business, adaptation only consumes it.
type CompositeInfo struct {
	Name     string
	Oid      oids.Oid
	ArrayOid oids.Oid
	Fields   []FieldInfo
}

// CompositeFactory builds the Go value for a composite occurrence from its
// loaded field values, one per declared field.
type CompositeFactory func(values []interface{}) (interface{}, error)

// mapFactory is the default factory: a map of field name to value.
func mapFactory(info CompositeInfo) CompositeFactory {
	return func(values []interface{}) (interface{}, error) {
		if len(values) != len(info.Fields) {
			return nil, fmt.Errorf("composite %s has %d fields, got %d values",
				info.Name, len(info.Fields), len(values))
		}
		m := make(map[string]interface{}, len(values))
		for i, v := range values {
			m[info.Fields[i].Name] = v
		}
		return m, nil
	}
}

// RegisterComposite installs loaders for a composite type described by info,
// in both formats, into ctx's registries or the process-wide ones when ctx
// is nil. A nil factory labels the field values with their names in a map.
func RegisterComposite(info CompositeInfo, ctx adapt.AdaptContext, factory CompositeFactory) error {
	if info.Oid == oids.InvalidOid {
		return &adapt.InvalidRegistrationError{
			Reason: fmt.Sprintf("composite type %q has no oid", info.Name),
		}
	}
	if factory == nil {
		factory = mapFactory(info)
	}

	fieldOids := make([]oids.Oid, len(info.Fields))
	for i, f := range info.Fields {
		fieldOids[i] = f.Oid
	}

	err := adapt.RegisterLoader(info.Oid, ctx, pq.TextFormat,
		func(oid oids.Oid, mod int32, c adapt.AdaptContext) adapt.Loader {
			return &CompositeLoader{
				tx:      adapt.NewTransformer(c),
				fields:  fieldOids,
				factory: factory,
			}
		})
	if err != nil {
		return err
	}
	return adapt.RegisterBinaryLoader(info.Oid, ctx,
		func(oid oids.Oid, mod int32, c adapt.AdaptContext) adapt.Loader {
			return &CompositeBinaryLoader{
				rec:     &RecordBinaryLoader{tx: adapt.NewTransformer(c)},
				factory: factory,
			}
		})
}

// CompositeLoader loads the text format of one registered composite type.
// Unlike the anonymous record loader it knows the field OIDs, so fields load
// through their own types' loaders.
type CompositeLoader struct {
	tx       *adapt.Transformer
	fields   []oids.Oid
	factory  CompositeFactory
	typesSet bool
}

func (l *CompositeLoader) Load(data []byte) (interface{}, error) {
	tokens, err := parseRecordText(data)
	if err != nil {
		return nil, err
	}

	if !l.typesSet {
		cols := make([]pq.ColumnType, len(l.fields))
		for i, oid := range l.fields {
			cols[i] = pq.ColumnType{Oid: oid, Format: pq.TextFormat, Mod: -1}
		}
		l.tx.SetRowTypes(cols)
		l.typesSet = true
	}

	values, err := l.tx.LoadSequence(tokens)
	if err != nil {
		return nil, err
	}
	return l.factory(values)
}

// CompositeBinaryLoader loads the binary format of one registered composite
// type. Field OIDs come from the wire data itself.
type CompositeBinaryLoader struct {
	rec     *RecordBinaryLoader
	factory CompositeFactory
}

func (l *CompositeBinaryLoader) Load(data []byte) (interface{}, error) {
	rec, err := l.rec.Load(data)
	if err != nil {
		return nil, err
	}
	return l.factory(rec.(Record))
}
