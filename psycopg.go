package psycopg

import (
	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
	"github.com/The-One-And-Only-H/psycopg/types"
)

var (
	_ adapt.Conn   = (*Connection)(nil)
	_ adapt.Cursor = (*Cursor)(nil)
)

// Format identifies the wire representation of a value.
type Format = pq.Format

// Wire formats.
const (
	TextFormat   = pq.TextFormat
	BinaryFormat = pq.BinaryFormat
)

// Oid is a PostgreSQL object identifier.
type Oid = oids.Oid

// The adaptation engine, re-exported so most programs only import this
// package. The adapt package documents the semantics.
type (
	AdaptContext = adapt.AdaptContext
	Dumper       = adapt.Dumper
	Loader       = adapt.Loader
	BufferLoader = adapt.BufferLoader
	DumperFunc   = adapt.DumperFunc
	LoaderFunc   = adapt.LoaderFunc
	Transformer  = adapt.Transformer
)

// Errors reported by the engine.
type (
	UnsupportedTypeError     = adapt.UnsupportedTypeError
	InvalidRegistrationError = adapt.InvalidRegistrationError
	OutOfRangeRowError       = adapt.OutOfRangeRowError
	LoadFieldError           = adapt.LoadFieldError
)

// Go-side representations of types without a native Go equivalent.
type (
	Record           = types.Record
	Range            = types.Range
	JSON             = types.JSON
	JSONB            = types.JSONB
	Date             = types.Date
	Timestamp        = types.Timestamp
	CompositeInfo    = types.CompositeInfo
	FieldInfo        = types.FieldInfo
	CompositeFactory = types.CompositeFactory
)

// NewTransformer returns a transformer rooted at the given adaptation scope.
// ctx may be nil for a transformer over the process-wide registrations only.
func NewTransformer(ctx AdaptContext) *Transformer {
	return adapt.NewTransformer(ctx)
}

// RegisterDumper registers a dumper constructor in ctx's scope, or in the
// process-wide registry when ctx is nil.
func RegisterDumper(src interface{}, ctx AdaptContext, format Format, fn DumperFunc) error {
	return adapt.RegisterDumper(src, ctx, format, fn)
}

// RegisterLoader registers a loader constructor for a type OID in ctx's
// scope, or in the process-wide registry when ctx is nil.
func RegisterLoader(oid Oid, ctx AdaptContext, format Format, fn LoaderFunc) error {
	return adapt.RegisterLoader(oid, ctx, format, fn)
}

// RegisterComposite registers loaders for a composite type once its OIDs are
// known. See types.RegisterComposite.
func RegisterComposite(info CompositeInfo, ctx AdaptContext, factory CompositeFactory) error {
	return types.RegisterComposite(info, ctx, factory)
}

// Quote renders v as a SQL literal using d and esc, for client-side query
// composition and debugging output.
func Quote(d Dumper, esc *pq.Escaping, v interface{}) ([]byte, error) {
	return adapt.Quote(d, esc, v)
}
