// Package adapt converts values between Go and PostgreSQL wire
// representations.
//
// Conversions are performed by dumpers (Go value to wire bytes) and loaders
// (wire bytes to Go value). Constructors for both are registered in scope
// registries: process-wide, per connection, per cursor, or on a single
// Transformer. A Transformer resolves handlers through its chain of scopes,
// most specific first, and caches every resolution for the duration of the
// query it serves.
package adapt

import (
	"reflect"
	"sync"

	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// Dumper converts Go values to the wire representation of one PostgreSQL
// type in one format.
type Dumper interface {
	// Dump appends the wire representation of v to buf and returns the
	// extended buffer. Returning a nil buffer with a nil error stands for
	// SQL NULL.
	Dump(v interface{}, buf []byte) ([]byte, error)

	// Oid returns the type OID to declare for dumped parameters, or
	// oids.InvalidOid to let the server infer the type.
	Oid() oids.Oid

	// Format returns the wire format this dumper produces.
	Format() pq.Format
}

// Loader converts the wire representation of one PostgreSQL type in one
// format to a Go value.
type Loader interface {
	// Load converts data to a Go value. data is an owned buffer: the
	// implementation may retain or alias it. Load is never called for SQL
	// NULL, the row decoder maps NULL to nil itself.
	Load(data []byte) (interface{}, error)
}

// BufferLoader is implemented by loaders that can work directly on a buffer
// borrowed from result storage. LoadBuffer receives a slice that stays valid
// only as long as the result it came from, and the returned value may alias
// it. Row decoding uses it to skip a copy per cell.
type BufferLoader interface {
	Loader
	LoadBuffer(data []byte) (interface{}, error)
}

// LoadFunc adapts a plain function to the Loader interface.
type LoadFunc func(data []byte) (interface{}, error)

func (f LoadFunc) Load(data []byte) (interface{}, error) { return f(data) }

// DumperFunc builds a Dumper bound to the Go type the registration matched
// and to the resolving context.
type DumperFunc func(typ reflect.Type, ctx AdaptContext) Dumper

// LoaderFunc builds a Loader bound to a result column type and to the
// resolving context.
type LoaderFunc func(oid oids.Oid, mod int32, ctx AdaptContext) Loader

// AdaptContext is a scope handlers can be registered on and resolved from: a
// *Transformer, a Cursor, a Conn, or nil for the process-wide scope alone.
type AdaptContext interface {
	// Dumpers returns the scope's own dumper registry.
	Dumpers() *DumpersMap
	// Loaders returns the scope's own loader registry.
	Loaders() *LoadersMap
}

// Conn is the connection-level adaptation scope.
type Conn interface {
	AdaptContext

	// ClientEncoding returns the connection's client_encoding parameter
	// name, such as "UTF8".
	ClientEncoding() string
}

// Cursor is the cursor-level adaptation scope. Its registries shadow its
// connection's.
type Cursor interface {
	AdaptContext

	// Conn returns the cursor's connection.
	Conn() Conn
}

// ConnFromContext returns the connection behind an adaptation context, or
// nil when the context has none.
func ConnFromContext(ctx AdaptContext) Conn {
	switch c := ctx.(type) {
	case nil:
		return nil
	case *Transformer:
		return c.Connection()
	case Cursor:
		return c.Conn()
	case Conn:
		return c
	}
	return nil
}

type dumperKey struct {
	typ    reflect.Type
	format pq.Format
}

type dumperNameKey struct {
	name   string
	format pq.Format
}

type dumperEntry struct {
	typ reflect.Type
	fn  DumperFunc
}

// DumpersMap is one scope level of dumper registrations: Go types, type
// names, or interfaces mapped to dumper constructors, qualified by format.
// It is safe for concurrent use.
type DumpersMap struct {
	mu     sync.RWMutex
	byType map[dumperKey]DumperFunc
	byName map[dumperNameKey]DumperFunc
	// interface registrations in registration order, also present in byType
	ifaces []dumperKey
}

// NewDumpersMap returns an empty dumper registry.
func NewDumpersMap() *DumpersMap {
	return &DumpersMap{
		byType: make(map[dumperKey]DumperFunc),
		byName: make(map[dumperNameKey]DumperFunc),
	}
}

// Register maps src to the constructor fn for the given format. src may be:
//
//   - a reflect.Type, including interface types obtained with
//     reflect.TypeOf((*T)(nil)).Elem()
//   - a pointer to a nil interface such as (*fmt.Stringer)(nil)
//   - a qualified type name string such as "uuid.UUID", matched against
//     reflect type strings so the package defining the type need not be
//     imported
//   - any other value, standing for its own type
//
// A string is always taken as a type name; to register for the string type
// itself pass reflect.TypeOf(""). Later registrations replace earlier ones
// for the same key.
func (m *DumpersMap) Register(src interface{}, format pq.Format, fn DumperFunc) error {
	if fn == nil {
		return &InvalidRegistrationError{Reason: "dumper constructor is nil"}
	}

	switch s := src.(type) {
	case nil:
		return &InvalidRegistrationError{Reason: "dumpers are registered on types or type names, got nil"}
	case string:
		if s == "" {
			return &InvalidRegistrationError{Reason: "dumper type name is empty"}
		}
		m.mu.Lock()
		m.byName[dumperNameKey{name: s, format: format}] = fn
		m.mu.Unlock()
		return nil
	case reflect.Type:
		m.registerType(s, format, fn)
		return nil
	default:
		t := reflect.TypeOf(src)
		// (*T)(nil) registers for the interface type T.
		if t.Kind() == reflect.Ptr && t.Elem().Kind() == reflect.Interface {
			t = t.Elem()
		}
		m.registerType(t, format, fn)
		return nil
	}
}

func (m *DumpersMap) registerType(t reflect.Type, format pq.Format, fn DumperFunc) {
	key := dumperKey{typ: t, format: format}
	m.mu.Lock()
	if _, dup := m.byType[key]; !dup && t.Kind() == reflect.Interface {
		m.ifaces = append(m.ifaces, key)
	}
	m.byType[key] = fn
	m.mu.Unlock()
}

func (m *DumpersMap) typeEntry(t reflect.Type, format pq.Format) (DumperFunc, bool) {
	m.mu.RLock()
	fn, ok := m.byType[dumperKey{typ: t, format: format}]
	m.mu.RUnlock()
	return fn, ok
}

func (m *DumpersMap) nameEntry(name string, format pq.Format) (DumperFunc, bool) {
	m.mu.RLock()
	fn, ok := m.byName[dumperNameKey{name: name, format: format}]
	m.mu.RUnlock()
	return fn, ok
}

// interfaceEntries returns the interface registrations for a format in
// registration order.
func (m *DumpersMap) interfaceEntries(format pq.Format) []dumperEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.ifaces) == 0 {
		return nil
	}
	entries := make([]dumperEntry, 0, len(m.ifaces))
	for _, key := range m.ifaces {
		if key.format != format {
			continue
		}
		entries = append(entries, dumperEntry{typ: key.typ, fn: m.byType[key]})
	}
	return entries
}

type loaderRegKey struct {
	oid    oids.Oid
	format pq.Format
}

// LoadersMap is one scope level of loader registrations: result type OIDs
// mapped to loader constructors, qualified by format. It is safe for
// concurrent use.
type LoadersMap struct {
	mu sync.RWMutex
	m  map[loaderRegKey]LoaderFunc
}

// NewLoadersMap returns an empty loader registry.
func NewLoadersMap() *LoadersMap {
	return &LoadersMap{m: make(map[loaderRegKey]LoaderFunc)}
}

// Register maps a type OID to the constructor fn for the given format. A
// loader registered under oids.InvalidOid is the fallback for columns whose
// type has no registration. Later registrations replace earlier ones for the
// same key.
func (m *LoadersMap) Register(oid oids.Oid, format pq.Format, fn LoaderFunc) error {
	if fn == nil {
		return &InvalidRegistrationError{Reason: "loader constructor is nil"}
	}
	m.mu.Lock()
	m.m[loaderRegKey{oid: oid, format: format}] = fn
	m.mu.Unlock()
	return nil
}

func (m *LoadersMap) entry(oid oids.Oid, format pq.Format) (LoaderFunc, bool) {
	m.mu.RLock()
	fn, ok := m.m[loaderRegKey{oid: oid, format: format}]
	m.mu.RUnlock()
	return fn, ok
}

// The process-wide scope. Package init functions fill these; see the types
// package for the built-in registrations.
var (
	globalDumpers = NewDumpersMap()
	globalLoaders = NewLoadersMap()
)

// GlobalDumpers returns the process-wide dumper registry.
func GlobalDumpers() *DumpersMap { return globalDumpers }

// GlobalLoaders returns the process-wide loader registry.
func GlobalLoaders() *LoadersMap { return globalLoaders }

// RegisterDumper registers a dumper constructor for src in ctx's registry,
// or in the process-wide registry when ctx is nil. See DumpersMap.Register
// for the accepted src values.
func RegisterDumper(src interface{}, ctx AdaptContext, format pq.Format, fn DumperFunc) error {
	m := globalDumpers
	if ctx != nil {
		m = ctx.Dumpers()
	}
	return m.Register(src, format, fn)
}

// RegisterBinaryDumper is shorthand for RegisterDumper in the binary format.
func RegisterBinaryDumper(src interface{}, ctx AdaptContext, fn DumperFunc) error {
	return RegisterDumper(src, ctx, pq.BinaryFormat, fn)
}

// RegisterLoader registers a loader constructor for a type OID in ctx's
// registry, or in the process-wide registry when ctx is nil.
func RegisterLoader(oid oids.Oid, ctx AdaptContext, format pq.Format, fn LoaderFunc) error {
	m := globalLoaders
	if ctx != nil {
		m = ctx.Loaders()
	}
	return m.Register(oid, format, fn)
}

// RegisterBinaryLoader is shorthand for RegisterLoader in the binary format.
func RegisterBinaryLoader(oid oids.Oid, ctx AdaptContext, fn LoaderFunc) error {
	return RegisterLoader(oid, ctx, pq.BinaryFormat, fn)
}

// Quote renders v as a SQL literal: the value dumped with d and escaped with
// esc. It is meant for client-side query composition and debugging output.
func Quote(d Dumper, esc *pq.Escaping, v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("NULL"), nil
	}
	raw, err := d.Dump(v, nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return []byte("NULL"), nil
	}
	if esc == nil {
		esc = pq.NewEscaping(nil)
	}
	return esc.EscapeLiteral(raw), nil
}

// rawLoader is the loader of last resort: it hands the wire bytes through
// untouched. The types package replaces it with real fallbacks by
// registering under oids.InvalidOid.
type rawLoader struct{}

func (rawLoader) Load(data []byte) (interface{}, error) { return data, nil }

func newRawLoader(oids.Oid, int32, AdaptContext) Loader { return rawLoader{} }
