package adapt

import (
	"fmt"
	"reflect"

	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

type loaderCacheKey struct {
	oid    oids.Oid
	format pq.Format
	mod    int32
}

type rowLoader struct {
	load func(data []byte) (interface{}, error)
	// zero-copy entry, set when the loader implements BufferLoader
	view func(data []byte) (interface{}, error)
}

func makeRowLoader(l Loader) rowLoader {
	rl := rowLoader{load: l.Load}
	if bl, ok := l.(BufferLoader); ok {
		rl.view = bl.LoadBuffer
	}
	return rl
}

// Transformer adapts values between Go and PostgreSQL.
//
// Its life cycle is the query: it assumes the connection's encoding and
// server version do not change underneath it, and it caches every dumper and
// loader it resolves so adapting many values of the same type does the
// registry walk once.
//
// A Transformer is not safe for concurrent use. A Transformer built from
// another Transformer shares the parent's registries and caches and must
// stay on the parent's goroutine.
type Transformer struct {
	conn     Conn
	encoding string

	// head registries: registrations on this Transformer alone
	dumpers *DumpersMap
	loaders *LoadersMap

	// scope chains, most specific first, process-wide scope last
	dumpersChain []*DumpersMap
	loadersChain []*LoadersMap

	dumpersCache map[dumperKey]Dumper
	loadersCache map[loaderCacheKey]Loader

	res        pq.Result
	nfields    int
	ntuples    int
	rowLoaders []rowLoader
}

// NewTransformer returns a Transformer for an adaptation context: nil to use
// only the process-wide registries, a Conn, a Cursor, or another
// Transformer. Building from another Transformer is the setup for nested
// types: the child shares the parent's full state.
func NewTransformer(ctx AdaptContext) *Transformer {
	t := &Transformer{}

	switch c := ctx.(type) {
	case *Transformer:
		t.conn = c.conn
		t.encoding = c.encoding
		t.dumpers = c.dumpers
		t.loaders = c.loaders
		t.dumpersChain = c.dumpersChain
		t.loadersChain = c.loadersChain
		t.dumpersCache = c.dumpersCache
		t.loadersCache = c.loadersCache
		return t
	case Cursor:
		t.conn = c.Conn()
		t.dumpers = NewDumpersMap()
		t.loaders = NewLoadersMap()
		t.dumpersChain = []*DumpersMap{t.dumpers, c.Dumpers()}
		t.loadersChain = []*LoadersMap{t.loaders, c.Loaders()}
		if t.conn != nil {
			t.dumpersChain = append(t.dumpersChain, t.conn.Dumpers())
			t.loadersChain = append(t.loadersChain, t.conn.Loaders())
		}
	case Conn:
		t.conn = c
		t.dumpers = NewDumpersMap()
		t.loaders = NewLoadersMap()
		t.dumpersChain = []*DumpersMap{t.dumpers, c.Dumpers()}
		t.loadersChain = []*LoadersMap{t.loaders, c.Loaders()}
	case nil:
		t.dumpers = NewDumpersMap()
		t.loaders = NewLoadersMap()
		t.dumpersChain = []*DumpersMap{t.dumpers}
		t.loadersChain = []*LoadersMap{t.loaders}
	default:
		// Any other AdaptContext contributes its own registries.
		t.dumpers = NewDumpersMap()
		t.loaders = NewLoadersMap()
		t.dumpersChain = []*DumpersMap{t.dumpers, ctx.Dumpers()}
		t.loadersChain = []*LoadersMap{t.loaders, ctx.Loaders()}
	}

	if t.conn != nil {
		if e := t.conn.ClientEncoding(); e != "" {
			t.encoding = pq.NormalizeEncoding(e)
		}
	}
	if t.encoding == "" {
		t.encoding = "UTF8"
	}

	t.dumpersChain = append(t.dumpersChain, globalDumpers)
	t.loadersChain = append(t.loadersChain, globalLoaders)
	t.dumpersCache = make(map[dumperKey]Dumper)
	t.loadersCache = make(map[loaderCacheKey]Loader)
	return t
}

// Connection returns the connection this Transformer was built from, or nil.
func (t *Transformer) Connection() Conn { return t.conn }

// Encoding returns the normalized client encoding in effect, "UTF8" when no
// connection is involved.
func (t *Transformer) Encoding() string { return t.encoding }

// Dumpers returns the Transformer's own head registry. Registrations on it
// shadow every other scope but live only as long as the Transformer.
func (t *Transformer) Dumpers() *DumpersMap { return t.dumpers }

// Loaders returns the Transformer's own head registry.
func (t *Transformer) Loaders() *LoadersMap { return t.loaders }

// Result returns the attached result, or nil.
func (t *Transformer) Result() pq.Result { return t.res }

// Predeclared types for the basic kinds, used to map a named type to its
// underlying type during dumper resolution.
var kindTypes = map[reflect.Kind]reflect.Type{
	reflect.Bool:    reflect.TypeOf(false),
	reflect.Int:     reflect.TypeOf(int(0)),
	reflect.Int8:    reflect.TypeOf(int8(0)),
	reflect.Int16:   reflect.TypeOf(int16(0)),
	reflect.Int32:   reflect.TypeOf(int32(0)),
	reflect.Int64:   reflect.TypeOf(int64(0)),
	reflect.Uint:    reflect.TypeOf(uint(0)),
	reflect.Uint8:   reflect.TypeOf(uint8(0)),
	reflect.Uint16:  reflect.TypeOf(uint16(0)),
	reflect.Uint32:  reflect.TypeOf(uint32(0)),
	reflect.Uint64:  reflect.TypeOf(uint64(0)),
	reflect.Float32: reflect.TypeOf(float32(0)),
	reflect.Float64: reflect.TypeOf(float64(0)),
	reflect.String:  reflect.TypeOf(""),
}

// typeCandidates returns the concrete types a dumper registration may match
// for typ, most specific first: typ itself, then its underlying type when
// typ is a named type. A dumper registered for the underlying type adapts
// every type derived from it, the way one registered for a base adapts its
// subtypes. Interface registrations are matched separately.
func typeCandidates(typ reflect.Type) []reflect.Type {
	candidates := []reflect.Type{typ}
	if typ.Name() == "" {
		return candidates
	}
	switch typ.Kind() {
	case reflect.Slice:
		candidates = append(candidates, reflect.SliceOf(typ.Elem()))
	case reflect.Map:
		candidates = append(candidates, reflect.MapOf(typ.Key(), typ.Elem()))
	default:
		if u, ok := kindTypes[typ.Kind()]; ok && u != typ {
			candidates = append(candidates, u)
		}
	}
	return candidates
}

// GetDumper resolves a dumper able to convert v to the given wire format.
// Repeated resolutions for the same type and format return the identical
// instance. It fails with *UnsupportedTypeError when no registration in any
// scope covers the value's type.
func (t *Transformer) GetDumper(v interface{}, format pq.Format) (Dumper, error) {
	if v == nil {
		return nil, &UnsupportedTypeError{Format: format}
	}
	return t.GetDumperForType(reflect.TypeOf(v), format)
}

// GetDumperForType is GetDumper for an explicit reflect.Type.
func (t *Transformer) GetDumperForType(typ reflect.Type, format pq.Format) (Dumper, error) {
	if typ == nil {
		return nil, &UnsupportedTypeError{Format: format}
	}

	key := dumperKey{typ: typ, format: format}
	if d, ok := t.dumpersCache[key]; ok {
		return d, nil
	}

	candidates := typeCandidates(typ)

	// Walk the scopes from the most specific to the most generic. Within a
	// scope the exact type wins over the underlying type, which wins over
	// interface registrations in their registration order.
	for _, dmap := range t.dumpersChain {
		for _, c := range candidates {
			if d, ok := t.cachedDumper(c, format, key); ok {
				return d, nil
			}
			if fn, ok := dmap.typeEntry(c, format); ok {
				return t.buildDumper(fn, c, format, key), nil
			}
		}
		for _, entry := range dmap.interfaceEntries(format) {
			if !typ.Implements(entry.typ) {
				continue
			}
			if d, ok := t.cachedDumper(entry.typ, format, key); ok {
				return d, nil
			}
			return t.buildDumper(entry.fn, entry.typ, format, key), nil
		}
	}

	// Fall back to reflect type names so dumpers can be registered for types
	// from packages this module does not import. The type key is backfilled
	// into the registry that held the name, making the next resolution a
	// plain type lookup.
	for _, dmap := range t.dumpersChain {
		for _, c := range candidates {
			fn, ok := dmap.nameEntry(c.String(), format)
			if !ok {
				continue
			}
			dmap.registerType(c, format, fn)
			return t.buildDumper(fn, c, format, key), nil
		}
	}

	return nil, &UnsupportedTypeError{Type: typ, Format: format}
}

// cachedDumper checks the cache under the key of a candidate type and, on a
// hit, records the queried type as resolving to the same instance.
func (t *Transformer) cachedDumper(c reflect.Type, format pq.Format, queryKey dumperKey) (Dumper, bool) {
	d, ok := t.dumpersCache[dumperKey{typ: c, format: format}]
	if ok {
		t.dumpersCache[queryKey] = d
	}
	return d, ok
}

func (t *Transformer) buildDumper(fn DumperFunc, matched reflect.Type, format pq.Format, queryKey dumperKey) Dumper {
	d := fn(matched, t)
	t.dumpersCache[dumperKey{typ: matched, format: format}] = d
	t.dumpersCache[queryKey] = d
	return d
}

// GetLoader resolves a loader for a result column type. Resolution cannot
// fail: a column type with no registration in any scope falls back to the
// loader registered under oids.InvalidOid for the format, and as a last
// resort to one handing the raw bytes through. Repeated resolutions for the
// same oid, format and modifier return the identical instance.
func (t *Transformer) GetLoader(oid oids.Oid, format pq.Format, mod int32) Loader {
	key := loaderCacheKey{oid: oid, format: format, mod: mod}
	if l, ok := t.loadersCache[key]; ok {
		return l
	}

	var fn LoaderFunc
	found := false
	for _, lmap := range t.loadersChain {
		if fn, found = lmap.entry(oid, format); found {
			break
		}
	}
	if !found {
		if fn, found = globalLoaders.entry(oids.InvalidOid, format); !found {
			fn = newRawLoader
		}
	}

	l := fn(oid, mod, t)
	t.loadersCache[key] = l
	return l
}

// SetResult attaches a query result and configures one row loader per
// column, resolved eagerly from the result's row description. Passing nil
// detaches the current result.
func (t *Transformer) SetResult(res pq.Result) {
	t.res = res
	if res == nil {
		t.nfields = 0
		t.ntuples = 0
		t.rowLoaders = nil
		return
	}

	t.nfields = res.NFields()
	t.ntuples = res.NTuples()

	cols := make([]pq.ColumnType, t.nfields)
	for i := range cols {
		cols[i] = res.ColumnType(i)
	}
	t.SetRowTypes(cols)
}

// SetRowTypes configures the row loaders for the given column types,
// resolving each loader eagerly. It is what SetResult uses internally and
// what standalone decoding with LoadSequence builds on.
func (t *Transformer) SetRowTypes(cols []pq.ColumnType) {
	rls := make([]rowLoader, len(cols))
	for i, ct := range cols {
		rls[i] = makeRowLoader(t.GetLoader(ct.Oid, ct.Format, ct.Mod))
	}
	t.rowLoaders = rls
}

// LoadRow decodes row number row of the attached result. SQL NULL cells
// decode to nil; zero-length cells decode through their loader like any
// other value. Values produced by zero-copy loaders may alias the result's
// storage.
//
// A row index outside the attached result, including any index when no
// result is attached, fails with *OutOfRangeRowError. A loader failure fails
// with *LoadFieldError and no partial row is returned.
func (t *Transformer) LoadRow(row int) ([]interface{}, error) {
	if t.res == nil || row < 0 || row >= t.ntuples {
		return nil, &OutOfRangeRowError{Row: row, NTuples: t.ntuples}
	}
	if len(t.rowLoaders) != t.nfields {
		return nil, fmt.Errorf("transformer has %d row loaders for %d result columns", len(t.rowLoaders), t.nfields)
	}

	record := make([]interface{}, t.nfields)
	for col := 0; col < t.nfields; col++ {
		data := t.res.Value(row, col)
		if data == nil {
			continue
		}

		rl := &t.rowLoaders[col]
		var v interface{}
		var err error
		if rl.view != nil {
			v, err = rl.view(data)
		} else {
			owned := make([]byte, len(data))
			copy(owned, data)
			v, err = rl.load(owned)
		}
		if err != nil {
			return nil, &LoadFieldError{Field: col, Err: err}
		}
		record[col] = v
	}
	return record, nil
}

// LoadSequence decodes a standalone record, such as the fields of a
// composite value, with the row loaders configured by SetRowTypes. nil
// values decode to nil. Each value is copied before decoding, so record may
// be backed by transient buffers.
func (t *Transformer) LoadSequence(record [][]byte) ([]interface{}, error) {
	out := make([]interface{}, len(record))
	for i, data := range record {
		if data == nil {
			continue
		}
		if i >= len(t.rowLoaders) {
			return nil, fmt.Errorf("no row loader for field %d: %d row types configured", i, len(t.rowLoaders))
		}

		owned := make([]byte, len(data))
		copy(owned, data)
		v, err := t.rowLoaders[i].load(owned)
		if err != nil {
			return nil, &LoadFieldError{Field: i, Err: err}
		}
		out[i] = v
	}
	return out, nil
}
