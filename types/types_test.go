package types

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

type fakeConn struct {
	dumpers  *adapt.DumpersMap
	loaders  *adapt.LoadersMap
	encoding string
	esc      *pq.Escaping
}

func newFakeConn(encoding string) *fakeConn {
	return &fakeConn{
		dumpers:  adapt.NewDumpersMap(),
		loaders:  adapt.NewLoadersMap(),
		encoding: encoding,
	}
}

func (c *fakeConn) Dumpers() *adapt.DumpersMap { return c.dumpers }
func (c *fakeConn) Loaders() *adapt.LoadersMap { return c.loaders }
func (c *fakeConn) ClientEncoding() string     { return c.encoding }

func (c *fakeConn) Escaping() *pq.Escaping {
	if c.esc == nil {
		c.esc = pq.NewEscaping(nil)
	}
	return c.esc
}

// dumpValue resolves a dumper for v through a fresh transformer and dumps it.
func dumpValue(t *testing.T, ctx adapt.AdaptContext, v interface{}, format pq.Format) []byte {
	t.Helper()
	tx := adapt.NewTransformer(ctx)
	d, err := tx.GetDumper(v, format)
	require.NoError(t, err)
	out, err := d.Dump(v, nil)
	require.NoError(t, err)
	return out
}

// loadValue resolves a loader for a column type through a fresh transformer
// and loads data with it.
func loadValue(t *testing.T, ctx adapt.AdaptContext, oid oids.Oid, format pq.Format, data []byte) interface{} {
	t.Helper()
	v, err := loadValueErr(ctx, oid, format, data)
	require.NoError(t, err)
	return v
}

func loadValueErr(ctx adapt.AdaptContext, oid oids.Oid, format pq.Format, data []byte) (interface{}, error) {
	tx := adapt.NewTransformer(ctx)
	owned := make([]byte, len(data))
	copy(owned, data)
	return tx.GetLoader(oid, format, -1).Load(owned)
}
