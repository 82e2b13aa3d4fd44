package psycopg_test

import (
	"bytes"
	"testing"

	"github.com/jackc/pgproto3/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	psycopg "github.com/The-One-And-Only-H/psycopg"
	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func newTestConnection(t *testing.T) *psycopg.Connection {
	t.Helper()
	conn, err := psycopg.NewConnection(psycopg.Config{})
	require.NoError(t, err)
	return conn
}

// twoColumnResult has an int4 binary column and a text column, two rows plus
// a row of NULL and empty string.
func twoColumnResult() *pq.ResultBuffer {
	fields := []pgproto3.FieldDescription{
		pq.NewFieldDescription("n", oids.Int4, pq.BinaryFormat),
		pq.NewFieldDescription("s", oids.Text, pq.TextFormat),
	}
	return pq.NewResultBuffer(fields, [][][]byte{
		{{0, 0, 0, 7}, []byte("hello")},
		{{0xff, 0xff, 0xff, 0xff}, []byte("world")},
		{nil, {}},
	})
}

func TestCursorRow(t *testing.T) {
	cur := newTestConnection(t).Cursor()
	cur.BindResult(twoColumnResult())

	values, err := cur.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(7), "hello"}, values)

	values, err = cur.Row(2)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{nil, ""}, values)
}

func TestCursorValues(t *testing.T) {
	cur := newTestConnection(t).Cursor()
	cur.BindResult(twoColumnResult())

	rows, err := cur.Values()
	require.NoError(t, err)
	assert.Equal(t, [][]interface{}{
		{int32(7), "hello"},
		{int32(-1), "world"},
		{nil, ""},
	}, rows)
}

func TestCursorNoResult(t *testing.T) {
	cur := newTestConnection(t).Cursor()

	_, err := cur.Row(0)
	assert.ErrorIs(t, err, psycopg.ErrNoResult)
	_, err = cur.Values()
	assert.ErrorIs(t, err, psycopg.ErrNoResult)
	err = cur.ArchiveTo(&bytes.Buffer{})
	assert.ErrorIs(t, err, psycopg.ErrNoResult)
}

func TestCursorRowOutOfRange(t *testing.T) {
	cur := newTestConnection(t).Cursor()
	cur.BindResult(twoColumnResult())

	_, err := cur.Row(3)
	var rangeErr *psycopg.OutOfRangeRowError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 3, rangeErr.Row)
}

func TestCursorScopedLoader(t *testing.T) {
	conn := newTestConnection(t)
	cur := conn.Cursor()

	err := adapt.RegisterLoader(oids.Text, cur, pq.TextFormat, func(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
		return adapt.LoadFunc(func(data []byte) (interface{}, error) {
			return len(data), nil
		})
	})
	require.NoError(t, err)

	cur.BindResult(twoColumnResult())
	values, err := cur.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(7), 5}, values)

	// A sibling cursor on the same connection is not affected.
	other := conn.Cursor()
	other.BindResult(twoColumnResult())
	values, err = other.Row(0)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int32(7), "hello"}, values)
}

func TestCursorArchiveReplay(t *testing.T) {
	cur := newTestConnection(t).Cursor()
	cur.BindResult(twoColumnResult())

	var buf bytes.Buffer
	require.NoError(t, cur.ArchiveTo(&buf))

	replayed := newTestConnection(t).Cursor()
	require.NoError(t, replayed.ReplayFrom(&buf))

	want, err := cur.Values()
	require.NoError(t, err)
	got, err := replayed.Values()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	res, ok := replayed.Result().(*pq.ResultBuffer)
	require.True(t, ok)
	assert.Equal(t, "n", string(res.FieldDescriptions()[0].Name))
}

func TestCursorRowLoadErrorIsLogged(t *testing.T) {
	logger := &captureLogger{}
	conn, err := psycopg.NewConnection(psycopg.Config{
		Logger:   logger,
		LogLevel: psycopg.LogLevelError,
	})
	require.NoError(t, err)

	fields := []pgproto3.FieldDescription{
		pq.NewFieldDescription("n", oids.Int4, pq.BinaryFormat),
	}
	cur := conn.Cursor()
	cur.BindResult(pq.NewResultBuffer(fields, [][][]byte{
		{{0, 0, 0}},
	}))

	_, err = cur.Row(0)
	require.Error(t, err)
	var fieldErr *psycopg.LoadFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, 0, fieldErr.Field)

	e, ok := logger.find("row load failed")
	require.True(t, ok)
	assert.Equal(t, psycopg.LogLevelError, e.level)
	assert.Equal(t, 0, e.data["field"])
	assert.Equal(t, "000000", e.data["value"])
}

func TestCursorBindResultLogs(t *testing.T) {
	logger := &captureLogger{}
	conn, err := psycopg.NewConnection(psycopg.Config{
		Logger:   logger,
		LogLevel: psycopg.LogLevelDebug,
	})
	require.NoError(t, err)

	cur := conn.Cursor()
	cur.BindResult(twoColumnResult())

	e, ok := logger.find("result bound")
	require.True(t, ok)
	assert.Equal(t, 2, e.data["fields"])
	assert.Equal(t, 3, e.data["tuples"])
}
