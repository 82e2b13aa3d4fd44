package pq_test

import (
	"bytes"
	"testing"

	"github.com/jackc/pgproto3/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func testResult() *pq.ResultBuffer {
	fields := []pgproto3.FieldDescription{
		pq.NewFieldDescription("id", oids.Int4, pq.TextFormat),
		pq.NewFieldDescription("name", oids.Text, pq.TextFormat),
	}
	return pq.NewResultBuffer(fields, [][][]byte{
		{[]byte("1"), []byte("ada")},
		{[]byte("2"), nil},
		{[]byte("3"), []byte{}},
	})
}

func TestResultBufferAccessors(t *testing.T) {
	rb := testResult()

	assert.Equal(t, 2, rb.NFields())
	assert.Equal(t, 3, rb.NTuples())

	ct := rb.ColumnType(1)
	assert.Equal(t, oids.Text, ct.Oid)
	assert.Equal(t, pq.TextFormat, ct.Format)
	assert.Equal(t, int32(-1), ct.Mod)

	assert.Equal(t, []byte("ada"), rb.Value(0, 1))
	assert.Equal(t, 3, rb.Length(0, 1))
	assert.False(t, rb.IsNull(0, 1))

	// NULL is a nil cell, the empty string is a zero-length cell.
	assert.True(t, rb.IsNull(1, 1))
	assert.Nil(t, rb.Value(1, 1))
	assert.Equal(t, 0, rb.Length(1, 1))

	assert.False(t, rb.IsNull(2, 1))
	assert.NotNil(t, rb.Value(2, 1))
	assert.Equal(t, 0, rb.Length(2, 1))
}

func TestNewResultBufferRowWidthMismatch(t *testing.T) {
	fields := []pgproto3.FieldDescription{
		pq.NewFieldDescription("id", oids.Int4, pq.TextFormat),
	}
	assert.Panics(t, func() {
		pq.NewResultBuffer(fields, [][][]byte{{[]byte("1"), []byte("extra")}})
	})
}

func TestResultBufferStreamRoundTrip(t *testing.T) {
	rb := testResult()

	var buf bytes.Buffer
	_, err := rb.WriteTo(&buf)
	require.NoError(t, err)

	got, err := pq.ReadResultBuffer(&buf)
	require.NoError(t, err)

	require.Equal(t, rb.NFields(), got.NFields())
	require.Equal(t, rb.NTuples(), got.NTuples())
	assert.Equal(t, rb.FieldDescriptions(), got.FieldDescriptions())

	for row := 0; row < rb.NTuples(); row++ {
		for col := 0; col < rb.NFields(); col++ {
			assert.Equal(t, rb.IsNull(row, col), got.IsNull(row, col), "row %d col %d", row, col)
			assert.Equal(t, rb.Value(row, col), got.Value(row, col), "row %d col %d", row, col)
		}
	}

	// The empty cell must come back zero length but not NULL.
	assert.False(t, got.IsNull(2, 1))
	assert.Equal(t, 0, got.Length(2, 1))
}

func TestResultBufferCommandTag(t *testing.T) {
	rb := pq.NewResultBuffer(nil, nil)

	var buf bytes.Buffer
	_, err := rb.WriteTo(&buf)
	require.NoError(t, err)

	got, err := pq.ReadResultBuffer(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NFields())
	assert.Equal(t, 0, got.NTuples())
}

func TestReadResultBufferServerError(t *testing.T) {
	errResp := pgproto3.ErrorResponse{
		Severity: "ERROR",
		Code:     "42703",
		Message:  `column "nope" does not exist`,
	}
	stream := errResp.Encode(nil)

	_, err := pq.ReadResultBuffer(bytes.NewReader(stream))
	require.Error(t, err)

	var serverErr *pq.ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "42703", serverErr.Code)
	assert.Contains(t, serverErr.Error(), "SQLSTATE 42703")
}

func TestReadResultBufferTruncatedStream(t *testing.T) {
	rb := testResult()

	var buf bytes.Buffer
	_, err := rb.WriteTo(&buf)
	require.NoError(t, err)

	// Drop the trailing ReadyForQuery message (1 byte tag + 4 length + 1
	// status). The reader must still return the rows read so far.
	stream := buf.Bytes()
	got, err := pq.ReadResultBuffer(bytes.NewReader(stream[:len(stream)-6]))
	require.NoError(t, err)
	assert.Equal(t, 3, got.NTuples())
}

func TestAppendRow(t *testing.T) {
	fields := []pgproto3.FieldDescription{
		pq.NewFieldDescription("v", oids.Text, pq.TextFormat),
	}
	rb := pq.NewResultBuffer(fields, nil)
	rb.AppendRow([][]byte{[]byte("x")})
	rb.AppendRow([][]byte{nil})

	assert.Equal(t, 2, rb.NTuples())
	assert.True(t, rb.IsNull(1, 0))
	assert.Panics(t, func() { rb.AppendRow([][]byte{[]byte("a"), []byte("b")}) })
}
