package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func TestStringDumper(t *testing.T) {
	assert.Equal(t, []byte("hello"), dumpValue(t, nil, "hello", pq.TextFormat))
	assert.Equal(t, []byte("hello"), dumpValue(t, nil, "hello", pq.BinaryFormat))
	assert.Equal(t, []byte(""), dumpValue(t, nil, "", pq.TextFormat))
	assert.Equal(t, []byte("café"), dumpValue(t, nil, "café", pq.TextFormat))
}

func TestStringDumperRejectsNul(t *testing.T) {
	tx := adapt.NewTransformer(nil)
	d, err := tx.GetDumper("x", pq.TextFormat)
	require.NoError(t, err)

	_, err = d.Dump("a\x00b", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NUL")

	// The binary dumper leaves the check to the server.
	d, err = tx.GetDumper("x", pq.BinaryFormat)
	require.NoError(t, err)
	out, err := d.Dump("a\x00b", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("a\x00b"), out)
}

func TestStringDumperClientEncoding(t *testing.T) {
	conn := newFakeConn("latin1")
	out := dumpValue(t, conn, "café", pq.TextFormat)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9}, out)
}

func TestStringDumperNamedType(t *testing.T) {
	type label string
	assert.Equal(t, []byte("tagged"), dumpValue(t, nil, label("tagged"), pq.TextFormat))
}

func TestStringDumperEmptyNotNull(t *testing.T) {
	tx := adapt.NewTransformer(nil)
	for _, format := range []pq.Format{pq.TextFormat, pq.BinaryFormat} {
		d, err := tx.GetDumper("", format)
		require.NoError(t, err)
		out, err := d.Dump("", nil)
		require.NoError(t, err)
		require.NotNil(t, out, "format %v", format)
		assert.Len(t, out, 0, "format %v", format)
	}
}

func TestTextLoader(t *testing.T) {
	for _, oid := range []oids.Oid{oids.Text, oids.Varchar} {
		assert.Equal(t, "hello", loadValue(t, nil, oid, pq.TextFormat, []byte("hello")))
		assert.Equal(t, "hello", loadValue(t, nil, oid, pq.BinaryFormat, []byte("hello")))
	}
	assert.Equal(t, "", loadValue(t, nil, oids.Text, pq.TextFormat, []byte{}))
}

func TestTextLoaderClientEncoding(t *testing.T) {
	conn := newFakeConn("latin1")
	v := loadValue(t, conn, oids.Text, pq.TextFormat, []byte{'c', 'a', 'f', 0xe9})
	assert.Equal(t, "café", v)
}

func TestTextLoaderSQLASCII(t *testing.T) {
	conn := newFakeConn("SQL_ASCII")
	v := loadValue(t, conn, oids.Text, pq.TextFormat, []byte{'a', 0xff, 'b'})
	assert.Equal(t, []byte{'a', 0xff, 'b'}, v)
}

func TestTextLoaderIsFallback(t *testing.T) {
	// A made-up OID with no registration loads through the text fallback.
	v := loadValue(t, nil, oids.Oid(987654), pq.TextFormat, []byte("whatever"))
	assert.Equal(t, "whatever", v)
}

func TestNameLoader(t *testing.T) {
	assert.Equal(t, "relname", loadValue(t, nil, oids.Name, pq.TextFormat, []byte("relname")))
	assert.Equal(t, "chr", loadValue(t, nil, oids.BPChar, pq.BinaryFormat, []byte("chr")))

	// Catalog names decode even when the database is SQL_ASCII.
	conn := newFakeConn("SQL_ASCII")
	v := loadValue(t, conn, oids.Name, pq.TextFormat, []byte("tbl"))
	assert.Equal(t, "tbl", v)
}
