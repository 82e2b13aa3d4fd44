package apdnumeric_test

import (
	"testing"

	"github.com/cockroachdb/apd"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	psycopg "github.com/The-One-And-Only-H/psycopg"
	"github.com/The-One-And-Only-H/psycopg/ext/apdnumeric"
	"github.com/The-One-And-Only-H/psycopg/oids"
)

func newConn(t *testing.T) *psycopg.Connection {
	t.Helper()
	conn, err := psycopg.NewConnection(psycopg.Config{})
	require.NoError(t, err)
	require.NoError(t, apdnumeric.Register(conn))
	return conn
}

func mustDecimal(t *testing.T, s string) *apd.Decimal {
	t.Helper()
	d := new(apd.Decimal)
	_, _, err := d.SetString(s)
	require.NoError(t, err)
	return d
}

func dumpValue(t *testing.T, conn *psycopg.Connection, v interface{}, format psycopg.Format) []byte {
	t.Helper()
	tx := psycopg.NewTransformer(conn)
	d, err := tx.GetDumper(v, format)
	require.NoError(t, err)
	out, err := d.Dump(v, nil)
	require.NoError(t, err)
	return out
}

func loadValue(t *testing.T, conn *psycopg.Connection, format psycopg.Format, data []byte) interface{} {
	t.Helper()
	tx := psycopg.NewTransformer(conn)
	v, err := tx.GetLoader(oids.Numeric, format, -1).Load(data)
	require.NoError(t, err)
	return v
}

func TestDumperText(t *testing.T) {
	conn := newConn(t)

	tests := []struct {
		in   string
		want string
	}{
		{"12345.678", "12345.678"},
		{"-1.5", "-1.5"},
		{"NaN", "NaN"},
		{"Infinity", "Infinity"},
		{"-Infinity", "-Infinity"},
	}
	for _, tt := range tests {
		got := dumpValue(t, conn, mustDecimal(t, tt.in), psycopg.TextFormat)
		assert.Equal(t, tt.want, string(got), "dump %s", tt.in)
	}

	tx := psycopg.NewTransformer(conn)
	d, err := tx.GetDumper(*mustDecimal(t, "1"), psycopg.TextFormat)
	require.NoError(t, err)
	assert.Equal(t, oids.Numeric, d.Oid())

	out, err := d.Dump((*apd.Decimal)(nil), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestDumperBinary(t *testing.T) {
	conn := newConn(t)

	tests := []struct {
		in   string
		want []byte
	}{
		{"12345.678", []byte{0, 3, 0, 1, 0, 0, 0, 3, 0x00, 0x01, 0x09, 0x29, 0x1a, 0x7c}},
		{"NaN", []byte{0, 0, 0, 0, 0xc0, 0, 0, 0}},
		{"Infinity", []byte{0, 0, 0, 0, 0xd0, 0, 0, 0}},
		{"-Infinity", []byte{0, 0, 0, 0, 0xf0, 0, 0, 0}},
	}
	for _, tt := range tests {
		got := dumpValue(t, conn, mustDecimal(t, tt.in), psycopg.BinaryFormat)
		assert.Equal(t, tt.want, got, "dump %s", tt.in)
	}
}

func TestLoaderText(t *testing.T) {
	conn := newConn(t)

	v := loadValue(t, conn, psycopg.TextFormat, []byte("1.5"))
	d, ok := v.(*apd.Decimal)
	require.True(t, ok)
	assert.Zero(t, d.Cmp(mustDecimal(t, "1.5")))

	v = loadValue(t, conn, psycopg.TextFormat, []byte("NaN"))
	d, ok = v.(*apd.Decimal)
	require.True(t, ok)
	assert.Equal(t, apd.NaN, d.Form)

	tx := psycopg.NewTransformer(conn)
	_, err := tx.GetLoader(oids.Numeric, psycopg.TextFormat, -1).Load([]byte("bogus"))
	require.Error(t, err)
}

func TestBinaryRoundTrip(t *testing.T) {
	conn := newConn(t)

	for _, s := range []string{
		"0",
		"1",
		"-1",
		"12345.678",
		"0.0001",
		"99990000",
		"-73500772.2345",
		"3100000000",
	} {
		data := dumpValue(t, conn, mustDecimal(t, s), psycopg.BinaryFormat)
		v := loadValue(t, conn, psycopg.BinaryFormat, data)
		d, ok := v.(*apd.Decimal)
		require.True(t, ok)
		assert.Zero(t, d.Cmp(mustDecimal(t, s)), "round trip %s got %s", s, d.String())
	}
}

func TestBinaryRoundTripNonFinite(t *testing.T) {
	conn := newConn(t)

	data := dumpValue(t, conn, mustDecimal(t, "NaN"), psycopg.BinaryFormat)
	d := loadValue(t, conn, psycopg.BinaryFormat, data).(*apd.Decimal)
	assert.Equal(t, apd.NaN, d.Form)

	data = dumpValue(t, conn, mustDecimal(t, "-Infinity"), psycopg.BinaryFormat)
	d = loadValue(t, conn, psycopg.BinaryFormat, data).(*apd.Decimal)
	assert.Equal(t, apd.Infinite, d.Form)
	assert.True(t, d.Negative)
}

func TestRegisterShadowsDefaults(t *testing.T) {
	conn := newConn(t)

	v := loadValue(t, conn, psycopg.TextFormat, []byte("1.5"))
	require.IsType(t, (*apd.Decimal)(nil), v)

	// The process-wide shopspring handlers are untouched.
	global := psycopg.NewTransformer(nil)
	gv, err := global.GetLoader(oids.Numeric, psycopg.TextFormat, -1).Load([]byte("1.5"))
	require.NoError(t, err)
	require.IsType(t, decimal.Decimal{}, gv)
}
