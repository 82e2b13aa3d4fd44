package oids_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/oids"
)

func TestBuiltinsMatchConstants(t *testing.T) {
	tests := []struct {
		name string
		oid  oids.Oid
	}{
		{"bool", oids.Bool},
		{"bytea", oids.Bytea},
		{"int8", oids.Int8},
		{"text", oids.Text},
		{"float8", oids.Float8},
		{"numeric", oids.Numeric},
		{"uuid", oids.UUID},
		{"jsonb", oids.JSONB},
		{"timestamptz", oids.Timestamptz},
		{"record", oids.Record},
		{"int4range", oids.Int4Range},
	}

	for _, tt := range tests {
		ti, ok := oids.Builtins[tt.name]
		require.True(t, ok, tt.name)
		assert.Equal(t, tt.name, ti.Name)
		assert.Equal(t, tt.oid, ti.Oid)
		assert.NotEqual(t, oids.InvalidOid, ti.ArrayOid, "%s array oid", tt.name)
	}
}

func TestByOid(t *testing.T) {
	ti, ok := oids.ByOid(oids.Text)
	require.True(t, ok)
	assert.Equal(t, "text", ti.Name)

	_, ok = oids.ByOid(oids.InvalidOid)
	assert.False(t, ok)
}
