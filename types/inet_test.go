package types

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func TestInetDumper(t *testing.T) {
	assert.Equal(t, "192.168.0.1", string(dumpValue(t, nil, net.ParseIP("192.168.0.1"), pq.TextFormat)))
	assert.Equal(t, "2001:db8::1", string(dumpValue(t, nil, net.ParseIP("2001:db8::1"), pq.TextFormat)))

	tx := adapt.NewTransformer(nil)
	d, err := tx.GetDumper(net.ParseIP("::1"), pq.TextFormat)
	require.NoError(t, err)
	assert.Equal(t, oids.Inet, d.Oid())
}

func TestCidrDumper(t *testing.T) {
	_, ipnet, err := net.ParseCIDR("10.0.0.0/8")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.0/8", string(dumpValue(t, nil, ipnet, pq.TextFormat)))
	assert.Equal(t, "10.0.0.0/8", string(dumpValue(t, nil, *ipnet, pq.TextFormat)))

	tx := adapt.NewTransformer(nil)
	d, err := tx.GetDumper(ipnet, pq.TextFormat)
	require.NoError(t, err)
	assert.Equal(t, oids.CIDR, d.Oid())
}

func TestInetLoader(t *testing.T) {
	v := loadValue(t, nil, oids.Inet, pq.TextFormat, []byte("192.168.0.1"))
	assert.Equal(t, net.ParseIP("192.168.0.1"), v)

	// Host bits survive the prefix form.
	v = loadValue(t, nil, oids.Inet, pq.TextFormat, []byte("192.168.0.1/24"))
	ipnet, ok := v.(*net.IPNet)
	require.True(t, ok)
	assert.Equal(t, "192.168.0.1/24", ipnet.String())

	_, err := loadValueErr(nil, oids.Inet, pq.TextFormat, []byte("not-an-ip"))
	require.Error(t, err)
}

func TestCidrLoader(t *testing.T) {
	v := loadValue(t, nil, oids.CIDR, pq.TextFormat, []byte("10.0.0.0/8"))
	ipnet, ok := v.(*net.IPNet)
	require.True(t, ok)
	assert.Equal(t, "10.0.0.0/8", ipnet.String())

	_, err := loadValueErr(nil, oids.CIDR, pq.TextFormat, []byte("10.1/8"))
	require.Error(t, err)
}
