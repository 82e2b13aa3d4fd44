package types

import (
	"bytes"
	"fmt"
	"net"
	"reflect"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

func asIPNet(v interface{}) (*net.IPNet, bool, error) {
	switch n := v.(type) {
	case net.IPNet:
		return &n, false, nil
	case *net.IPNet:
		if n == nil {
			return nil, true, nil
		}
		return n, false, nil
	}
	return nil, false, fmt.Errorf("cannot dump %T as cidr", v)
}

// InetDumper dumps net.IP addresses in the text format.
type InetDumper struct{}

// NewInetDumper is the registered constructor for InetDumper.
func NewInetDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return InetDumper{}
}

func (InetDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	ip, ok := v.(net.IP)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as inet", v)
	}
	if ip == nil {
		return nil, nil
	}
	return append(buf, ip.String()...), nil
}

func (InetDumper) Oid() oids.Oid     { return oids.Inet }
func (InetDumper) Format() pq.Format { return pq.TextFormat }

// CidrDumper dumps net.IPNet networks in the text format.
type CidrDumper struct{}

// NewCidrDumper is the registered constructor for CidrDumper.
func NewCidrDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return CidrDumper{}
}

func (CidrDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	n, null, err := asIPNet(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return append(buf, n.String()...), nil
}

func (CidrDumper) Oid() oids.Oid     { return oids.CIDR }
func (CidrDumper) Format() pq.Format { return pq.TextFormat }

// InetLoader parses text format inet values. Bare addresses load as net.IP;
// addresses with a prefix length load as *net.IPNet keeping the host bits.
type InetLoader struct{}

// NewInetLoader is the registered constructor for InetLoader.
func NewInetLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return InetLoader{}
}

func (InetLoader) Load(data []byte) (interface{}, error) {
	s := string(data)
	if !bytes.ContainsRune(data, '/') {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("invalid inet address: %q", s)
		}
		return ip, nil
	}

	ip, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("invalid inet address: %w", err)
	}
	ipnet.IP = ip
	return ipnet, nil
}

// CidrLoader parses text format cidr values as *net.IPNet.
type CidrLoader struct{}

// NewCidrLoader is the registered constructor for CidrLoader.
func NewCidrLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return CidrLoader{}
}

func (CidrLoader) Load(data []byte) (interface{}, error) {
	s := string(data)
	if !bytes.ContainsRune(data, '/') {
		// cidr output always has a prefix length, but accept its absence.
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("invalid cidr value: %q", s)
		}
		bits := 8 * net.IPv6len
		if ip.To4() != nil {
			bits = 8 * net.IPv4len
		}
		return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
	}

	_, ipnet, err := net.ParseCIDR(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cidr value: %w", err)
	}
	return ipnet, nil
}

func init() {
	must(adapt.RegisterDumper(net.IP{}, nil, pq.TextFormat, NewInetDumper))
	must(adapt.RegisterDumper(net.IPNet{}, nil, pq.TextFormat, NewCidrDumper))
	must(adapt.RegisterDumper((*net.IPNet)(nil), nil, pq.TextFormat, NewCidrDumper))

	must(adapt.RegisterLoader(oids.Inet, nil, pq.TextFormat, NewInetLoader))
	must(adapt.RegisterLoader(oids.CIDR, nil, pq.TextFormat, NewCidrLoader))
}
