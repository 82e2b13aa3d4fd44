// Package apdnumeric adapts PostgreSQL numeric values to and from
// github.com/cockroachdb/apd decimals. Unlike the default shopspring
// handlers it round trips NaN and the infinities.
package apdnumeric

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/cockroachdb/apd"
	"github.com/jackc/pgio"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// Binary numeric sign field values.
const (
	numericPos  = 0x0000
	numericNeg  = 0x4000
	numericNaN  = 0xC000
	numericPinf = 0xD000
	numericNinf = 0xF000
)

var big10000 = big.NewInt(10000)

// Register installs the apd handlers in ctx's scope, shadowing the default
// shopspring decimal handlers there. ctx is usually a Connection; passing
// nil replaces the process-wide defaults.
func Register(ctx adapt.AdaptContext) error {
	for _, v := range []interface{}{apd.Decimal{}, (*apd.Decimal)(nil)} {
		if err := adapt.RegisterDumper(v, ctx, pq.TextFormat, NewDumper); err != nil {
			return err
		}
		if err := adapt.RegisterBinaryDumper(v, ctx, NewBinaryDumper); err != nil {
			return err
		}
	}
	if err := adapt.RegisterLoader(oids.Numeric, ctx, pq.TextFormat, NewLoader); err != nil {
		return err
	}
	return adapt.RegisterBinaryLoader(oids.Numeric, ctx, NewBinaryLoader)
}

func asDecimal(v interface{}) (*apd.Decimal, bool, error) {
	switch d := v.(type) {
	case apd.Decimal:
		return &d, false, nil
	case *apd.Decimal:
		if d == nil {
			return nil, true, nil
		}
		return d, false, nil
	}
	return nil, false, fmt.Errorf("cannot dump %T as numeric", v)
}

// Dumper dumps apd.Decimal in the text format.
type Dumper struct{}

// NewDumper is the registered constructor for Dumper.
func NewDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return Dumper{}
}

func (Dumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	d, null, err := asDecimal(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return append(buf, d.String()...), nil
}

func (Dumper) Oid() oids.Oid     { return oids.Numeric }
func (Dumper) Format() pq.Format { return pq.TextFormat }

// BinaryDumper dumps apd.Decimal in the binary format.
type BinaryDumper struct{}

// NewBinaryDumper is the registered constructor for BinaryDumper.
func NewBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return BinaryDumper{}
}

func (BinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	d, null, err := asDecimal(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return appendNumericBinary(buf, d), nil
}

func (BinaryDumper) Oid() oids.Oid     { return oids.Numeric }
func (BinaryDumper) Format() pq.Format { return pq.BinaryFormat }

func appendNonFiniteBinary(buf []byte, sign uint16) []byte {
	buf = pgio.AppendUint16(buf, 0)
	buf = pgio.AppendInt16(buf, 0)
	buf = pgio.AppendUint16(buf, sign)
	return pgio.AppendUint16(buf, 0)
}

func appendNumericBinary(buf []byte, d *apd.Decimal) []byte {
	switch d.Form {
	case apd.Finite:
	case apd.Infinite:
		if d.Negative {
			return appendNonFiniteBinary(buf, numericNinf)
		}
		return appendNonFiniteBinary(buf, numericPinf)
	default:
		return appendNonFiniteBinary(buf, numericNaN)
	}

	sign := uint16(numericPos)
	if d.Negative {
		sign = numericNeg
	}

	coeff := new(big.Int).Abs(&d.Coeff)
	exp := d.Exponent

	// Normalize to a non-positive exponent so the whole value is coefficient
	// divided by a power of ten.
	if exp > 0 {
		coeff.Mul(coeff, new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil))
		exp = 0
	}
	scale := int(-exp)
	dscale := uint16(scale)

	digits := coeff.String()
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	intPart := digits[:len(digits)-scale]
	fracPart := digits[len(digits)-scale:]

	// Group decimal digits in fours aligned on the decimal point.
	if pad := len(intPart) % 4; pad != 0 {
		intPart = strings.Repeat("0", 4-pad) + intPart
	}
	if pad := len(fracPart) % 4; pad != 0 {
		fracPart = fracPart + strings.Repeat("0", 4-pad)
	}

	groups := make([]uint16, 0, (len(intPart)+len(fracPart))/4)
	for i := 0; i < len(intPart); i += 4 {
		groups = append(groups, digitGroup(intPart[i:i+4]))
	}
	weight := int16(len(groups) - 1)
	for i := 0; i < len(fracPart); i += 4 {
		groups = append(groups, digitGroup(fracPart[i:i+4]))
	}

	// Strip zero groups at both ends; the weight tracks the first kept one.
	for len(groups) > 0 && groups[0] == 0 {
		groups = groups[1:]
		weight--
	}
	for len(groups) > 0 && groups[len(groups)-1] == 0 {
		groups = groups[:len(groups)-1]
	}
	if len(groups) == 0 {
		weight = 0
		sign = numericPos
	}

	buf = pgio.AppendUint16(buf, uint16(len(groups)))
	buf = pgio.AppendInt16(buf, weight)
	buf = pgio.AppendUint16(buf, sign)
	buf = pgio.AppendUint16(buf, dscale)
	for _, g := range groups {
		buf = pgio.AppendUint16(buf, g)
	}
	return buf
}

func digitGroup(s string) uint16 {
	var n uint16
	for i := 0; i < len(s); i++ {
		n = n*10 + uint16(s[i]-'0')
	}
	return n
}

// Loader loads numeric text data as *apd.Decimal.
type Loader struct{}

// NewLoader is the registered constructor for Loader.
func NewLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return Loader{}
}

func (Loader) Load(data []byte) (interface{}, error) {
	d := new(apd.Decimal)
	if _, _, err := d.SetString(string(data)); err != nil {
		return nil, fmt.Errorf("invalid numeric: %w", err)
	}
	return d, nil
}

// BinaryLoader loads numeric binary data as *apd.Decimal.
type BinaryLoader struct{}

// NewBinaryLoader is the registered constructor for BinaryLoader.
func NewBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return BinaryLoader{}
}

func (BinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("invalid length for numeric: %v", len(data))
	}

	ndigits := int(binary.BigEndian.Uint16(data[0:]))
	weight := int16(binary.BigEndian.Uint16(data[2:]))
	sign := binary.BigEndian.Uint16(data[4:])

	switch sign {
	case numericPos, numericNeg:
	case numericNaN:
		return &apd.Decimal{Form: apd.NaN}, nil
	case numericPinf:
		return &apd.Decimal{Form: apd.Infinite}, nil
	case numericNinf:
		return &apd.Decimal{Form: apd.Infinite, Negative: true}, nil
	default:
		return nil, fmt.Errorf("invalid numeric sign: %#x", sign)
	}
	if len(data) < 8+ndigits*2 {
		return nil, fmt.Errorf("invalid length for numeric with %d digits: %v", ndigits, len(data))
	}

	accum := new(big.Int)
	for i := 0; i < ndigits; i++ {
		g := binary.BigEndian.Uint16(data[8+i*2:])
		if g > 9999 {
			return nil, fmt.Errorf("invalid numeric digit group: %d", g)
		}
		accum.Mul(accum, big10000)
		accum.Add(accum, big.NewInt(int64(g)))
	}

	d := &apd.Decimal{
		Negative: sign == numericNeg,
		Exponent: int32((int(weight) - ndigits + 1) * 4),
	}
	d.Coeff.Set(accum)
	return d, nil
}
