package types

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/jackc/pgio"
	"github.com/shopspring/decimal"

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

func asDecimal(v interface{}) (decimal.Decimal, bool, error) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d, false, nil
	case *decimal.Decimal:
		if d == nil {
			return decimal.Decimal{}, true, nil
		}
		return *d, false, nil
	}
	return decimal.Decimal{}, false, fmt.Errorf("cannot dump %T as numeric", v)
}

// NumericDumper dumps decimal.Decimal in the text format.
type NumericDumper struct{}

// NewNumericDumper is the registered constructor for NumericDumper.
func NewNumericDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return NumericDumper{}
}

func (NumericDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	d, null, err := asDecimal(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return append(buf, d.String()...), nil
}

func (NumericDumper) Oid() oids.Oid     { return oids.Numeric }
func (NumericDumper) Format() pq.Format { return pq.TextFormat }

// NumericBinaryDumper dumps decimal.Decimal in the binary format: a header
// and the absolute value as base 10000 digits.
type NumericBinaryDumper struct{}

// NewNumericBinaryDumper is the registered constructor for
// NumericBinaryDumper.
func NewNumericBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return NumericBinaryDumper{}
}

func (NumericBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	d, null, err := asDecimal(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return appendNumericBinary(buf, d), nil
}

func (NumericBinaryDumper) Oid() oids.Oid     { return oids.Numeric }
func (NumericBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

func appendNumericBinary(buf []byte, d decimal.Decimal) []byte {
	sign := uint16(numericPos)
	if d.Sign() < 0 {
		sign = numericNeg
	}

	coeff := new(big.Int).Abs(d.Coefficient())
	exp := d.Exponent()

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

// NumericLoader loads text format numeric columns as decimal.Decimal.
type NumericLoader struct{}

// NewNumericLoader is the registered constructor for NumericLoader.
func NewNumericLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return NumericLoader{}
}

func (NumericLoader) Load(data []byte) (interface{}, error) {
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return nil, fmt.Errorf("invalid numeric: %w", err)
	}
	return d, nil
}

// NumericBinaryLoader loads binary format numeric columns as
// decimal.Decimal. NaN has no decimal representation and fails.
type NumericBinaryLoader struct{}

// NewNumericBinaryLoader is the registered constructor for
// NumericBinaryLoader.
func NewNumericBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return NumericBinaryLoader{}
}

func (NumericBinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("invalid length for numeric: %v", len(data))
	}

	ndigits := int(binary.BigEndian.Uint16(data[0:]))
	weight := int16(binary.BigEndian.Uint16(data[2:]))
	sign := binary.BigEndian.Uint16(data[4:])

	switch sign {
	case numericPos, numericNeg:
	case numericNaN:
		return nil, fmt.Errorf("cannot load numeric NaN as a decimal")
	case numericPinf, numericNinf:
		return nil, fmt.Errorf("cannot load numeric infinity as a decimal")
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

	// Each base 10000 group spans four decimal digits; groups above the
	// weight shift the value up, groups below give a negative exponent.
	exp := (int(weight) - ndigits + 1) * 4
	if sign == numericNeg {
		accum.Neg(accum)
	}
	return decimal.NewFromBigInt(accum, int32(exp)), nil
}

func init() {
	for _, v := range []interface{}{decimal.Decimal{}, (*decimal.Decimal)(nil)} {
		must(adapt.RegisterDumper(v, nil, pq.TextFormat, NewNumericDumper))
		must(adapt.RegisterBinaryDumper(v, nil, NewNumericBinaryDumper))
	}
	must(adapt.RegisterLoader(oids.Numeric, nil, pq.TextFormat, NewNumericLoader))
	must(adapt.RegisterBinaryLoader(oids.Numeric, nil, NewNumericBinaryLoader))
}
