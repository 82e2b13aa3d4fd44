package types

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// Range is a range value. A nil bound is unbounded. Empty ranges have both
// bounds nil and Empty set.
type Range struct {
	Lower    interface{}
	Upper    interface{}
	LowerInc bool
	UpperInc bool
	Empty    bool
}

type rawRange struct {
	lower, upper       []byte
	lowerInc, upperInc bool
	empty              bool
}

// parseRangeText splits a range literal into its bounds. A nil bound is
// unbounded.
func parseRangeText(data []byte) (rawRange, error) {
	var r rawRange
	if bytes.EqualFold(data, []byte("empty")) {
		r.empty = true
		return r, nil
	}
	if len(data) < 3 {
		return r, fmt.Errorf("malformed range literal: %q", data)
	}

	switch data[0] {
	case '[':
		r.lowerInc = true
	case '(':
	default:
		return r, fmt.Errorf("malformed range literal: %q", data)
	}

	var err error
	i := 1
	r.lower, i, err = parseRangeBound(data, i)
	if err != nil {
		return r, err
	}
	if i >= len(data) || data[i] != ',' {
		return r, fmt.Errorf("malformed range literal: %q", data)
	}
	r.upper, i, err = parseRangeBound(data, i+1)
	if err != nil {
		return r, err
	}
	if i != len(data)-1 {
		return r, fmt.Errorf("malformed range literal: %q", data)
	}
	switch data[i] {
	case ']':
		r.upperInc = true
	case ')':
	default:
		return r, fmt.Errorf("malformed range literal: %q", data)
	}
	return r, nil
}

// parseRangeBound reads one bound and returns it with the index of its
// terminator. Quoted bounds undouble "" and take a backslash as an escape;
// an absent bound is nil.
func parseRangeBound(data []byte, i int) ([]byte, int, error) {
	if i < len(data) && data[i] == '"' {
		bound := []byte{}
		i++
		for i < len(data) {
			c := data[i]
			switch {
			case c == '"' && i+1 < len(data) && data[i+1] == '"':
				bound = append(bound, '"')
				i += 2
			case c == '"':
				return bound, i + 1, nil
			case c == '\\' && i+1 < len(data):
				bound = append(bound, data[i+1])
				i += 2
			default:
				bound = append(bound, c)
				i++
			}
		}
		return nil, 0, fmt.Errorf("unterminated quoted bound in range literal")
	}

	start := i
	for i < len(data) {
		switch data[i] {
		case ',', ']', ')':
			if i == start {
				return nil, i, nil
			}
			return data[start:i], i, nil
		case '"', '\\', '[', '(':
			return nil, 0, fmt.Errorf("malformed range literal: %q", data)
		}
		i++
	}
	return nil, 0, fmt.Errorf("malformed range literal: %q", data)
}

// Subtypes of the built-in range types. Range values of other OIDs load
// their bounds through the unknown-type fallback.
var rangeSubtypes = map[oids.Oid]oids.Oid{
	oids.Int4Range: oids.Int4,
	oids.Int8Range: oids.Int8,
	oids.NumRange:  oids.Numeric,
	oids.DateRange: oids.Date,
	oids.TsRange:   oids.Timestamp,
	oids.TstzRange: oids.Timestamptz,
}

// RangeLoader parses text format range values, loading the bounds through
// the subtype's text loader.
type RangeLoader struct {
	tx  *adapt.Transformer
	sub oids.Oid
}

// NewRangeLoader is the registered constructor for RangeLoader.
func NewRangeLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return &RangeLoader{tx: adapt.NewTransformer(ctx), sub: rangeSubtypes[oid]}
}

func (l *RangeLoader) Load(data []byte) (interface{}, error) {
	raw, err := parseRangeText(data)
	if err != nil {
		return nil, err
	}
	if raw.empty {
		return Range{Empty: true}, nil
	}

	out := Range{LowerInc: raw.lowerInc, UpperInc: raw.upperInc}
	cast := l.tx.GetLoader(l.sub, pq.TextFormat, -1)
	if raw.lower != nil {
		v, err := cast.Load(raw.lower)
		if err != nil {
			return nil, fmt.Errorf("invalid range lower bound: %w", err)
		}
		out.Lower = v
	}
	if raw.upper != nil {
		v, err := cast.Load(raw.upper)
		if err != nil {
			return nil, fmt.Errorf("invalid range upper bound: %w", err)
		}
		out.Upper = v
	}
	return out, nil
}

func rangeBoundNeedsQuotes(s []byte) bool {
	if len(s) == 0 {
		return true
	}
	for _, c := range s {
		switch c {
		case '"', '\\', ',', '(', ')', '[', ']', '{', '}', ' ', '\t', '\n', '\r', '\v', '\f':
			return true
		}
	}
	return false
}

// RangeDumper dumps Range values in the text format. The type OID is left
// unspecified, a cast picks the range type server side.
type RangeDumper struct {
	tx *adapt.Transformer
}

// NewRangeDumper is the registered constructor for RangeDumper.
func NewRangeDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return &RangeDumper{tx: adapt.NewTransformer(ctx)}
}

func (d *RangeDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	r, ok := v.(Range)
	if !ok {
		return nil, fmt.Errorf("cannot dump %T as a range", v)
	}
	if r.Empty {
		return append(buf, "empty"...), nil
	}

	if r.LowerInc {
		buf = append(buf, '[')
	} else {
		buf = append(buf, '(')
	}
	buf, err := d.appendBound(buf, r.Lower)
	if err != nil {
		return nil, err
	}
	buf = append(buf, ',')
	buf, err = d.appendBound(buf, r.Upper)
	if err != nil {
		return nil, err
	}
	if r.UpperInc {
		return append(buf, ']'), nil
	}
	return append(buf, ')'), nil
}

func (d *RangeDumper) appendBound(buf []byte, bound interface{}) ([]byte, error) {
	if bound == nil {
		return buf, nil
	}
	dumper, err := d.tx.GetDumper(bound, pq.TextFormat)
	if err != nil {
		return nil, err
	}
	raw, err := dumper.Dump(bound, nil)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return buf, nil
	}
	if rangeBoundNeedsQuotes(raw) {
		return appendQuotedRecordField(buf, raw), nil
	}
	return append(buf, raw...), nil
}

func (d *RangeDumper) Oid() oids.Oid     { return oids.InvalidOid }
func (d *RangeDumper) Format() pq.Format { return pq.TextFormat }

func init() {
	must(adapt.RegisterDumper(Range{}, nil, pq.TextFormat, NewRangeDumper))

	for rangeOid := range rangeSubtypes {
		must(adapt.RegisterLoader(rangeOid, nil, pq.TextFormat, NewRangeLoader))
	}
}
