package types

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// Record is an anonymous composite value: one Go value per field, nil for
// NULL fields.
type Record []interface{}

// parseRecordText splits a composite text literal into fields. A nil element
// is a NULL field; "()" is the record with no fields.
func parseRecordText(data []byte) ([][]byte, error) {
	if len(data) < 2 || data[0] != '(' || data[len(data)-1] != ')' {
		return nil, fmt.Errorf("malformed record literal: %q", data)
	}
	if len(data) == 2 {
		return nil, nil
	}

	var fields [][]byte
	i := 1
	for {
		var tok []byte
		if i < len(data) && data[i] == '"' {
			var err error
			tok, i, err = parseQuotedRecordField(data, i+1)
			if err != nil {
				return nil, err
			}
		} else {
			start := i
			for i < len(data) && data[i] != ',' && data[i] != ')' {
				if data[i] == '"' {
					return nil, fmt.Errorf("malformed record literal: %q", data)
				}
				i++
			}
			if i > start {
				tok = data[start:i]
			}
		}

		if i >= len(data) {
			return nil, fmt.Errorf("malformed record literal: %q", data)
		}
		switch data[i] {
		case ',':
			fields = append(fields, tok)
			i++
		case ')':
			if i != len(data)-1 {
				return nil, fmt.Errorf("malformed record literal: %q", data)
			}
			return append(fields, tok), nil
		default:
			return nil, fmt.Errorf("malformed record literal: %q", data)
		}
	}
}

// parseQuotedRecordField reads a quoted field starting after the opening
// quote. Doubled quotes and backslashes stand for one of themselves. It
// returns the field and the index after the closing quote.
func parseQuotedRecordField(data []byte, i int) ([]byte, int, error) {
	tok := []byte{}
	for i < len(data) {
		c := data[i]
		switch {
		case c == '"' && i+1 < len(data) && data[i+1] == '"':
			tok = append(tok, '"')
			i += 2
		case c == '"':
			return tok, i + 1, nil
		case c == '\\' && i+1 < len(data) && data[i+1] == '\\':
			tok = append(tok, '\\')
			i += 2
		default:
			tok = append(tok, c)
			i++
		}
	}
	return nil, 0, fmt.Errorf("unterminated quoted field in record literal")
}

func recordFieldNeedsQuotes(s []byte) bool {
	if len(s) == 0 {
		return true
	}
	for _, c := range s {
		switch c {
		case '"', '\\', ',', '(', ')', ' ', '\t', '\n', '\r', '\v', '\f':
			return true
		}
	}
	return false
}

func appendQuotedRecordField(buf, s []byte) []byte {
	buf = append(buf, '"')
	for _, c := range s {
		if c == '"' || c == '\\' {
			buf = append(buf, c, c)
		} else {
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}

// RecordDumper dumps Record and []interface{} values as composite text
// literals, resolving a text dumper for each field. The type OID is left
// unspecified, the server infers the record type from context.
type RecordDumper struct {
	tx *adapt.Transformer
}

// NewRecordDumper is the registered constructor for RecordDumper.
func NewRecordDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return &RecordDumper{tx: adapt.NewTransformer(ctx)}
}

func (d *RecordDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	var rec []interface{}
	switch r := v.(type) {
	case Record:
		rec = r
	case []interface{}:
		rec = r
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice || !rv.Type().ConvertibleTo(recordSliceType) {
			return nil, fmt.Errorf("cannot dump %T as a record", v)
		}
		rec = rv.Convert(recordSliceType).Interface().([]interface{})
	}

	buf = append(buf, '(')
	for i, item := range rec {
		if i > 0 {
			buf = append(buf, ',')
		}
		if item == nil {
			continue
		}
		dumper, err := d.tx.GetDumper(item, pq.TextFormat)
		if err != nil {
			return nil, err
		}
		raw, err := dumper.Dump(item, nil)
		if err != nil {
			return nil, err
		}
		if raw == nil {
			continue
		}
		if recordFieldNeedsQuotes(raw) {
			buf = appendQuotedRecordField(buf, raw)
		} else {
			buf = append(buf, raw...)
		}
	}
	return append(buf, ')'), nil
}

func (d *RecordDumper) Oid() oids.Oid     { return oids.InvalidOid }
func (d *RecordDumper) Format() pq.Format { return pq.TextFormat }

var recordSliceType = reflect.TypeOf([]interface{}{})

// RecordLoader parses text format anonymous records. The text form carries
// no field types, so every field loads through the text type's loader.
type RecordLoader struct {
	tx *adapt.Transformer
}

// NewRecordLoader is the registered constructor for RecordLoader.
func NewRecordLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return &RecordLoader{tx: adapt.NewTransformer(ctx)}
}

func (l *RecordLoader) Load(data []byte) (interface{}, error) {
	fields, err := parseRecordText(data)
	if err != nil {
		return nil, err
	}
	cast := l.tx.GetLoader(oids.Text, pq.TextFormat, -1)
	out := make(Record, len(fields))
	for i, f := range fields {
		if f == nil {
			continue
		}
		v, err := cast.Load(f)
		if err != nil {
			return nil, &adapt.LoadFieldError{Field: i, Err: err}
		}
		out[i] = v
	}
	return out, nil
}

type binaryRecordField struct {
	oid    oids.Oid
	start  int
	length int
}

// walkBinaryRecord locates the fields of a binary record: an int32 field
// count, then per field a uint32 type OID and an int32 length, -1 for NULL.
func walkBinaryRecord(data []byte) ([]binaryRecordField, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("invalid length for record: %v", len(data))
	}
	nfields := int(int32(binary.BigEndian.Uint32(data)))
	if nfields < 0 {
		return nil, fmt.Errorf("invalid field count for record: %d", nfields)
	}

	fields := make([]binaryRecordField, 0, nfields)
	i := 4
	for n := 0; n < nfields; n++ {
		if len(data) < i+8 {
			return nil, fmt.Errorf("record data truncated at field %d", n)
		}
		oid := oids.Oid(binary.BigEndian.Uint32(data[i:]))
		length := int(int32(binary.BigEndian.Uint32(data[i+4:])))
		i += 8
		if length < -1 {
			return nil, fmt.Errorf("invalid field length for record: %d", length)
		}
		fields = append(fields, binaryRecordField{oid: oid, start: i, length: length})
		if length > 0 {
			if len(data) < i+length {
				return nil, fmt.Errorf("record data truncated at field %d", n)
			}
			i += length
		}
	}
	return fields, nil
}

// RecordBinaryLoader loads binary format anonymous records. The field OIDs
// from the first record seen configure the row loaders; all records of one
// result column share their type.
type RecordBinaryLoader struct {
	tx       *adapt.Transformer
	typesSet bool
}

// NewRecordBinaryLoader is the registered constructor for
// RecordBinaryLoader.
func NewRecordBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return &RecordBinaryLoader{tx: adapt.NewTransformer(ctx)}
}

func (l *RecordBinaryLoader) Load(data []byte) (interface{}, error) {
	fields, err := walkBinaryRecord(data)
	if err != nil {
		return nil, err
	}

	if !l.typesSet {
		cols := make([]pq.ColumnType, len(fields))
		for i, f := range fields {
			cols[i] = pq.ColumnType{Oid: f.oid, Format: pq.BinaryFormat, Mod: -1}
		}
		l.tx.SetRowTypes(cols)
		l.typesSet = true
	}

	record := make([][]byte, len(fields))
	for i, f := range fields {
		if f.length >= 0 {
			record[i] = data[f.start : f.start+f.length]
		}
	}
	vals, err := l.tx.LoadSequence(record)
	if err != nil {
		return nil, err
	}
	return Record(vals), nil
}

func init() {
	must(adapt.RegisterDumper([]interface{}{}, nil, pq.TextFormat, NewRecordDumper))

	must(adapt.RegisterLoader(oids.Record, nil, pq.TextFormat, NewRecordLoader))
	must(adapt.RegisterBinaryLoader(oids.Record, nil, NewRecordBinaryLoader))
}
