package pq

import (
	"fmt"
	"io"
	"strings"

	"github.com/jackc/chunkreader/v2"
	"github.com/jackc/pgproto3/v2"

	"github.com/The-One-And-Only-H/psycopg/oids"
)

// ColumnType identifies the PostgreSQL type of a result column.
type ColumnType struct {
	Oid    oids.Oid
	Format Format
	Mod    int32 // type modifier from the row description, -1 when absent
}

// Result is query-result data as produced by the PostgreSQL extended query
// protocol: a row description plus the raw value of every cell.
//
// Cell values keep the wire convention for NULL: a nil slice is SQL NULL
// while a non-nil empty slice is a zero-length value such as the empty
// string.
type Result interface {
	// NFields returns the number of columns.
	NFields() int

	// NTuples returns the number of rows.
	NTuples() int

	// ColumnType describes the type of column col. col must be in range.
	ColumnType(col int) ColumnType

	// Value returns the raw wire representation of the cell at row, col, or
	// nil for SQL NULL. The returned slice must be treated as read-only and
	// may alias the result's internal storage.
	Value(row, col int) []byte

	// Length returns the size in bytes of the cell at row, col, 0 for NULL.
	Length(row, col int) int

	// IsNull reports whether the cell at row, col is SQL NULL.
	IsNull(row, col int) bool
}

// NewFieldDescription returns the row description entry for an unqualified
// result column of the given type.
func NewFieldDescription(name string, oid oids.Oid, format Format) pgproto3.FieldDescription {
	return pgproto3.FieldDescription{
		Name:         []byte(name),
		DataTypeOID:  uint32(oid),
		DataTypeSize: -1,
		TypeModifier: -1,
		Format:       int16(format),
	}
}

// ResultBuffer is an in-memory Result assembled from RowDescription and
// DataRow messages. The zero value is an empty result with no columns.
type ResultBuffer struct {
	fields []pgproto3.FieldDescription
	rows   [][][]byte
	tag    string
}

// NewResultBuffer builds a ResultBuffer directly from a row description and
// raw row values. A nil cell is SQL NULL. The slices are retained, not
// copied.
func NewResultBuffer(fields []pgproto3.FieldDescription, rows [][][]byte) *ResultBuffer {
	for i, row := range rows {
		if len(row) != len(fields) {
			panic(fmt.Sprintf("pq: row %d has %d values, row description has %d columns", i, len(row), len(fields)))
		}
	}
	return &ResultBuffer{fields: fields, rows: rows}
}

func (rb *ResultBuffer) NFields() int { return len(rb.fields) }
func (rb *ResultBuffer) NTuples() int { return len(rb.rows) }

func (rb *ResultBuffer) ColumnType(col int) ColumnType {
	fd := &rb.fields[col]
	return ColumnType{
		Oid:    oids.Oid(fd.DataTypeOID),
		Format: Format(fd.Format),
		Mod:    fd.TypeModifier,
	}
}

func (rb *ResultBuffer) Value(row, col int) []byte { return rb.rows[row][col] }
func (rb *ResultBuffer) Length(row, col int) int   { return len(rb.rows[row][col]) }
func (rb *ResultBuffer) IsNull(row, col int) bool  { return rb.rows[row][col] == nil }

// FieldDescriptions returns the row description. The slice is shared, not
// copied.
func (rb *ResultBuffer) FieldDescriptions() []pgproto3.FieldDescription { return rb.fields }

// CommandTag returns the command tag from the CommandComplete message, such
// as "SELECT 2", or "" if none was read.
func (rb *ResultBuffer) CommandTag() string { return rb.tag }

// AppendRow adds a data row. A nil cell is SQL NULL.
func (rb *ResultBuffer) AppendRow(row [][]byte) {
	if len(row) != len(rb.fields) {
		panic(fmt.Sprintf("pq: row has %d values, row description has %d columns", len(row), len(rb.fields)))
	}
	rb.rows = append(rb.rows, row)
}

// ServerError is an ErrorResponse received while reading a result stream.
type ServerError struct {
	Severity string
	Code     string
	Message  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s (SQLSTATE %s)", strings.ToLower(e.Severity), e.Message, e.Code)
}

// ReadResultBuffer reads backend protocol messages from r until a
// ReadyForQuery message or the end of the stream and collects them into a
// ResultBuffer. Row data is copied out of the protocol reader's buffers, so
// the returned result stays valid after r is exhausted.
func ReadResultBuffer(r io.Reader) (*ResultBuffer, error) {
	frontend := pgproto3.NewFrontend(chunkreader.New(r), io.Discard)

	rb := &ResultBuffer{}
	for {
		msg, err := frontend.Receive()
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return rb, nil
			}
			return nil, fmt.Errorf("read result stream: %w", err)
		}

		switch msg := msg.(type) {
		case *pgproto3.RowDescription:
			rb.fields = copyFieldDescriptions(msg.Fields)
		case *pgproto3.DataRow:
			rb.rows = append(rb.rows, copyDataRow(msg.Values))
		case *pgproto3.CommandComplete:
			rb.tag = string(msg.CommandTag)
		case *pgproto3.ErrorResponse:
			return nil, &ServerError{Severity: msg.Severity, Code: msg.Code, Message: msg.Message}
		case *pgproto3.ReadyForQuery:
			return rb, nil
		}
	}
}

// Received messages reuse the reader's buffers, so the pieces a ResultBuffer
// retains have to be deep copied.
func copyFieldDescriptions(src []pgproto3.FieldDescription) []pgproto3.FieldDescription {
	fields := make([]pgproto3.FieldDescription, len(src))
	copy(fields, src)
	for i := range fields {
		fields[i].Name = append([]byte(nil), fields[i].Name...)
	}
	return fields
}

func copyDataRow(src [][]byte) [][]byte {
	row := make([][]byte, len(src))
	for i, v := range src {
		if v == nil {
			continue
		}
		c := make([]byte, len(v))
		copy(c, v)
		row[i] = c
	}
	return row
}

// WriteTo serializes the buffered result as a backend message stream:
// RowDescription, the data rows, CommandComplete and ReadyForQuery. A
// stream written this way reads back with ReadResultBuffer.
func (rb *ResultBuffer) WriteTo(w io.Writer) (int64, error) {
	var buf []byte

	if len(rb.fields) > 0 {
		rd := pgproto3.RowDescription{Fields: rb.fields}
		buf = rd.Encode(buf)
	}
	for _, row := range rb.rows {
		dr := pgproto3.DataRow{Values: row}
		buf = dr.Encode(buf)
	}
	cc := pgproto3.CommandComplete{CommandTag: []byte(rb.tag)}
	buf = cc.Encode(buf)
	rfq := pgproto3.ReadyForQuery{TxStatus: 'I'}
	buf = rfq.Encode(buf)

	n, err := w.Write(buf)
	return int64(n), err
}
