package psycopg

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// ErrNoResult is returned by cursor operations that need a bound result when
// none is bound.
var ErrNoResult = errors.New("no result bound to cursor")

// Cursor is the cursor-level adaptation scope. It binds query results and
// loads their rows into Go values using the connection's adaptation state
// shadowed by its own registries.
//
// A Cursor is not safe for concurrent use.
type Cursor struct {
	conn    *Connection
	dumpers *adapt.DumpersMap
	loaders *adapt.LoadersMap

	tx  *adapt.Transformer
	res pq.Result
}

// Conn returns the cursor's connection as an adaptation scope.
func (cur *Cursor) Conn() adapt.Conn { return cur.conn }

// Connection returns the cursor's connection.
func (cur *Cursor) Connection() *Connection { return cur.conn }

// Dumpers returns the cursor's own dumper registry. Registrations here
// shadow the connection's for results bound after the registration.
func (cur *Cursor) Dumpers() *adapt.DumpersMap { return cur.dumpers }

// Loaders returns the cursor's own loader registry.
func (cur *Cursor) Loaders() *adapt.LoadersMap { return cur.loaders }

// Result returns the currently bound result, or nil.
func (cur *Cursor) Result() pq.Result { return cur.res }

// Transformer returns the transformer of the currently bound result, or nil
// when no result is bound.
func (cur *Cursor) Transformer() *adapt.Transformer { return cur.tx }

// BindResult points the cursor at a query result. Row loaders are set up
// from the result's columns and any previously bound result is dropped.
func (cur *Cursor) BindResult(res pq.Result) {
	cur.res = res
	cur.tx = adapt.NewTransformer(cur)
	cur.tx.SetResult(res)

	if cur.conn.shouldLog(LogLevelDebug) {
		cur.conn.log(context.Background(), LogLevelDebug, "result bound",
			map[string]interface{}{"fields": res.NFields(), "tuples": res.NTuples()})
	}
}

// Row loads one row of the bound result into Go values.
func (cur *Cursor) Row(row int) ([]interface{}, error) {
	if cur.tx == nil {
		return nil, ErrNoResult
	}
	values, err := cur.tx.LoadRow(row)
	if err != nil {
		if cur.conn.shouldLog(LogLevelError) {
			data := map[string]interface{}{"row": row, "err": err}
			var fieldErr *adapt.LoadFieldError
			if errors.As(err, &fieldErr) {
				col := fieldErr.Field
				data["field"] = col
				data["value"] = logCellValue(cur.res.Value(row, col), cur.res.ColumnType(col).Format)
			}
			cur.conn.log(context.Background(), LogLevelError, "row load failed", data)
		}
		return nil, err
	}
	return values, nil
}

// Values loads every row of the bound result.
func (cur *Cursor) Values() ([][]interface{}, error) {
	if cur.tx == nil {
		return nil, ErrNoResult
	}
	rows := make([][]interface{}, cur.res.NTuples())
	for i := range rows {
		values, err := cur.Row(i)
		if err != nil {
			return nil, err
		}
		rows[i] = values
	}
	return rows, nil
}

// ArchiveTo writes the bound result to w in the framing read by ReplayFrom,
// so a result can be stored and loaded again without a server.
func (cur *Cursor) ArchiveTo(w io.Writer) error {
	if cur.res == nil {
		return ErrNoResult
	}
	rb, ok := cur.res.(*pq.ResultBuffer)
	if !ok {
		return fmt.Errorf("cannot archive result of type %T", cur.res)
	}
	if _, err := rb.WriteTo(w); err != nil {
		return err
	}

	if cur.conn.shouldLog(LogLevelInfo) {
		cur.conn.log(context.Background(), LogLevelInfo, "result archived",
			map[string]interface{}{"fields": rb.NFields(), "tuples": rb.NTuples()})
	}
	return nil
}

// ReplayFrom reads a result archived by ArchiveTo from r and binds it.
func (cur *Cursor) ReplayFrom(r io.Reader) error {
	rb, err := pq.ReadResultBuffer(r)
	if err != nil {
		return err
	}
	cur.BindResult(rb)
	return nil
}
