package adapt

import (
	"fmt"
	"reflect"

	"github.com/The-One-And-Only-H/psycopg/pq"
)

// UnsupportedTypeError is returned by dumper resolution when no registered
// dumper covers a Go type in the requested format.
type UnsupportedTypeError struct {
	Type   reflect.Type
	Format pq.Format
}

func (e *UnsupportedTypeError) Error() string {
	name := "<nil>"
	if e.Type != nil {
		name = e.Type.String()
	}
	return fmt.Sprintf("cannot adapt type %s to format %s", name, e.Format)
}

// InvalidRegistrationError is returned when a dumper or loader registration
// is given a malformed source or a nil constructor. It is reported at the
// registration call site, not later during resolution.
type InvalidRegistrationError struct {
	Reason string
}

func (e *InvalidRegistrationError) Error() string {
	return "invalid adapter registration: " + e.Reason
}

// OutOfRangeRowError is returned by LoadRow for a row index outside the
// attached result, including when no result is attached at all.
type OutOfRangeRowError struct {
	Row     int
	NTuples int
}

func (e *OutOfRangeRowError) Error() string {
	return fmt.Sprintf("row %d out of range: result has %d rows", e.Row, e.NTuples)
}

// LoadFieldError reports the field at which row decoding failed.
type LoadFieldError struct {
	Field int
	Err   error
}

func (e *LoadFieldError) Error() string {
	return fmt.Sprintf("can't load field %d: %v", e.Field, e.Err)
}

func (e *LoadFieldError) Unwrap() error { return e.Err }
