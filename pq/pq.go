// Package pq models the PostgreSQL result data that adaptation works on:
// wire format codes, raw query results, SQL escaping, and client encodings.
package pq

import "strconv"

// Format is a PostgreSQL wire format code as used in Bind and RowDescription
// messages.
type Format int16

const (
	TextFormat   = Format(0)
	BinaryFormat = Format(1)
)

func (f Format) String() string {
	switch f {
	case TextFormat:
		return "text"
	case BinaryFormat:
		return "binary"
	default:
		return "invalid format code " + strconv.FormatInt(int64(f), 10)
	}
}
