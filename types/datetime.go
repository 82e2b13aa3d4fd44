package types

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/jackc/pgio"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

const (
	pgDateFormat        = "2006-01-02"
	pgTimestampFormat   = "2006-01-02 15:04:05.999999"
	pgTimestamptzFormat = "2006-01-02 15:04:05.999999Z07:00"

	microsecFromUnixEpochToY2K = 946684800 * 1000000
)

var dateEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Date wraps a time.Time to be dumped as a date rather than a timestamptz.
// Only the year, month and day are sent.
type Date struct {
	Time time.Time
}

// Timestamp wraps a time.Time to be dumped as a timestamp without time
// zone. The wall clock time is sent and the location is ignored.
type Timestamp struct {
	Time time.Time
}

func asTime(v interface{}) (time.Time, bool, error) {
	switch t := v.(type) {
	case time.Time:
		return t, false, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, true, nil
		}
		return *t, false, nil
	case Date:
		return t.Time, false, nil
	case Timestamp:
		return t.Time, false, nil
	}
	return time.Time{}, false, fmt.Errorf("cannot dump %T as a timestamp", v)
}

// discardLocation reinterprets the wall clock reading of t as UTC.
func discardLocation(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func microsecSinceY2K(t time.Time) int64 {
	return t.Unix()*1000000 + int64(t.Nanosecond())/1000 - microsecFromUnixEpochToY2K
}

func timeFromMicrosecSinceY2K(micros int64) time.Time {
	micros += microsecFromUnixEpochToY2K
	return time.Unix(micros/1000000, (micros%1000000)*1000).UTC()
}

// DateDumper dumps Date values in the text format.
type DateDumper struct{}

// NewDateDumper is the registered constructor for DateDumper.
func NewDateDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return DateDumper{}
}

func (DateDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	t, null, err := asTime(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return t.AppendFormat(buf, pgDateFormat), nil
}

func (DateDumper) Oid() oids.Oid     { return oids.Date }
func (DateDumper) Format() pq.Format { return pq.TextFormat }

// DateBinaryDumper dumps Date values in the binary format: days since
// 2000-01-01 as an int32.
type DateBinaryDumper struct{}

// NewDateBinaryDumper is the registered constructor for DateBinaryDumper.
func NewDateBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return DateBinaryDumper{}
}

func (DateBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	t, null, err := asTime(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := (t.Unix() - dateEpoch.Unix()) / 86400
	return pgio.AppendInt32(buf, int32(days)), nil
}

func (DateBinaryDumper) Oid() oids.Oid     { return oids.Date }
func (DateBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// TimestampDumper dumps Timestamp values in the text format, without a time
// zone offset.
type TimestampDumper struct{}

// NewTimestampDumper is the registered constructor for TimestampDumper.
func NewTimestampDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return TimestampDumper{}
}

func (TimestampDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	t, null, err := asTime(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return t.Truncate(time.Microsecond).AppendFormat(buf, pgTimestampFormat), nil
}

func (TimestampDumper) Oid() oids.Oid     { return oids.Timestamp }
func (TimestampDumper) Format() pq.Format { return pq.TextFormat }

// TimestampBinaryDumper dumps Timestamp values in the binary format:
// microseconds of wall clock time since 2000-01-01 as an int64.
type TimestampBinaryDumper struct{}

// NewTimestampBinaryDumper is the registered constructor for
// TimestampBinaryDumper.
func NewTimestampBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return TimestampBinaryDumper{}
}

func (TimestampBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	t, null, err := asTime(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return pgio.AppendInt64(buf, microsecSinceY2K(discardLocation(t))), nil
}

func (TimestampBinaryDumper) Oid() oids.Oid     { return oids.Timestamp }
func (TimestampBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// TimestamptzDumper dumps time.Time values in the text format with a time
// zone offset.
type TimestamptzDumper struct{}

// NewTimestamptzDumper is the registered constructor for TimestamptzDumper.
func NewTimestamptzDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return TimestamptzDumper{}
}

func (TimestamptzDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	t, null, err := asTime(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return t.Truncate(time.Microsecond).AppendFormat(buf, pgTimestamptzFormat), nil
}

func (TimestamptzDumper) Oid() oids.Oid     { return oids.Timestamptz }
func (TimestamptzDumper) Format() pq.Format { return pq.TextFormat }

// TimestamptzBinaryDumper dumps time.Time values in the binary format:
// microseconds since 2000-01-01 00:00:00 UTC as an int64.
type TimestamptzBinaryDumper struct{}

// NewTimestamptzBinaryDumper is the registered constructor for
// TimestamptzBinaryDumper.
func NewTimestamptzBinaryDumper(typ reflect.Type, ctx adapt.AdaptContext) adapt.Dumper {
	return TimestamptzBinaryDumper{}
}

func (TimestamptzBinaryDumper) Dump(v interface{}, buf []byte) ([]byte, error) {
	t, null, err := asTime(v)
	if err != nil {
		return nil, err
	}
	if null {
		return nil, nil
	}
	return pgio.AppendInt64(buf, microsecSinceY2K(t)), nil
}

func (TimestamptzBinaryDumper) Oid() oids.Oid     { return oids.Timestamptz }
func (TimestamptzBinaryDumper) Format() pq.Format { return pq.BinaryFormat }

// DateLoader parses text format dates. The infinity special values have no
// time.Time representation and fail.
type DateLoader struct{}

// NewDateLoader is the registered constructor for DateLoader.
func NewDateLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return DateLoader{}
}

func (DateLoader) Load(data []byte) (interface{}, error) {
	s := string(data)
	switch s {
	case "infinity", "-infinity":
		return nil, fmt.Errorf("cannot load date %q as a time", s)
	}
	t, err := time.Parse(pgDateFormat, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date: %w", err)
	}
	return t, nil
}

// DateBinaryLoader loads binary format dates: days since 2000-01-01.
type DateBinaryLoader struct{}

// NewDateBinaryLoader is the registered constructor for DateBinaryLoader.
func NewDateBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return DateBinaryLoader{}
}

func (DateBinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("invalid length for date: %v", len(data))
	}
	days := int32(binary.BigEndian.Uint32(data))
	switch days {
	case math.MaxInt32, math.MinInt32:
		return nil, fmt.Errorf("cannot load a date infinity as a time")
	}
	return dateEpoch.AddDate(0, 0, int(days)), nil
}

// TimestampLoader parses text format timestamps without time zone. The
// result is in UTC.
type TimestampLoader struct{}

// NewTimestampLoader is the registered constructor for TimestampLoader.
func NewTimestampLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return TimestampLoader{}
}

func (TimestampLoader) Load(data []byte) (interface{}, error) {
	s := string(data)
	switch s {
	case "infinity", "-infinity":
		return nil, fmt.Errorf("cannot load timestamp %q as a time", s)
	}
	t, err := time.Parse(pgTimestampFormat, s)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp: %w", err)
	}
	return t, nil
}

// TimestampBinaryLoader loads binary format timestamps: microseconds since
// 2000-01-01, read as UTC.
type TimestampBinaryLoader struct{}

// NewTimestampBinaryLoader is the registered constructor for
// TimestampBinaryLoader.
func NewTimestampBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return TimestampBinaryLoader{}
}

func (TimestampBinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("invalid length for timestamp: %v", len(data))
	}
	micros := int64(binary.BigEndian.Uint64(data))
	switch micros {
	case math.MaxInt64, math.MinInt64:
		return nil, fmt.Errorf("cannot load a timestamp infinity as a time")
	}
	return timeFromMicrosecSinceY2K(micros), nil
}

// TimestamptzLoader parses text format timestamps with time zone.
type TimestamptzLoader struct{}

// NewTimestamptzLoader is the registered constructor for TimestamptzLoader.
func NewTimestamptzLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return TimestamptzLoader{}
}

// Server offsets come in hour, hour:minute and full forms depending on the
// time zone in force.
var timestamptzLayouts = []string{
	"2006-01-02 15:04:05.999999Z07",
	"2006-01-02 15:04:05.999999Z07:00",
	"2006-01-02 15:04:05.999999Z07:00:00",
}

func (TimestamptzLoader) Load(data []byte) (interface{}, error) {
	s := string(data)
	switch s {
	case "infinity", "-infinity":
		return nil, fmt.Errorf("cannot load timestamptz %q as a time", s)
	}
	var firstErr error
	for _, layout := range timestamptzLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("invalid timestamptz: %w", firstErr)
}

// TimestamptzBinaryLoader loads binary format timestamps with time zone.
// The result is in UTC.
type TimestamptzBinaryLoader struct{}

// NewTimestamptzBinaryLoader is the registered constructor for
// TimestamptzBinaryLoader.
func NewTimestamptzBinaryLoader(oid oids.Oid, mod int32, ctx adapt.AdaptContext) adapt.Loader {
	return TimestamptzBinaryLoader{}
}

func (TimestamptzBinaryLoader) Load(data []byte) (interface{}, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("invalid length for timestamptz: %v", len(data))
	}
	micros := int64(binary.BigEndian.Uint64(data))
	switch micros {
	case math.MaxInt64, math.MinInt64:
		return nil, fmt.Errorf("cannot load a timestamptz infinity as a time")
	}
	return timeFromMicrosecSinceY2K(micros), nil
}

func init() {
	// A bare time.Time carries a location, so it maps to timestamptz. The
	// Date and Timestamp wrappers select the other types.
	for _, v := range []interface{}{time.Time{}, (*time.Time)(nil)} {
		must(adapt.RegisterDumper(v, nil, pq.TextFormat, NewTimestamptzDumper))
		must(adapt.RegisterBinaryDumper(v, nil, NewTimestamptzBinaryDumper))
	}
	must(adapt.RegisterDumper(Date{}, nil, pq.TextFormat, NewDateDumper))
	must(adapt.RegisterBinaryDumper(Date{}, nil, NewDateBinaryDumper))
	must(adapt.RegisterDumper(Timestamp{}, nil, pq.TextFormat, NewTimestampDumper))
	must(adapt.RegisterBinaryDumper(Timestamp{}, nil, NewTimestampBinaryDumper))

	must(adapt.RegisterLoader(oids.Date, nil, pq.TextFormat, NewDateLoader))
	must(adapt.RegisterBinaryLoader(oids.Date, nil, NewDateBinaryLoader))
	must(adapt.RegisterLoader(oids.Timestamp, nil, pq.TextFormat, NewTimestampLoader))
	must(adapt.RegisterBinaryLoader(oids.Timestamp, nil, NewTimestampBinaryLoader))
	must(adapt.RegisterLoader(oids.Timestamptz, nil, pq.TextFormat, NewTimestamptzLoader))
	must(adapt.RegisterBinaryLoader(oids.Timestamptz, nil, NewTimestamptzBinaryLoader))
}
