package psycopg

import (
	"context"
	"errors"
	"fmt"

	"github.com/The-One-And-Only-H/psycopg/pq"
)

// LogLevel represents the logging level. See LogLevel* constants for
// possible values.
type LogLevel int

// The values for log levels are chosen such that the zero value means that no
// log level was specified and we can default to LogLevelDebug to preserve
// the behavior that existed prior to log level introduction.
const (
	LogLevelTrace = LogLevel(6)
	LogLevelDebug = LogLevel(5)
	LogLevelInfo  = LogLevel(4)
	LogLevelWarn  = LogLevel(3)
	LogLevelError = LogLevel(2)
	LogLevelNone  = LogLevel(1)
)

func (ll LogLevel) String() string {
	switch ll {
	case LogLevelTrace:
		return "trace"
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarn:
		return "warn"
	case LogLevelError:
		return "error"
	case LogLevelNone:
		return "none"
	default:
		return fmt.Sprintf("invalid level %d", int(ll))
	}
}

// LogLevelFromString converts log level string to constant
//
// Valid levels:
//
//	trace
//	debug
//	info
//	warn
//	error
//	none
func LogLevelFromString(s string) (LogLevel, error) {
	switch s {
	case "trace":
		return LogLevelTrace, nil
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	case "none":
		return LogLevelNone, nil
	default:
		return 0, errors.New("invalid log level")
	}
}

// Logger is the interface used to get logging from psycopg internals. The
// adapters under log/ implement it for several common logging packages.
type Logger interface {
	// Log a message at the given level with data key/value pairs. data may be nil.
	Log(ctx context.Context, level LogLevel, msg string, data map[string]interface{})
}

// LoggerFunc is a wrapper around a function to satisfy the Logger interface.
type LoggerFunc func(ctx context.Context, level LogLevel, msg string, data map[string]interface{})

// Log delegates the logging request to the wrapped function.
func (f LoggerFunc) Log(ctx context.Context, level LogLevel, msg string, data map[string]interface{}) {
	f(ctx, level, msg, data)
}

// logCellValue renders a result cell for logging. Binary cells are hex
// encoded and long values are truncated so one oversized cell cannot flood
// the log.
func logCellValue(data []byte, format pq.Format) interface{} {
	if data == nil {
		return "NULL"
	}
	if format == pq.BinaryFormat {
		if len(data) <= 64 {
			return fmt.Sprintf("%x", data)
		}
		return fmt.Sprintf("%x (truncated %d bytes)", data[:64], len(data)-64)
	}
	if len(data) > 64 {
		return fmt.Sprintf("%s (truncated %d bytes)", data[:64], len(data)-64)
	}
	return string(data)
}
