// Package kitlogadapter provides a logger that writes to a github.com/go-kit/log.Logger
// log.
package kitlogadapter

import (
	"context"

	"github.com/go-kit/log"
	kitlevel "github.com/go-kit/log/level"

	psycopg "github.com/The-One-And-Only-H/psycopg"
)

type Logger struct {
	l log.Logger
}

func NewLogger(l log.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level psycopg.LogLevel, msg string, data map[string]interface{}) {
	logger := l.l
	for k, v := range data {
		logger = log.With(logger, k, v)
	}

	switch level {
	case psycopg.LogLevelTrace:
		kitlevel.Debug(logger).Log("PSYCOPG_LOG_LEVEL", level, "msg", msg)
	case psycopg.LogLevelDebug:
		kitlevel.Debug(logger).Log("msg", msg)
	case psycopg.LogLevelInfo:
		kitlevel.Info(logger).Log("msg", msg)
	case psycopg.LogLevelWarn:
		kitlevel.Warn(logger).Log("msg", msg)
	case psycopg.LogLevelError:
		kitlevel.Error(logger).Log("msg", msg)
	default:
		logger.Log("INVALID_PSYCOPG_LOG_LEVEL", level, "error", msg)
	}
}
