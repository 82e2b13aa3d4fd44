// Package zapadapter provides a logger that writes to a go.uber.org/zap.Logger.
package zapadapter

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	psycopg "github.com/The-One-And-Only-H/psycopg"
)

type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (pl *Logger) Log(ctx context.Context, level psycopg.LogLevel, msg string, data map[string]interface{}) {
	fields := make([]zapcore.Field, len(data))
	i := 0
	for k, v := range data {
		fields[i] = zap.Any(k, v)
		i++
	}

	switch level {
	case psycopg.LogLevelTrace:
		pl.logger.Debug(msg, append(fields, zap.Stringer("PSYCOPG_LOG_LEVEL", level))...)
	case psycopg.LogLevelDebug:
		pl.logger.Debug(msg, fields...)
	case psycopg.LogLevelInfo:
		pl.logger.Info(msg, fields...)
	case psycopg.LogLevelWarn:
		pl.logger.Warn(msg, fields...)
	case psycopg.LogLevelError:
		pl.logger.Error(msg, fields...)
	default:
		pl.logger.Error(msg, append(fields, zap.Stringer("INVALID_PSYCOPG_LOG_LEVEL", level))...)
	}
}
