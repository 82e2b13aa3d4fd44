// Package logrusadapter provides a logger that writes to a github.com/sirupsen/logrus.Logger
// log.
package logrusadapter

import (
	"context"

	"github.com/sirupsen/logrus"

	psycopg "github.com/The-One-And-Only-H/psycopg"
)

type Logger struct {
	l logrus.FieldLogger
}

func NewLogger(l logrus.FieldLogger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level psycopg.LogLevel, msg string, data map[string]interface{}) {
	var logger logrus.FieldLogger
	if data != nil {
		logger = l.l.WithFields(data)
	} else {
		logger = l.l
	}

	switch level {
	case psycopg.LogLevelTrace:
		logger.WithField("PSYCOPG_LOG_LEVEL", level).Debug(msg)
	case psycopg.LogLevelDebug:
		logger.Debug(msg)
	case psycopg.LogLevelInfo:
		logger.Info(msg)
	case psycopg.LogLevelWarn:
		logger.Warn(msg)
	case psycopg.LogLevelError:
		logger.Error(msg)
	default:
		logger.WithField("INVALID_PSYCOPG_LOG_LEVEL", level).Error(msg)
	}
}
