// Package zerologadapter provides a logger that writes to a github.com/rs/zerolog.
package zerologadapter

import (
	"context"

	"github.com/rs/zerolog"

	psycopg "github.com/The-One-And-Only-H/psycopg"
)

type Logger struct {
	logger      zerolog.Logger
	withFunc    func(context.Context, zerolog.Context) zerolog.Context
	fromContext bool
	skipModule  bool
}

// option options for configuring the logger when creating a new logger.
type option func(logger *Logger)

// WithContextFunc adds possibility to get request scoped values from the
// ctx.Context before logging lines.
func WithContextFunc(withFunc func(context.Context, zerolog.Context) zerolog.Context) option {
	return func(logger *Logger) {
		logger.withFunc = withFunc
	}
}

// WithoutModule disables adding module:psycopg to the default logger.
func WithoutModule() option {
	return func(logger *Logger) {
		logger.skipModule = true
	}
}

// NewLogger accepts a zerolog.Logger as input and returns a new custom
// logging facade as output.
func NewLogger(logger zerolog.Logger, options ...option) *Logger {
	l := Logger{logger: logger}
	l.init(options...)
	return &l
}

// NewContextLogger creates a logger that extracts the zerolog.Logger from the
// context.Context by using zerolog.Ctx.
func NewContextLogger(options ...option) *Logger {
	l := Logger{fromContext: true}
	l.init(options...)
	return &l
}

func (pl *Logger) init(options ...option) {
	for _, opt := range options {
		opt(pl)
	}
	if !pl.fromContext && !pl.skipModule {
		pl.logger = pl.logger.With().Str("module", "psycopg").Logger()
	}
}

func (pl *Logger) Log(ctx context.Context, level psycopg.LogLevel, msg string, data map[string]interface{}) {
	var zlevel zerolog.Level
	switch level {
	case psycopg.LogLevelNone:
		zlevel = zerolog.NoLevel
	case psycopg.LogLevelError:
		zlevel = zerolog.ErrorLevel
	case psycopg.LogLevelWarn:
		zlevel = zerolog.WarnLevel
	case psycopg.LogLevelInfo:
		zlevel = zerolog.InfoLevel
	case psycopg.LogLevelDebug:
		zlevel = zerolog.DebugLevel
	default:
		zlevel = zerolog.DebugLevel
	}

	var zctx zerolog.Context
	if pl.fromContext {
		zctx = zerolog.Ctx(ctx).With()
		if !pl.skipModule {
			zctx = zctx.Str("module", "psycopg")
		}
	} else {
		zctx = pl.logger.With()
	}
	if pl.withFunc != nil {
		zctx = pl.withFunc(ctx, zctx)
	}

	plog := zctx.Fields(data).Logger()
	plog.WithLevel(zlevel).Msg(msg)
}
