package zapadapter_test

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	psycopg "github.com/The-One-And-Only-H/psycopg"
	"github.com/The-One-And-Only-H/psycopg/log/zapadapter"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	adapter := zapadapter.NewLogger(zap.New(core))

	adapter.Log(context.Background(), psycopg.LogLevelInfo, "hello", map[string]interface{}{"one": "two"})
	entries := logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.InfoLevel {
		t.Errorf("level %v != info", e.Level)
	}
	if e.Message != "hello" {
		t.Errorf("message %q != %q", e.Message, "hello")
	}
	if e.ContextMap()["one"] != "two" {
		t.Errorf("context %v missing one=two", e.ContextMap())
	}

	adapter.Log(context.Background(), psycopg.LogLevelTrace, "details", nil)
	entries = logs.TakeAll()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e = entries[0]
	if e.Level != zapcore.DebugLevel {
		t.Errorf("level %v != debug", e.Level)
	}
	if e.ContextMap()["PSYCOPG_LOG_LEVEL"] != "trace" {
		t.Errorf("context %v missing trace level marker", e.ContextMap())
	}

	adapter.Log(context.Background(), psycopg.LogLevelWarn, "careful", nil)
	entries = logs.TakeAll()
	if len(entries) != 1 || entries[0].Level != zapcore.WarnLevel {
		t.Errorf("expected one warn entry, got %v", entries)
	}
}
