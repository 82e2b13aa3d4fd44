package log15adapter_test

import (
	"context"
	"testing"

	log15 "gopkg.in/inconshreveable/log15.v2"

	psycopg "github.com/The-One-And-Only-H/psycopg"
	"github.com/The-One-And-Only-H/psycopg/log/log15adapter"
)

func TestLogger(t *testing.T) {
	var records []*log15.Record
	l := log15.New()
	l.SetHandler(log15.FuncHandler(func(r *log15.Record) error {
		records = append(records, r)
		return nil
	}))
	adapter := log15adapter.NewLogger(l)

	adapter.Log(context.Background(), psycopg.LogLevelInfo, "hello", map[string]interface{}{"one": "two"})
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Lvl != log15.LvlInfo {
		t.Errorf("level %v != info", r.Lvl)
	}
	if r.Msg != "hello" {
		t.Errorf("message %q != %q", r.Msg, "hello")
	}
	if len(r.Ctx) != 2 || r.Ctx[0] != "one" || r.Ctx[1] != "two" {
		t.Errorf("ctx %v != [one two]", r.Ctx)
	}

	records = nil
	adapter.Log(context.Background(), psycopg.LogLevelTrace, "details", nil)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r = records[0]
	if r.Lvl != log15.LvlDebug {
		t.Errorf("level %v != debug", r.Lvl)
	}
	if len(r.Ctx) != 2 || r.Ctx[0] != "PSYCOPG_LOG_LEVEL" {
		t.Errorf("ctx %v missing trace level marker", r.Ctx)
	}
}
