package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info(context.Background(), "dropped")
	log.Warn(context.Background(), "kept", Int("index", 3), Err(errors.New("boom")))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if rec["msg"] != "kept" || rec["index"] != float64(3) || rec["error"] != "boom" {
		t.Fatalf("unexpected record: %v", rec)
	}
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "text", Output: &buf}).With(String("component", "tuner"))
	log.Info(context.Background(), "hello", Bool("ready", true))

	out := buf.String()
	if !strings.Contains(out, "component=tuner") || !strings.Contains(out, "ready=true") {
		t.Fatalf("text output missing fields: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"chatty":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestEnsureMatchIDIsStable(t *testing.T) {
	ctx, id := EnsureMatchID(context.Background())
	if id == "" {
		t.Fatalf("EnsureMatchID returned empty id")
	}
	again, id2 := EnsureMatchID(ctx)
	if id2 != id || MatchIDFromContext(again) != id {
		t.Fatalf("EnsureMatchID regenerated id: %q vs %q", id, id2)
	}

	preset := ContextWithMatchID(context.Background(), "room-1234")
	if _, got := EnsureMatchID(preset); got != "room-1234" {
		t.Fatalf("EnsureMatchID overwrote preset id, got %q", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	if LoggerFromContext(context.Background()) != nil {
		t.Fatalf("expected nil logger on bare context")
	}
	ctx := ContextWithLogger(context.Background(), nil)
	if _, ok := LoggerFromContext(ctx).(noopLogger); !ok {
		t.Fatalf("nil logger should be stored as noop")
	}

	var buf bytes.Buffer
	ctx, log := WithMatchLogger(ContextWithMatchID(context.Background(), "m-1"), New(Config{Format: "text", Output: &buf}))
	log.Info(ctx, "tick")
	if !strings.Contains(buf.String(), "match_id=m-1") {
		t.Fatalf("match logger missing match_id: %q", buf.String())
	}
}
