package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := ParseLevel(tt.input)
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true, slog.LevelInfo)

	logger.Info("aggregation completed", "cycle_id", "abc", "events", 12)

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v\noutput: %s", err, buf.String())
	}
	if m["msg"] != "aggregation completed" {
		t.Errorf("expected msg 'aggregation completed', got %q", m["msg"])
	}
	if m["cycle_id"] != "abc" {
		t.Errorf("expected cycle_id 'abc', got %v", m["cycle_id"])
	}
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false, slog.LevelInfo)

	logger.Warn("provider failed", "provider", "sportsdb:4370")

	out := buf.String()
	if !strings.Contains(out, "provider=sportsdb:4370") {
		t.Errorf("expected key=value text output, got %q", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false, slog.LevelWarn)

	logger.Info("should be filtered")
	logger.Debug("should also be filtered")

	if buf.Len() != 0 {
		t.Errorf("expected no output below warn level, got %q", buf.String())
	}

	logger.Warn("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("expected warn message in output, got %q", buf.String())
	}
}
