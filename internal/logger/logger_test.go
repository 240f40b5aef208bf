package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level  string
		expect zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.expect {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.expect)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	for _, format := range []string{"console", "json"} {
		Setup("debug", format)
		if Log == nil {
			t.Fatalf("expected Log to be initialized for format %q", format)
		}
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("expected global level debug, got %v", zerolog.GlobalLevel())
	}
}

func TestJSONOutputFields(t *testing.T) {
	var buf bytes.Buffer
	prev := Log
	defer func() { Log = prev }()

	SetOutput(&buf, "json")
	Log.Warn("skipping row", "line", 7, "reason", "wrong field count", "err", errors.New("boom"), "dangling")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "skipping row" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry["line"] != float64(7) {
		t.Errorf("expected line=7, got %v", entry["line"])
	}
	if entry["err"] != "boom" {
		t.Errorf("expected err=boom, got %v", entry["err"])
	}
	if strings.Contains(buf.String(), "dangling") {
		t.Error("dangling key without value should be dropped")
	}
}
