package logx

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{" WARNING ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in, zerolog.InfoLevel); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("loud") {
		t.Fatalf("expected loud to be rejected")
	}
	if !ValidLevel("") || !ValidLevel("trace") {
		t.Fatalf("expected empty and trace to be accepted")
	}
}

func TestWriterLoggerFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	log := NewWriter(&buf, "debug").With(String("comp", "reminder"))
	log.Info("fire done", Int("delivered", 2), Err(nil))
	log.Trace("dropped")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["comp"] != "reminder" || m["message"] != "fire done" || m["delivered"] != float64(2) {
		t.Fatalf("unexpected fields: %v", m)
	}
	if _, ok := m["err"]; ok {
		t.Fatalf("nil error must not be logged")
	}
}

func TestFormatChatLine(t *testing.T) {
	t.Parallel()
	got := formatChatLine([]byte(`{"level":"warn","time":"x","message":"reminder delivery failed","channel":"42","err":"boom"}`))
	want := "[WARN] reminder delivery failed\n- channel=42\n- err=boom"
	if got != want {
		t.Fatalf("formatChatLine = %q, want %q", got, want)
	}
	if got := formatChatLine([]byte("plain text\n")); got != "plain text" {
		t.Fatalf("non-JSON line = %q", got)
	}
}

func TestZeroLoggerIsSafe(t *testing.T) {
	t.Parallel()
	var l Logger
	if !l.IsZero() {
		t.Fatalf("zero logger should report IsZero")
	}
	l.Error("nothing happens")
	if Nop().IsZero() {
		t.Fatalf("Nop logger should not be zero")
	}
}
