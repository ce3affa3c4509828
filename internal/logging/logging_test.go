package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug": zerolog.DebugLevel,
		" WARN": zerolog.WarnLevel,
		"error": zerolog.ErrorLevel,
		"":      zerolog.InfoLevel,
		"bogus": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", false)
	l.Info().Msg("hidden")
	l.Warn().Str("component", "ws").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["component"] != "ws" || entry["level"] != "warn" {
		t.Fatalf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("entry missing timestamp: %v", entry)
	}
}

func TestPerTick_Samples(t *testing.T) {
	var buf bytes.Buffer
	l := PerTick(New(&buf, "info", false))
	for i := 0; i < 50; i++ {
		l.Info().Int("i", i).Msg("send failed")
	}
	lines := bytes.Count(buf.Bytes(), []byte("\n"))
	if lines < 5 || lines >= 50 {
		t.Fatalf("sampled lines = %d", lines)
	}
}
