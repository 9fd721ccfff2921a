package log

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetLevel(LevelInfo)
		SetOutput(nil)
	})

	Debug("hidden", "k", "v")
	Info("shown", "count", 2)
	Error("failed", errors.New("boom"), "key", "pulse_events")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line should be filtered at INFO; got:\n%s", out)
	}
	if !strings.Contains(out, "[INFO] shown count=2") {
		t.Fatalf("expected info line with kv; got:\n%s", out)
	}
	if !strings.Contains(out, "[ERROR] failed err=boom key=pulse_events") {
		t.Fatalf("expected error line with err first; got:\n%s", out)
	}
}

func TestFormatValueQuotesSpaces(t *testing.T) {
	if got := formatValue("two words"); got != `"two words"` {
		t.Fatalf("formatValue: got %s", got)
	}
	if got := formatValue(42); got != "42" {
		t.Fatalf("formatValue: got %s", got)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" ERROR ": LevelError,
		"":        LevelInfo,
		"trace":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q): got %s want %s", in, got, want)
		}
	}
}
