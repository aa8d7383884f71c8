package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitIsSingleton(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var buf bytes.Buffer
	log := Init(Options{Level: "debug", Service: "fleet-auth", Output: &buf})

	// A second Init must not rebuild the instance.
	other := Init(Options{Level: "error", Output: &bytes.Buffer{}})
	other.Debug().Msg("still debug level")

	log.Info().Msg("hello")
	out := buf.String()
	if !strings.Contains(out, `"service":"fleet-auth"`) || !strings.Contains(out, `"message":"hello"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "still debug level") {
		t.Fatalf("second Init replaced the singleton: %s", out)
	}

	if Get().GetLevel() != zerolog.DebugLevel {
		t.Fatalf("unexpected level: %v", Get().GetLevel())
	}
}

func TestGetBeforeInitPanics(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	defer func() {
		if recover() == nil {
			t.Fatalf("Get before Init must panic")
		}
	}()
	Get()
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":     zerolog.TraceLevel,
		"debug":     zerolog.DebugLevel,
		" WARN ":    zerolog.WarnLevel,
		"warning":   zerolog.WarnLevel,
		"error":     zerolog.ErrorLevel,
		"":          zerolog.InfoLevel,
		"gibberish": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
