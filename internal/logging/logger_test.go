package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mohammadpnp/identity-import/internal/logging"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := logging.New(&buf, "info", "json")
	logger.Debug("hidden")
	logger.Info("import started", "job_id", "job-1")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single json entry, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "import started" {
		t.Fatalf("unexpected msg: %#v", entry["msg"])
	}
	if entry["job_id"] != "job-1" {
		t.Fatalf("unexpected job_id: %#v", entry["job_id"])
	}
	if entry["service"] != "identity-import" {
		t.Fatalf("unexpected service: %#v", entry["service"])
	}
}
