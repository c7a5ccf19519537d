package app

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want slog.Level
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "unknown", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
	}

	for _, tc := range cases {
		got := parseLogLevel(tc.in)
		if got != tc.want {
			t.Fatalf("parseLogLevel(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestNewLogger_JSONDefault(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newLogger(&buf, "info", "")
	log.Debug("hidden")
	log.Info("auth.login.ok", "user_id", "abc")

	line := strings.TrimSpace(buf.String())
	if strings.Contains(line, "hidden") {
		t.Fatalf("debug record leaked at info level: %s", line)
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("not json: %v (%s)", err, line)
	}
	if rec["msg"] != "auth.login.ok" || rec["user_id"] != "abc" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, ok := rec["source"]; !ok {
		t.Fatalf("source missing: %v", rec)
	}
}

func TestNewLogger_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := newLogger(&buf, "debug", "TEXT")
	log.Debug("http.request", "status", 204)

	out := buf.String()
	if !strings.Contains(out, "msg=http.request") || !strings.Contains(out, "status=204") {
		t.Fatalf("unexpected text output: %s", out)
	}
}
