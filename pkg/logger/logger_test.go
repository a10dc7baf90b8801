package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogLevelFiltering(t *testing.T) {
	originalLogger := Logger
	t.Cleanup(func() {
		Logger = originalLogger
		SetLogLevel(INFO)
	})

	var buf bytes.Buffer
	Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	SetLogLevel(WARN)
	Info("info message should be filtered")
	Warn("warn message should appear")
	Error("error message should appear")

	output := buf.String()
	if strings.Contains(output, "info message should be filtered") {
		t.Fatalf("info message was logged at WARN level:\n%s", output)
	}
	if !strings.Contains(output, "warn message should appear") {
		t.Fatalf("warn message was not logged:\n%s", output)
	}
	if !strings.Contains(output, "error message should appear") {
		t.Fatalf("error message was not logged:\n%s", output)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   DEBUG,
		" INFO ":  INFO,
		"warning": WARN,
		"error":   ERROR,
	}
	for input, want := range cases {
		got, err := ParseLogLevel(input)
		if err != nil {
			t.Fatalf("ParseLogLevel(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseLogLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestConfigureWritesJSONToFile(t *testing.T) {
	originalLogger := Logger
	t.Cleanup(func() {
		Logger = originalLogger
		SetLogLevel(INFO)
	})

	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	if err := Configure(Options{Level: "info", File: path, Format: "json"}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	Info("entry submitted", "user_id", 42)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"entry submitted"`) {
		t.Fatalf("expected JSON record in log file, got %q", string(data))
	}
}

func TestConfigureReportsInvalidValues(t *testing.T) {
	originalLogger := Logger
	t.Cleanup(func() {
		Logger = originalLogger
		SetLogLevel(INFO)
	})

	err := Configure(Options{Level: "chatty", Format: "xml"})
	if err == nil {
		t.Fatalf("expected error for invalid level and format")
	}
	if !strings.Contains(err.Error(), "chatty") || !strings.Contains(err.Error(), "xml") {
		t.Fatalf("expected both invalid values in error, got %v", err)
	}
	if !Enabled(INFO) || Enabled(DEBUG) {
		t.Fatalf("expected fallback to INFO level")
	}
}
