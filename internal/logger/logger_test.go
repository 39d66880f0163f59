package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, Config{Level: LevelWarn, Format: "json"})

	l.Info("skipped")
	l.Warn("kept", "user_id", "default")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "kept" || entry["user_id"] != "default" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInitWithConfigFileOutput(t *testing.T) {
	prev := GetLogger()
	t.Cleanup(func() { SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := InitWithConfig(Config{Level: LevelInfo, OutputPath: path, Format: "text"}); err != nil {
		t.Fatalf("InitWithConfig failed: %v", err)
	}

	Info("server started", "addr", ":5001")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "server started") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func TestWithContextRequestID(t *testing.T) {
	prev := GetLogger()
	t.Cleanup(func() { SetDefault(prev) })

	var buf bytes.Buffer
	SetDefault(New(&buf, Config{Level: LevelInfo, Format: "text"}))

	ctx := ContextWithRequestID(context.Background(), "req-42")
	WithContext(ctx).Info("handled")

	if !strings.Contains(buf.String(), "request_id=req-42") {
		t.Errorf("request id missing: %q", buf.String())
	}
}
