package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig("test")
	cfg.Level = level
	cfg.Output = buf
	return NewWithConfig(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	logger := New("test-service")

	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.Name() != "test-service" {
		t.Errorf("Name() = %v, want test-service", logger.Name())
	}
}

func TestLogger_WritesStructuredJSON(t *testing.T) {
	logger, buf := newBufferLogger("info")

	logger.Info("operation committed", "op", "add", "total", "15.00", "count", 2)

	entries := decodeLines(t, buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	e := entries[0]
	if e["message"] != "operation committed" {
		t.Errorf("message = %v", e["message"])
	}
	if e["level"] != "info" {
		t.Errorf("level = %v, want info", e["level"])
	}
	if e["logger"] != "test" {
		t.Errorf("logger = %v, want test", e["logger"])
	}
	if e["op"] != "add" || e["total"] != "15.00" || e["count"] != float64(2) {
		t.Errorf("fields not encoded: %v", e)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger("warn")

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	if got := len(decodeLines(t, buf)); got != 2 {
		t.Errorf("got %d entries, want 2", got)
	}
}

func TestLogger_WithLevel(t *testing.T) {
	logger, _ := newBufferLogger("error")
	result := logger.WithLevel(LevelDebug)

	if result == nil {
		t.Fatal("WithLevel should return a logger")
	}
	if result.Name() != "test" {
		t.Errorf("name should be preserved: got %v", result.Name())
	}
	if !result.Zap().Core().Enabled(zapcore.DebugLevel) {
		t.Error("WithLevel(LevelDebug) should enable debug")
	}
	if logger.Zap().Core().Enabled(zapcore.WarnLevel) {
		t.Error("original logger level must not change")
	}
}

func TestLogger_With(t *testing.T) {
	logger, buf := newBufferLogger("info")

	logger.With("session", "abc").Info("hello")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["session"] != "abc" {
		t.Errorf("With() field missing: %v", entries)
	}
}

func TestLogger_ErrorValues(t *testing.T) {
	logger, buf := newBufferLogger("info")

	logger.Error("failed", "error", errors.New("boom"))

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["error"] != "boom" {
		t.Errorf("error field = %v", entries)
	}
}

func TestLogger_OddAndEmptyKeyValues(t *testing.T) {
	logger, buf := newBufferLogger("info")

	logger.Info("message without key-values")
	logger.Info("message", "key1", "value1", "orphan")

	entries := decodeLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if _, ok := entries[1]["orphan"]; ok {
		t.Error("orphan key should be skipped")
	}
}

func TestLogger_TextFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewWithConfig(LoggerConfig{ServiceName: "cli", Level: "info", Format: "text", Output: buf})

	logger.Info("ready", "addr", "127.0.0.1:9300")

	out := buf.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "ready") || !strings.Contains(out, "127.0.0.1:9300") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestConfigure(t *testing.T) {
	buf := &bytes.Buffer{}
	Configure(LoggerConfig{Level: "debug", Format: "json", Output: buf})
	defer Configure(LoggerConfig{Level: "info", Format: "json"})

	New("configured").Debug("visible")

	entries := decodeLines(t, buf)
	if len(entries) != 1 || entries[0]["logger"] != "configured" {
		t.Errorf("Configure() not applied: %v", entries)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"trace", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"WARNING", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"invalid", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("my-service")

	if cfg.ServiceName != "my-service" {
		t.Errorf("ServiceName = %v, want my-service", cfg.ServiceName)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
}

func TestToFields(t *testing.T) {
	if fields := toFields(); fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	fields := toFields("key1", "value1", "key2", 42)
	if len(fields) != 2 {
		t.Fatalf("toFields() returned %d fields, want 2", len(fields))
	}
	if fields[0].Key != "key1" || fields[1].Key != "key2" {
		t.Errorf("unexpected keys: %v, %v", fields[0].Key, fields[1].Key)
	}

	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("Non-string key should be skipped, got %v fields", len(fields))
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := NewWithConfig(LoggerConfig{ServiceName: "benchmark", Level: "info", Output: &bytes.Buffer{}})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
	}
}
