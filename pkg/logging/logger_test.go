package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to unmarshal log entry %q: %v", line, err)
		}
		out = append(out, entry)
	}
	return out
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"info", InfoLevel},
		{"WARN", WarnLevel},
		{"warning", WarnLevel},
		{"ERROR", ErrorLevel},
		{"error", ErrorLevel},
		{"invalid", InfoLevel}, // Default
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFieldConstructors(t *testing.T) {
	t.Run("Duration", func(t *testing.T) {
		f := Duration("timeout", 5*time.Second)
		if f.Key != "timeout" || f.Value != "5s" {
			t.Errorf("Duration() = %+v", f)
		}
	})

	t.Run("Error", func(t *testing.T) {
		f := Error(errors.New("test error"))
		if f.Key != "error" || f.Value != "test error" {
			t.Errorf("Error() = %+v", f)
		}
	})

	t.Run("Error_nil", func(t *testing.T) {
		f := Error(nil)
		if f.Key != "error" || f.Value != nil {
			t.Errorf("Error(nil) = %+v", f)
		}
	})

	t.Run("Domain", func(t *testing.T) {
		cases := map[string]Field{
			"node_id":     NodeID("Nairobi_DC"),
			"route_id":    RouteID("R1"),
			"scenario_id": ScenarioID("pandemic_1_abc"),
			"archetype":   Archetype("pandemic"),
			"fingerprint": Fingerprint("deadbeef"),
		}
		for key, f := range cases {
			if f.Key != key {
				t.Errorf("field key = %q, want %q", f.Key, key)
			}
		}
		if f := Run(3); f.Key != "run" || f.Value != 3 {
			t.Errorf("Run() = %+v", f)
		}
	})
}

func TestZerologLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, DebugLevel)

	logger.Info("test message", String("key", "value"))

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
	if entry["message"] != "test message" {
		t.Errorf("message = %v, want 'test message'", entry["message"])
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want 'value'", entry["key"])
	}
	if entry["time"] == nil {
		t.Error("time field is missing")
	}
}

func TestZerologLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, WarnLevel)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}
	if entries[0]["level"] != "warn" {
		t.Errorf("First entry level = %v, want warn", entries[0]["level"])
	}
	if entries[1]["level"] != "error" {
		t.Errorf("Second entry level = %v, want error", entries[1]["level"])
	}
}

func TestZerologLogger_MultipleFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, InfoLevel)

	logger.Info("test",
		String("str", "hello"),
		Int("num", 42),
		Bool("flag", true),
		Float64("severity", 0.8),
	)

	entry := decodeLines(t, &buf)[0]
	if entry["str"] != "hello" {
		t.Errorf("str field = %v, want hello", entry["str"])
	}
	if entry["num"] != float64(42) { // JSON unmarshals numbers as float64
		t.Errorf("num field = %v, want 42", entry["num"])
	}
	if entry["flag"] != true {
		t.Errorf("flag field = %v, want true", entry["flag"])
	}
	if entry["severity"] != 0.8 {
		t.Errorf("severity field = %v, want 0.8", entry["severity"])
	}
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, InfoLevel)

	child := logger.With(Component("propagator"), Archetype("pandemic"))
	child.Info("applied", NodeID("Nairobi_DC"))

	entry := decodeLines(t, &buf)[0]
	if entry["component"] != "propagator" {
		t.Errorf("component field = %v, want propagator", entry["component"])
	}
	if entry["archetype"] != "pandemic" {
		t.Errorf("archetype field = %v, want pandemic", entry["archetype"])
	}
	if entry["node_id"] != "Nairobi_DC" {
		t.Errorf("node_id field = %v, want Nairobi_DC", entry["node_id"])
	}
	if child.GetLevel() != InfoLevel {
		t.Errorf("child level = %v, want InfoLevel", child.GetLevel())
	}
}

func TestZerologLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, InfoLevel)

	if logger.GetLevel() != InfoLevel {
		t.Errorf("Initial level = %v, want InfoLevel", logger.GetLevel())
	}

	logger.SetLevel(ErrorLevel)
	if logger.GetLevel() != ErrorLevel {
		t.Errorf("After SetLevel, level = %v, want ErrorLevel", logger.GetLevel())
	}

	logger.Debug("debug")
	logger.Info("info")
	if buf.Len() != 0 {
		t.Error("Expected no output for Debug/Info at ErrorLevel")
	}

	logger.Error("error")
	if buf.Len() == 0 {
		t.Error("Expected output for Error at ErrorLevel")
	}
}

func TestConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, FormatConsole, InfoLevel)

	logger.Info("run finished", Count(3))

	out := buf.String()
	if !strings.Contains(out, "run finished") {
		t.Errorf("console output %q missing message", out)
	}
	if !strings.Contains(out, "count=3") {
		t.Errorf("console output %q missing field", out)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, DebugLevel)

	op := StartTimer(logger, "score", Operation("score"))
	op.EndError(errors.New("boom"))

	entry := decodeLines(t, &buf)[0]
	if entry["level"] != "error" {
		t.Errorf("level = %v, want error", entry["level"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
	if entry["latency"] == nil {
		t.Error("latency field missing")
	}
}

func TestOrNop(t *testing.T) {
	if _, ok := OrNop(nil).(NopLogger); !ok {
		t.Error("OrNop(nil) should return a NopLogger")
	}
	l := NewZerologLogger(&bytes.Buffer{}, InfoLevel)
	if OrNop(l) != l {
		t.Error("OrNop should return a non-nil logger unchanged")
	}
}

func BenchmarkZerologLogger_Info(b *testing.B) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, InfoLevel)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message",
			String("key1", "value1"),
			Int("key2", 42),
		)
	}
}
