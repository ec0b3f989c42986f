package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// TestLogger_JSONOutput tests structured output and context fields
func TestLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf})

	log.WithComponent("AddressService").WithMode("fuzzy").Info().Str("query", "123 Main St").Msg("search")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}

	if entry["component"] != "AddressService" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["mode"] != "fuzzy" {
		t.Errorf("expected mode field, got %v", entry["mode"])
	}
	if entry["message"] != "search" {
		t.Errorf("expected message 'search', got %v", entry["message"])
	}
	if entry["level"] != "info" {
		t.Errorf("expected level info, got %v", entry["level"])
	}
}

// TestLogger_LevelFiltering tests that messages below the level are dropped
func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}

	log.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Error("expected warn message to be written")
	}
}

// TestLogger_InvalidLevelDefaultsToInfo tests fallback for unknown levels
func TestLogger_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "verbose", Output: &buf})

	log.Debug().Msg("dropped")
	log.Info().Msg("kept")

	if bytes.Contains(buf.Bytes(), []byte("dropped")) {
		t.Error("expected debug to be filtered at default info level")
	}
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Error("expected info message to be written")
	}
}

// TestLogger_WithRequestID tests the request ID field
func TestLogger_WithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Output: &buf}).WithRequestID("req-42")

	log.Info().Msg("hello")

	if !bytes.Contains(buf.Bytes(), []byte(`"request_id":"req-42"`)) {
		t.Errorf("expected request_id field, got %q", buf.String())
	}
}

// TestLogger_ServiceField tests that every line carries the service name
func TestLogger_ServiceField(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "info", Output: &buf}).Info().Msg("hello")

	if !bytes.Contains(buf.Bytes(), []byte(`"service":"addrlookup"`)) {
		t.Errorf("expected service field, got %q", buf.String())
	}
}

// TestLogger_OutputFile tests teeing to a file
func TestLogger_OutputFile(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "app.log")

	New(Config{Level: "info", Output: &buf, OutputFile: path}).Info().Msg("to both")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !bytes.Contains(content, []byte("to both")) || !bytes.Contains(buf.Bytes(), []byte("to both")) {
		t.Errorf("expected message in both sinks, file=%q buf=%q", content, buf.String())
	}
}

// TestLogger_OutputFileUnavailable tests the console-only fallback
func TestLogger_OutputFileUnavailable(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "missing", "app.log")

	New(Config{Level: "info", Output: &buf, OutputFile: path}).Info().Msg("console only")

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no log file to be created, stat err=%v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("Log file unavailable")) {
		t.Errorf("expected fallback warning on console, got %q", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte("console only")) {
		t.Errorf("expected message on console, got %q", buf.String())
	}
}

// TestLogger_Nop tests that the nop logger writes nothing and does not panic
func TestLogger_Nop(t *testing.T) {
	log := NewNop().WithComponent("x").WithMode("exact")
	log.Error().Msg("ignored")
}
