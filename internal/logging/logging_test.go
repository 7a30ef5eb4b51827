package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithComponent(t *testing.T) {
	entry := New().WithComponent("quote")
	if v, ok := entry.Entry.Data["component"]; !ok || v != "quote" {
		t.Fatalf("component field missing: %v", entry.Entry.Data)
	}
}

func TestConfigure_InvalidLevelAndFormat(t *testing.T) {
	log := New()
	if err := log.Configure(Options{Level: "loud"}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
	if err := log.Configure(Options{Format: "xml"}); err == nil {
		t.Fatalf("expected error for invalid format")
	}
}

func TestConfigure_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "satsrate.log")
	log := New()
	if err := log.Configure(Options{Level: "debug", Format: "json", Output: path}); err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}
	log.WithComponent("test").WithField("field", "sats").Debug("hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &record); err != nil {
		t.Fatalf("log line is not JSON: %q", data)
	}
	if record["message"] != "hello" || record["component"] != "test" || record["field"] != "sats" {
		t.Fatalf("record = %v", record)
	}
	if file, _ := record["file"].(string); !strings.Contains(file, ".go:") {
		t.Fatalf("caller file = %v", record["file"])
	}
}
