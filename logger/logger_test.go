package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupWritesJSONToWriter(t *testing.T) {
	var buf bytes.Buffer
	cleanup, err := Setup(Config{Stderr: &buf})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	defer cleanup()

	L().Info("export.done", "target", "svg")
	L().Debug("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one info line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if rec["msg"] != "export.done" || rec["target"] != "svg" {
		t.Fatalf("unexpected record %v", rec)
	}
	if Path() != "" {
		t.Fatalf("no file path expected when logging to a writer")
	}
}

func TestSetupWritesFileAndCleansUp(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	cleanup, err := Setup(Config{Dir: dir, Debug: true})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	L().Debug("fontcache.resolved", "family", "Go")
	if Path() != filepath.Join(dir, FileName) {
		t.Fatalf("unexpected path %q", Path())
	}
	if err := cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), `"family":"Go"`) {
		t.Fatalf("debug record missing: %s", b)
	}
	if Path() != "" {
		t.Fatalf("cleanup should reset the path")
	}
}
