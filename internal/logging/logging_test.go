package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/javiermolinar/weekplan/internal/config"
)

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "weekplan.log")

	logger, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("loaded")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), data)
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "loaded" {
		t.Errorf("got msg %v, want loaded", entry["msg"])
	}
	if entry["app"] != "weekplan" {
		t.Errorf("got app %v, want weekplan", entry["app"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Error("expected ts field")
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_DebugOverridesLevel(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	logger, err := New(Options{Level: "error", File: "ignored.log", Debug: true})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("visible")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, DebugLogPath))
	if err != nil {
		t.Fatalf("reading debug log: %v", err)
	}
	if !strings.Contains(string(data), "visible") {
		t.Errorf("debug entry missing from %q", data)
	}
	if _, err := os.Stat(filepath.Join(dir, "ignored.log")); !os.IsNotExist(err) {
		t.Error("configured file should not be used in debug mode")
	}
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig(config.LogConfig{Level: "warn", File: "/tmp/x.log"}, true)
	if opts.Level != "warn" || opts.File != "/tmp/x.log" || !opts.Debug {
		t.Errorf("unexpected options %+v", opts)
	}
}
