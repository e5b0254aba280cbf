package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/weekplan/internal/task"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if len(cfg.Planner.Days) != 7 {
		t.Errorf("expected 7 days, got %d", len(cfg.Planner.Days))
	}
	if cfg.Planner.Days[0] != "monday" {
		t.Errorf("expected monday first, got %s", cfg.Planner.Days[0])
	}
	if cfg.Remote.BaseURL != "" {
		t.Errorf("expected no remote by default, got %s", cfg.Remote.BaseURL)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected log level info, got %s", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFrom_FileNotExists(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.toml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.UI.Theme != "frappe" {
		t.Errorf("expected default theme, got %s", cfg.UI.Theme)
	}
}

func TestLoadFrom_ValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	content := `
[planner]
days = ["monday", "tuesday", "wednesday"]

[storage]
local_path = "/tmp/local.db"

[remote]
base_url = "https://plan.example.com"
requests_per_second = 2.5
burst = 3
timeout = "5s"

[server]
addr = ":9090"
db_path = "/tmp/server.db"
mode = "debug"
rate_per_minute = 30
burst = 5

[log]
level = "debug"
file = "/tmp/weekplan.log"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cfg.Planner.Days) != 3 {
		t.Errorf("expected 3 days, got %d", len(cfg.Planner.Days))
	}
	if cfg.Storage.LocalPath != "/tmp/local.db" {
		t.Errorf("expected local_path /tmp/local.db, got %s", cfg.Storage.LocalPath)
	}
	if cfg.Remote.BaseURL != "https://plan.example.com" {
		t.Errorf("expected base_url, got %s", cfg.Remote.BaseURL)
	}
	if cfg.Remote.RequestsPerSecond != 2.5 {
		t.Errorf("expected rps 2.5, got %v", cfg.Remote.RequestsPerSecond)
	}
	if d, _ := cfg.RemoteTimeout(); d != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", d)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.Mode != "debug" || cfg.Server.RatePerMinute != 30 {
		t.Errorf("unexpected server config %+v", cfg.Server)
	}
	if cfg.Log.File != "/tmp/weekplan.log" {
		t.Errorf("expected log file, got %s", cfg.Log.File)
	}
	// Unset sections keep their defaults.
	if cfg.UI.Theme != "frappe" {
		t.Errorf("expected default theme, got %s", cfg.UI.Theme)
	}
	if !cfg.HasRemote() {
		t.Error("expected HasRemote")
	}
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[planner\ndays = "), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFrom(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("WEEKPLAN_DAYS", "saturday, sunday")
	t.Setenv("WEEKPLAN_REMOTE_URL", "http://localhost:8080")
	t.Setenv("WEEKPLAN_REMOTE_RPS", "1")
	t.Setenv("WEEKPLAN_LOG_LEVEL", "warn")
	t.Setenv("WEEKPLAN_UI_THEME", "latte")
	t.Setenv("WEEKPLAN_SERVER_MODE", "test")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Join(cfg.Planner.Days, ",") != "saturday,sunday" {
		t.Errorf("expected weekend days, got %v", cfg.Planner.Days)
	}
	if cfg.Remote.BaseURL != "http://localhost:8080" {
		t.Errorf("expected remote url override, got %s", cfg.Remote.BaseURL)
	}
	if cfg.Remote.RequestsPerSecond != 1 {
		t.Errorf("expected rps 1, got %v", cfg.Remote.RequestsPerSecond)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected log level warn, got %s", cfg.Log.Level)
	}
	if cfg.UI.Theme != "latte" {
		t.Errorf("expected theme latte, got %s", cfg.UI.Theme)
	}
	if cfg.Server.Mode != "test" {
		t.Errorf("expected server mode test, got %s", cfg.Server.Mode)
	}
}

func TestLoadFrom_BadEnvNumber(t *testing.T) {
	t.Setenv("WEEKPLAN_REMOTE_RPS", "fast")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for non-numeric WEEKPLAN_REMOTE_RPS")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no days", func(c *Config) { c.Planner.Days = nil }},
		{"unknown day", func(c *Config) { c.Planner.Days = []string{"monday", "funday"} }},
		{"duplicate day", func(c *Config) { c.Planner.Days = []string{"monday", "Monday"} }},
		{"empty local path", func(c *Config) { c.Storage.LocalPath = "" }},
		{"relative remote url", func(c *Config) { c.Remote.BaseURL = "plan.example.com" }},
		{"zero rps", func(c *Config) { c.Remote.RequestsPerSecond = 0 }},
		{"zero burst", func(c *Config) { c.Remote.Burst = 0 }},
		{"bad timeout", func(c *Config) { c.Remote.Timeout = "soon" }},
		{"negative timeout", func(c *Config) { c.Remote.Timeout = "-1s" }},
		{"empty server addr", func(c *Config) { c.Server.Addr = "" }},
		{"empty server db", func(c *Config) { c.Server.DBPath = "" }},
		{"bad server mode", func(c *Config) { c.Server.Mode = "prod" }},
		{"zero server rate", func(c *Config) { c.Server.RatePerMinute = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGrid(t *testing.T) {
	cfg := Default()
	cfg.Planner.Days = []string{"Monday", "wednesday"}

	grid, err := cfg.Grid()
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	days := grid.Days()
	if len(days) != 2 || days[0] != task.Monday || days[1] != task.Wednesday {
		t.Errorf("unexpected days %v", days)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/data/weekplan.db", filepath.Join(home, "data", "weekplan.db")},
		{"/abs/path.db", "/abs/path.db"},
		{"relative.db", "relative.db"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := expandPath(tt.input); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "config.toml")

	cfg := Default()
	cfg.Planner.Days = []string{"monday", "friday"}
	cfg.Remote.BaseURL = "https://plan.example.com"
	cfg.UI.Theme = "mocha"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(configPath)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if strings.Join(loaded.Planner.Days, ",") != "monday,friday" {
		t.Errorf("expected saved days, got %v", loaded.Planner.Days)
	}
	if loaded.Remote.BaseURL != cfg.Remote.BaseURL {
		t.Errorf("expected base_url %s, got %s", cfg.Remote.BaseURL, loaded.Remote.BaseURL)
	}
	if loaded.UI.Theme != "mocha" {
		t.Errorf("expected theme mocha, got %s", loaded.UI.Theme)
	}
}
