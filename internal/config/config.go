// Package config loads weekplan settings from ~/.config/weekplan/config.toml
// and WEEKPLAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"

	"github.com/javiermolinar/weekplan/internal/task"
)

// Config is the full weekplan configuration, one field per TOML table.
type Config struct {
	Planner PlannerConfig `toml:"planner"`
	Storage StorageConfig `toml:"storage"`
	Remote  RemoteConfig  `toml:"remote"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// PlannerConfig holds the shape of the week grid.
type PlannerConfig struct {
	Days []string `toml:"days"` // e.g., ["monday", "tuesday", ...]
}

// StorageConfig holds local storage settings.
type StorageConfig struct {
	LocalPath string `toml:"local_path"` // SQLite file holding local tasks and the session
}

// RemoteConfig holds settings for the hosted backend.
type RemoteConfig struct {
	BaseURL           string  `toml:"base_url"`            // empty disables sign in
	RequestsPerSecond float64 `toml:"requests_per_second"` // client-side pacing
	Burst             int     `toml:"burst"`
	Timeout           string  `toml:"timeout"` // e.g., "10s"
}

// ServerConfig holds settings for `weekplan serve`.
type ServerConfig struct {
	Addr          string `toml:"addr"`
	DBPath        string `toml:"db_path"`
	Mode          string `toml:"mode"` // "debug", "release" or "test"
	RatePerMinute int    `toml:"rate_per_minute"`
	Burst         int    `toml:"burst"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
	File  string `toml:"file"`  // empty logs to stderr
}

// UIConfig holds settings for the interactive grid.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha", "frappe", "latte"
}

// Default returns a seven day local-only planner.
func Default() *Config {
	days := make([]string, len(task.AllDays))
	for i, d := range task.AllDays {
		days[i] = string(d)
	}
	return &Config{
		Planner: PlannerConfig{
			Days: days,
		},
		Storage: StorageConfig{
			LocalPath: defaultDataPath("weekplan.db"),
		},
		Remote: RemoteConfig{
			BaseURL:           "",
			RequestsPerSecond: 5,
			Burst:             10,
			Timeout:           "10s",
		},
		Server: ServerConfig{
			Addr:          "127.0.0.1:8080",
			DBPath:        defaultDataPath("server.db"),
			Mode:          "release",
			RatePerMinute: 120,
			Burst:         20,
		},
		Log: LogConfig{
			Level: "info",
			File:  "",
		},
		UI: UIConfig{
			Theme: "frappe",
		},
	}
}

// defaultDataPath returns a path under the user's data directory.
func defaultDataPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(home, ".local", "share", "weekplan", name)
}

// DefaultConfigPath is ~/.config/weekplan/config.toml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "weekplan", "config.toml")
}

// Load reads the config at DefaultConfigPath.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom layers the file at path over Default, then the environment.
// A missing file is not an error. The result is validated.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.LocalPath = expandPath(cfg.Storage.LocalPath)
	cfg.Server.DBPath = expandPath(cfg.Server.DBPath)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile decodes path into cfg. A missing file leaves cfg unchanged.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides reads the WEEKPLAN_* variables. They win over the file.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("WEEKPLAN_DAYS"); v != "" {
		cfg.Planner.Days = splitList(v)
	}

	if v := os.Getenv("WEEKPLAN_LOCAL_PATH"); v != "" {
		cfg.Storage.LocalPath = v
	}

	if v := os.Getenv("WEEKPLAN_REMOTE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("WEEKPLAN_REMOTE_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("WEEKPLAN_REMOTE_RPS: %w", err)
		}
		cfg.Remote.RequestsPerSecond = rps
	}
	if v := os.Getenv("WEEKPLAN_REMOTE_TIMEOUT"); v != "" {
		cfg.Remote.Timeout = v
	}

	if v := os.Getenv("WEEKPLAN_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("WEEKPLAN_SERVER_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("WEEKPLAN_SERVER_MODE"); v != "" {
		cfg.Server.Mode = v
	}

	if v := os.Getenv("WEEKPLAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("WEEKPLAN_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := os.Getenv("WEEKPLAN_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// expandPath resolves a leading ~/ against the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, err := c.Grid(); err != nil {
		return fmt.Errorf("planner.days: %w", err)
	}

	if c.Storage.LocalPath == "" {
		return errors.New("storage.local_path must be set")
	}

	if c.Remote.BaseURL != "" {
		u, err := url.Parse(c.Remote.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("remote.base_url must be an http(s) URL, got %q", c.Remote.BaseURL)
		}
	}
	if c.Remote.RequestsPerSecond <= 0 {
		return errors.New("remote.requests_per_second must be positive")
	}
	if c.Remote.Burst <= 0 {
		return errors.New("remote.burst must be positive")
	}
	if _, err := c.RemoteTimeout(); err != nil {
		return err
	}

	if c.Server.Addr == "" {
		return errors.New("server.addr must be set")
	}
	if c.Server.DBPath == "" {
		return errors.New("server.db_path must be set")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Server.RatePerMinute <= 0 {
		return errors.New("server.rate_per_minute must be positive")
	}
	if c.Server.Burst <= 0 {
		return errors.New("server.burst must be positive")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Grid returns the planner grid for the configured days.
func (c *Config) Grid() (task.Grid, error) {
	days := make([]task.Day, 0, len(c.Planner.Days))
	for _, name := range c.Planner.Days {
		d, err := task.ParseDay(name)
		if err != nil {
			return task.Grid{}, err
		}
		days = append(days, d)
	}
	return task.NewGrid(days)
}

// RemoteTimeout returns the parsed remote.timeout.
func (c *Config) RemoteTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Remote.Timeout)
	if err != nil {
		return 0, fmt.Errorf("remote.timeout must be a duration like 10s, got %q", c.Remote.Timeout)
	}
	if d <= 0 {
		return 0, errors.New("remote.timeout must be positive")
	}
	return d, nil
}

// HasRemote returns true if a backend URL is configured.
func (c *Config) HasRemote() bool {
	return c.Remote.BaseURL != ""
}

// Save writes c to DefaultConfigPath.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes c to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
