// Package logging builds the zap logger shared by the CLI, the TUI and the server.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/javiermolinar/weekplan/internal/config"
)

// DebugLogPath is the fixed path for --debug logs.
const DebugLogPath = "weekplan-debug.log"

// Options controls where and how much is logged.
type Options struct {
	Level   string // zap level name
	File    string // empty logs to stderr
	Debug   bool   // forces debug level into DebugLogPath
	Console bool   // human readable encoding instead of JSON
}

// FromConfig returns options for cfg.Log.
func FromConfig(cfg config.LogConfig, debug bool) Options {
	return Options{Level: cfg.Level, File: cfg.File, Debug: debug}
}

// New builds a logger. The TUI owns the terminal, so callers running it
// should pass a file or accept stderr noise.
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		l, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("parsing log level: %w", err)
		}
		level = l
	}

	path := opts.File
	if opts.Debug {
		level = zapcore.DebugLevel
		path = DebugLogPath
	}

	cfg := zap.NewProductionConfig()
	if opts.Console {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Sampling = nil
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating log directory: %w", err)
			}
		}
		cfg.OutputPaths = []string{path}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.With(zap.String("app", "weekplan")), nil
}

// Quiet returns a logger that only reports errors to stderr. It is used when
// the configured logger cannot be built.
func Quiet() *zap.Logger {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		zapcore.ErrorLevel,
	)
	return zap.New(core)
}
