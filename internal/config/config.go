// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the runtime configuration of pitwall.
type Config struct {
	// DBPath is the SQLite database file.
	DBPath string `env:"PITWALL_DB" envDefault:"pitwall.db"`
	// Addr is the HTTP listen address.
	Addr string `env:"PITWALL_ADDR" envDefault:"127.0.0.1:8080"`
	// Seed makes lap progression reproducible. Zero keeps it random.
	Seed uint64 `env:"PITWALL_SEED" envDefault:"0"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"PITWALL_LOG_LEVEL" envDefault:"info"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `env:"PITWALL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration from the environment with defaults
// applied.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Level maps LogLevel onto a slog level.
func (c Config) Level() (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("parse env: unknown log level %q", c.LogLevel)
}
