// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageSQLite = "sqlite"
)

// Config is the server configuration
type Config struct {
	Host            string        `env:"ARENA_HOST"`
	Port            int           `env:"ARENA_PORT"             envDefault:"5000"`
	ReadTimeout     time.Duration `env:"ARENA_READ_TIMEOUT"     envDefault:"15s"`
	WriteTimeout    time.Duration `env:"ARENA_WRITE_TIMEOUT"    envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"ARENA_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	LogLevel        string        `env:"ARENA_LOG_LEVEL"        envDefault:"info"`

	StorageType string `env:"ARENA_STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"ARENA_REDIS_URL"`
	SQLitePath  string `env:"ARENA_SQLITE_PATH"  envDefault:"arena.db"`
	MaxResults  int    `env:"ARENA_MAX_RESULTS"  envDefault:"1000"`

	NATSURL     string `env:"ARENA_NATS_URL"`
	NATSSubject string `env:"ARENA_NATS_SUBJECT" envDefault:"arena.results"`

	// TurnTimeout forfeits idle players; zero keeps turns open indefinitely
	TurnTimeout time.Duration `env:"ARENA_TURN_TIMEOUT" envDefault:"0s"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("ARENA_REDIS_URL required when ARENA_STORAGE_TYPE=%s", StorageRedis)
		}
	case StorageSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("ARENA_SQLITE_PATH required when ARENA_STORAGE_TYPE=%s", StorageSQLite)
		}
	default:
		return fmt.Errorf("invalid ARENA_STORAGE_TYPE %q: must be %q, %q or %q", c.StorageType, StorageMemory, StorageRedis, StorageSQLite)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid ARENA_PORT %d", c.Port)
	}
	if c.TurnTimeout < 0 {
		return fmt.Errorf("ARENA_TURN_TIMEOUT must not be negative")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// SlogLevel returns the configured log level
func (c Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid ARENA_LOG_LEVEL %q", s)
	}
	return level, nil
}
