package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageType)
	assert.Equal(t, "arena.results", cfg.NATSSubject)
	assert.Equal(t, time.Duration(0), cfg.TurnTimeout)
	assert.Equal(t, 1000, cfg.MaxResults)
	assert.Equal(t, "arena.db", cfg.SQLitePath)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ARENA_PORT", "9000")
	t.Setenv("ARENA_STORAGE_TYPE", "redis")
	t.Setenv("ARENA_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("ARENA_NATS_URL", "nats://bus:4222")
	t.Setenv("ARENA_TURN_TIMEOUT", "45s")
	t.Setenv("ARENA_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, StorageRedis, cfg.StorageType)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, "nats://bus:4222", cfg.NATSURL)
	assert.Equal(t, 45*time.Second, cfg.TurnTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "unparseable port",
			env:  map[string]string{"ARENA_PORT": "not-an-int"},
			want: "parse env:",
		},
		{
			name: "redis without url",
			env:  map[string]string{"ARENA_STORAGE_TYPE": "redis"},
			want: "ARENA_REDIS_URL required",
		},
		{
			name: "sqlite with blank path",
			env:  map[string]string{"ARENA_STORAGE_TYPE": "sqlite", "ARENA_SQLITE_PATH": "  "},
			want: "ARENA_SQLITE_PATH required",
		},
		{
			name: "unknown storage",
			env:  map[string]string{"ARENA_STORAGE_TYPE": "postgres"},
			want: "invalid ARENA_STORAGE_TYPE",
		},
		{
			name: "negative timeout",
			env:  map[string]string{"ARENA_TURN_TIMEOUT": "-1s"},
			want: "must not be negative",
		},
		{
			name: "bad log level",
			env:  map[string]string{"ARENA_LOG_LEVEL": "loud"},
			want: "invalid ARENA_LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSQLite(t *testing.T) {
	t.Setenv("ARENA_STORAGE_TYPE", "sqlite")
	t.Setenv("ARENA_SQLITE_PATH", "/var/lib/arena/results.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageSQLite, cfg.StorageType)
	assert.Equal(t, "/var/lib/arena/results.db", cfg.SQLitePath)
}
