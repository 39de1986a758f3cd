package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/battlearena/internal/dependencies/clock"
	"github.com/mcoot/battlearena/internal/dependencies/random"
	natsnotify "github.com/mcoot/battlearena/internal/notify/nats"
	"github.com/mcoot/battlearena/internal/services/arena"
	"github.com/mcoot/battlearena/internal/storage"
	"github.com/mcoot/battlearena/internal/storage/memory"
	redisstorage "github.com/mcoot/battlearena/internal/storage/redis"
	sqlitestorage "github.com/mcoot/battlearena/internal/storage/sqlite"
	"github.com/mcoot/battlearena/internal/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
	StorageTypeSQLite = "sqlite"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Hub       *ws.Hub
	Arena     *arena.Controller
	Publisher *natsnotify.Publisher // nil unless NATS is configured

	logger *slog.Logger
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// MaxResults caps the memory and sqlite results history (optional)
	MaxResults int
	// NATSURL enables publishing results to NATS when set
	NATSURL string
	// NATSSubject is the subject prefix for published results (optional)
	NATSSubject string
	// Arena holds arena behaviour settings
	Arena arena.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		if cfg.MaxResults > 0 {
			store = memory.NewWithLimit(cfg.MaxResults)
		} else {
			store = memory.New()
		}
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	case StorageTypeSQLite:
		sqliteStore, err := sqlitestorage.Open(cfg.SQLitePath, cfg.MaxResults)
		if err != nil {
			return nil, err
		}
		store = sqliteStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}

	sinks := []arena.ResultSink{store}

	var publisher *natsnotify.Publisher
	if cfg.NATSURL != "" {
		p, err := natsnotify.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			closeStore(store)
			return nil, err
		}
		publisher = p
		sinks = append(sinks, publisher)
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, sinks, clk, rnd, cfg.Arena, logger)
	app.Publisher = publisher
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	sinks []arena.ResultSink,
	clk clock.Clock,
	rnd random.Random,
	arenaCfg arena.Config,
	logger *slog.Logger,
) *App {
	// The hub delivers arena events and feeds client events back into it
	hub := ws.NewHub(nil, logger)
	controller := arena.NewController(hub, sinks, clk, rnd, arenaCfg, logger)
	hub.SetHandler(controller)

	return &App{
		Storage: store,
		Clock:   clk,
		Random:  rnd,
		Hub:     hub,
		Arena:   controller,
		logger:  logger,
	}
}

// Close releases external connections
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c, ok := a.Storage.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeStore(store storage.Storage) {
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
}
