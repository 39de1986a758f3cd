package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/battlearena/internal/api"
	"github.com/mcoot/battlearena/internal/config"
	"github.com/mcoot/battlearena/internal/factory"
	"github.com/mcoot/battlearena/internal/services/arena"
	redisstorage "github.com/mcoot/battlearena/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.StorageType,
		SQLitePath:  cfg.SQLitePath,
		MaxResults:  cfg.MaxResults,
		NATSURL:     cfg.NATSURL,
		NATSSubject: cfg.NATSSubject,
		Arena:       arena.Config{TurnTimeout: cfg.TurnTimeout},
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.MaxResults = cfg.MaxResults
		factoryCfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(factoryCfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("close error", slog.String("error", err.Error()))
		}
	}()

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	go app.Hub.Run(ctx)
	go app.Arena.RunTurnWatchdog(ctx, 0)

	router := api.NewRouter(api.RouterConfig{
		Logger:  logger,
		Arena:   app.Arena,
		Hub:     app.Hub,
		Storage: app.Storage,
	})

	// Create server
	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	// Hijacked websocket conns outlive http.Server.Shutdown; stopping the
	// hub closes them
	server.OnShutdown(cancel)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Duration("turn_timeout", cfg.TurnTimeout))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			cancel()
			return
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}

	logger.Info("server stopped")
}
