package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/battlearena/internal/api/handler"
	"github.com/mcoot/battlearena/internal/api/middleware"
	"github.com/mcoot/battlearena/internal/services/arena"
	"github.com/mcoot/battlearena/internal/storage"
	"github.com/mcoot/battlearena/internal/ws"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger  *slog.Logger
	Arena   *arena.Controller
	Hub     *ws.Hub
	Storage storage.Storage
}

// NewRouter creates a new router with the websocket endpoint and all API routes
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	arenaHandler := handler.NewArenaHandler(cfg.Arena, cfg.Hub, cfg.Storage)
	resultsHandler := handler.NewResultsHandler(cfg.Storage)

	r.Use(middleware.Chain(cfg.Logger))

	// Websocket transport
	r.HandleFunc("/ws", cfg.Hub.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/", arenaHandler.Welcome).Methods(http.MethodGet)

	// API subrouter
	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", arenaHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/sessions", arenaHandler.ListSessions).Methods(http.MethodGet)
	api.HandleFunc("/players/{identity}/session", arenaHandler.PlayerSession).Methods(http.MethodGet)
	api.HandleFunc("/players/{identity}/record", resultsHandler.Record).Methods(http.MethodGet)
	api.HandleFunc("/results", resultsHandler.List).Methods(http.MethodGet)

	return r
}
