package handler

import (
	"net/http"

	"github.com/mcoot/battlearena/internal/api/apierr"
	"github.com/mcoot/battlearena/internal/api/response"
	"github.com/mcoot/battlearena/internal/services/arena"
	"github.com/mcoot/battlearena/internal/storage"
	"github.com/mcoot/battlearena/internal/ws"
)

// WelcomeMessage is served at the root path
const WelcomeMessage = "Welcome to the Battle Arena Server!"

// ArenaHandler serves live arena state
type ArenaHandler struct {
	arena   *arena.Controller
	hub     *ws.Hub
	storage storage.Storage
}

// NewArenaHandler creates a new arena handler
func NewArenaHandler(arena *arena.Controller, hub *ws.Hub, storage storage.Storage) *ArenaHandler {
	return &ArenaHandler{
		arena:   arena,
		hub:     hub,
		storage: storage,
	}
}

// Welcome handles GET /
func (h *ArenaHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	response.Text(w, http.StatusOK, WelcomeMessage)
}

// Health handles GET /api/v1/health
func (h *ArenaHandler) Health(w http.ResponseWriter, r *http.Request) {
	stats := h.arena.Stats()
	resp := response.Health{
		Status:      "ok",
		Storage:     "ok",
		Players:     stats.Players,
		Queued:      stats.Queued,
		Queue:       response.QueueFromModel(h.arena.Queue()),
		Sessions:    stats.Sessions,
		Connections: h.hub.ClientCount(),
	}

	status := http.StatusOK
	if err := h.storage.Ping(r.Context()); err != nil {
		resp.Status = "degraded"
		resp.Storage = err.Error()
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, status, resp)
}

// ListSessions handles GET /api/v1/sessions
func (h *ArenaHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.SessionListFromModel(h.arena.ActiveSessions()))
}

// PlayerSession handles GET /api/v1/players/{identity}/session
func (h *ArenaHandler) PlayerSession(w http.ResponseWriter, r *http.Request) {
	identity, err := identityParam(r)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	s, err := h.arena.SessionFor(identity)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.SessionFromModel(s))
}
