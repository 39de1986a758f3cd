// Package ws is the websocket transport: it owns live connections, decodes
// client events for the arena and delivers outbound events.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/battlearena/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub tracks websocket clients by connection id
type Hub struct {
	handler Handler
	clients map[model.ConnID]*Client
	mu      sync.RWMutex
	logger  *slog.Logger

	ctx context.Context

	// Channels for managing clients
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a new Hub dispatching client events to handler.
// Call SetHandler before Run if the handler is built after the hub.
func NewHub(handler Handler, logger *slog.Logger) *Hub {
	return &Hub{
		handler:    handler,
		clients:    make(map[model.ConnID]*Client),
		logger:     logger.With(slog.String("component", "ws-hub")),
		ctx:        context.Background(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetHandler sets the event handler. It must be called before Run.
func (h *Hub) SetHandler(handler Handler) {
	h.handler = handler
}

// Run starts the hub's event loop and blocks until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	h.logger.Info("ws hub started")
	defer close(h.done)

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("ws client registered",
				slog.String("conn", string(client.id)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				h.logger.Info("ws client unregistered",
					slog.String("conn", string(client.id)),
					slog.Duration("connection_duration", time.Since(client.connectedAt)),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case <-ctx.Done():
			h.mu.Lock()
			clientCount := len(h.clients)
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("ws hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// Send encodes and queues an event for one connection without blocking.
// It reports false when the connection is unknown or its buffer is full.
func (h *Hub) Send(conn model.ConnID, event model.EventName, payload any) bool {
	frame, err := Encode(event, payload)
	if err != nil {
		h.logger.Error("failed to encode event",
			slog.String("event", string(event)),
			slog.String("error", err.Error()))
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[conn]
	if !ok {
		return false
	}
	select {
	case client.send <- frame:
		return true
	default:
		h.logger.Warn("ws message dropped - client buffer full",
			slog.String("conn", string(conn)),
			slog.String("event", string(event)))
		return false
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request to a websocket and starts the client pumps
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(h, conn, model.ConnID(uuid.New().String()))
	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writeLoop()
	go client.readLoop()
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
