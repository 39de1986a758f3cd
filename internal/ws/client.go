package ws

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/battlearena/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound frame size
	maxMessageSize = 4096

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

// Client is one websocket connection
type Client struct {
	id          model.ConnID
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
	logger      *slog.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, id model.ConnID) *Client {
	return &Client{
		id:          id,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
		logger:      hub.logger.With(slog.String("conn", string(id))),
	}
}

// readLoop decodes frames and dispatches them until the connection drops,
// then reports the disconnect
func (c *Client) readLoop() {
	defer func() {
		c.hub.remove(c)
		_ = c.conn.Close()
		c.hub.handler.HandleDisconnect(c.hub.ctx, c.id)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("ws unexpected close", slog.String("error", err.Error()))
			}
			return
		}
		c.dispatch(c.hub.ctx, frame)
	}
}

// dispatch routes one inbound frame to the handler
func (c *Client) dispatch(ctx context.Context, frame []byte) {
	env, err := Decode(frame)
	if err != nil {
		c.reject(err.Error())
		return
	}

	var handle func(context.Context, model.ConnID, model.Identity) error
	switch env.Event {
	case model.EventSetup:
		handle = c.hub.handler.HandleSetup
	case model.EventReadyForBattle:
		handle = c.hub.handler.HandleReadyForBattle
	case model.EventPlayerAttack:
		handle = c.hub.handler.HandleAttack
	case model.EventPlayerDefend:
		handle = c.hub.handler.HandleDefend
	case model.EventRestartBattle:
		handle = c.hub.handler.HandleRestart
	default:
		c.reject(model.ErrUnknownEvent.Error() + ": " + string(env.Event))
		return
	}

	identity, err := addressOf(env)
	if err != nil {
		c.reject(err.Error())
		return
	}

	if err := handle(ctx, c.id, identity); err != nil {
		attrs := []any{
			slog.String("event", string(env.Event)),
			slog.String("identity", string(identity)),
			slog.String("error", err.Error()),
		}
		if expectedRejection(err) {
			c.logger.Debug("event not applied", attrs...)
		} else {
			c.logger.Warn("event failed", attrs...)
		}
	}
}

// expectedRejection reports whether err is the arena refusing an action
// rather than a fault
func expectedRejection(err error) bool {
	return model.IsValidationError(err) || model.IsNotFoundError(err) || model.IsStateError(err)
}

func (c *Client) reject(message string) {
	if !c.hub.Send(c.id, model.EventError, model.ErrorPayload{Message: message}) {
		c.logger.Warn("failed to queue error", slog.String("message", message))
	}
}

// writeLoop pumps queued frames to the connection and keeps it alive with pings
func (c *Client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					c.logger.Debug("ws write failed", slog.String("error", err.Error()))
				}
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
