// Package nats publishes finished battle results onto a NATS subject so
// other services can follow the arena without polling it.
package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mcoot/battlearena/internal/model"
)

// DefaultSubject is the subject prefix results are published under
const DefaultSubject = "arena.results"

// Conn is the subset of *nats.Conn the publisher needs
type Conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// Publisher sends each BattleResult to "<subject>.<reason>"
type Publisher struct {
	conn    Conn
	subject string
	logger  *slog.Logger
}

// Connect dials the NATS server at url and returns a Publisher on subject
func Connect(url, subject string, logger *slog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("battlearena"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
	}
	return NewWithConn(nc, subject, logger), nil
}

// NewWithConn creates a Publisher over an existing connection
func NewWithConn(conn Conn, subject string, logger *slog.Logger) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger.With(slog.String("component", "nats-publisher")),
	}
}

// RecordResult publishes result as JSON
func (p *Publisher) RecordResult(ctx context.Context, result *model.BattleResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	subject := p.SubjectFor(result.Reason)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	p.logger.Debug("result published",
		slog.String("subject", subject),
		slog.String("session_id", string(result.SessionID)))
	return nil
}

// SubjectFor returns the subject a result with the given reason goes to
func (p *Publisher) SubjectFor(reason model.EndReason) string {
	return p.subject + "." + string(reason)
}

// Close flushes pending messages and closes the connection
func (p *Publisher) Close() error {
	return p.conn.Drain()
}
