// Package matchmaker pairs ready players into sessions in the order they
// became ready.
package matchmaker

import (
	"log/slog"
	"time"

	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/services/registry"
	"github.com/mcoot/battlearena/internal/services/session"
)

// Matchmaker holds the FIFO readiness queue. Callers serialize access.
type Matchmaker struct {
	queue  []model.Identity
	queued map[model.Identity]bool
	logger *slog.Logger
}

// New creates an empty Matchmaker
func New(logger *slog.Logger) *Matchmaker {
	return &Matchmaker{
		queued: make(map[model.Identity]bool),
		logger: logger.With(slog.String("component", "matchmaker")),
	}
}

// Enqueue appends identity to the readiness queue unless it is already waiting
func (m *Matchmaker) Enqueue(identity model.Identity) {
	if m.queued[identity] {
		return
	}
	m.queue = append(m.queue, identity)
	m.queued[identity] = true
}

// Remove drops identity from the queue
func (m *Matchmaker) Remove(identity model.Identity) {
	if !m.queued[identity] {
		return
	}
	delete(m.queued, identity)
	for i, id := range m.queue {
		if id == identity {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			break
		}
	}
}

// Len returns the number of queued identities
func (m *Matchmaker) Len() int {
	return len(m.queue)
}

// Queued returns a copy of the queue in readiness order
func (m *Matchmaker) Queued() []model.Identity {
	out := make([]model.Identity, len(m.queue))
	copy(out, m.queue)
	return out
}

// TryMatch pairs the two earliest-ready players repeatedly until fewer than
// two eligible players remain. Created sessions are inserted into the table
// and returned in creation order.
func (m *Matchmaker) TryMatch(reg *registry.Registry, table *session.Table, now time.Time) []*model.Session {
	var created []*model.Session
	for {
		first, ok := m.pop(reg, table)
		if !ok {
			return created
		}
		second, ok := m.pop(reg, table)
		if !ok {
			// Put the lone player back at the head of the line
			m.queue = append([]model.Identity{first}, m.queue...)
			m.queued[first] = true
			return created
		}

		s := model.NewSession(first, second, now)
		if err := table.Insert(s); err != nil {
			// pop filters players with sessions, so this means a broken invariant
			m.logger.Error("failed to insert session",
				slog.String("session_id", string(s.ID)),
				slog.String("error", err.Error()))
			continue
		}
		reg.ClearReady(first)
		reg.ClearReady(second)

		m.logger.Info("players matched",
			slog.String("session_id", string(s.ID)),
			slog.String("player1", string(first)),
			slog.String("player2", string(second)))
		created = append(created, s)
	}
}

// pop removes and returns the earliest eligible identity, discarding stale
// entries for players that left, are no longer ready, or are already fighting
func (m *Matchmaker) pop(reg *registry.Registry, table *session.Table) (model.Identity, bool) {
	for len(m.queue) > 0 {
		identity := m.queue[0]
		m.queue = m.queue[1:]
		delete(m.queued, identity)

		if !reg.IsReady(identity) || table.HasSession(identity) {
			continue
		}
		return identity, true
	}
	return "", false
}
