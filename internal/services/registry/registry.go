// Package registry tracks connected players, their connection handles and
// their readiness. It is not safe for concurrent use on its own: the arena
// controller serializes every call behind its lock.
package registry

import (
	"github.com/mcoot/battlearena/internal/model"
)

// Registry owns all Player records
type Registry struct {
	players map[model.Identity]*model.Player
	byConn  map[model.ConnID]model.Identity
}

// New creates an empty Registry
func New() *Registry {
	return &Registry{
		players: make(map[model.Identity]*model.Player),
		byConn:  make(map[model.ConnID]model.Identity),
	}
}

// Register upserts a player. A new identity starts ready with full health;
// an existing identity only has its connection handle replaced so readiness
// and health survive a reconnect.
func (r *Registry) Register(identity model.Identity, conn model.ConnID) (model.Player, bool) {
	if p, ok := r.players[identity]; ok {
		if p.Conn != conn {
			delete(r.byConn, p.Conn)
			p.Conn = conn
		}
		r.claimConn(identity, conn)
		return *p, false
	}

	p := &model.Player{
		Identity: identity,
		Conn:     conn,
		Health:   model.MaxHealth,
		Ready:    true,
	}
	r.players[identity] = p
	r.claimConn(identity, conn)
	return *p, true
}

// claimConn points conn at identity, detaching any other identity that was
// previously registered over the same connection
func (r *Registry) claimConn(identity model.Identity, conn model.ConnID) {
	if prev, ok := r.byConn[conn]; ok && prev != identity {
		if p, ok := r.players[prev]; ok && p.Conn == conn {
			p.Conn = ""
		}
	}
	r.byConn[conn] = identity
}

// SetReady marks a player ready; it returns false if the identity is unknown
func (r *Registry) SetReady(identity model.Identity) bool {
	p, ok := r.players[identity]
	if !ok {
		return false
	}
	p.Ready = true
	return true
}

// ClearReady marks a player as no longer available for matching
func (r *Registry) ClearReady(identity model.Identity) {
	if p, ok := r.players[identity]; ok {
		p.Ready = false
	}
}

// IsReady reports whether identity is registered and ready
func (r *Registry) IsReady(identity model.Identity) bool {
	p, ok := r.players[identity]
	return ok && p.Ready
}

// Unregister removes a player and reports whether it existed
func (r *Registry) Unregister(identity model.Identity) bool {
	p, ok := r.players[identity]
	if !ok {
		return false
	}
	if r.byConn[p.Conn] == identity {
		delete(r.byConn, p.Conn)
	}
	delete(r.players, identity)
	return true
}

// FindByConnection resolves the identity registered over conn
func (r *Registry) FindByConnection(conn model.ConnID) (model.Identity, bool) {
	identity, ok := r.byConn[conn]
	return identity, ok
}

// ConnectionOf returns the current connection handle for identity
func (r *Registry) ConnectionOf(identity model.Identity) (model.ConnID, bool) {
	p, ok := r.players[identity]
	if !ok || p.Conn == "" {
		return "", false
	}
	return p.Conn, true
}

// Count returns the number of registered players
func (r *Registry) Count() int {
	return len(r.players)
}
