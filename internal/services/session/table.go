package session

import (
	"sort"

	"github.com/mcoot/battlearena/internal/model"
)

// Table owns all sessions, indexed by id and by participant identity.
// Like the registry it relies on the arena lock for synchronization.
type Table struct {
	sessions map[model.SessionID]*model.Session
	byPlayer map[model.Identity]model.SessionID
}

// NewTable creates an empty session table
func NewTable() *Table {
	return &Table{
		sessions: make(map[model.SessionID]*model.Session),
		byPlayer: make(map[model.Identity]model.SessionID),
	}
}

// Insert adds a session. It fails if the id is taken or either participant
// already has one.
func (t *Table) Insert(s *model.Session) error {
	if _, ok := t.sessions[s.ID]; ok {
		return model.ErrDuplicateSession
	}
	for _, p := range s.Participants {
		if _, ok := t.byPlayer[p.Identity]; ok {
			return model.ErrAlreadyInSession
		}
	}
	t.sessions[s.ID] = s
	for _, p := range s.Participants {
		t.byPlayer[p.Identity] = s.ID
	}
	return nil
}

// FindByIdentity returns the session containing identity
func (t *Table) FindByIdentity(identity model.Identity) (*model.Session, error) {
	id, ok := t.byPlayer[identity]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	s, ok := t.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// FindActiveByIdentity returns the session containing identity only if it is Active
func (t *Table) FindActiveByIdentity(identity model.Identity) (*model.Session, error) {
	s, err := t.FindByIdentity(identity)
	if err != nil {
		return nil, err
	}
	if !s.IsActive() {
		return nil, model.ErrSessionCompleted
	}
	return s, nil
}

// Remove deletes a session and its participant index entries
func (t *Table) Remove(id model.SessionID) bool {
	s, ok := t.sessions[id]
	if !ok {
		return false
	}
	for _, p := range s.Participants {
		if t.byPlayer[p.Identity] == id {
			delete(t.byPlayer, p.Identity)
		}
	}
	delete(t.sessions, id)
	return true
}

// HasSession reports whether identity currently belongs to any session
func (t *Table) HasSession(identity model.Identity) bool {
	_, ok := t.byPlayer[identity]
	return ok
}

// Len returns the number of sessions
func (t *Table) Len() int {
	return len(t.sessions)
}

// All returns the sessions ordered by creation time then id
func (t *Table) All() []*model.Session {
	out := make([]*model.Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
