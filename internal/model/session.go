package model

import (
	"strings"
	"time"
)

// SessionID uniquely identifies a battle session
type SessionID string

// SessionStatus represents the lifecycle state of a session
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
)

// Participant is a session's own snapshot of one player.
// Health here is the combat health, decoupled from the registry.
type Participant struct {
	Identity Identity
	Health   int
}

// ActionKind names an action recorded in the battle log
type ActionKind string

const (
	ActionAttack ActionKind = "attack"
	ActionDefend ActionKind = "defend"
)

// ActionRecord is a single entry in a session's battle log
type ActionRecord struct {
	Turn   int        `json:"turn"`
	Actor  Identity   `json:"actor"`
	Kind   ActionKind `json:"kind"`
	Amount int        `json:"amount"` // damage dealt or health restored
	At     time.Time  `json:"at"`
}

// Session is the live state of one two-player battle
type Session struct {
	ID           SessionID
	Participants [2]Participant
	CurrentTurn  Identity // whose move is next
	TurnNumber   int      // starts at 1
	Status       SessionStatus
	Winner       Identity // set when Completed by knockout
	Log          []ActionRecord

	CreatedAt     time.Time
	TurnStartedAt time.Time
}

// sessionIDEscaper escapes the id separator inside identities so distinct
// pairs never share an id
var sessionIDEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

// NewSessionID derives a session id from the paired identities in pairing
// order. Identities without '_' or '%' appear verbatim, giving "first_second".
func NewSessionID(first, second Identity) SessionID {
	return SessionID(sessionIDEscaper.Replace(string(first)) + "_" + sessionIDEscaper.Replace(string(second)))
}

// NewSession creates an active session where first moves first
func NewSession(first, second Identity, now time.Time) *Session {
	return &Session{
		ID: NewSessionID(first, second),
		Participants: [2]Participant{
			{Identity: first, Health: MaxHealth},
			{Identity: second, Health: MaxHealth},
		},
		CurrentTurn:   first,
		TurnNumber:    1,
		Status:        SessionActive,
		CreatedAt:     now,
		TurnStartedAt: now,
	}
}

// Has reports whether identity participates in the session
func (s *Session) Has(identity Identity) bool {
	return s.Participants[0].Identity == identity || s.Participants[1].Identity == identity
}

// Participant returns the participant for identity, or nil
func (s *Session) Participant(identity Identity) *Participant {
	for i := range s.Participants {
		if s.Participants[i].Identity == identity {
			return &s.Participants[i]
		}
	}
	return nil
}

// Opponent returns the other participant, or nil if identity is not in the session
func (s *Session) Opponent(identity Identity) *Participant {
	switch identity {
	case s.Participants[0].Identity:
		return &s.Participants[1]
	case s.Participants[1].Identity:
		return &s.Participants[0]
	}
	return nil
}

// IsActive returns true while the battle is still being played
func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

// Snapshot returns a copy safe to hand out beyond the arena lock
func (s *Session) Snapshot() Session {
	cp := *s
	cp.Log = make([]ActionRecord, len(s.Log))
	copy(cp.Log, s.Log)
	return cp
}
