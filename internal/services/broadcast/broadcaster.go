// Package broadcast renders arena state into outbound events and hands them
// to the transport for delivery.
package broadcast

import (
	"log/slog"

	"github.com/mcoot/battlearena/internal/model"
)

// Sender delivers one event to one connection. Implementations must not
// block; Send reports false when the event could not be queued.
type Sender interface {
	Send(conn model.ConnID, event model.EventName, payload any) bool
}

// Directory resolves an identity to its current connection handle
type Directory interface {
	ConnectionOf(identity model.Identity) (model.ConnID, bool)
}

// Broadcaster sends arena events to players
type Broadcaster struct {
	sender    Sender
	directory Directory
	logger    *slog.Logger
}

// New creates a new Broadcaster
func New(sender Sender, directory Directory, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		sender:    sender,
		directory: directory,
		logger:    logger.With(slog.String("component", "broadcaster")),
	}
}

// Connected acknowledges a setup on the given connection
func (b *Broadcaster) Connected(conn model.ConnID) {
	b.sendConn(conn, model.EventConnected, model.ConnectedPayload{})
}

// BattleStart announces a new session to both participants
func (b *Broadcaster) BattleStart(s *model.Session) {
	payload := model.BattleStartPayload{
		Player1Address: string(s.Participants[0].Identity),
		Player2Address: string(s.Participants[1].Identity),
	}
	for _, p := range s.Participants {
		b.send(p.Identity, model.EventBattleStart, payload)
	}
}

// TurnUpdate sends each participant its own view of the session. Both views
// are rendered from the same state so the turn counter and healths agree.
func (b *Broadcaster) TurnUpdate(s *model.Session) {
	snap := s.Snapshot()
	for _, p := range snap.Participants {
		b.send(p.Identity, model.EventTurnUpdate, Perspective(&snap, p.Identity))
	}
}

// TurnUpdateTo sends identity's view of the session to conn
func (b *Broadcaster) TurnUpdateTo(conn model.ConnID, s *model.Session, identity model.Identity) {
	if !s.Has(identity) {
		return
	}
	b.sendConn(conn, model.EventTurnUpdate, Perspective(s, identity))
}

// BattleEnd announces the winner to every participant still connected
func (b *Broadcaster) BattleEnd(s *model.Session, winner string) {
	for _, p := range s.Participants {
		b.BattleEndTo(p.Identity, winner)
	}
}

// BattleEndTo announces the end of a session to one player
func (b *Broadcaster) BattleEndTo(identity model.Identity, winner string) {
	b.send(identity, model.EventBattleEnd, model.BattleEndPayload{Winner: winner})
}

// ErrorConn reports a rejected message to a connection that may not have an
// identity yet
func (b *Broadcaster) ErrorConn(conn model.ConnID, message string) {
	b.sendConn(conn, model.EventError, model.ErrorPayload{Message: message})
}

// Perspective renders the turnUpdate payload as seen by identity
func Perspective(s *model.Session, identity model.Identity) model.TurnUpdatePayload {
	payload := model.TurnUpdatePayload{
		CurrentTurn: s.TurnNumber,
		PlayerTurn:  string(s.CurrentTurn),
	}
	if p := s.Participant(identity); p != nil {
		payload.PlayerHealth = p.Health
	}
	if o := s.Opponent(identity); o != nil {
		payload.OpponentHealth = o.Health
	}
	return payload
}

func (b *Broadcaster) send(identity model.Identity, event model.EventName, payload any) {
	conn, ok := b.directory.ConnectionOf(identity)
	if !ok {
		b.logger.Debug("skipping event for disconnected player",
			slog.String("identity", string(identity)),
			slog.String("event", string(event)))
		return
	}
	b.sendConn(conn, event, payload)
}

func (b *Broadcaster) sendConn(conn model.ConnID, event model.EventName, payload any) {
	if !b.sender.Send(conn, event, payload) {
		b.logger.Warn("event dropped",
			slog.String("conn", string(conn)),
			slog.String("event", string(event)))
	}
}
