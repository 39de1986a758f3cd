// Package arena is the single serialization boundary of the battle server.
// Every inbound event runs to completion under one lock, so registry,
// readiness queue and session table mutations never interleave.
package arena

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/battlearena/internal/dependencies/clock"
	"github.com/mcoot/battlearena/internal/dependencies/random"
	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/services/broadcast"
	"github.com/mcoot/battlearena/internal/services/matchmaker"
	"github.com/mcoot/battlearena/internal/services/registry"
	"github.com/mcoot/battlearena/internal/services/session"
)

// ResultSink receives the outcome of every terminated session
type ResultSink interface {
	RecordResult(ctx context.Context, result *model.BattleResult) error
}

// Config holds tunable arena behaviour
type Config struct {
	// TurnTimeout forfeits a player who has not acted for this long.
	// Zero disables the watchdog.
	TurnTimeout time.Duration
}

// Stats is a point-in-time count of arena state
type Stats struct {
	Players  int `json:"players"`
	Queued   int `json:"queued"`
	Sessions int `json:"sessions"`
}

// Controller handles inbound player events
type Controller struct {
	mu          sync.Mutex
	registry    *registry.Registry
	matchmaker  *matchmaker.Matchmaker
	table       *session.Table
	broadcaster *broadcast.Broadcaster

	sinks  []ResultSink
	clock  clock.Clock
	random random.Random
	config Config
	logger *slog.Logger
}

// NewController creates a new Controller delivering events through sender
func NewController(
	sender broadcast.Sender,
	sinks []ResultSink,
	clock clock.Clock,
	random random.Random,
	config Config,
	logger *slog.Logger,
) *Controller {
	reg := registry.New()
	return &Controller{
		registry:    reg,
		matchmaker:  matchmaker.New(logger),
		table:       session.NewTable(),
		broadcaster: broadcast.New(sender, reg, logger),
		sinks:       sinks,
		clock:       clock,
		random:      random,
		config:      config,
		logger:      logger.With(slog.String("component", "arena")),
	}
}

// HandleSetup registers identity over conn, acknowledges with connected and
// attempts to match it if it is ready
func (c *Controller) HandleSetup(ctx context.Context, conn model.ConnID, identity model.Identity) error {
	identity, err := normalize(identity)
	if err != nil {
		c.broadcaster.ErrorConn(conn, err.Error())
		return err
	}

	c.mu.Lock()
	// An identity displaced from conn has lost its transport
	var displaced model.Identity
	var forfeit *model.BattleResult
	if prev, ok := c.registry.FindByConnection(conn); ok && prev != identity {
		displaced = prev
		forfeit = c.dropLocked(prev)
	}
	player, isNew := c.registry.Register(identity, conn)
	c.broadcaster.Connected(conn)
	if player.Ready {
		c.matchmaker.Enqueue(identity)
	}
	c.matchLocked()
	c.mu.Unlock()

	if displaced != "" {
		c.record(ctx, forfeit)
		c.logger.Info("player displaced",
			slog.String("identity", string(displaced)),
			slog.String("conn", string(conn)),
			slog.Bool("forfeit", forfeit != nil))
	}
	c.logger.Info("player setup",
		slog.String("identity", string(identity)),
		slog.String("conn", string(conn)),
		slog.Bool("new", isNew))
	return nil
}

// HandleReadyForBattle sends the caller its view of an existing session
func (c *Controller) HandleReadyForBattle(ctx context.Context, conn model.ConnID, identity model.Identity) error {
	identity, err := normalize(identity)
	if err != nil {
		c.broadcaster.ErrorConn(conn, err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.table.FindActiveByIdentity(identity)
	if err == nil {
		c.broadcaster.TurnUpdateTo(conn, s, identity)
	}
	c.matchLocked()
	return err
}

// HandleAttack performs an attack for identity. Acting out of turn is
// reported to the caller; a missing session is ignored.
func (c *Controller) HandleAttack(ctx context.Context, conn model.ConnID, identity model.Identity) error {
	identity, err := normalize(identity)
	if err != nil {
		c.broadcaster.ErrorConn(conn, err.Error())
		return err
	}

	c.mu.Lock()
	result, err := c.attackLocked(conn, identity)
	c.mu.Unlock()

	c.record(ctx, result)
	return err
}

func (c *Controller) attackLocked(conn model.ConnID, identity model.Identity) (*model.BattleResult, error) {
	s, err := c.table.FindActiveByIdentity(identity)
	if err != nil {
		return nil, err
	}

	outcome, err := session.Attack(s, identity, c.random, c.clock.Now())
	if err != nil {
		if model.IsValidationError(err) {
			c.broadcaster.ErrorConn(conn, model.NotYourTurnMessage)
		}
		return nil, err
	}

	c.logger.Debug("attack",
		slog.String("session_id", string(s.ID)),
		slog.String("identity", string(identity)),
		slog.Int("damage", outcome.Amount))

	if outcome.Finished {
		c.broadcaster.BattleEnd(s, string(identity))
		return c.endLocked(s, model.EndKnockout), nil
	}

	c.broadcaster.TurnUpdate(s)
	return nil, nil
}

// HandleDefend heals identity. Every failure is silent towards the client.
func (c *Controller) HandleDefend(ctx context.Context, conn model.ConnID, identity model.Identity) error {
	identity, err := normalize(identity)
	if err != nil {
		c.broadcaster.ErrorConn(conn, err.Error())
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.table.FindActiveByIdentity(identity)
	if err != nil {
		return err
	}
	outcome, err := session.Defend(s, identity, c.clock.Now())
	if err != nil {
		return err
	}

	c.logger.Debug("defend",
		slog.String("session_id", string(s.ID)),
		slog.String("identity", string(identity)),
		slog.Int("heal", outcome.Amount))

	c.broadcaster.TurnUpdate(s)
	return nil
}

// HandleRestart ends any session identity is in and puts it back in the
// readiness queue. An opponent left in an active session is told it ended.
func (c *Controller) HandleRestart(ctx context.Context, conn model.ConnID, identity model.Identity) error {
	identity, err := normalize(identity)
	if err != nil {
		c.broadcaster.ErrorConn(conn, err.Error())
		return err
	}

	c.mu.Lock()
	var result *model.BattleResult
	if s, err := c.table.FindByIdentity(identity); err == nil {
		if s.IsActive() {
			opponent := s.Opponent(identity).Identity
			session.Forfeit(s, opponent)
			c.broadcaster.BattleEndTo(opponent, model.WinnerOpponentForfeited)
			result = c.endLocked(s, model.EndRestart)
		} else {
			c.table.Remove(s.ID)
		}
	}

	if c.registry.SetReady(identity) {
		c.matchmaker.Enqueue(identity)
	}
	c.matchLocked()
	c.mu.Unlock()

	c.record(ctx, result)
	c.logger.Info("player restarted", slog.String("identity", string(identity)))
	return nil
}

// ActiveSessions returns snapshots of every live session
func (c *Controller) ActiveSessions() []model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	all := c.table.All()
	out := make([]model.Session, 0, len(all))
	for _, s := range all {
		if s.IsActive() {
			out = append(out, s.Snapshot())
		}
	}
	return out
}

// SessionFor returns a snapshot of the session identity is in
func (c *Controller) SessionFor(identity model.Identity) (model.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.table.FindByIdentity(identity)
	if err != nil {
		return model.Session{}, err
	}
	return s.Snapshot(), nil
}

// Stats returns current counts of players, queued players and sessions
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Players:  c.registry.Count(),
		Queued:   c.matchmaker.Len(),
		Sessions: c.table.Len(),
	}
}

// Queue returns the identities waiting for an opponent in readiness order
func (c *Controller) Queue() []model.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.matchmaker.Queued()
}

// matchLocked pairs ready players and announces each new session
func (c *Controller) matchLocked() {
	for _, s := range c.matchmaker.TryMatch(c.registry, c.table, c.clock.Now()) {
		c.broadcaster.BattleStart(s)
		c.broadcaster.TurnUpdate(s)
	}
}

// endLocked removes a completed session and builds its result
func (c *Controller) endLocked(s *model.Session, reason model.EndReason) *model.BattleResult {
	c.table.Remove(s.ID)

	result := &model.BattleResult{
		SessionID: s.ID,
		Players:   [2]model.Identity{s.Participants[0].Identity, s.Participants[1].Identity},
		Winner:    s.Winner,
		Reason:    reason,
		Turns:     s.TurnNumber,
		Log:       s.Snapshot().Log,
		EndedAt:   c.clock.Now(),
	}
	if s.Winner != "" {
		result.Loser = s.Opponent(s.Winner).Identity
	}

	c.logger.Info("session ended",
		slog.String("session_id", string(s.ID)),
		slog.String("reason", string(reason)),
		slog.String("winner", string(result.Winner)),
		slog.Int("turns", result.Turns))
	return result
}

// record hands a result to every sink outside the arena lock
func (c *Controller) record(ctx context.Context, result *model.BattleResult) {
	if result == nil {
		return
	}
	for _, sink := range c.sinks {
		if err := sink.RecordResult(ctx, result); err != nil {
			c.logger.Error("failed to record result",
				slog.String("session_id", string(result.SessionID)),
				slog.String("error", err.Error()))
		}
	}
}

func normalize(identity model.Identity) (model.Identity, error) {
	trimmed := model.Identity(strings.TrimSpace(string(identity)))
	if trimmed == "" {
		return "", model.ErrInvalidIdentity
	}
	return trimmed, nil
}
