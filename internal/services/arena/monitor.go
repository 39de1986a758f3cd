package arena

import (
	"context"
	"log/slog"

	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/services/session"
)

// HandleDisconnect forfeits any active session of the player behind conn
// and forgets the player. There is no reconnection window.
func (c *Controller) HandleDisconnect(ctx context.Context, conn model.ConnID) {
	c.mu.Lock()
	identity, ok := c.registry.FindByConnection(conn)
	if !ok {
		c.mu.Unlock()
		return
	}
	result := c.dropLocked(identity)
	c.mu.Unlock()

	c.record(ctx, result)
	c.logger.Info("player disconnected",
		slog.String("identity", string(identity)),
		slog.String("conn", string(conn)),
		slog.Bool("forfeit", result != nil))
}

// dropLocked forgets identity as if its transport closed. An active session
// ends with the opponent as winner; the result is returned for recording.
func (c *Controller) dropLocked(identity model.Identity) *model.BattleResult {
	c.registry.Unregister(identity)
	c.matchmaker.Remove(identity)

	s, err := c.table.FindByIdentity(identity)
	if err != nil {
		return nil
	}
	if !s.IsActive() {
		c.table.Remove(s.ID)
		return nil
	}
	session.Forfeit(s, s.Opponent(identity).Identity)
	c.broadcaster.BattleEnd(s, model.WinnerOpponentDisconnected)
	return c.endLocked(s, model.EndDisconnect)
}
