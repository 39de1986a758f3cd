package arena

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/services/session"
)

// RunTurnWatchdog periodically forfeits players who let their turn run past
// the configured timeout. It returns immediately when the timeout is zero and
// otherwise runs until ctx is cancelled.
func (c *Controller) RunTurnWatchdog(ctx context.Context, interval time.Duration) {
	if c.config.TurnTimeout <= 0 {
		return
	}
	if interval <= 0 {
		interval = c.config.TurnTimeout / 4
	}

	c.logger.Info("turn watchdog started",
		slog.Duration("timeout", c.config.TurnTimeout),
		slog.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("turn watchdog stopped")
			return
		case <-ticker.C:
			c.ExpireIdleTurns(ctx)
		}
	}
}

// ExpireIdleTurns ends every active session whose current turn has run past
// the timeout. The idle player loses and both sides learn the winner.
// It returns the number of sessions ended.
func (c *Controller) ExpireIdleTurns(ctx context.Context) int {
	if c.config.TurnTimeout <= 0 {
		return 0
	}

	c.mu.Lock()
	var results []*model.BattleResult
	for _, s := range c.table.All() {
		if !s.IsActive() || c.clock.Since(s.TurnStartedAt) < c.config.TurnTimeout {
			continue
		}
		winner := s.Opponent(s.CurrentTurn).Identity
		session.Forfeit(s, winner)
		c.broadcaster.BattleEnd(s, string(winner))
		results = append(results, c.endLocked(s, model.EndTimeout))
	}
	c.mu.Unlock()

	for _, r := range results {
		c.record(ctx, r)
	}
	return len(results)
}
