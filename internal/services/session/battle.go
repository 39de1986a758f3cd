// Package session implements the per-pair battle state machine and the
// table that owns live sessions.
package session

import (
	"time"

	"github.com/mcoot/battlearena/internal/dependencies/random"
	"github.com/mcoot/battlearena/internal/model"
)

// Combat constants
const (
	MinDamage = 10
	MaxDamage = 29
	MaxHeal   = 10
)

// Outcome describes the effect of a successful action
type Outcome struct {
	Kind     model.ActionKind
	Amount   int
	Finished bool // the opponent was knocked out
}

// Attack applies a damage roll in [MinDamage, MaxDamage] to the actor's opponent.
// A knockout completes the session; otherwise the turn advances.
func Attack(s *model.Session, actor model.Identity, rnd random.Random, now time.Time) (Outcome, error) {
	if err := checkTurn(s, actor); err != nil {
		return Outcome{}, err
	}

	opponent := s.Opponent(actor)
	damage := random.Between(rnd, MinDamage, MaxDamage)
	opponent.Health = clamp(opponent.Health - damage)

	s.Log = append(s.Log, model.ActionRecord{
		Turn:   s.TurnNumber,
		Actor:  actor,
		Kind:   model.ActionAttack,
		Amount: damage,
		At:     now,
	})

	if opponent.Health <= model.MinHealth {
		s.Status = model.SessionCompleted
		s.Winner = actor
		return Outcome{Kind: model.ActionAttack, Amount: damage, Finished: true}, nil
	}

	advanceTurn(s, now)
	return Outcome{Kind: model.ActionAttack, Amount: damage}, nil
}

// Defend heals the actor by min(MaxHeal, MaxHealth-own) and advances the turn
func Defend(s *model.Session, actor model.Identity, now time.Time) (Outcome, error) {
	if err := checkTurn(s, actor); err != nil {
		return Outcome{}, err
	}

	self := s.Participant(actor)
	heal := min(MaxHeal, model.MaxHealth-self.Health)
	self.Health = clamp(self.Health + heal)

	s.Log = append(s.Log, model.ActionRecord{
		Turn:   s.TurnNumber,
		Actor:  actor,
		Kind:   model.ActionDefend,
		Amount: heal,
		At:     now,
	})

	advanceTurn(s, now)
	return Outcome{Kind: model.ActionDefend, Amount: heal}, nil
}

// Forfeit completes an active session without a board winner
func Forfeit(s *model.Session, winner model.Identity) {
	s.Status = model.SessionCompleted
	s.Winner = winner
}

func checkTurn(s *model.Session, actor model.Identity) error {
	if !s.Has(actor) {
		return model.ErrSessionNotFound
	}
	if !s.IsActive() {
		return model.ErrSessionCompleted
	}
	if s.CurrentTurn != actor {
		return model.ErrNotYourTurn
	}
	return nil
}

// advanceTurn hands the move to the other participant unconditionally
func advanceTurn(s *model.Session, now time.Time) {
	s.CurrentTurn = s.Opponent(s.CurrentTurn).Identity
	s.TurnNumber++
	s.TurnStartedAt = now
}

func clamp(health int) int {
	return max(model.MinHealth, min(model.MaxHealth, health))
}
