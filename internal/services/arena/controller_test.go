package arena

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battlearena/internal/dependencies/mocks"
	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/testutil"
)

type sentEvent struct {
	Conn    model.ConnID
	Event   model.EventName
	Payload any
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentEvent
}

func (r *recordingSender) Send(conn model.ConnID, event model.EventName, payload any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentEvent{Conn: conn, Event: event, Payload: payload})
	return true
}

func (r *recordingSender) events(conn model.ConnID, event model.EventName) []sentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sentEvent
	for _, e := range r.sent {
		if e.Conn == conn && e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingSender) last(conn model.ConnID, event model.EventName) (sentEvent, bool) {
	evs := r.events(conn, event)
	if len(evs) == 0 {
		return sentEvent{}, false
	}
	return evs[len(evs)-1], true
}

func (r *recordingSender) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

type recordingSink struct {
	results []*model.BattleResult
	err     error
}

func (r *recordingSink) RecordResult(_ context.Context, result *model.BattleResult) error {
	r.results = append(r.results, result)
	return r.err
}

type ControllerSuite struct {
	suite.Suite
	sender     *recordingSender
	sink       *recordingSink
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.sender = &recordingSender{}
	s.sink = &recordingSink{}
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.controller = NewController(s.sender, []ResultSink{s.sink}, s.clock, s.random,
		Config{TurnTimeout: time.Minute}, testutil.NopLogger())
	s.ctx = context.Background()
}

// startBattle sets up A on connA and B on connB and returns once they are paired
func (s *ControllerSuite) startBattle() {
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA", "A"))
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connB", "B"))
}

func (s *ControllerSuite) turnUpdate(conn model.ConnID) model.TurnUpdatePayload {
	e, ok := s.sender.last(conn, model.EventTurnUpdate)
	s.Require().True(ok, "no turnUpdate for %s", conn)
	return e.Payload.(model.TurnUpdatePayload)
}

// Setup tests

func (s *ControllerSuite) TestSetupSendsConnected() {
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA", "A"))

	s.Len(s.sender.events("connA", model.EventConnected), 1)
	s.Empty(s.sender.events("connA", model.EventBattleStart))
	s.Equal(Stats{Players: 1, Queued: 1, Sessions: 0}, s.controller.Stats())
}

func (s *ControllerSuite) TestSetupRejectsBlankIdentity() {
	err := s.controller.HandleSetup(s.ctx, "connA", "   ")

	s.ErrorIs(err, model.ErrInvalidIdentity)
	s.Len(s.sender.events("connA", model.EventError), 1)
	s.Equal(0, s.controller.Stats().Players)
}

func (s *ControllerSuite) TestTwoPlayersArePairedOnSetup() {
	s.startBattle()

	for _, conn := range []model.ConnID{"connA", "connB"} {
		starts := s.sender.events(conn, model.EventBattleStart)
		s.Require().Len(starts, 1)
		s.Equal(model.BattleStartPayload{Player1Address: "A", Player2Address: "B"}, starts[0].Payload)
		s.Equal(model.TurnUpdatePayload{CurrentTurn: 1, PlayerTurn: "A", PlayerHealth: 100, OpponentHealth: 100}, s.turnUpdate(conn))
	}
	s.Equal(Stats{Players: 2, Queued: 0, Sessions: 1}, s.controller.Stats())
}

func (s *ControllerSuite) TestReconnectKeepsSessionAndRoutesToNewConnection() {
	s.startBattle()
	s.sender.reset()

	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA2", "A"))
	s.Len(s.sender.events("connA2", model.EventConnected), 1)
	s.Empty(s.sender.events("connA2", model.EventBattleStart))

	s.random.QueueIntn(0)
	s.Require().NoError(s.controller.HandleAttack(s.ctx, "connA2", "A"))
	s.Equal(90, s.turnUpdate("connA2").OpponentHealth)
	s.Empty(s.sender.events("connA", model.EventTurnUpdate))
}

// ReadyForBattle tests

func (s *ControllerSuite) TestReadyForBattleSendsSnapshotToCaller() {
	s.startBattle()
	s.sender.reset()

	s.Require().NoError(s.controller.HandleReadyForBattle(s.ctx, "connB", "B"))

	s.Empty(s.sender.events("connA", model.EventTurnUpdate))
	s.Equal(model.TurnUpdatePayload{CurrentTurn: 1, PlayerTurn: "A", PlayerHealth: 100, OpponentHealth: 100}, s.turnUpdate("connB"))
}

func (s *ControllerSuite) TestReadyForBattleWithoutSessionIsNoop() {
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA", "A"))
	s.sender.reset()

	err := s.controller.HandleReadyForBattle(s.ctx, "connA", "A")

	s.True(model.IsNotFoundError(err))
	s.Empty(s.sender.sent)
}

// Attack tests

func (s *ControllerSuite) TestAttackDamagesOpponentAndAdvancesTurn() {
	s.startBattle()
	s.random.QueueIntn(7)

	s.Require().NoError(s.controller.HandleAttack(s.ctx, "connA", "A"))

	s.Equal(model.TurnUpdatePayload{CurrentTurn: 2, PlayerTurn: "B", PlayerHealth: 100, OpponentHealth: 83}, s.turnUpdate("connA"))
	s.Equal(model.TurnUpdatePayload{CurrentTurn: 2, PlayerTurn: "B", PlayerHealth: 83, OpponentHealth: 100}, s.turnUpdate("connB"))
}

func (s *ControllerSuite) TestAttackOutOfTurnReportsErrorWithoutMutation() {
	s.startBattle()
	s.sender.reset()

	err := s.controller.HandleAttack(s.ctx, "connB", "B")

	s.ErrorIs(err, model.ErrNotYourTurn)
	errs := s.sender.events("connB", model.EventError)
	s.Require().Len(errs, 1)
	s.Equal(model.ErrorPayload{Message: "Not your turn!"}, errs[0].Payload)
	s.Empty(s.sender.events("connA", model.EventError))
	s.Empty(s.sender.events("connA", model.EventTurnUpdate))

	snap, err := s.controller.SessionFor("A")
	s.Require().NoError(err)
	s.Equal(model.Identity("A"), snap.CurrentTurn)
	s.Equal(1, snap.TurnNumber)
	s.Equal(100, snap.Participants[1].Health)
}

func (s *ControllerSuite) TestAttackWithoutSessionIsIgnored() {
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA", "A"))
	s.sender.reset()

	err := s.controller.HandleAttack(s.ctx, "connA", "A")

	s.True(model.IsNotFoundError(err))
	s.Empty(s.sender.sent)
}

func (s *ControllerSuite) TestKnockoutEndsBattleAndRecordsResult() {
	s.startBattle()
	// A rolls 29 and B rolls 10 alternately until B drops
	s.random.QueueIntn(19, 0, 19, 0, 19, 0, 19)
	actors := []struct {
		conn     model.ConnID
		identity model.Identity
	}{{"connA", "A"}, {"connB", "B"}}
	for i := 0; i < 7; i++ {
		a := actors[i%2]
		s.Require().NoError(s.controller.HandleAttack(s.ctx, a.conn, a.identity))
	}

	for _, conn := range []model.ConnID{"connA", "connB"} {
		ends := s.sender.events(conn, model.EventBattleEnd)
		s.Require().Len(ends, 1)
		s.Equal(model.BattleEndPayload{Winner: "A"}, ends[0].Payload)
	}
	s.Equal(0, s.controller.Stats().Sessions)

	s.Require().Len(s.sink.results, 1)
	r := s.sink.results[0]
	s.Equal(model.SessionID("A_B"), r.SessionID)
	s.Equal(model.Identity("A"), r.Winner)
	s.Equal(model.Identity("B"), r.Loser)
	s.Equal(model.EndKnockout, r.Reason)
	s.Len(r.Log, 7)

	// Subsequent actions find no session
	s.True(model.IsNotFoundError(s.controller.HandleAttack(s.ctx, "connB", "B")))
	s.True(model.IsNotFoundError(s.controller.HandleDefend(s.ctx, "connA", "A")))
}

func (s *ControllerSuite) TestSinkErrorDoesNotFailAttack() {
	s.sink.err = errors.New("store down")
	s.startBattle()
	s.random.QueueIntn(19, 0, 19, 0, 19, 0, 19)
	ids := []model.Identity{"A", "B"}
	for i := 0; i < 7; i++ {
		s.Require().NoError(s.controller.HandleAttack(s.ctx, model.ConnID("conn"+ids[i%2]), ids[i%2]))
	}
	s.Len(s.sink.results, 1)
}

// Defend tests

func (s *ControllerSuite) TestDefendHealsAndAdvancesTurn() {
	s.startBattle()
	s.random.QueueIntn(5)
	s.Require().NoError(s.controller.HandleAttack(s.ctx, "connA", "A"))

	s.Require().NoError(s.controller.HandleDefend(s.ctx, "connB", "B"))

	s.Equal(model.TurnUpdatePayload{CurrentTurn: 3, PlayerTurn: "A", PlayerHealth: 95, OpponentHealth: 100}, s.turnUpdate("connB"))
	s.Equal(model.TurnUpdatePayload{CurrentTurn: 3, PlayerTurn: "A", PlayerHealth: 100, OpponentHealth: 95}, s.turnUpdate("connA"))
}

func (s *ControllerSuite) TestDefendOutOfTurnIsSilent() {
	s.startBattle()
	s.sender.reset()

	err := s.controller.HandleDefend(s.ctx, "connB", "B")

	s.ErrorIs(err, model.ErrNotYourTurn)
	s.Empty(s.sender.sent)
}

func (s *ControllerSuite) TestUnderscoreIdentitiesPlayIndependentBattles() {
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "c1", "a_b"))
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "c2", "c"))
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "c3", "a"))
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "c4", "b_c"))
	s.Equal(Stats{Players: 4, Queued: 0, Sessions: 2}, s.controller.Stats())

	s.sender.reset()
	s.Require().NoError(s.controller.HandleAttack(s.ctx, "c1", "a_b"))

	s.Equal(90, s.turnUpdate("c2").PlayerHealth)
	s.Equal(90, s.turnUpdate("c1").OpponentHealth)
	s.Empty(s.sender.events("c3", model.EventTurnUpdate))
	s.Empty(s.sender.events("c4", model.EventTurnUpdate))

	sess, err := s.controller.SessionFor("a")
	s.Require().NoError(err)
	s.Equal(model.Identity("b_c"), sess.Opponent("a").Identity)
	s.Equal(model.MaxHealth, sess.Opponent("a").Health)
}

// Disconnect tests

func (s *ControllerSuite) TestDisconnectForfeitsActiveSession() {
	s.startBattle()
	s.sender.reset()

	s.controller.HandleDisconnect(s.ctx, "connB")

	ends := s.sender.events("connA", model.EventBattleEnd)
	s.Require().Len(ends, 1)
	s.Equal(model.BattleEndPayload{Winner: "Opponent disconnected"}, ends[0].Payload)
	s.Empty(s.sender.events("connB", model.EventBattleEnd))
	s.Equal(Stats{Players: 1, Queued: 0, Sessions: 0}, s.controller.Stats())

	s.Require().Len(s.sink.results, 1)
	s.Equal(model.EndDisconnect, s.sink.results[0].Reason)
	s.Equal(model.Identity("A"), s.sink.results[0].Winner)
	s.Equal(model.Identity("B"), s.sink.results[0].Loser)
}

func (s *ControllerSuite) TestRestartAfterOpponentDisconnectReentersMatchmaking() {
	s.startBattle()
	s.controller.HandleDisconnect(s.ctx, "connB")

	s.Require().NoError(s.controller.HandleRestart(s.ctx, "connA", "A"))
	s.Equal(Stats{Players: 1, Queued: 1, Sessions: 0}, s.controller.Stats())

	s.sender.reset()
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connC", "C"))
	starts := s.sender.events("connA", model.EventBattleStart)
	s.Require().Len(starts, 1)
	s.Equal(model.BattleStartPayload{Player1Address: "A", Player2Address: "C"}, starts[0].Payload)
}

func (s *ControllerSuite) TestDisconnectWhileQueuedLeavesQueue() {
	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA", "A"))

	s.controller.HandleDisconnect(s.ctx, "connA")

	s.Equal(Stats{}, s.controller.Stats())
	s.Empty(s.sink.results)
}

func (s *ControllerSuite) TestSetupOverTakenConnectionForfeitsDisplacedPlayer() {
	s.startBattle()
	s.sender.reset()

	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA", "Z"))

	ends := s.sender.events("connB", model.EventBattleEnd)
	s.Require().Len(ends, 1)
	s.Equal(model.BattleEndPayload{Winner: "Opponent disconnected"}, ends[0].Payload)
	s.Empty(s.sender.events("connA", model.EventBattleEnd))
	s.Len(s.sender.events("connA", model.EventConnected), 1)

	_, err := s.controller.SessionFor("A")
	s.ErrorIs(err, model.ErrSessionNotFound)
	s.Equal(Stats{Players: 2, Queued: 1, Sessions: 0}, s.controller.Stats())

	s.Require().Len(s.sink.results, 1)
	s.Equal(model.EndDisconnect, s.sink.results[0].Reason)
	s.Equal(model.Identity("B"), s.sink.results[0].Winner)
	s.Equal(model.Identity("A"), s.sink.results[0].Loser)

	// Closing the socket now only concerns Z
	s.controller.HandleDisconnect(s.ctx, "connA")
	s.Equal(Stats{Players: 1, Queued: 0, Sessions: 0}, s.controller.Stats())
	s.Len(s.sink.results, 1)
}

func (s *ControllerSuite) TestSetupAgainOnSameConnectionKeepsSession() {
	s.startBattle()
	s.sender.reset()

	s.Require().NoError(s.controller.HandleSetup(s.ctx, "connA", "A"))

	s.Empty(s.sender.events("connB", model.EventBattleEnd))
	s.Equal(Stats{Players: 2, Queued: 0, Sessions: 1}, s.controller.Stats())
	s.Empty(s.sink.results)
}

func (s *ControllerSuite) TestDisconnectUnknownConnection() {
	s.NotPanics(func() { s.controller.HandleDisconnect(s.ctx, "nobody") })
	s.Empty(s.sender.sent)
}

// Restart tests

func (s *ControllerSuite) TestRestartMidBattleForfeitsToOpponent() {
	s.startBattle()
	s.sender.reset()

	s.Require().NoError(s.controller.HandleRestart(s.ctx, "connA", "A"))

	ends := s.sender.events("connB", model.EventBattleEnd)
	s.Require().Len(ends, 1)
	s.Equal(model.BattleEndPayload{Winner: "Opponent forfeited"}, ends[0].Payload)
	s.Empty(s.sender.events("connA", model.EventBattleEnd))
	s.Equal(Stats{Players: 2, Queued: 1, Sessions: 0}, s.controller.Stats())

	s.Require().Len(s.sink.results, 1)
	s.Equal(model.EndRestart, s.sink.results[0].Reason)
	s.Equal(model.Identity("B"), s.sink.results[0].Winner)
}

func (s *ControllerSuite) TestBothRestartProducesRematch() {
	s.startBattle()
	s.Require().NoError(s.controller.HandleRestart(s.ctx, "connB", "B"))
	s.sender.reset()

	s.Require().NoError(s.controller.HandleRestart(s.ctx, "connA", "A"))

	starts := s.sender.events("connA", model.EventBattleStart)
	s.Require().Len(starts, 1)
	s.Equal(model.BattleStartPayload{Player1Address: "B", Player2Address: "A"}, starts[0].Payload)
	s.Equal("B", s.turnUpdate("connA").PlayerTurn)
}

func (s *ControllerSuite) TestRestartUnknownIdentityDoesNotQueue() {
	s.Require().NoError(s.controller.HandleRestart(s.ctx, "connX", "X"))
	s.Equal(Stats{}, s.controller.Stats())
}

// Matching order

func (s *ControllerSuite) TestPairingFollowsReadinessOrder() {
	for _, id := range []model.Identity{"P1", "P2", "P3", "P4"} {
		s.Require().NoError(s.controller.HandleSetup(s.ctx, model.ConnID("conn"+id), id))
	}

	sessions := s.controller.ActiveSessions()
	s.Require().Len(sessions, 2)
	s.Equal(model.SessionID("P1_P2"), sessions[0].ID)
	s.Equal(model.SessionID("P3_P4"), sessions[1].ID)
}

// Concurrency

func (s *ControllerSuite) TestConcurrentAttacksAdvanceExactlyOnce() {
	s.startBattle()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.controller.HandleAttack(s.ctx, "connA", "A")
		}()
	}
	wg.Wait()

	snap, err := s.controller.SessionFor("A")
	s.Require().NoError(err)
	s.Equal(2, snap.TurnNumber)
	s.Equal(model.Identity("B"), snap.CurrentTurn)
	s.Len(s.sender.events("connA", model.EventError), 19)
}

// Turn timeout

func (s *ControllerSuite) TestExpireIdleTurnsForfeitsIdlePlayer() {
	s.startBattle()
	s.clock.Advance(59 * time.Second)
	s.Equal(0, s.controller.ExpireIdleTurns(s.ctx))

	s.clock.Advance(time.Second)
	s.Equal(1, s.controller.ExpireIdleTurns(s.ctx))

	for _, conn := range []model.ConnID{"connA", "connB"} {
		ends := s.sender.events(conn, model.EventBattleEnd)
		s.Require().Len(ends, 1)
		s.Equal(model.BattleEndPayload{Winner: "B"}, ends[0].Payload)
	}
	s.Require().Len(s.sink.results, 1)
	s.Equal(model.EndTimeout, s.sink.results[0].Reason)
	s.Equal(model.Identity("A"), s.sink.results[0].Loser)
}

func (s *ControllerSuite) TestActionResetsTurnClock() {
	s.startBattle()
	s.clock.Advance(50 * time.Second)
	s.random.QueueIntn(0)
	s.Require().NoError(s.controller.HandleAttack(s.ctx, "connA", "A"))

	s.clock.Advance(50 * time.Second)
	s.Equal(0, s.controller.ExpireIdleTurns(s.ctx))
}

func (s *ControllerSuite) TestWatchdogDisabledWithoutTimeout() {
	c := NewController(s.sender, nil, s.clock, s.random, Config{}, testutil.NopLogger())
	s.Require().NoError(c.HandleSetup(s.ctx, "connA", "A"))
	s.Require().NoError(c.HandleSetup(s.ctx, "connB", "B"))
	s.clock.Advance(24 * time.Hour)

	s.Equal(0, c.ExpireIdleTurns(s.ctx))

	done := make(chan struct{})
	go func() {
		c.RunTurnWatchdog(s.ctx, time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("watchdog should return immediately when disabled")
	}
}

func (s *ControllerSuite) TestWatchdogStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.controller.RunTurnWatchdog(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("watchdog did not stop")
	}
}
