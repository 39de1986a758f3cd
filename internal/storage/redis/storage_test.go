package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/battlearena/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.MaxResults = 3

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func result(id string, winner, loser model.Identity, reason model.EndReason) *model.BattleResult {
	return &model.BattleResult{
		SessionID: model.SessionID(id),
		Players:   [2]model.Identity{"A", "B"},
		Winner:    winner,
		Loser:     loser,
		Reason:    reason,
		Turns:     4,
		Log: []model.ActionRecord{
			{Turn: 1, Actor: "A", Kind: model.ActionAttack, Amount: 12},
		},
		EndedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Result tests

func (s *StorageSuite) TestRecordAndListResult() {
	err := s.storage.RecordResult(s.ctx, result("A_B", "A", "B", model.EndKnockout))
	s.Require().NoError(err)

	results, err := s.storage.ListResults(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(result("A_B", "A", "B", model.EndKnockout), results[0])
}

func (s *StorageSuite) TestListResultsNewestFirstAndLimited() {
	_ = s.storage.RecordResult(s.ctx, result("first", "A", "B", model.EndKnockout))
	_ = s.storage.RecordResult(s.ctx, result("second", "B", "A", model.EndKnockout))

	results, err := s.storage.ListResults(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(model.SessionID("second"), results[0].SessionID)
}

func (s *StorageSuite) TestResultsListIsTrimmed() {
	for _, id := range []string{"1", "2", "3", "4"} {
		s.Require().NoError(s.storage.RecordResult(s.ctx, result(id, "A", "B", model.EndKnockout)))
	}

	results, err := s.storage.ListResults(s.ctx, 0)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal(model.SessionID("4"), results[0].SessionID)
	s.Equal(model.SessionID("2"), results[2].SessionID)
}

func (s *StorageSuite) TestListResultsEmpty() {
	results, err := s.storage.ListResults(s.ctx, 5)
	s.Require().NoError(err)
	s.Empty(results)
}

func (s *StorageSuite) TestListResultsRejectsCorruptEntry() {
	_, err := s.mini.Lpush(resultsKey(), "not json")
	s.Require().NoError(err)

	_, err = s.storage.ListResults(s.ctx, 0)
	s.Error(err)
}

// Record tests

func (s *StorageSuite) TestRecordsAccumulate() {
	_ = s.storage.RecordResult(s.ctx, result("A_B", "A", "B", model.EndKnockout))
	_ = s.storage.RecordResult(s.ctx, result("B_A", "B", "A", model.EndDisconnect))
	_ = s.storage.RecordResult(s.ctx, result("A_B", "A", "B", model.EndTimeout))

	a, err := s.storage.GetRecord(s.ctx, "A")
	s.Require().NoError(err)
	s.Equal(model.PlayerRecord{Identity: "A", Wins: 2, Losses: 1, Battles: 3}, *a)

	b, err := s.storage.GetRecord(s.ctx, "B")
	s.Require().NoError(err)
	s.Equal(model.PlayerRecord{Identity: "B", Wins: 1, Losses: 2, Battles: 3}, *b)
}

func (s *StorageSuite) TestRecordStoredAsHash() {
	_ = s.storage.RecordResult(s.ctx, result("A_B", "A", "B", model.EndKnockout))

	s.Equal("1", s.mini.HGet("arena:record:A", "wins"))
	s.Equal("1", s.mini.HGet("arena:record:B", "losses"))
	s.Equal("1", s.mini.HGet("arena:record:B", "battles"))
}

func (s *StorageSuite) TestGetRecordNotFound() {
	_, err := s.storage.GetRecord(s.ctx, "nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestPing() {
	s.NoError(s.storage.Ping(s.ctx))

	s.mini.Close()
	s.Error(s.storage.Ping(s.ctx))
	s.mini = nil
}
