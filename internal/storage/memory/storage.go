package memory

import (
	"context"
	"sync"

	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	results    []*model.BattleResult // oldest first
	records    map[model.Identity]*model.PlayerRecord
	maxResults int
}

// New creates a new in-memory storage instance
func New() *Storage {
	return NewWithLimit(storage.DefaultMaxResults)
}

// NewWithLimit creates an in-memory storage keeping at most maxResults results
func NewWithLimit(maxResults int) *Storage {
	return &Storage{
		records:    make(map[model.Identity]*model.PlayerRecord),
		maxResults: maxResults,
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Result operations

func (s *Storage) RecordResult(ctx context.Context, result *model.BattleResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, result)
	if s.maxResults > 0 && len(s.results) > s.maxResults {
		s.results = s.results[len(s.results)-s.maxResults:]
	}

	for _, identity := range result.Players {
		rec := s.recordFor(identity)
		rec.Battles++
		switch identity {
		case result.Winner:
			rec.Wins++
		case result.Loser:
			rec.Losses++
		}
	}
	return nil
}

// ListResults returns up to limit results, newest first. A limit of zero or
// less returns everything retained.
func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.BattleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.results)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*model.BattleResult, 0, n)
	for i := len(s.results) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.results[i])
	}
	return out, nil
}

// Player record operations

func (s *Storage) GetRecord(ctx context.Context, identity model.Identity) (*model.PlayerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[identity]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) recordFor(identity model.Identity) *model.PlayerRecord {
	rec, ok := s.records[identity]
	if !ok {
		rec = &model.PlayerRecord{Identity: identity}
		s.records[identity] = rec
	}
	return rec
}
