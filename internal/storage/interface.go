package storage

import (
	"context"

	"github.com/mcoot/battlearena/internal/model"
)

// DefaultMaxResults bounds the recent results history kept by a store
const DefaultMaxResults = 1000

// Storage defines the interface for battle history persistence.
// Live sessions are never stored; only the outcomes of finished ones.
type Storage interface {
	// Result operations
	RecordResult(ctx context.Context, result *model.BattleResult) error
	ListResults(ctx context.Context, limit int) ([]*model.BattleResult, error)

	// Player record operations
	GetRecord(ctx context.Context, identity model.Identity) (*model.PlayerRecord, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
}
