package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage over an existing client without
// checking the connection
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Result operations

func (s *Storage) RecordResult(ctx context.Context, result *model.BattleResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	// Use a transaction so the history and both records move together
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, resultsKey(), data)
		if s.cfg.MaxResults > 0 {
			pipe.LTrim(ctx, resultsKey(), 0, int64(s.cfg.MaxResults-1))
		}
		for _, identity := range result.Players {
			key := recordKey(identity)
			pipe.HIncrBy(ctx, key, fieldBattles, 1)
			switch identity {
			case result.Winner:
				pipe.HIncrBy(ctx, key, fieldWins, 1)
			case result.Loser:
				pipe.HIncrBy(ctx, key, fieldLosses, 1)
			}
		}
		return nil
	})
	return err
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.BattleResult, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	items, err := s.client.LRange(ctx, resultsKey(), 0, stop).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.BattleResult, 0, len(items))
	for _, item := range items {
		var result model.BattleResult
		if err := json.Unmarshal([]byte(item), &result); err != nil {
			return nil, fmt.Errorf("decoding result: %w", err)
		}
		results = append(results, &result)
	}
	return results, nil
}

// Player record operations

func (s *Storage) GetRecord(ctx context.Context, identity model.Identity) (*model.PlayerRecord, error) {
	fields, err := s.client.HGetAll(ctx, recordKey(identity)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrPlayerNotFound
	}

	rec := &model.PlayerRecord{Identity: identity}
	for name, dst := range map[string]*int{
		fieldWins:    &rec.Wins,
		fieldLosses:  &rec.Losses,
		fieldBattles: &rec.Battles,
	} {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding %s for %s: %w", name, identity, err)
		}
		*dst = n
	}
	return rec, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
