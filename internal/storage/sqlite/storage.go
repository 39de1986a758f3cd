// Package sqlite stores battle results in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mcoot/battlearena/internal/model"
	"github.com/mcoot/battlearena/internal/storage"
)

//go:embed schema.sql
var schema string

// Verify Storage implements the storage.Storage interface
var _ storage.Storage = (*Storage)(nil)

// Storage is a SQLite-backed results store
type Storage struct {
	db         *sql.DB
	maxResults int
}

// Open opens (or creates) the database at path and applies the schema.
// maxResults bounds the stored history; zero or less keeps everything.
func Open(path string, maxResults int) (*Storage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Storage{db: db, maxResults: maxResults}, nil
}

// Close releases the database handle
func (s *Storage) Close() error {
	return s.db.Close()
}

// RecordResult appends the result and updates both players' records in one transaction
func (s *Storage) RecordResult(ctx context.Context, result *model.BattleResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO battle_results (session_id, payload, ended_at) VALUES (?, ?, ?)`,
		string(result.SessionID), string(payload), result.EndedAt.UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}

	for _, identity := range result.Players {
		var win, loss int
		switch identity {
		case result.Winner:
			win = 1
		case result.Loser:
			loss = 1
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO player_records (identity, wins, losses, battles) VALUES (?, ?, ?, 1)
ON CONFLICT(identity) DO UPDATE SET
	wins = wins + excluded.wins,
	losses = losses + excluded.losses,
	battles = battles + 1
`, string(identity), win, loss); err != nil {
			return fmt.Errorf("update record: %w", err)
		}
	}

	if s.maxResults > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM battle_results
WHERE id NOT IN (SELECT id FROM battle_results ORDER BY id DESC LIMIT ?)
`, s.maxResults); err != nil {
			return fmt.Errorf("trim results: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ListResults returns up to limit results, newest first
func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.BattleResult, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM battle_results ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	results := []*model.BattleResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		var r model.BattleResult
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// GetRecord returns the aggregate record for identity
func (s *Storage) GetRecord(ctx context.Context, identity model.Identity) (*model.PlayerRecord, error) {
	rec := &model.PlayerRecord{Identity: identity}
	err := s.db.QueryRowContext(ctx,
		`SELECT wins, losses, battles FROM player_records WHERE identity = ?`, string(identity),
	).Scan(&rec.Wins, &rec.Losses, &rec.Battles)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrPlayerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return rec, nil
}

// Ping checks the database is reachable
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
