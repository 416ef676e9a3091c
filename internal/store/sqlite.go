package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/result"
)

// Timestamps are stored as unix milliseconds.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS game_results (
    id TEXT PRIMARY KEY,
    room_code TEXT NOT NULL,
    reason TEXT NOT NULL,
    pursuer_count INTEGER NOT NULL,
    evader_count INTEGER NOT NULL,
    captured_count INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    started_at INTEGER NOT NULL,
    ended_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_ended_at ON game_results(ended_at DESC);
`

// SQLiteStore implements ResultStore on a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path and initializes the schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// SaveResult inserts a finished game.
func (s *SQLiteStore) SaveResult(ctx context.Context, r *result.GameResult) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO game_results (id, room_code, reason, pursuer_count, evader_count, captured_count, duration_ms, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RoomCode, string(r.Reason), r.PursuerCount, r.EvaderCount, r.CapturedCount,
		r.DurationMs, r.StartedAt.UnixMilli(), r.EndedAt.UnixMilli())
	return err
}

// RecentResults returns up to limit results, newest first.
func (s *SQLiteStore) RecentResults(ctx context.Context, limit int) ([]*result.GameResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, room_code, reason, pursuer_count, evader_count, captured_count, duration_ms, started_at, ended_at
		 FROM game_results ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*result.GameResult
	for rows.Next() {
		var r result.GameResult
		var reason string
		var startedAt, endedAt int64
		if err := rows.Scan(&r.ID, &r.RoomCode, &reason, &r.PursuerCount, &r.EvaderCount,
			&r.CapturedCount, &r.DurationMs, &startedAt, &endedAt); err != nil {
			return nil, err
		}
		r.Reason = game.EndReason(reason)
		r.StartedAt = time.UnixMilli(startedAt).UTC()
		r.EndedAt = time.UnixMilli(endedAt).UTC()
		out = append(out, &r)
	}
	return out, rows.Err()
}

// Close releases database resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
