package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/result"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS game_results (
    id TEXT PRIMARY KEY,
    room_code TEXT NOT NULL,
    reason TEXT NOT NULL,
    pursuer_count INTEGER NOT NULL,
    evader_count INTEGER NOT NULL,
    captured_count INTEGER NOT NULL,
    duration_ms BIGINT NOT NULL,
    started_at TIMESTAMPTZ NOT NULL,
    ended_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_game_results_ended_at ON game_results(ended_at DESC);
`

// PostgresStore implements ResultStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// SaveResult inserts a finished game.
func (s *PostgresStore) SaveResult(ctx context.Context, r *result.GameResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO game_results (id, room_code, reason, pursuer_count, evader_count, captured_count, duration_ms, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.RoomCode, string(r.Reason), r.PursuerCount, r.EvaderCount, r.CapturedCount,
		r.DurationMs, r.StartedAt, r.EndedAt)
	return err
}

// RecentResults returns up to limit results, newest first.
func (s *PostgresStore) RecentResults(ctx context.Context, limit int) ([]*result.GameResult, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, room_code, reason, pursuer_count, evader_count, captured_count, duration_ms, started_at, ended_at
		 FROM game_results ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*result.GameResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanResult(row pgx.Row) (*result.GameResult, error) {
	var r result.GameResult
	var reason string
	err := row.Scan(&r.ID, &r.RoomCode, &reason, &r.PursuerCount, &r.EvaderCount,
		&r.CapturedCount, &r.DurationMs, &r.StartedAt, &r.EndedAt)
	if err != nil {
		return nil, err
	}
	r.Reason = game.EndReason(reason)
	return &r, nil
}
