package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ugaemi/geohunt-server/internal/result"
)

// ErrDisabled is returned by NopStore reads.
var ErrDisabled = errors.New("result archive is disabled")

// ResultStore defines the interface for the finished-game archive.
type ResultStore interface {
	// SaveResult inserts a finished game.
	SaveResult(ctx context.Context, r *result.GameResult) error
	// RecentResults returns up to limit results, newest first.
	RecentResults(ctx context.Context, limit int) ([]*result.GameResult, error)
	// Close releases database resources.
	Close() error
}

// Open selects a store from a database URL. An empty URL yields a NopStore.
func Open(ctx context.Context, databaseURL string) (ResultStore, error) {
	switch {
	case databaseURL == "":
		return NopStore{}, nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return NewPostgresStore(ctx, databaseURL)
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "file:"):
		return NewSQLiteStore(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", databaseURL)
	}
}

// NopStore discards results.
type NopStore struct{}

func (NopStore) SaveResult(context.Context, *result.GameResult) error { return nil }

func (NopStore) RecentResults(context.Context, int) ([]*result.GameResult, error) {
	return nil, ErrDisabled
}

func (NopStore) Close() error { return nil }
