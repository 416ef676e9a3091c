package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/geohunt-server/internal/game"
	"github.com/ugaemi/geohunt-server/internal/result"
)

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL integration test")
	}
	return url
}

func setupTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := getTestDatabaseURL(t)
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)

	// Clean up results table for test isolation
	_, err = s.pool.Exec(ctx, "DELETE FROM game_results")
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func newTestResult(code string, endedAt time.Time) *result.GameResult {
	return &result.GameResult{
		ID:            code + "-" + endedAt.Format("150405"),
		RoomCode:      code,
		Reason:        game.EndAllCaptured,
		PursuerCount:  1,
		EvaderCount:   2,
		CapturedCount: 2,
		DurationMs:    60000,
		StartedAt:     endedAt.Add(-time.Minute),
		EndedAt:       endedAt,
	}
}

func TestPostgresStore_SaveAndList(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveResult(ctx, newTestResult("AAAAAA", base)))
	require.NoError(t, s.SaveResult(ctx, newTestResult("BBBBBB", base.Add(time.Hour))))

	results, err := s.RecentResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "BBBBBB", results[0].RoomCode)
	assert.Equal(t, game.EndAllCaptured, results[0].Reason)
	assert.True(t, results[1].EndedAt.Equal(base))
}

func TestPostgresStore_Limit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SaveResult(ctx, newTestResult("CCCCCC", base.Add(time.Duration(i)*time.Second))))
	}

	results, err := s.RecentResults(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestPostgresStore_DuplicateID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	r := newTestResult("DDDDDD", time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, s.SaveResult(ctx, r))
	assert.Error(t, s.SaveResult(ctx, r))
}
