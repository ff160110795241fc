package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vytor/templemind/internal/db"
	"github.com/vytor/templemind/internal/models"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The pool holds a single connection, so the database lives as long as the
// returned handle.
func NewTestDB(t *testing.T) *db.DB {
	d, err := db.OpenSQLite(context.Background(), "file::memory:")
	require.NoError(t, err)
	return d
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// Result builds a completed game result for the given level.
func Result(profileID int64, gameType models.GameType, level, score, stars int) models.GameResult {
	return models.GameResult{
		ProfileID:   profileID,
		GameType:    gameType,
		Level:       level,
		Score:       score,
		MaxScore:    100,
		Stars:       stars,
		CompletedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}
