package repository

import (
	"context"
	"errors"

	"github.com/vytor/templemind/internal/models"
)

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound is returned by writes that target a missing row. Reads return
// nil, nil instead.
var ErrNotFound = errors.New("record not found")

// ProfileRepository handles profile data access
type ProfileRepository interface {
	// Create inserts a profile together with its zeroed progress aggregate.
	Create(ctx context.Context, username string, religion models.Religion) (*models.Profile, error)
	Get(ctx context.Context, id int64) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	UpdateReligion(ctx context.Context, id int64, religion models.Religion) error
	Delete(ctx context.Context, id int64) error
}

// ResultRepository handles the append-only game result history
type ResultRepository interface {
	Create(ctx context.Context, res models.GameResult) (int64, error)
	List(ctx context.Context, filter models.ResultFilter) ([]models.GameResult, error)
	Count(ctx context.Context, filter models.ResultFilter) (int, error)
	LevelBests(ctx context.Context, profileID int64) ([]models.LevelBest, error)
}

// ApplyFunc folds a result into an aggregate given the level's previous best
// star count.
type ApplyFunc func(agg models.UserProgress, res models.GameResult, prevBest int) models.UserProgress

// ProgressRepository handles the progress aggregate
type ProgressRepository interface {
	Get(ctx context.Context, profileID int64) (*models.UserProgress, error)
	// RecordResult appends the result, updates the level best and applies the
	// aggregate update in one transaction.
	RecordResult(ctx context.Context, res models.GameResult, apply ApplyFunc) (*models.GameResult, *models.UserProgress, error)
}

// ChatRepository handles companion chat history
type ChatRepository interface {
	// Append stores msgs in one transaction: all of them or none.
	Append(ctx context.Context, msgs ...models.ChatMessage) error
	// Recent returns up to limit latest messages, oldest first.
	Recent(ctx context.Context, profileID int64, limit int) ([]models.ChatMessage, error)
	Clear(ctx context.Context, profileID int64) error
}
