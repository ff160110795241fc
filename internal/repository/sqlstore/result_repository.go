package sqlstore

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/vytor/templemind/internal/db"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/repository"
)

const maxResultPage = 200

type resultRepository struct {
	db *db.DB
}

// NewResultRepository creates a new ResultRepository implementation
func NewResultRepository(d *db.DB) repository.ResultRepository {
	return &resultRepository{db: d}
}

func insertResult(ctx context.Context, d *db.DB, tx *sql.Tx, res models.GameResult) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, d.Rebind(`
INSERT INTO game_results (profile_id, game_type, level, score, max_score, stars, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id
`), res.ProfileID, res.GameType, res.Level, res.Score, res.MaxScore, res.Stars, res.CompletedAt).Scan(&id)
	return id, err
}

// Create appends a result without touching the aggregate. Completed sessions
// go through ProgressRepository.RecordResult instead.
func (r *resultRepository) Create(ctx context.Context, res models.GameResult) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")

	var id int64
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = insertResult(ctx, r.db, tx, res)
		return err
	})
	if isForeignKeyViolation(err) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		log.Error("failed to insert result: %v", err)
		return 0, err
	}
	log.Debug("result inserted: id=%d", id)
	return id, nil
}

func applyResultFilter(q squirrel.SelectBuilder, f models.ResultFilter) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"profile_id": f.ProfileID})
	if f.GameType != "" {
		q = q.Where(squirrel.Eq{"game_type": f.GameType})
	}
	if f.Level > 0 {
		q = q.Where(squirrel.Eq{"level": f.Level})
	}
	if f.MinStars > 0 {
		q = q.Where(squirrel.GtOrEq{"stars": f.MinStars})
	}
	return q
}

func (r *resultRepository) List(ctx context.Context, filter models.ResultFilter) ([]models.GameResult, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")

	limit := filter.Limit
	if limit <= 0 || limit > maxResultPage {
		limit = maxResultPage
	}
	query := applyResultFilter(r.db.Builder().Select(
		"id", "profile_id", "game_type", "level", "score", "max_score", "stars", "completed_at",
	).From("game_results"), filter).
		OrderBy("completed_at DESC", "id DESC").
		Limit(uint64(limit))
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	log.Debug("listing results: %s", sqlStr)

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list results: %v", err)
		return nil, err
	}
	defer rows.Close()

	results := []models.GameResult{}
	for rows.Next() {
		var g models.GameResult
		if err := rows.Scan(&g.ID, &g.ProfileID, &g.GameType, &g.Level, &g.Score, &g.MaxScore, &g.Stars, &g.CompletedAt); err != nil {
			log.Error("failed to scan result row: %v", err)
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

func (r *resultRepository) Count(ctx context.Context, filter models.ResultFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")

	sqlStr, args, err := applyResultFilter(r.db.Builder().Select("COUNT(*)").From("game_results"), filter).ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&n); err != nil {
		log.Error("failed to count results: %v", err)
		return 0, err
	}
	return n, nil
}

func (r *resultRepository) LevelBests(ctx context.Context, profileID int64) ([]models.LevelBest, error) {
	log := logger.FromContext(ctx).WithPrefix("result_repo")

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
SELECT level, game_type, best_stars, best_score
FROM level_best
WHERE profile_id = ?
ORDER BY level ASC
`), profileID)
	if err != nil {
		log.Error("failed to list level bests: %v", err)
		return nil, err
	}
	defer rows.Close()

	bests := []models.LevelBest{}
	for rows.Next() {
		var b models.LevelBest
		if err := rows.Scan(&b.Level, &b.GameType, &b.BestStars, &b.BestScore); err != nil {
			return nil, err
		}
		bests = append(bests, b)
	}
	return bests, rows.Err()
}
