package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/vytor/templemind/internal/db"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/repository"
)

type progressRepository struct {
	db *db.DB
}

// NewProgressRepository creates a new ProgressRepository implementation
func NewProgressRepository(d *db.DB) repository.ProgressRepository {
	return &progressRepository{db: d}
}

const progressColumns = `profile_id, total_stars, memory_stars, reaction_stars, logic_stars,
    memory_pct, reaction_pct, logic_pct, focus_pct,
    consecutive_days, total_games, average_score, last_played_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgress(row rowScanner) (*models.UserProgress, error) {
	p := models.NewUserProgress(0)
	var memS, reaS, logS, memP, reaP, logP, focP int
	var last sql.NullTime
	err := row.Scan(&p.ProfileID, &p.TotalStars, &memS, &reaS, &logS,
		&memP, &reaP, &logP, &focP,
		&p.ConsecutiveDays, &p.TotalGames, &p.AverageScore, &last, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.CategoryStars[models.CategoryMemory] = memS
	p.CategoryStars[models.CategoryReaction] = reaS
	p.CategoryStars[models.CategoryLogic] = logS
	p.CategoryPercent[models.CategoryMemory] = memP
	p.CategoryPercent[models.CategoryReaction] = reaP
	p.CategoryPercent[models.CategoryLogic] = logP
	p.CategoryPercent[models.CategoryFocus] = focP
	if last.Valid {
		t := last.Time
		p.LastPlayedAt = &t
	}
	return &p, nil
}

func (r *progressRepository) Get(ctx context.Context, profileID int64) (*models.UserProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	log.Debug("getting progress: profile_id=%d", profileID)

	p, err := scanProgress(r.db.QueryRowContext(ctx,
		r.db.Rebind(`SELECT `+progressColumns+` FROM user_progress WHERE profile_id = ?`), profileID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get progress: %v", err)
		return nil, err
	}
	return p, nil
}

func (r *progressRepository) RecordResult(ctx context.Context, res models.GameResult, apply repository.ApplyFunc) (*models.GameResult, *models.UserProgress, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo").WithFields(map[string]any{
		"profile_id": res.ProfileID,
		"level":      res.Level,
	})
	lock := r.db.Dialect.LockSuffix()

	var updated *models.UserProgress
	err := r.db.Tx(ctx, func(tx *sql.Tx) error {
		agg, err := scanProgress(tx.QueryRowContext(ctx,
			r.db.Rebind(`SELECT `+progressColumns+` FROM user_progress WHERE profile_id = ?`+lock), res.ProfileID))
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return err
		}

		var prevStars, prevScore int
		err = tx.QueryRowContext(ctx,
			r.db.Rebind(`SELECT best_stars, best_score FROM level_best WHERE profile_id = ? AND level = ?`+lock),
			res.ProfileID, res.Level).Scan(&prevStars, &prevScore)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		id, err := insertResult(ctx, r.db, tx, res)
		if err != nil {
			return err
		}
		res.ID = id

		sqlStr, args, err := r.db.Builder().
			Insert("level_best").
			Columns("profile_id", "level", "game_type", "best_stars", "best_score").
			Values(res.ProfileID, res.Level, res.GameType, max(prevStars, res.Stars), max(prevScore, res.Score)).
			Suffix("ON CONFLICT (profile_id, level) DO UPDATE SET game_type = excluded.game_type, best_stars = excluded.best_stars, best_score = excluded.best_score").
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}

		next := apply(*agg, res, prevStars)
		sqlStr, args, err = r.db.Builder().Update("user_progress").SetMap(squirrel.Eq{
			"total_stars":      next.TotalStars,
			"memory_stars":     next.CategoryStars[models.CategoryMemory],
			"reaction_stars":   next.CategoryStars[models.CategoryReaction],
			"logic_stars":      next.CategoryStars[models.CategoryLogic],
			"memory_pct":       next.CategoryPercent[models.CategoryMemory],
			"reaction_pct":     next.CategoryPercent[models.CategoryReaction],
			"logic_pct":        next.CategoryPercent[models.CategoryLogic],
			"focus_pct":        next.CategoryPercent[models.CategoryFocus],
			"consecutive_days": next.ConsecutiveDays,
			"total_games":      next.TotalGames,
			"average_score":    next.AverageScore,
			"last_played_at":   next.LastPlayedAt,
			"updated_at":       next.UpdatedAt,
		}).Where(squirrel.Eq{"profile_id": res.ProfileID}).ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if isForeignKeyViolation(err) {
		err = repository.ErrNotFound
	}
	if err != nil {
		log.Error("failed to record result: %v", err)
		return nil, nil, err
	}
	log.Debug("result %d recorded, total stars now %d", res.ID, updated.TotalStars)
	return &res, updated, nil
}
