package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/vytor/templemind/internal/errors"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/progress"
	"github.com/vytor/templemind/internal/repository"
)

const defaultResultPage = 20

// Overview is the progress screen: the aggregate and what it unlocks.
type Overview struct {
	Progress    models.UserProgress   `json:"progress"`
	Chapters    []models.ChapterState `json:"chapters"`
	StarsToNext int                   `json:"stars_to_next"`
	MaxStars    int                   `json:"max_stars"`
	LevelBests  []models.LevelBest    `json:"level_bests"`
}

// ResultPage is one page of result history.
type ResultPage struct {
	Results []models.GameResult `json:"results"`
	Total   int                 `json:"total"`
	Limit   int                 `json:"limit"`
	Offset  int                 `json:"offset"`
}

// ProgressService handles results and the progress aggregate
type ProgressService interface {
	// RecordResult persists a result and folds it into the aggregate.
	RecordResult(ctx context.Context, res models.GameResult) (*models.UserProgress, error)
	Overview(ctx context.Context, caller models.Identity) (*Overview, error)
	TotalStars(ctx context.Context, caller models.Identity) (int, error)
	LevelBests(ctx context.Context, caller models.Identity) (map[int]models.LevelBest, error)
	ListResults(ctx context.Context, caller models.Identity, filter models.ResultFilter) (*ResultPage, error)
}

type progressService struct {
	progressRepo repository.ProgressRepository
	resultRepo   repository.ResultRepository
	now          func() time.Time
}

// NewProgressService creates a new ProgressService
func NewProgressService(progressRepo repository.ProgressRepository, resultRepo repository.ResultRepository, now func() time.Time) ProgressService {
	if now == nil {
		now = time.Now
	}
	return &progressService{progressRepo: progressRepo, resultRepo: resultRepo, now: now}
}

func (s *progressService) RecordResult(ctx context.Context, res models.GameResult) (*models.UserProgress, error) {
	log := logger.FromContext(ctx)
	log.Debug("recording result: profile_id=%d level=%d stars=%d", res.ProfileID, res.Level, res.Stars)

	if res.ProfileID <= 0 {
		return nil, errors.NewValidationError("profile_id", "results are only stored for registered profiles")
	}
	if res.CompletedAt.IsZero() {
		res.CompletedAt = s.now()
	}

	_, agg, err := s.progressRepo.RecordResult(ctx, res, func(agg models.UserProgress, r models.GameResult, prevBest int) models.UserProgress {
		return progress.Apply(agg, r, prevBest, s.now())
	})
	if stderrors.Is(err, repository.ErrNotFound) {
		log.Warn("result for missing profile %d dropped", res.ProfileID)
		return nil, errors.NewNotFoundError("profile", res.ProfileID)
	}
	if err != nil {
		log.Error("failed to record result: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return agg, nil
}

func (s *progressService) aggregate(ctx context.Context, caller models.Identity) (models.UserProgress, error) {
	if caller.Guest {
		return models.NewUserProgress(0), nil
	}
	agg, err := s.progressRepo.Get(ctx, caller.ProfileID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load progress: %v", err)
		return models.UserProgress{}, errors.NewInternalError(err)
	}
	if agg == nil {
		return models.UserProgress{}, errors.NewNotFoundError("progress", caller.ProfileID)
	}
	return *agg, nil
}

func (s *progressService) Overview(ctx context.Context, caller models.Identity) (*Overview, error) {
	agg, err := s.aggregate(ctx, caller)
	if err != nil {
		return nil, err
	}
	bests := []models.LevelBest{}
	if !caller.Guest {
		bests, err = s.resultRepo.LevelBests(ctx, caller.ProfileID)
		if err != nil {
			logger.FromContext(ctx).Error("failed to load level bests: %v", err)
			return nil, errors.NewInternalError(err)
		}
	}
	return &Overview{
		Progress:    agg,
		Chapters:    progress.Chapters(agg.TotalStars),
		StarsToNext: progress.StarsToNext(agg.TotalStars),
		MaxStars:    progress.MaxStars(),
		LevelBests:  bests,
	}, nil
}

func (s *progressService) TotalStars(ctx context.Context, caller models.Identity) (int, error) {
	agg, err := s.aggregate(ctx, caller)
	if err != nil {
		return 0, err
	}
	return agg.TotalStars, nil
}

func (s *progressService) LevelBests(ctx context.Context, caller models.Identity) (map[int]models.LevelBest, error) {
	out := map[int]models.LevelBest{}
	if caller.Guest {
		return out, nil
	}
	bests, err := s.resultRepo.LevelBests(ctx, caller.ProfileID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load level bests: %v", err)
		return nil, errors.NewInternalError(err)
	}
	for _, b := range bests {
		out[b.Level] = b
	}
	return out, nil
}

func (s *progressService) ListResults(ctx context.Context, caller models.Identity, filter models.ResultFilter) (*ResultPage, error) {
	log := logger.FromContext(ctx)

	if filter.Limit <= 0 {
		filter.Limit = defaultResultPage
	}
	if filter.Limit > 100 {
		return nil, errors.NewValidationError("limit", "must be at most 100")
	}
	if filter.Offset < 0 {
		return nil, errors.NewValidationError("offset", "cannot be negative")
	}
	if filter.GameType != "" && !filter.GameType.Valid() {
		return nil, errors.NewValidationError("game_type", "unknown game type")
	}
	page := &ResultPage{Results: []models.GameResult{}, Limit: filter.Limit, Offset: filter.Offset}
	if caller.Guest {
		return page, nil
	}
	filter.ProfileID = caller.ProfileID

	results, err := s.resultRepo.List(ctx, filter)
	if err != nil {
		log.Error("failed to list results: %v", err)
		return nil, errors.NewInternalError(err)
	}
	total, err := s.resultRepo.Count(ctx, filter)
	if err != nil {
		log.Error("failed to count results: %v", err)
		return nil, errors.NewInternalError(err)
	}
	page.Results = results
	page.Total = total
	return page, nil
}
