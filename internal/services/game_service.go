package services

import (
	"context"
	stderrors "errors"
	"strconv"

	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/errors"
	"github.com/vytor/templemind/internal/jobs"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/progress"
	"github.com/vytor/templemind/internal/scoring"
	"github.com/vytor/templemind/internal/session"
)

// LevelInfo describes one level as the level select screen shows it.
type LevelInfo struct {
	difficulty.Level
	Category   models.Category          `json:"category"`
	MaxScore   int                      `json:"max_score"`
	DurationMS int64                    `json:"duration_ms"`
	WrongInput scoring.WrongInputPolicy `json:"wrong_input"`
	Unlocked   bool                     `json:"unlocked"`
	BestStars  int                      `json:"best_stars"`
}

// GameService handles mini-game sessions
type GameService interface {
	Levels(ctx context.Context, caller models.Identity) ([]LevelInfo, error)
	Level(ctx context.Context, caller models.Identity, level int) (*LevelInfo, error)
	Start(ctx context.Context, caller models.Identity, level int) (session.Snapshot, error)
	Get(ctx context.Context, caller models.Identity, sessionID string) (session.Snapshot, error)
	Submit(ctx context.Context, caller models.Identity, sessionID string, in session.Input) (session.Snapshot, error)
	Exit(ctx context.Context, caller models.Identity, sessionID string) error
	Restart(ctx context.Context, caller models.Identity, sessionID string) (session.Snapshot, error)
}

type gameService struct {
	sessions *session.Manager
	progress ProgressService
	queue    jobs.ResultQueue
	log      *logger.Logger
}

// NewGameService creates a new GameService and routes completed sessions to
// the result queue.
func NewGameService(sessions *session.Manager, progressService ProgressService, queue jobs.ResultQueue) GameService {
	s := &gameService{
		sessions: sessions,
		progress: progressService,
		queue:    queue,
		log:      logger.Default().WithPrefix("game_service"),
	}
	sessions.SetCompletionHandler(s.onComplete)
	return s
}

func levelInfo(lvl difficulty.Level, totalStars int, bests map[int]models.LevelBest) LevelInfo {
	spec, _ := scoring.SpecFor(lvl.GameType)
	return LevelInfo{
		Level:      lvl,
		Category:   spec.Category,
		MaxScore:   spec.MaxScore(lvl.Profile),
		DurationMS: spec.Duration(lvl.Profile).Milliseconds(),
		WrongInput: spec.WrongInput,
		Unlocked:   progress.IsUnlocked(lvl.Chapter, totalStars),
		BestStars:  bests[lvl.Level].BestStars,
	}
}

func (s *gameService) standing(ctx context.Context, caller models.Identity) (int, map[int]models.LevelBest, error) {
	total, err := s.progress.TotalStars(ctx, caller)
	if err != nil {
		return 0, nil, err
	}
	bests, err := s.progress.LevelBests(ctx, caller)
	if err != nil {
		return 0, nil, err
	}
	return total, bests, nil
}

func (s *gameService) Levels(ctx context.Context, caller models.Identity) ([]LevelInfo, error) {
	total, bests, err := s.standing(ctx, caller)
	if err != nil {
		return nil, err
	}
	all := difficulty.All()
	out := make([]LevelInfo, 0, len(all))
	for _, lvl := range all {
		out = append(out, levelInfo(lvl, total, bests))
	}
	return out, nil
}

func validLevel(level int) error {
	if level < 1 || level > difficulty.MaxLevel {
		return errors.NewValidationError("level", "must be between 1 and "+strconv.Itoa(difficulty.MaxLevel))
	}
	return nil
}

func (s *gameService) Level(ctx context.Context, caller models.Identity, level int) (*LevelInfo, error) {
	if err := validLevel(level); err != nil {
		return nil, err
	}
	total, bests, err := s.standing(ctx, caller)
	if err != nil {
		return nil, err
	}
	info := levelInfo(difficulty.Resolve(level), total, bests)
	return &info, nil
}

func (s *gameService) Start(ctx context.Context, caller models.Identity, level int) (session.Snapshot, error) {
	log := logger.FromContext(ctx)

	if err := validLevel(level); err != nil {
		return session.Snapshot{}, err
	}
	lvl := difficulty.Resolve(level)
	total, err := s.progress.TotalStars(ctx, caller)
	if err != nil {
		return session.Snapshot{}, err
	}
	if !progress.IsUnlocked(lvl.Chapter, total) {
		log.Debug("level %d locked: %d stars", lvl.Level, total)
		return session.Snapshot{}, errors.NewLockedError(lvl.Chapter, lvl.Profile.RequiredStars, total)
	}

	sess, err := s.sessions.Start(caller, lvl.Level)
	if err != nil {
		log.Error("failed to start session: %v", err)
		return session.Snapshot{}, errors.NewInternalError(err)
	}
	return sess.Snapshot(), nil
}

func (s *gameService) Get(ctx context.Context, caller models.Identity, sessionID string) (session.Snapshot, error) {
	sess, err := s.sessions.Get(caller, sessionID)
	if err != nil {
		return session.Snapshot{}, sessionError(sessionID, err)
	}
	return sess.Snapshot(), nil
}

func (s *gameService) Submit(ctx context.Context, caller models.Identity, sessionID string, in session.Input) (session.Snapshot, error) {
	snap, err := s.sessions.Submit(caller, sessionID, in)
	if err != nil {
		logger.FromContext(ctx).Debug("input %q rejected: %v", in.Action, err)
		return session.Snapshot{}, sessionError(sessionID, err)
	}
	return snap, nil
}

func (s *gameService) Exit(ctx context.Context, caller models.Identity, sessionID string) error {
	if err := s.sessions.Exit(caller, sessionID); err != nil {
		return sessionError(sessionID, err)
	}
	logger.FromContext(ctx).Debug("session %s exited", sessionID)
	return nil
}

func (s *gameService) Restart(ctx context.Context, caller models.Identity, sessionID string) (session.Snapshot, error) {
	sess, err := s.sessions.Restart(caller, sessionID)
	if err != nil {
		return session.Snapshot{}, sessionError(sessionID, err)
	}
	logger.FromContext(ctx).Debug("session %s restarted as %s", sessionID, sess.ID())
	return sess.Snapshot(), nil
}

// onComplete hands a finished session to the result queue. Guests are never
// persisted, and a full queue marks the save as failed instead of blocking.
func (s *gameService) onComplete(sess *session.Session, out session.Outcome) {
	log := s.log.WithFields(map[string]any{
		"session_id": out.SessionID,
		"level":      out.Level,
		"stars":      out.Stars,
	})
	if out.Owner.Guest {
		sess.SetSaveStatus(session.SaveSkipped)
		log.Debug("guest session complete, not saved")
		return
	}
	sess.SetSaveStatus(session.SavePending)
	if err := s.queue.EnqueueResult(sess, out.Result()); err != nil {
		sess.SetSaveStatus(session.SaveFailed)
		log.Warn("failed to enqueue result: %v", err)
		return
	}
	log.Debug("result queued")
}

func sessionError(id string, err error) error {
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return errors.NewNotFoundError("session", id)
	case stderrors.Is(err, session.ErrNotOwner):
		return errors.NewForbiddenError("session belongs to another player")
	case stderrors.Is(err, session.ErrSessionClosed):
		return errors.NewGoneError("session has been closed")
	case stderrors.Is(err, session.ErrNotPlaying):
		return errors.NewConflictError(err.Error())
	case stderrors.Is(err, session.ErrInvalidInput):
		return errors.NewBadRequestError(err.Error())
	}
	return errors.NewInternalError(err)
}
