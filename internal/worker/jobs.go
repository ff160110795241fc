package worker

import (
	"context"

	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/session"
)

// ResultRecorder persists a completed result and updates the owner's
// aggregate.
type ResultRecorder interface {
	RecordResult(ctx context.Context, res models.GameResult) (*models.UserProgress, error)
}

// SaveTracker is told how persistence of a result ended.
type SaveTracker interface {
	SetSaveStatus(session.SaveStatus)
}

// RecordResultJob saves one session outcome.
type RecordResultJob struct {
	Recorder ResultRecorder
	Session  SaveTracker
	Result   models.GameResult
}

func (j *RecordResultJob) Name() string { return "record_result" }

func (j *RecordResultJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"profile_id": j.Result.ProfileID,
		"level":      j.Result.Level,
	})

	agg, err := j.Recorder.RecordResult(ctx, j.Result)
	if err != nil {
		j.Session.SetSaveStatus(session.SaveFailed)
		return err
	}
	j.Session.SetSaveStatus(session.SaveSaved)
	log.Debug("result saved, total stars %d", agg.TotalStars)
	return nil
}
