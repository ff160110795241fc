package jobs

import (
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/worker"
)

// ResultQueue provides an abstraction for persisting session results in the
// background. Enqueueing never blocks the caller.
type ResultQueue interface {
	EnqueueResult(tracker worker.SaveTracker, res models.GameResult) error
}
