package jobs

import (
	"github.com/vytor/templemind/internal/models"
	"github.com/vytor/templemind/internal/worker"
)

// WorkerQueue implements ResultQueue using a worker pool
type WorkerQueue struct {
	pool     *worker.Pool
	recorder worker.ResultRecorder
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(pool *worker.Pool, recorder worker.ResultRecorder) *WorkerQueue {
	return &WorkerQueue{pool: pool, recorder: recorder}
}

// EnqueueResult submits a save job. It fails with worker.ErrQueueFull rather
// than wait for a slot.
func (q *WorkerQueue) EnqueueResult(tracker worker.SaveTracker, res models.GameResult) error {
	return q.pool.TrySubmit(&worker.RecordResultJob{
		Recorder: q.recorder,
		Session:  tracker,
		Result:   res,
	})
}
