package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SyncDispatcher runs each job inline on the calling goroutine. The CLI and
// tests use it where a background queue would only add latency.
type SyncDispatcher struct {
	Handler Handler
	// Store is optional; when set, finished jobs are recorded in it.
	Store Store
}

// Dispatch implements Dispatcher. The handler error is recorded on the job and
// also returned.
func (d *SyncDispatcher) Dispatch(ctx context.Context, kind Kind, targetID string) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		TargetID:  targetID,
		Status:    StatusRunning,
		CreatedAt: now,
		StartedAt: &now,
	}

	err := d.Handler(ctx, job)
	Finish(job, err)

	if d.Store != nil {
		if saveErr := d.Store.Save(ctx, job); saveErr != nil && err == nil {
			err = saveErr
		}
	}
	return job, err
}

// Finish stamps job with its terminal status.
func Finish(job *Job, err error) {
	done := time.Now()
	job.CompletedAt = &done
	if err != nil {
		job.Status = StatusFailed
		job.Error = err.Error()
		return
	}
	job.Status = StatusCompleted
	job.Error = ""
}

var _ Dispatcher = (*SyncDispatcher)(nil)
