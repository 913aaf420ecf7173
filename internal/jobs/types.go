// Package jobs defines recalculation units of work and the interfaces used to
// dispatch and track them.
package jobs

import (
	"context"
	"errors"
	"time"
)

// Kind is what a job recalculates.
type Kind string

const (
	// KindClaim recalculates a single claim.
	KindClaim Kind = "claim"
	// KindAccount recalculates every claim on an account.
	KindAccount Kind = "account"
)

// Status is the current state of a job.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var (
	// ErrQueueClosed is returned when dispatching to a stopped queue.
	ErrQueueClosed = errors.New("jobs: queue is closed")
	// ErrJobNotFound is returned by a Store for unknown job IDs.
	ErrJobNotFound = errors.New("jobs: job not found")
)

// Job is one recalculation request.
type Job struct {
	ID       string `json:"id"`
	Kind     Kind   `json:"kind"`
	TargetID string `json:"target_id"`
	Status   Status `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error holds the handler failure for failed jobs.
	Error string `json:"error,omitempty"`
}

// Key identifies the unit of work independent of the job ID.
func (j *Job) Key() string {
	return string(j.Kind) + ":" + j.TargetID
}

// Handler performs a job. A returned error marks the job failed.
type Handler func(ctx context.Context, job *Job) error

// Dispatcher accepts recalculation requests.
type Dispatcher interface {
	// Dispatch schedules kind for targetID and returns the tracked job.
	Dispatch(ctx context.Context, kind Kind, targetID string) (*Job, error)
}

// Store keeps job state for status queries.
type Store interface {
	Save(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	List(ctx context.Context, filter Filter) ([]*Job, error)
}

// Filter narrows Store.List results. Zero fields match everything.
type Filter struct {
	Kind     Kind
	TargetID string
	Status   Status
	Limit    int
}
