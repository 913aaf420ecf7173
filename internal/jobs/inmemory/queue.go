// Package inmemory provides a channel-backed recalculation queue and job store
// for single-instance deployments and tests.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"exitprotocol/internal/jobs"
	"exitprotocol/internal/logger"
)

// Queue distributes jobs to a fixed pool of workers over a buffered channel.
// A job that is still pending for the same kind and target absorbs new
// dispatches; running jobs do not, so a change made during a run is always
// picked up by a later one.
type Queue struct {
	jobChan   chan *jobs.Job
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	store     jobs.Store
	workers   int
	closed    bool

	pendingMu sync.Mutex
	pending   map[string]*jobs.Job
}

// NewQueue creates a queue that buffers up to bufferSize jobs and runs them on
// workers goroutines once started.
func NewQueue(bufferSize, workers int, store jobs.Store) *Queue {
	if workers < 1 {
		workers = 1
	}
	return &Queue{
		jobChan:   make(chan *jobs.Job, bufferSize),
		closeChan: make(chan struct{}),
		store:     store,
		workers:   workers,
		pending:   make(map[string]*jobs.Job),
	}
}

// Dispatch implements jobs.Dispatcher. It blocks while the buffer is full,
// until ctx is done or the queue stops.
func (q *Queue) Dispatch(ctx context.Context, kind jobs.Kind, targetID string) (*jobs.Job, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, jobs.ErrQueueClosed
	}

	job := &jobs.Job{
		ID:        uuid.NewString(),
		Kind:      kind,
		TargetID:  targetID,
		Status:    jobs.StatusPending,
		CreatedAt: time.Now(),
	}

	q.pendingMu.Lock()
	if existing, ok := q.pending[job.Key()]; ok {
		jobCopy := *existing
		q.pendingMu.Unlock()
		return &jobCopy, nil
	}
	q.pending[job.Key()] = job
	q.pendingMu.Unlock()

	if err := q.save(ctx, job); err != nil {
		q.clearPending(job)
		return nil, err
	}

	jobCopy := *job
	select {
	case q.jobChan <- job:
		return &jobCopy, nil
	case <-ctx.Done():
		q.clearPending(job)
		return nil, ctx.Err()
	case <-q.closeChan:
		q.clearPending(job)
		return nil, jobs.ErrQueueClosed
	}
}

// Start launches the workers. Each job is passed to handler.
func (q *Queue) Start(ctx context.Context, handler jobs.Handler) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return jobs.ErrQueueClosed
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	logger.Get().Infow("Recalculation workers started", "workers", q.workers)
	return nil
}

func (q *Queue) worker(ctx context.Context, handler jobs.Handler) {
	defer q.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			q.process(ctx, job, handler)
		}
	}
}

func (q *Queue) process(ctx context.Context, job *jobs.Job, handler jobs.Handler) {
	q.clearPending(job)

	job.Status = jobs.StatusRunning
	now := time.Now()
	job.StartedAt = &now
	_ = q.save(ctx, job)

	log := logger.ForJob(job.ID, string(job.Kind), job.TargetID)
	err := handler(ctx, job)
	jobs.Finish(job, err)
	if err != nil {
		log.Warnw("Recalculation job failed", "error", err)
	} else {
		log.Debugw("Recalculation job completed", "duration", job.CompletedAt.Sub(*job.StartedAt))
	}
	_ = q.save(ctx, job)
}

func (q *Queue) clearPending(job *jobs.Job) {
	q.pendingMu.Lock()
	if q.pending[job.Key()] == job {
		delete(q.pending, job.Key())
	}
	q.pendingMu.Unlock()
}

func (q *Queue) save(ctx context.Context, job *jobs.Job) error {
	if q.store == nil {
		return nil
	}
	return q.store.Save(ctx, job)
}

// Stop refuses new jobs and waits for in-flight jobs to finish. Jobs still
// buffered are dropped.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.closeChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ jobs.Dispatcher = (*Queue)(nil)
