package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mattjoyce/scribe-gw/internal/log"
)

// OrphanedJobError is recorded on jobs found in processing at startup.
const OrphanedJobError = "interrupted: service restarted while job was processing"

// Queue is the subset of the store the runner polls.
type Queue interface {
	Get(ctx context.Context, jobID string) (*Job, error)
	NextPending(ctx context.Context, limit int) ([]string, error)
	FindByStatus(ctx context.Context, status Status) ([]*Job, error)
	MarkFailed(ctx context.Context, jobID, errMsg string) error
}

// Runner feeds pending jobs to a fixed pool of workers, each calling
// Engine.Run. It is the only component that starts jobs in the background.
type Runner struct {
	queue        Queue
	engine       *Engine
	workers      int
	pollInterval time.Duration
	logger       *slog.Logger

	wake     chan struct{}
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewRunner(q Queue, engine *Engine, workers int, pollInterval time.Duration) *Runner {
	if workers <= 0 {
		workers = 2
	}
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Runner{
		queue:        q,
		engine:       engine,
		workers:      workers,
		pollInterval: pollInterval,
		logger:       log.WithComponent("runner"),
		wake:         make(chan struct{}, 1),
		inFlight:     make(map[string]struct{}),
	}
}

// Wake nudges the runner to poll immediately. Never blocks.
func (r *Runner) Wake() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// RecoverOrphaned fails every job left in processing by a previous process.
// It must run before Start so no live worker owns those jobs.
func (r *Runner) RecoverOrphaned(ctx context.Context) (int, error) {
	jobs, err := r.queue.FindByStatus(ctx, StatusProcessing)
	if err != nil {
		return 0, err
	}
	recovered := 0
	for _, j := range jobs {
		if err := r.queue.MarkFailed(ctx, j.ID, OrphanedJobError); err != nil {
			r.logger.Warn("failed to recover orphaned job", "job_id", j.ID, "error", err)
			continue
		}
		recovered++
	}
	if recovered > 0 {
		r.logger.Info("recovered orphaned jobs", "count", recovered)
	}
	return recovered, nil
}

// Start blocks until ctx is cancelled, then waits for running jobs to finish.
func (r *Runner) Start(ctx context.Context) error {
	r.logger.Info("runner started", "workers", r.workers, "poll_interval", r.pollInterval)
	defer r.logger.Info("runner stopped")

	work := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range work {
				r.execute(ctx, id)
			}
		}()
	}
	defer func() {
		close(work)
		wg.Wait()
	}()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		r.dispatch(ctx, work)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-r.wake:
		}
	}
}

// dispatch hands up to one batch of pending jobs to idle workers.
func (r *Runner) dispatch(ctx context.Context, work chan<- string) {
	ids, err := r.queue.NextPending(ctx, r.workers)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Error("failed to list pending jobs", "error", err)
		}
		return
	}
	for _, id := range ids {
		if !r.claim(id) {
			continue
		}
		select {
		case work <- id:
		case <-ctx.Done():
			r.release(id)
			return
		}
	}
}

func (r *Runner) execute(ctx context.Context, id string) {
	defer r.release(id)

	j, err := r.queue.Get(ctx, id)
	if err != nil {
		r.logger.Warn("failed to load job", "job_id", id, "error", err)
		return
	}
	if err := r.engine.Run(ctx, id, j.Inputs); err != nil {
		// Another runner or a direct caller may have started it first.
		r.logger.Debug("job not run", "job_id", id, "error", err)
	}
}

func (r *Runner) claim(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.inFlight[id]; ok {
		return false
	}
	r.inFlight[id] = struct{}{}
	return true
}

func (r *Runner) release(id string) {
	r.mu.Lock()
	delete(r.inFlight, id)
	r.mu.Unlock()
}
