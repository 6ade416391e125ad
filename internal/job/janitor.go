package job

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mattjoyce/scribe-gw/internal/log"
)

const DefaultPruneSchedule = "@every 1h"

// Pruner deletes terminal jobs that finished before cutoff.
type Pruner interface {
	PruneTerminal(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor periodically prunes old terminal jobs. The job_log audit table is
// never touched.
type Janitor struct {
	pruner    Pruner
	retention time.Duration
	schedule  string
	now       func() time.Time
	logger    *slog.Logger
}

func NewJanitor(p Pruner, retention time.Duration, schedule string) *Janitor {
	if schedule == "" {
		schedule = DefaultPruneSchedule
	}
	return &Janitor{
		pruner:    p,
		retention: retention,
		schedule:  schedule,
		now:       time.Now,
		logger:    log.WithComponent("janitor"),
	}
}

// PruneOnce removes terminal jobs older than the retention window.
// A zero retention disables pruning.
func (j *Janitor) PruneOnce(ctx context.Context) (int64, error) {
	if j.retention <= 0 {
		return 0, nil
	}
	cutoff := j.now().Add(-j.retention)
	n, err := j.pruner.PruneTerminal(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		j.logger.Info("pruned terminal jobs", "count", n, "cutoff", cutoff.UTC().Format(time.RFC3339))
	}
	return n, nil
}

// Start schedules PruneOnce and blocks until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	if j.retention <= 0 {
		j.logger.Info("pruning disabled")
		<-ctx.Done()
		return ctx.Err()
	}

	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(j.schedule, func() {
		if _, err := j.PruneOnce(ctx); err != nil && ctx.Err() == nil {
			j.logger.Error("prune failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", j.schedule, err)
	}

	j.logger.Info("janitor started", "schedule", j.schedule, "retention", j.retention)
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return ctx.Err()
}

// ValidateSchedule reports whether spec is a schedule the janitor accepts.
func ValidateSchedule(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}
