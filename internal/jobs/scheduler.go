package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Job is one unit of periodic work.
type Job interface {
	Publish(ctx context.Context) (int, error)
}

// Scheduler triggers a Job on a standard five-field cron spec.
type Scheduler struct {
	spec   string
	job    Job
	logger *slog.Logger
}

// NewScheduler validates spec and binds it to job.
func NewScheduler(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if job == nil {
		return nil, fmt.Errorf("jobs: job is required")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("jobs: invalid cron spec %q: %w", spec, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{spec: spec, job: job, logger: logger.With("component", "scheduler", "cron", spec)}, nil
}

// Run publishes once immediately, then on every tick until ctx is done. It
// waits for an in-flight run to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("jobs: schedule %q: %w", s.spec, err)
	}

	s.runOnce(ctx)
	c.Start()
	s.logger.Info("scheduler started")

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.job.Publish(ctx); err != nil {
		s.logger.Error("scheduled publish failed", "error", err)
	}
}
