package usecase

import (
	"context"
	"log/slog"
	"time"

	"NewsIntegrity/internal/ports"
)

// Scheduler wires the interval driver with the scoring pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring jobs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers one cycle (score the pending batch, then roll up every
// outlet) with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	})
}

// RunOnce executes a single cycle. Failures are logged; the next tick retries.
// Every outlet is rolled up once, after the batch.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	s.logger.InfoContext(ctx, "scoring cycle started", "trigger", trigger)

	if _, err := s.pipeline.scorePending(ctx, false); err != nil {
		s.logger.ErrorContext(ctx, "score pending failed", "error", err)
	}
	if _, err := s.pipeline.RollupAll(ctx); err != nil {
		s.logger.ErrorContext(ctx, "rollup failed", "error", err)
	}
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
