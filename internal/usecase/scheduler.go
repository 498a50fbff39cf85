package usecase

import (
	"context"
	"log/slog"
	"time"

	"PaperDigest/internal/ports"
)

// Scheduler wires the cron driver with the pipeline use case for daemon mode.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	daysBack int
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, daysBack int, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, daysBack: daysBack, logger: logger}
}

// Start registers the pipeline with the provided scheduler driver. Scheduled
// runs never force recomputation; already-persisted dates are loaded.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if err := s.pipeline.Run(ctx, trigger.UTC().Truncate(24*time.Hour), s.daysBack, false); err != nil {
			s.logger.Error("scheduled run finished with errors", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop() {
	if s.driver == nil {
		return
	}
	s.driver.Stop()
}
