package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"PaperDigest/internal/ports"
)

// CronScheduler drives daemon-mode runs from a cron expression.
type CronScheduler struct {
	cron   *cron.Cron
	spec   string
	logger *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler firing in the configured timezone.
func NewCronScheduler(spec string, loc *time.Location, logger *slog.Logger) *CronScheduler {
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		spec:   spec,
		logger: logger,
	}
}

// Start registers the job and starts ticking. The job also fires once
// immediately so a fresh deployment publishes without waiting for the first
// scheduled run.
func (c *CronScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}

	if _, err := c.cron.AddFunc(c.spec, func() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		job(time.Now())
	}); err != nil {
		return fmt.Errorf("register cron job %q: %w", c.spec, err)
	}

	c.cron.Start()
	c.logger.Info("cron started", "spec", c.spec)

	go job(time.Now())
	return nil
}

// Stop halts the cron loop; already-running jobs finish on their own.
func (c *CronScheduler) Stop() {
	c.cron.Stop()
	c.logger.Info("cron stopped")
}
