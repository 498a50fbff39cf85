package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"PaperDigest/internal/config"
	"PaperDigest/internal/infrastructure/llm"
	"PaperDigest/internal/infrastructure/scheduler"
	"PaperDigest/internal/infrastructure/site"
	"PaperDigest/internal/infrastructure/sources"
	"PaperDigest/internal/infrastructure/store"
	"PaperDigest/internal/logging"
	"PaperDigest/internal/ports"
	"PaperDigest/internal/usecase"
)

// Application wires configuration to the pipeline and lifecycle modes.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	logger   *slog.Logger
}

// New builds a runnable application instance. A missing model credential is
// not fatal: the pipeline runs with the model-backed stages disabled.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var completer ports.ChatCompleter
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	client, err := llm.NewClient(cfg.LLM, apiKey, baseLogger.With("component", "llm"))
	switch {
	case err == nil:
		completer = client
	case errors.Is(err, llm.ErrMissingAPIKey):
		baseLogger.Warn("model gateway disabled", "error", err)
	default:
		return nil, fmt.Errorf("build model gateway: %w", err)
	}

	var arxiv ports.TieredSource
	if cfg.Sources.Arxiv.Enabled {
		arxiv = sources.NewArxiv(cfg.Sources.Arxiv, nil)
	}

	var extra []ports.PaperSource
	if cfg.Sources.Biorxiv.Enabled {
		extra = append(extra, sources.NewBiorxiv(cfg.Sources.Biorxiv, nil))
	}
	if cfg.Sources.Chemrxiv.Enabled {
		extra = append(extra, sources.NewChemrxiv(cfg.Sources.Chemrxiv, nil,
			baseLogger.With("component", "source.chemrxiv")))
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Config:    cfg,
		Completer: completer,
		Arxiv:     arxiv,
		Sources:   extra,
		Store:     store.New(cfg.Output, baseLogger.With("component", "store")),
		Renderer:  site.New(cfg.Output),
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, pipeline: pipeline, logger: baseLogger}, nil
}

// RunOnce executes the pipeline for one window and returns.
func (a *Application) RunOnce(ctx context.Context, target time.Time, daysBack int, force bool) error {
	return a.pipeline.Run(ctx, target, daysBack, force)
}

// RunDaemon keeps the process alive, re-running the window on the
// configured cron schedule until the context is cancelled.
func (a *Application) RunDaemon(ctx context.Context, daysBack int) error {
	driver := scheduler.NewCronScheduler(
		a.cfg.Scheduler.CronExpression,
		a.cfg.Scheduler.Location(),
		a.logger.With("component", "scheduler"),
	)

	sched := usecase.NewScheduler(driver, a.pipeline, daysBack, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	sched.Stop()
	return nil
}
