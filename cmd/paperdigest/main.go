package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PaperDigest/internal/app"
	"PaperDigest/internal/config"
	"PaperDigest/internal/logging"
)

func main() {
	var (
		configPath string
		dateStr    string
		daysBack   int
		force      bool
		daemon     bool
	)

	flag.StringVar(&configPath, "config", "config.yaml", "path to YAML config file")
	flag.StringVar(&dateStr, "date", "", "target date in UTC (YYYY-MM-DD), defaults to today")
	flag.IntVar(&daysBack, "days-back", -1, "override run.daysBack from config")
	flag.BoolVar(&force, "force", false, "recompute even if day output already exists")
	flag.BoolVar(&daemon, "daemon", false, "keep running and fire on the configured cron schedule")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level)

	target := time.Now().UTC().Truncate(24 * time.Hour)
	if dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --date %q: %v\n", dateStr, err)
			os.Exit(1)
		}
		target = parsed
	}
	if daysBack < 0 {
		daysBack = cfg.Run.DaysBack
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if daemon {
		err = application.RunDaemon(ctx, daysBack)
	} else {
		err = application.RunOnce(ctx, target, daysBack, force)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
