package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"burnish/internal/config"
	"burnish/internal/daemon"
	"burnish/internal/logging"
	"burnish/internal/preflight"
	"burnish/internal/store"
	"burnish/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if r.Passed {
			logger.Info("preflight check passed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.Bool("advisory", r.Advisory),
		)
	}
	if blocking := preflight.BlockingFailures(results); len(blocking) > 0 {
		logger.Error("preflight failures block startup",
			logging.Int("failures", len(blocking)),
			logging.String(logging.FieldErrorHint, "fix the reported issues and restart the daemon"),
		)
		os.Exit(1)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open session store", logging.Error(err))
		os.Exit(1)
	}

	manager, err := workflow.NewManager(cfg, st, logger)
	if err != nil {
		logger.Error("create workflow manager", logging.Error(err))
		os.Exit(1)
	}

	d, err := daemon.New(cfg, st, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		os.Exit(1)
	}
	defer d.Close()

	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, cfg.Paths.LogDir)

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("burnishd shutting down")
}
