package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/samvad-comment-ingestor/internal/app"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/config"
	"github.com/samvad-hq/samvad-comment-ingestor/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ingestor start failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("ingestor starting", "config", map[string]any{
		"app_name":          cfg.AppName,
		"app_env":           cfg.Env,
		"comment_url":       cfg.CommentURL(),
		"fetch_interval_ms": cfg.FetchIntervalMs,
		"storage_type":      cfg.StorageType,
		"enrich_unlinked":   cfg.EnrichUnlinked,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ingestor, err := app.NewIngestor(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize ingestor", "error", err)
		return err
	}

	if err := ingestor.Run(ctx); err != nil {
		return fmt.Errorf("ingestor run: %w", err)
	}

	return nil
}
