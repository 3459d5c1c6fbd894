package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/utafrali/search-indexer/internal/app"
	"github.com/utafrali/search-indexer/internal/config"
	"github.com/utafrali/search-indexer/internal/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Initialize structured logger.
	log := logger.New("search-indexer", cfg.LogLevel)
	log.Info("starting search indexer",
		slog.String("environment", cfg.Environment),
		slog.String("index", cfg.PhysicalIndexName()),
		slog.String("alias", cfg.IndexAlias),
		slog.Int("http_port", cfg.HTTPPort),
	)

	// Create a context that is canceled on SIGINT or SIGTERM. A canceled
	// run flushes what it has and leaves the alias untouched.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	application, err := app.NewApp(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	// Run the rebuild. This blocks until cutover or failure.
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run rebuild: %w", err)
	}

	log.Info("search indexer finished")
	return nil
}
