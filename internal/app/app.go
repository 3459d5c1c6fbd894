// Package app wires the indexer's dependencies and runs a rebuild.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utafrali/search-indexer/internal/config"
	"github.com/utafrali/search-indexer/internal/database"
	"github.com/utafrali/search-indexer/internal/document"
	"github.com/utafrali/search-indexer/internal/domain"
	esengine "github.com/utafrali/search-indexer/internal/engine/elasticsearch"
	"github.com/utafrali/search-indexer/internal/event"
	handler "github.com/utafrali/search-indexer/internal/handler/http"
	"github.com/utafrali/search-indexer/internal/pipeline"
	"github.com/utafrali/search-indexer/internal/repository/postgres"
)

// App holds the wired components of one indexer run.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	pipe       *pipeline.Pipeline
	producer   *event.Producer
	httpServer *http.Server
}

// NewApp initializes all dependencies: source pool, search engine, document
// builder, rebuild pipeline, event producer and the admin HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pg := cfg.Postgres()
	pool, err := database.NewPostgresPoolWithLogger(ctx, &pg, logger)
	if err != nil {
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}
	source := postgres.NewProductSource(pool)

	esEng, err := esengine.New(cfg.ElasticsearchURL, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init elasticsearch engine: %w", err)
	}
	logger.Info("elasticsearch engine initialized",
		slog.String("url", cfg.ElasticsearchURL),
		slog.String("index", cfg.PhysicalIndexName()),
		slog.String("alias", cfg.IndexAlias),
	)

	mapping, err := cfg.LoadMapping()
	if err != nil {
		pool.Close()
		return nil, err
	}
	if mapping == "" {
		mapping = esengine.DefaultMapping()
	}

	builder := document.NewBuilder(document.TimestampFallback(cfg.TimestampFallback), time.Now)

	progress := pipeline.NewProgress()
	pipe := pipeline.New(source, esEng, builder, progress, logger, pipeline.Options{
		IndexName: cfg.PhysicalIndexName(),
		Alias:     cfg.IndexAlias,
		Mapping:   mapping,
		BatchSize: cfg.BatchSize,
	})

	var producer *event.Producer
	if cfg.EventsEnabled {
		producer = event.NewProducer(cfg.KafkaBrokers, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	checkers := map[string]handler.Checker{
		"postgres":      source.Ping,
		"elasticsearch": esEng.Ping,
	}
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler.NewRouter(progress, checkers),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		pipe:       pipe,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run executes the rebuild while serving the admin endpoints, publishes the
// outcome event and shuts everything down. It returns the pipeline error, if
// any, after cleanup.
func (a *App) Run(ctx context.Context) error {
	go func() {
		a.logger.Info("starting admin HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("admin http server error", slog.String("error", err.Error()))
		}
	}()

	runID := uuid.New().String()
	a.logger.Info("rebuild run starting", slog.String("run_id", runID))

	summary, runErr := a.pipe.Run(ctx)

	a.publishOutcome(runID, summary, runErr)

	if err := a.shutdown(); err != nil {
		a.logger.Error("shutdown error", slog.String("error", err.Error()))
	}
	return runErr
}

// publishOutcome emits the completion or failure event. Publishing uses its
// own deadline so an aborted run context cannot suppress the failure event.
func (a *App) publishOutcome(runID string, summary *domain.Summary, runErr error) {
	if a.producer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if runErr != nil {
		err = a.producer.PublishFailed(ctx, runID, summary, runErr)
	} else {
		err = a.producer.PublishCompleted(ctx, runID, summary)
	}
	if err != nil {
		a.logger.Error("failed to publish run outcome event",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}

func (a *App) shutdown() error {
	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka producer: %w", err))
		}
	}

	a.pool.Close()
	return errors.Join(errs...)
}
