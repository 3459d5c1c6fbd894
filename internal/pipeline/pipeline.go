// Package pipeline orchestrates a full index rebuild: stream products from
// the source database, build search documents, bulk-load them into a fresh
// versioned index, then cut the read alias over.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/utafrali/search-indexer/internal/document"
	"github.com/utafrali/search-indexer/internal/domain"
	"github.com/utafrali/search-indexer/internal/engine"
	apperrors "github.com/utafrali/search-indexer/internal/errors"
	"github.com/utafrali/search-indexer/internal/metrics"
	"github.com/utafrali/search-indexer/internal/repository"
)

// Options configures one rebuild run.
type Options struct {
	// IndexName is the versioned physical index the run writes into.
	IndexName string

	// Alias is the stable read alias cut over after a successful load.
	Alias string

	// Mapping is the JSON index mapping used to create the index.
	Mapping string

	// BatchSize is the number of documents per bulk write.
	BatchSize int
}

// Pipeline runs full rebuilds. It is not reentrant; one run at a time.
type Pipeline struct {
	source   repository.ProductSource
	engine   engine.Indexer
	builder  *document.Builder
	progress *Progress
	logger   *slog.Logger
	opts     Options
}

// New creates a rebuild pipeline.
func New(
	source repository.ProductSource,
	eng engine.Indexer,
	builder *document.Builder,
	progress *Progress,
	logger *slog.Logger,
	opts Options,
) *Pipeline {
	return &Pipeline{
		source:   source,
		engine:   eng,
		builder:  builder,
		progress: progress,
		logger:   logger,
		opts:     opts,
	}
}

// Run executes the full rebuild. On success the alias points at the fresh
// index and the summary describes the run. On a fatal error the previous
// index stays live behind the alias; the summary is still returned with
// whatever counters accumulated.
func (p *Pipeline) Run(ctx context.Context) (*domain.Summary, error) {
	start := time.Now()

	summary, err := p.run(ctx)
	summary.Elapsed = time.Since(start)
	summary.ElapsedSeconds = round2(summary.Elapsed.Seconds())
	if summary.ElapsedSeconds > 0 {
		summary.PerSecond = round2(float64(summary.Processed) / summary.Elapsed.Seconds())
	}

	outcome := "success"
	if err != nil {
		outcome = "failure"
		p.progress.setState(StateFailed)
	} else {
		p.progress.setState(StateDone)
	}
	metrics.RunDuration.WithLabelValues(p.opts.IndexName, outcome).Observe(summary.Elapsed.Seconds())

	p.logger.Info("rebuild finished",
		slog.String("index", summary.Index),
		slog.String("outcome", outcome),
		slog.Int64("total", summary.Total),
		slog.Int64("processed", summary.Processed),
		slog.Int64("errors", summary.Errors),
		slog.Float64("elapsed_seconds", summary.ElapsedSeconds),
		slog.Float64("per_second", summary.PerSecond),
	)
	return summary, err
}

func (p *Pipeline) run(ctx context.Context) (*domain.Summary, error) {
	summary := &domain.Summary{
		Index: p.opts.IndexName,
		Alias: p.opts.Alias,
	}

	p.progress.setState(StateConnecting)
	if err := p.source.Ping(ctx); err != nil {
		return summary, apperrors.SourceUnavailable(err)
	}
	if err := p.engine.Ping(ctx); err != nil {
		return summary, apperrors.SearchUnavailable(err)
	}

	total, err := p.source.CountProducts(ctx)
	if err != nil {
		return summary, apperrors.SourceUnavailable(err)
	}
	summary.Total = int64(total)
	p.progress.start(int64(total))
	p.logger.Info("rebuild starting",
		slog.String("index", p.opts.IndexName),
		slog.String("alias", p.opts.Alias),
		slog.Int("total", total),
		slog.Int("batch_size", p.opts.BatchSize),
	)

	p.progress.setState(StatePreparing)
	if err := p.engine.CreateIndex(ctx, p.opts.IndexName, p.opts.Mapping); err != nil {
		return summary, apperrors.IndexCreateFailed(p.opts.IndexName, err)
	}

	p.progress.setState(StateStreaming)
	batch := document.NewBatch(p.opts.BatchSize)
	streamErr := p.source.StreamProducts(ctx, func(product *domain.SourceProduct) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.processProduct(ctx, product, batch, summary)
		if batch.ShouldFlush() {
			p.flush(ctx, batch, summary)
		}
		return nil
	})

	// A partial load is flushed even on abort so the counters reflect what
	// actually reached the index. The alias is only touched on full success.
	if batch.Len() > 0 {
		flushCtx := ctx
		if ctx.Err() != nil {
			var cancel context.CancelFunc
			flushCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			defer cancel()
		}
		p.flush(flushCtx, batch, summary)
	}
	if streamErr != nil {
		if ctx.Err() != nil {
			return summary, fmt.Errorf("rebuild aborted: %w", streamErr)
		}
		return summary, apperrors.SourceUnavailable(streamErr)
	}

	p.progress.setState(StateFinalizing)
	if err := p.engine.Refresh(ctx, p.opts.IndexName); err != nil {
		// Refresh failure does not invalidate the load; documents become
		// visible on the next periodic refresh anyway.
		p.logger.Warn("index refresh failed",
			slog.String("index", p.opts.IndexName),
			slog.String("error", err.Error()),
		)
	} else if count, err := p.engine.CountDocuments(ctx, p.opts.IndexName); err == nil {
		p.logger.Info("index document count verified",
			slog.String("index", p.opts.IndexName),
			slog.Int("count", count),
			slog.Int64("processed", summary.Processed),
		)
	}

	p.progress.setState(StateCuttingOver)
	if err := p.engine.SwapAlias(ctx, p.opts.Alias, p.opts.IndexName); err != nil {
		return summary, apperrors.SearchUnavailable(err)
	}

	return summary, nil
}

// processProduct enriches one product, builds its document and adds it to
// the batch. Failures are counted, logged and skipped; one bad product never
// aborts a rebuild.
func (p *Pipeline) processProduct(ctx context.Context, product *domain.SourceProduct, batch *document.Batch, summary *domain.Summary) {
	attrs, err := p.source.Attributes(ctx, product.ProductID)
	if err != nil {
		p.recordError(product.ProductID, metrics.StageEnrich, err, summary)
		return
	}
	basePrice, err := p.source.BasePrice(ctx, product.ProductID)
	if err != nil {
		p.recordError(product.ProductID, metrics.StageEnrich, err, summary)
		return
	}
	stockTotal, err := p.source.StockTotal(ctx, product.ProductID)
	if err != nil {
		p.recordError(product.ProductID, metrics.StageEnrich, err, summary)
		return
	}
	docCounts, err := p.source.DocumentCounts(ctx, product.ProductID)
	if err != nil {
		p.recordError(product.ProductID, metrics.StageEnrich, err, summary)
		return
	}

	doc, err := p.builder.Build(product, attrs, basePrice, stockTotal, docCounts)
	if err != nil {
		p.recordError(product.ProductID, metrics.StageBuild, err, summary)
		return
	}
	batch.Add(*doc)
}

// flush submits the batch and counts the outcome. A whole-call failure
// counts every document in the batch as an error; the run continues.
func (p *Pipeline) flush(ctx context.Context, batch *document.Batch, summary *domain.Summary) {
	docs := batch.Drain()
	if len(docs) == 0 {
		return
	}

	timer := time.Now()
	result, err := p.engine.Bulk(ctx, p.opts.IndexName, docs)
	elapsed := time.Since(timer)
	metrics.BatchDuration.WithLabelValues(p.opts.IndexName).Observe(elapsed.Seconds())
	metrics.BatchesSubmitted.WithLabelValues(p.opts.IndexName).Inc()
	p.progress.addBatch()

	if err != nil {
		summary.Errors += int64(len(docs))
		p.progress.addErrors(int64(len(docs)))
		metrics.ProductErrors.WithLabelValues(p.opts.IndexName, metrics.StageBulk).Add(float64(len(docs)))
		p.logger.Error("bulk submit failed",
			slog.String("index", p.opts.IndexName),
			slog.Int("batch_size", len(docs)),
			slog.String("error", err.Error()),
		)
		return
	}

	summary.Processed += int64(result.Indexed)
	summary.Errors += int64(len(result.Failed))
	p.progress.addProcessed(int64(result.Indexed))
	p.progress.addErrors(int64(len(result.Failed)))
	metrics.ProductsProcessed.WithLabelValues(p.opts.IndexName).Add(float64(result.Indexed))
	if len(result.Failed) > 0 {
		metrics.ProductErrors.WithLabelValues(p.opts.IndexName, metrics.StageBulk).Add(float64(len(result.Failed)))
		for _, item := range result.Failed {
			p.logger.Warn("document rejected",
				slog.String("index", p.opts.IndexName),
				slog.String("id", item.ID),
				slog.Int("status", item.Status),
				slog.String("reason", item.Reason),
			)
		}
	}

	var percent float64
	if summary.Total > 0 {
		percent = round2(float64(summary.Processed+summary.Errors) / float64(summary.Total) * 100)
	}
	p.logger.Info("batch indexed",
		slog.String("index", p.opts.IndexName),
		slog.Int("batch_size", len(docs)),
		slog.Int64("processed", summary.Processed),
		slog.Int64("errors", summary.Errors),
		slog.Int64("total", summary.Total),
		slog.Float64("percent", percent),
		slog.Duration("batch_elapsed", elapsed),
	)
}

func (p *Pipeline) recordError(productID int64, stage string, err error, summary *domain.Summary) {
	summary.Errors++
	p.progress.addErrors(1)
	metrics.ProductErrors.WithLabelValues(p.opts.IndexName, stage).Inc()
	p.logger.Warn("product skipped",
		slog.Int64("product_id", productID),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
