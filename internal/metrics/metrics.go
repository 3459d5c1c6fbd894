// Package metrics exposes Prometheus instrumentation for the rebuild
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProductsProcessed counts products successfully turned into documents
	// and submitted for indexing.
	ProductsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_products_processed_total",
			Help: "Total number of products processed into search documents",
		},
		[]string{"index"},
	)

	// ProductErrors counts products skipped because building or indexing
	// their document failed.
	ProductErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_product_errors_total",
			Help: "Total number of products that failed to index",
		},
		[]string{"index", "stage"},
	)

	// BatchesSubmitted counts bulk writes issued to the search engine.
	BatchesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexer_batches_submitted_total",
			Help: "Total number of bulk batches submitted",
		},
		[]string{"index"},
	)

	// BatchDuration observes how long each bulk write takes.
	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexer_batch_duration_seconds",
			Help:    "Duration of bulk batch submissions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"index"},
	)

	// RunDuration observes end-to-end rebuild run duration.
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "indexer_run_duration_seconds",
			Help:    "Duration of full rebuild runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"index", "outcome"},
	)
)

// Stage labels for ProductErrors.
const (
	StageBuild  = "build"
	StageEnrich = "enrich"
	StageBulk   = "bulk"
)
