// Package engine defines the index lifecycle surface the rebuild pipeline
// depends on. Implementations may use Elasticsearch, in-memory storage, or
// other backends exposing the same operations.
package engine

import (
	"context"

	"github.com/utafrali/search-indexer/internal/domain"
)

// ItemError describes one document rejected inside an otherwise successful
// bulk call.
type ItemError struct {
	ID     string
	Status int
	Reason string
}

// BulkResult is the per-item outcome of a bulk write.
type BulkResult struct {
	Indexed int
	Failed  []ItemError
}

// Indexer is the full index lifecycle surface: health, versioned index
// creation, bulk loading, refresh and alias cutover.
type Indexer interface {
	// Ping checks whether the index store is reachable.
	Ping(ctx context.Context) error

	// CreateIndex deletes any index of the same name (absence is not an
	// error) and creates a fresh one from the mapping document. Failure is
	// fatal to a rebuild run.
	CreateIndex(ctx context.Context, name, mapping string) error

	// DeleteIndex removes an index; a missing index is not an error.
	DeleteIndex(ctx context.Context, name string) error

	// Bulk writes all documents in one request. It returns an error only
	// for a transport or protocol level failure of the whole call;
	// individual rejections are reported in the result.
	Bulk(ctx context.Context, index string, docs []domain.SearchDocument) (*BulkResult, error)

	// Refresh makes just-written documents visible to reads.
	Refresh(ctx context.Context, index string) error

	// SwapAlias unbinds the alias from whatever it points at and binds it
	// to the given index in a single alias-actions call, so readers never
	// observe the alias missing.
	SwapAlias(ctx context.Context, alias, index string) error

	// CountDocuments returns the number of documents in an index.
	CountDocuments(ctx context.Context, index string) (int, error)
}
