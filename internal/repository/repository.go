// Package repository defines the source-of-truth read surface the rebuild
// pipeline streams products from.
package repository

import (
	"context"

	"github.com/utafrali/search-indexer/internal/domain"
)

// ProductSource is the relational read surface for a full rebuild. One
// streaming pass yields every product; the per-product lookups enrich each
// one before its document is built.
type ProductSource interface {
	// Ping checks whether the source database is reachable.
	Ping(ctx context.Context) error

	// CountProducts returns the total number of products to be indexed.
	CountProducts(ctx context.Context) (int, error)

	// StreamProducts invokes fn once per product in a single streaming
	// query. A non-nil error from fn aborts the stream and is returned.
	StreamProducts(ctx context.Context, fn func(*domain.SourceProduct) error) error

	// Attributes returns a product's attributes in display order.
	Attributes(ctx context.Context, productID int64) ([]domain.Attribute, error)

	// BasePrice returns the current base price, or 0 when none is set.
	BasePrice(ctx context.Context, productID int64) (float64, error)

	// StockTotal returns available stock summed across warehouses, net of
	// reservations.
	StockTotal(ctx context.Context, productID int64) (int, error)

	// DocumentCounts returns attached document counts keyed by type.
	DocumentCounts(ctx context.Context, productID int64) (map[string]int, error)
}
