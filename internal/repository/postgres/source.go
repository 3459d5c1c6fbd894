// Package postgres implements repository.ProductSource against the catalog
// database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/search-indexer/internal/database"
	"github.com/utafrali/search-indexer/internal/domain"
)

// ProductSource implements repository.ProductSource using PostgreSQL.
type ProductSource struct {
	pool database.DBTX
}

// NewProductSource creates a new PostgreSQL-backed product source.
func NewProductSource(pool database.DBTX) *ProductSource {
	return &ProductSource{pool: pool}
}

// streamQuery denormalizes each product with its brand, series, images and
// categories in one pass. Aggregated columns use the separators the document
// builder splits on.
const streamQuery = `
	SELECT
		p.product_id,
		COALESCE(p.external_id, ''),
		COALESCE(p.sku, ''),
		COALESCE(p.name, ''),
		COALESCE(p.description, ''),
		COALESCE(p.unit, ''),
		COALESCE(p.min_sale, 0),
		COALESCE(p.weight, 0),
		COALESCE(p.dimensions, ''),
		p.created_at,
		p.updated_at,
		COALESCE(b.name, ''),
		COALESCE(s.name, ''),
		COALESCE(string_agg(DISTINCT pi.url, '|'), ''),
		COALESCE(string_agg(DISTINCT c.name, ', '), ''),
		COALESCE(string_agg(DISTINCT c.slug, ','), '')
	FROM products p
	LEFT JOIN brands b ON p.brand_id = b.brand_id
	LEFT JOIN series s ON p.series_id = s.series_id
	LEFT JOIN product_images pi ON p.product_id = pi.product_id
	LEFT JOIN product_categories pc ON p.product_id = pc.product_id
	LEFT JOIN categories c ON pc.category_id = c.category_id
	GROUP BY p.product_id, b.name, s.name
	ORDER BY p.product_id`

// Ping checks database connectivity.
func (s *ProductSource) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping source database: %w", err)
	}
	return nil
}

// CountProducts returns the number of products a full rebuild will process.
func (s *ProductSource) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// StreamProducts runs the denormalizing query and invokes fn once per row.
// Rows are consumed as they arrive; the full result set is never buffered.
func (s *ProductSource) StreamProducts(ctx context.Context, fn func(*domain.SourceProduct) error) error {
	rows, err := s.pool.Query(ctx, streamQuery)
	if err != nil {
		return fmt.Errorf("stream products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p         domain.SourceProduct
			createdAt *time.Time
			updatedAt *time.Time
			imageURLs string
			slugs     string
		)
		err := rows.Scan(
			&p.ProductID,
			&p.ExternalID,
			&p.SKU,
			&p.Name,
			&p.Description,
			&p.Unit,
			&p.MinSale,
			&p.Weight,
			&p.Dimensions,
			&createdAt,
			&updatedAt,
			&p.BrandName,
			&p.SeriesName,
			&imageURLs,
			&p.Categories,
			&slugs,
		)
		if err != nil {
			return fmt.Errorf("scan product row: %w", err)
		}

		p.CreatedAt = createdAt
		p.UpdatedAt = updatedAt
		p.ImageURLs = splitList(imageURLs, "|")
		p.CategorySlugs = splitList(slugs, ",")

		if err := fn(&p); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stream products: %w", err)
	}
	return nil
}

// Attributes returns a product's attributes in display order.
func (s *ProductSource) Attributes(ctx context.Context, productID int64) ([]domain.Attribute, error) {
	query := `
		SELECT name, value, COALESCE(unit, '')
		FROM product_attributes
		WHERE product_id = $1
		ORDER BY sort_order`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get attributes for product %d: %w", productID, err)
	}
	defer rows.Close()

	var attrs []domain.Attribute
	for rows.Next() {
		var a domain.Attribute
		if err := rows.Scan(&a.Name, &a.Value, &a.Unit); err != nil {
			return nil, fmt.Errorf("scan attribute row: %w", err)
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get attributes for product %d: %w", productID, err)
	}
	return attrs, nil
}

// BasePrice returns the current base price. A product with no base price
// row yields 0 without error.
func (s *ProductSource) BasePrice(ctx context.Context, productID int64) (float64, error) {
	query := `
		SELECT price
		FROM prices
		WHERE product_id = $1 AND is_base
		ORDER BY valid_from DESC
		LIMIT 1`

	var price float64
	err := s.pool.QueryRow(ctx, query, productID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get base price for product %d: %w", productID, err)
	}
	return price, nil
}

// StockTotal returns available stock summed across warehouses, net of
// reservations.
func (s *ProductSource) StockTotal(ctx context.Context, productID int64) (int, error) {
	query := `
		SELECT COALESCE(SUM(quantity - reserved), 0)
		FROM stock_balances
		WHERE product_id = $1`

	var total int64
	if err := s.pool.QueryRow(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("get stock total for product %d: %w", productID, err)
	}
	return int(total), nil
}

// DocumentCounts returns attached document counts keyed by type.
func (s *ProductSource) DocumentCounts(ctx context.Context, productID int64) (map[string]int, error) {
	query := `
		SELECT type, COUNT(*)
		FROM product_documents
		WHERE product_id = $1
		GROUP BY type`

	rows, err := s.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get document counts for product %d: %w", productID, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			docType string
			count   int
		)
		if err := rows.Scan(&docType, &count); err != nil {
			return nil, fmt.Errorf("scan document count row: %w", err)
		}
		counts[docType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get document counts for product %d: %w", productID, err)
	}
	return counts, nil
}

// splitList splits an aggregated column on its separator, trimming entries
// and dropping empties.
func splitList(raw, sep string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, sep)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
