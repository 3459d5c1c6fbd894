package domain

import (
	"strconv"
	"time"
)

// Suggestion is a weighted autocomplete candidate attached to a document.
type Suggestion struct {
	Input  []string `json:"input"`
	Weight int      `json:"weight"`
}

// SearchDocument is the denormalized representation of one product as it is
// stored in the search index. Document identity equals the product ID, so a
// rebuild upserts rather than duplicates.
type SearchDocument struct {
	ProductID     int64       `json:"product_id"`
	ExternalID    string      `json:"external_id"`
	SKU           string      `json:"sku"`
	Name          string      `json:"name"`
	Description   string      `json:"description"`
	Unit          string      `json:"unit"`
	MinSale       float64     `json:"min_sale"`
	Weight        float64     `json:"weight"`
	Dimensions    string      `json:"dimensions"`
	BrandName     string      `json:"brand_name"`
	SeriesName    string      `json:"series_name"`
	Categories    string      `json:"categories"`
	CategorySlugs []string    `json:"category_slugs"`
	Images        []string    `json:"images"`
	CreatedAt     string      `json:"created_at,omitempty"`
	UpdatedAt     string      `json:"updated_at,omitempty"`
	Attributes    []Attribute `json:"attributes"`

	BasePrice   float64 `json:"base_price"`
	RetailPrice float64 `json:"retail_price"`
	PriceRange  float64 `json:"price_range"`
	StockTotal  int     `json:"stock_total"`
	InStock     bool    `json:"in_stock"`

	HasCertificate bool `json:"has_certificate"`
	HasManual      bool `json:"has_manual"`
	HasDrawing     bool `json:"has_drawing"`

	SearchText string       `json:"search_text"`
	Suggest    []Suggestion `json:"suggest"`
}

// ID returns the document identity used for bulk action headers.
func (d *SearchDocument) ID() string {
	return strconv.FormatInt(d.ProductID, 10)
}

// Summary is the machine-readable result of one rebuild run.
type Summary struct {
	Index     string        `json:"index"`
	Alias     string        `json:"alias"`
	Total     int64         `json:"total"`
	Processed int64         `json:"processed"`
	Errors    int64         `json:"errors"`
	Elapsed   time.Duration `json:"-"`

	ElapsedSeconds float64 `json:"elapsed_seconds"`
	PerSecond      float64 `json:"per_second"`
}
