package domain

import "time"

// SourceProduct is one row of the product export query: the product record
// with its brand and series names joined in and category/image lists
// aggregated. Owned by the relational store; the pipeline never writes it.
type SourceProduct struct {
	ProductID     int64
	ExternalID    string
	SKU           string
	Name          string
	Description   string
	Unit          string
	MinSale       float64
	Weight        float64
	Dimensions    string
	BrandName     string
	SeriesName    string
	Categories    string // display names, comma separated
	CategorySlugs []string
	ImageURLs     []string
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
}

// Attribute is a single product characteristic, ordered by the source's
// sort key.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Document type keys used by the per-product document count query.
const (
	DocTypeCertificate = "certificate"
	DocTypeManual      = "manual"
	DocTypeDrawing     = "drawing"
)
