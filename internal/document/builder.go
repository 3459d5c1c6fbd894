// Package document builds search documents from source product rows and
// buffers them into bulk write batches.
package document

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/utafrali/search-indexer/internal/domain"
	"github.com/utafrali/search-indexer/internal/normalize"
)

// TimestampLayout is the canonical timestamp format stored in the index.
const TimestampLayout = "2006-01-02T15:04:05"

// retailMarkup is the policy multiplier applied to the base price to derive
// the displayed retail price.
const retailMarkup = 1.2

// TimestampFallback selects what Build writes when a source timestamp is
// missing or zero.
type TimestampFallback string

const (
	// FallbackNow substitutes the build time. This backfills documents with
	// broken source timestamps so date sorting still works.
	FallbackNow TimestampFallback = "now"
	// FallbackZero leaves the timestamp out of the document entirely.
	FallbackZero TimestampFallback = "zero"
)

// Valid reports whether f is a known fallback policy.
func (f TimestampFallback) Valid() bool {
	return f == FallbackNow || f == FallbackZero
}

// Suggestion weights, highest first. Name fragments are only emitted for
// words longer than three runes in names of more than two words.
const (
	weightName         = 100
	weightCode         = 90
	weightSKU          = 80
	weightBrand        = 70
	weightNameFragment = 50
)

var (
	// stripSeparators flattens a code into one token: "AB-12/34" -> "AB1234".
	stripSeparators = strings.NewReplacer("-", "", "_", "", "/", "", " ", "")
	// spaceSeparators turns separators into word breaks: "AB-12/34" -> "AB 12 34".
	spaceSeparators = strings.NewReplacer("-", " ", "_", " ", "/", " ")
	// splitSeparators yields each code segment on its own.
	splitSeparators = regexp.MustCompile(`[-_/\s]+`)

	digits = regexp.MustCompile(`\d`)
)

// Builder turns a source product and its sub-records into a SearchDocument.
// It is stateless apart from the timestamp policy and clock, so one instance
// serves a whole run.
type Builder struct {
	fallback TimestampFallback
	now      func() time.Time
}

// NewBuilder creates a document builder. A nil clock defaults to time.Now.
func NewBuilder(fallback TimestampFallback, now func() time.Time) *Builder {
	if !fallback.Valid() {
		fallback = FallbackNow
	}
	if now == nil {
		now = time.Now
	}
	return &Builder{fallback: fallback, now: now}
}

// Build assembles the search document for one product. Any panic while
// enriching is converted into an error so a single bad row never takes the
// run down; the caller counts it and moves on.
func (b *Builder) Build(
	p *domain.SourceProduct,
	attrs []domain.Attribute,
	basePrice float64,
	stockTotal int,
	docCounts map[string]int,
) (doc *domain.SearchDocument, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("build document for product %d: %v", p.ProductID, r)
		}
	}()

	doc = &domain.SearchDocument{
		ProductID:     p.ProductID,
		ExternalID:    normalize.Normalize(p.ExternalID),
		SKU:           normalize.Normalize(p.SKU),
		Name:          normalize.Normalize(p.Name),
		Description:   normalize.Normalize(p.Description),
		Unit:          normalize.Normalize(p.Unit),
		MinSale:       p.MinSale,
		Weight:        p.Weight,
		Dimensions:    normalize.Normalize(p.Dimensions),
		BrandName:     normalize.Normalize(p.BrandName),
		SeriesName:    normalize.Normalize(p.SeriesName),
		Categories:    normalize.Normalize(p.Categories),
		CategorySlugs: p.CategorySlugs,
		Images:        p.ImageURLs,
		CreatedAt:     b.formatTimestamp(p.CreatedAt),
		UpdatedAt:     b.formatTimestamp(p.UpdatedAt),
	}
	if doc.CategorySlugs == nil {
		doc.CategorySlugs = []string{}
	}
	if doc.Images == nil {
		doc.Images = []string{}
	}

	doc.Attributes = make([]domain.Attribute, 0, len(attrs))
	for _, a := range attrs {
		doc.Attributes = append(doc.Attributes, domain.Attribute{
			Name:  normalize.Normalize(a.Name),
			Value: normalize.Normalize(a.Value),
			Unit:  normalize.Normalize(a.Unit),
		})
	}

	doc.BasePrice = basePrice
	doc.RetailPrice = math.Round(basePrice*retailMarkup*100) / 100
	if basePrice > 0 {
		doc.PriceRange = math.Floor(basePrice/100) * 100
	}

	doc.StockTotal = stockTotal
	doc.InStock = stockTotal > 0

	doc.HasCertificate = docCounts[domain.DocTypeCertificate] > 0
	doc.HasManual = docCounts[domain.DocTypeManual] > 0
	doc.HasDrawing = docCounts[domain.DocTypeDrawing] > 0

	doc.SearchText = searchText(doc)
	doc.Suggest = suggestions(doc)

	return doc, nil
}

// formatTimestamp coerces a source timestamp into the canonical layout,
// applying the configured fallback when it is missing.
func (b *Builder) formatTimestamp(t *time.Time) string {
	if t == nil || t.IsZero() {
		if b.fallback == FallbackZero {
			return ""
		}
		return b.now().UTC().Format(TimestampLayout)
	}
	return t.UTC().Format(TimestampLayout)
}

// searchText concatenates everything a user query could plausibly match:
// the textual fields, attribute name/value pairs, and every surface-form
// variant of the product codes. Duplicates are removed keeping first
// occurrence, then the whole blob is normalized once more.
func searchText(d *domain.SearchDocument) string {
	var parts []string

	for _, f := range []string{
		d.Name, d.Description, d.SKU, d.ExternalID,
		d.BrandName, d.SeriesName, d.Categories,
	} {
		if f != "" {
			parts = append(parts, f)
		}
	}

	for _, a := range d.Attributes {
		parts = append(parts, a.Name+" "+a.Value)
		// Bare value too when it carries a number, so a query like "220V"
		// matches without the attribute name.
		if digits.MatchString(a.Value) {
			parts = append(parts, a.Value)
		}
	}

	parts = append(parts, codeVariants(d.ExternalID)...)
	parts = append(parts, codeVariants(d.SKU)...)

	return normalize.Normalize(strings.Join(dedupe(parts), " "))
}

// codeVariants expands a product code into its matchable surface forms:
// separators stripped, separators as spaces, and each segment alone.
// The raw code itself is already present via the field list.
func codeVariants(code string) []string {
	if code == "" {
		return nil
	}
	variants := []string{
		stripSeparators.Replace(code),
		spaceSeparators.Replace(code),
	}
	for _, seg := range splitSeparators.Split(code, -1) {
		if seg != "" {
			variants = append(variants, seg)
		}
	}
	return variants
}

// suggestions builds the weighted autocomplete entries. Entries whose source
// field is empty are omitted.
func suggestions(d *domain.SearchDocument) []domain.Suggestion {
	var out []domain.Suggestion

	if d.Name != "" {
		out = append(out, domain.Suggestion{Input: []string{d.Name}, Weight: weightName})
	}
	if d.ExternalID != "" {
		out = append(out, domain.Suggestion{
			Input:  []string{d.ExternalID, stripSeparators.Replace(d.ExternalID)},
			Weight: weightCode,
		})
	}
	if d.SKU != "" {
		out = append(out, domain.Suggestion{
			Input:  []string{d.SKU, stripSeparators.Replace(d.SKU)},
			Weight: weightSKU,
		})
	}
	if d.BrandName != "" {
		out = append(out, domain.Suggestion{Input: []string{d.BrandName}, Weight: weightBrand})
	}

	if d.Name != "" {
		words := strings.Fields(d.Name)
		if len(words) > 2 {
			for _, w := range words {
				if utf8.RuneCountInString(w) > 3 {
					out = append(out, domain.Suggestion{Input: []string{w}, Weight: weightNameFragment})
				}
			}
		}
	}

	return out
}

// dedupe removes duplicates preserving first occurrence order.
func dedupe(parts []string) []string {
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
