package document

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/search-indexer/internal/domain"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func newTestBuilder() *Builder {
	return NewBuilder(FallbackNow, fixedClock)
}

func sampleProduct() *domain.SourceProduct {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	updated := time.Date(2024, 5, 20, 8, 15, 0, 0, time.UTC)
	return &domain.SourceProduct{
		ProductID:     42,
		ExternalID:    "AB-12/34",
		SKU:           "SKU_100-X",
		Name:          "Steel Pipe Connector",
		Description:   "Heavy duty connector",
		Unit:          "pcs",
		MinSale:       1,
		Weight:        2.5,
		Dimensions:    "10x20x30",
		BrandName:     "Acme",
		SeriesName:    "Pro Series",
		Categories:    "Fittings, Pipes",
		CategorySlugs: []string{"fittings", "pipes"},
		ImageURLs:     []string{"https://cdn.example.com/42.jpg"},
		CreatedAt:     &created,
		UpdatedAt:     &updated,
	}
}

func sampleAttributes() []domain.Attribute {
	return []domain.Attribute{
		{Name: "Voltage", Value: "220V", Unit: "V"},
		{Name: "Material", Value: "Steel", Unit: ""},
	}
}

func TestBuild_Idempotent(t *testing.T) {
	b := newTestBuilder()

	first, err := b.Build(sampleProduct(), sampleAttributes(), 1250.50, 7, map[string]int{"manual": 2})
	require.NoError(t, err)
	second, err := b.Build(sampleProduct(), sampleAttributes(), 1250.50, 7, map[string]int{"manual": 2})
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON, "two builds from the same source must be byte-identical")
}

func TestBuild_SearchTextCoversCodeVariants(t *testing.T) {
	b := newTestBuilder()

	doc, err := b.Build(sampleProduct(), nil, 0, 0, nil)
	require.NoError(t, err)

	for _, token := range []string{"AB-12/34", "AB1234", "AB 12 34", "AB", "12", "34"} {
		assert.Contains(t, doc.SearchText, token, "search_text must contain code variant %q", token)
	}
}

func TestBuild_SearchTextCoversSKUVariants(t *testing.T) {
	b := newTestBuilder()

	doc, err := b.Build(sampleProduct(), nil, 0, 0, nil)
	require.NoError(t, err)

	assert.Contains(t, doc.SearchText, "SKU_100-X")
	assert.Contains(t, doc.SearchText, "SKU100X")
	assert.Contains(t, doc.SearchText, "SKU 100 X")
}

func TestBuild_SearchTextCoversAttributes(t *testing.T) {
	b := newTestBuilder()

	doc, err := b.Build(sampleProduct(), sampleAttributes(), 0, 0, nil)
	require.NoError(t, err)

	assert.Contains(t, doc.SearchText, "Voltage 220V")
	// A value with digits is independently matchable.
	assert.Contains(t, doc.SearchText, "220V")
	assert.Contains(t, doc.SearchText, "Material Steel")
	// Brand, series and categories make it in via the field list.
	assert.Contains(t, doc.SearchText, "Acme")
	assert.Contains(t, doc.SearchText, "Pro Series")
	assert.Contains(t, doc.SearchText, "Fittings, Pipes")
}

func TestBuild_SearchTextDeduplicates(t *testing.T) {
	b := newTestBuilder()

	p := sampleProduct()
	p.Name = "Acme"
	p.BrandName = "Acme"
	p.SKU = ""
	p.ExternalID = ""

	doc, err := b.Build(p, nil, 0, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(doc.SearchText, "Acme"))
}

func TestBuild_SuggestionWeightsAndOrdering(t *testing.T) {
	b := newTestBuilder()

	p := sampleProduct()
	p.Name = "Steel Pipe Connector"
	p.ExternalID = "SP-100"
	p.SKU = ""
	p.BrandName = "Acme"

	doc, err := b.Build(p, nil, 0, 0, nil)
	require.NoError(t, err)

	require.Len(t, doc.Suggest, 6)

	assert.Equal(t, domain.Suggestion{Input: []string{"Steel Pipe Connector"}, Weight: 100}, doc.Suggest[0])
	assert.Equal(t, domain.Suggestion{Input: []string{"SP-100", "SP100"}, Weight: 90}, doc.Suggest[1])
	assert.Equal(t, domain.Suggestion{Input: []string{"Acme"}, Weight: 70}, doc.Suggest[2])

	// Three 50-weight fragments: every word longer than 3 runes.
	fragments := doc.Suggest[3:]
	want := []string{"Steel", "Pipe", "Connector"}
	for i, s := range fragments {
		assert.Equal(t, 50, s.Weight)
		assert.Equal(t, []string{want[i]}, s.Input)
	}
}

func TestBuild_SuggestionsSKUWeight(t *testing.T) {
	b := newTestBuilder()

	p := sampleProduct()
	p.Name = "Widget"
	p.ExternalID = ""
	p.BrandName = ""
	p.SKU = "SK-9"

	doc, err := b.Build(p, nil, 0, 0, nil)
	require.NoError(t, err)

	require.Len(t, doc.Suggest, 2)
	assert.Equal(t, 100, doc.Suggest[0].Weight)
	assert.Equal(t, domain.Suggestion{Input: []string{"SK-9", "SK9"}, Weight: 80}, doc.Suggest[1])
}

func TestBuild_NoFragmentsForShortNames(t *testing.T) {
	b := newTestBuilder()

	// Two words only: no fragment entries regardless of word length.
	p := sampleProduct()
	p.Name = "Industrial Compressor"
	p.ExternalID = ""
	p.SKU = ""
	p.BrandName = ""

	doc, err := b.Build(p, nil, 0, 0, nil)
	require.NoError(t, err)

	require.Len(t, doc.Suggest, 1)
	assert.Equal(t, 100, doc.Suggest[0].Weight)
}

func TestBuild_EmptyFieldsOmitSuggestions(t *testing.T) {
	b := newTestBuilder()

	p := &domain.SourceProduct{ProductID: 1}
	doc, err := b.Build(p, nil, 0, 0, nil)
	require.NoError(t, err)

	assert.Empty(t, doc.Suggest)
	assert.Empty(t, doc.SearchText)
}

func TestBuild_TimestampFallbackNow(t *testing.T) {
	b := NewBuilder(FallbackNow, fixedClock)

	p := sampleProduct()
	p.CreatedAt = nil
	p.UpdatedAt = nil

	doc, err := b.Build(p, nil, 0, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, "2025-06-15T12:00:00", doc.CreatedAt)
	assert.Equal(t, "2025-06-15T12:00:00", doc.UpdatedAt)
}

func TestBuild_TimestampFallbackZero(t *testing.T) {
	b := NewBuilder(FallbackZero, fixedClock)

	p := sampleProduct()
	p.CreatedAt = nil

	doc, err := b.Build(p, nil, 0, 0, nil)
	require.NoError(t, err)

	assert.Empty(t, doc.CreatedAt)
	assert.Equal(t, "2024-05-20T08:15:00", doc.UpdatedAt)
}

func TestBuild_TimestampFormatting(t *testing.T) {
	b := newTestBuilder()

	doc, err := b.Build(sampleProduct(), nil, 0, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, "2024-03-01T10:30:00", doc.CreatedAt)
	assert.Equal(t, "2024-05-20T08:15:00", doc.UpdatedAt)
}

func TestBuild_PriceEnrichment(t *testing.T) {
	tests := []struct {
		name       string
		basePrice  float64
		wantRetail float64
		wantRange  float64
	}{
		{name: "regular price", basePrice: 1250.50, wantRetail: 1500.60, wantRange: 1200},
		{name: "small price", basePrice: 99.99, wantRetail: 119.99, wantRange: 0},
		{name: "round hundred", basePrice: 500, wantRetail: 600, wantRange: 500},
		{name: "absent price", basePrice: 0, wantRetail: 0, wantRange: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder()
			doc, err := b.Build(sampleProduct(), nil, tt.basePrice, 0, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.basePrice, doc.BasePrice)
			assert.InDelta(t, tt.wantRetail, doc.RetailPrice, 0.001)
			assert.Equal(t, tt.wantRange, doc.PriceRange)
		})
	}
}

func TestBuild_StockAndDocumentFlags(t *testing.T) {
	b := newTestBuilder()

	doc, err := b.Build(sampleProduct(), nil, 0, 12, map[string]int{
		domain.DocTypeCertificate: 1,
		domain.DocTypeDrawing:     3,
	})
	require.NoError(t, err)

	assert.Equal(t, 12, doc.StockTotal)
	assert.True(t, doc.InStock)
	assert.True(t, doc.HasCertificate)
	assert.False(t, doc.HasManual)
	assert.True(t, doc.HasDrawing)

	empty, err := b.Build(sampleProduct(), nil, 0, 0, nil)
	require.NoError(t, err)
	assert.False(t, empty.InStock)
	assert.Equal(t, 0, empty.StockTotal)
}

func TestBuild_NormalizesTextFields(t *testing.T) {
	b := newTestBuilder()

	p := sampleProduct()
	p.Name = "Dirty\x00  Name"
	p.Description = "desc\t\twith\ttabs"

	doc, err := b.Build(p, []domain.Attribute{{Name: " Width ", Value: "10\x00mm"}}, 0, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, "Dirty Name", doc.Name)
	assert.Equal(t, "desc with tabs", doc.Description)
	assert.Equal(t, "Width", doc.Attributes[0].Name)
	assert.Equal(t, "10mm", doc.Attributes[0].Value)
}

func TestBuild_DocumentIdentity(t *testing.T) {
	b := newTestBuilder()

	doc, err := b.Build(sampleProduct(), nil, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "42", doc.ID())
}
