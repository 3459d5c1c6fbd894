package document

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/utafrali/search-indexer/internal/domain"
)

func TestBatch_FlushBoundary(t *testing.T) {
	b := NewBatch(500)

	var flushes []int
	for i := 0; i < 1001; i++ {
		b.Add(domain.SearchDocument{ProductID: int64(i)})
		if b.ShouldFlush() {
			flushes = append(flushes, len(b.Drain()))
		}
	}
	if b.Len() > 0 {
		flushes = append(flushes, len(b.Drain()))
	}

	assert.Equal(t, []int{500, 500, 1}, flushes)
	assert.Equal(t, 0, b.Len())
}

func TestBatch_DrainResets(t *testing.T) {
	b := NewBatch(3)

	b.Add(domain.SearchDocument{ProductID: 1})
	b.Add(domain.SearchDocument{ProductID: 2})

	docs := b.Drain()
	assert.Len(t, docs, 2)
	assert.Equal(t, 0, b.Len())
	assert.False(t, b.ShouldFlush())

	// Add after drain starts a fresh batch.
	b.Add(domain.SearchDocument{ProductID: 3})
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, int64(3), b.Drain()[0].ProductID)
}

func TestBatch_ShouldFlush(t *testing.T) {
	b := NewBatch(2)
	assert.False(t, b.ShouldFlush())

	b.Add(domain.SearchDocument{ProductID: 1})
	assert.False(t, b.ShouldFlush())

	b.Add(domain.SearchDocument{ProductID: 2})
	assert.True(t, b.ShouldFlush())
}

func TestNewBatch_DefaultSize(t *testing.T) {
	b := NewBatch(0)
	for i := 0; i < DefaultBatchSize-1; i++ {
		b.Add(domain.SearchDocument{ProductID: int64(i)})
	}
	assert.False(t, b.ShouldFlush())
	b.Add(domain.SearchDocument{ProductID: 999})
	assert.True(t, b.ShouldFlush())
}
