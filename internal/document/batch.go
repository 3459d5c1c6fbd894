package document

import "github.com/utafrali/search-indexer/internal/domain"

// DefaultBatchSize is the number of documents per bulk write when the
// configuration does not say otherwise.
const DefaultBatchSize = 500

// Batch buffers built documents until they are worth a bulk write. It does
// no I/O; the pipeline drains it into the index engine.
type Batch struct {
	size int
	docs []domain.SearchDocument
}

// NewBatch creates an accumulator that signals a flush at the given size.
// A non-positive size falls back to DefaultBatchSize.
func NewBatch(size int) *Batch {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &Batch{
		size: size,
		docs: make([]domain.SearchDocument, 0, size),
	}
}

// Add appends a document to the pending batch.
func (b *Batch) Add(doc domain.SearchDocument) {
	b.docs = append(b.docs, doc)
}

// Len returns the number of buffered documents.
func (b *Batch) Len() int {
	return len(b.docs)
}

// ShouldFlush reports whether the batch has reached its configured size.
func (b *Batch) ShouldFlush() bool {
	return len(b.docs) >= b.size
}

// Drain returns the buffered documents and resets the batch to empty.
// The batch is drained after every submit attempt regardless of outcome;
// failed items are counted by the caller, not retried here.
func (b *Batch) Drain() []domain.SearchDocument {
	out := b.docs
	b.docs = make([]domain.SearchDocument, 0, b.size)
	return out
}
