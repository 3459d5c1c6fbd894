// Package memory provides an in-memory engine.Indexer used in tests and
// local development where no Elasticsearch cluster is available.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/utafrali/search-indexer/internal/domain"
	"github.com/utafrali/search-indexer/internal/engine"
)

// Engine keeps indexed documents in process memory. It is safe for
// concurrent use.
type Engine struct {
	mu      sync.RWMutex
	indices map[string]map[string]domain.SearchDocument
	aliases map[string]string

	bulkCalls int

	// PingErr, when set, is returned from Ping. Used by tests to simulate
	// an unreachable cluster.
	PingErr error

	// CreateErr, when set, is returned from CreateIndex.
	CreateErr error

	// RefreshErr, when set, is returned from Refresh.
	RefreshErr error

	// SwapErr, when set, is returned from SwapAlias.
	SwapErr error

	// RejectIDs lists document IDs that Bulk reports as per-item failures.
	RejectIDs map[string]bool
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{
		indices: make(map[string]map[string]domain.SearchDocument),
		aliases: make(map[string]string),
	}
}

func (e *Engine) Ping(_ context.Context) error {
	return e.PingErr
}

func (e *Engine) CreateIndex(_ context.Context, name, _ string) error {
	if e.CreateErr != nil {
		return e.CreateErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.indices[name] = make(map[string]domain.SearchDocument)
	return nil
}

func (e *Engine) DeleteIndex(_ context.Context, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.indices, name)
	return nil
}

func (e *Engine) Bulk(_ context.Context, index string, docs []domain.SearchDocument) (*engine.BulkResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bulkCalls++

	idx, ok := e.indices[index]
	if !ok {
		return nil, fmt.Errorf("memory: index %s does not exist", index)
	}

	result := &engine.BulkResult{}
	for i := range docs {
		id := docs[i].ID()
		if e.RejectIDs[id] {
			result.Failed = append(result.Failed, engine.ItemError{
				ID:     id,
				Status: 400,
				Reason: "rejected by test configuration",
			})
			continue
		}
		idx[id] = docs[i]
		result.Indexed++
	}
	return result, nil
}

func (e *Engine) Refresh(_ context.Context, _ string) error {
	return e.RefreshErr
}

func (e *Engine) SwapAlias(_ context.Context, alias, index string) error {
	if e.SwapErr != nil {
		return e.SwapErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indices[index]; !ok {
		return fmt.Errorf("memory: index %s does not exist", index)
	}
	e.aliases[alias] = index
	return nil
}

func (e *Engine) CountDocuments(_ context.Context, index string) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	name := index
	if target, ok := e.aliases[index]; ok {
		name = target
	}
	idx, ok := e.indices[name]
	if !ok {
		return 0, fmt.Errorf("memory: index %s does not exist", index)
	}
	return len(idx), nil
}

// Alias returns the index an alias currently points at.
func (e *Engine) Alias(alias string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	index, ok := e.aliases[alias]
	return index, ok
}

// Documents returns a copy of all documents in the given index.
func (e *Engine) Documents(index string) map[string]domain.SearchDocument {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]domain.SearchDocument, len(e.indices[index]))
	for id, doc := range e.indices[index] {
		out[id] = doc
	}
	return out
}

// BulkCalls returns how many bulk writes were issued.
func (e *Engine) BulkCalls() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bulkCalls
}
