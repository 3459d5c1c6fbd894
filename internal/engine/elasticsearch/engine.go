// Package elasticsearch implements the index lifecycle surface against an
// Elasticsearch/OpenSearch compatible cluster.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/utafrali/search-indexer/internal/domain"
	"github.com/utafrali/search-indexer/internal/engine"
)

// Engine is an Elasticsearch-backed implementation of the engine.Indexer
// interface.
type Engine struct {
	client *elasticsearch.Client
	logger *slog.Logger
}

// esBulkResponse is the structure used to decode Elasticsearch bulk responses.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse is used to decode Elasticsearch error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// esCountResponse is used to decode count responses.
type esCountResponse struct {
	Count int `json:"count"`
}

// New creates a new Elasticsearch engine connected to the given URL.
func New(esURL string, logger *slog.Logger) (*Engine, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esURL},
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Engine{client: client, logger: logger}, nil
}

// Ping checks whether the Elasticsearch cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// CreateIndex drops any pre-existing index of the same name and creates a
// fresh one from the mapping document. The delete step tolerates absence so
// a crashed previous run can always be re-run.
func (e *Engine) CreateIndex(ctx context.Context, name, mapping string) error {
	if err := e.DeleteIndex(ctx, name); err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}

	res, err := e.client.Indices.Create(
		name,
		e.client.Indices.Create.WithBody(strings.NewReader(mapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
			return fmt.Errorf("create index %s: %s: %s", name, errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("create index %s: unexpected status %s", name, res.Status())
	}

	e.logger.Info("elasticsearch index created", slog.String("index", name))
	return nil
}

// DeleteIndex removes the given index. A 404 response is treated as success
// (index already absent).
func (e *Engine) DeleteIndex(ctx context.Context, name string) error {
	res, err := e.client.Indices.Delete(
		[]string{name},
		e.client.Indices.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete index %s: %w", name, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
			return fmt.Errorf("delete index %s: %s: %s", name, errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("delete index %s: unexpected status %s", name, res.Status())
	}

	if res.StatusCode == 404 {
		e.logger.Debug("elasticsearch index already absent", slog.String("index", name))
	} else {
		e.logger.Info("elasticsearch index deleted", slog.String("index", name))
	}
	return nil
}

// Bulk writes all documents in a single NDJSON bulk request. Per-item
// rejections are collected into the result; only a transport or whole-call
// protocol failure returns an error.
func (e *Engine) Bulk(ctx context.Context, index string, docs []domain.SearchDocument) (*engine.BulkResult, error) {
	if len(docs) == 0 {
		return &engine.BulkResult{}, nil
	}

	var buf bytes.Buffer
	for i := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": index,
				"_id":    docs[i].ID(),
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return nil, fmt.Errorf("bulk: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(docs[i]); err != nil {
			return nil, fmt.Errorf("bulk: encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("bulk: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
			return nil, fmt.Errorf("bulk: %s: %s", errResp.Error.Type, errResp.Error.Reason)
		}
		return nil, fmt.Errorf("bulk: unexpected status %s", res.Status())
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return nil, fmt.Errorf("bulk: decode response: %w", err)
	}

	result := &engine.BulkResult{Indexed: len(docs)}
	if bulkResp.Errors {
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type == "" {
				continue
			}
			result.Failed = append(result.Failed, engine.ItemError{
				ID:     item.Index.ID,
				Status: item.Index.Status,
				Reason: fmt.Sprintf("%s: %s", item.Index.Error.Type, item.Index.Error.Reason),
			})
		}
		result.Indexed = len(docs) - len(result.Failed)
	}

	return result, nil
}

// Refresh makes just-written documents visible to subsequent reads.
func (e *Engine) Refresh(ctx context.Context, index string) error {
	res, err := e.client.Indices.Refresh(
		e.client.Indices.Refresh.WithIndex(index),
		e.client.Indices.Refresh.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("refresh index %s: %w", index, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("refresh index %s: unexpected status %s", index, res.Status())
	}
	return nil
}

// SwapAlias repoints the alias to the given index. Existing bindings are
// looked up first and removed in the same update-aliases call that adds the
// new one, so the alias never resolves to nothing.
func (e *Engine) SwapAlias(ctx context.Context, alias, index string) error {
	bound, err := e.aliasIndices(ctx, alias)
	if err != nil {
		return fmt.Errorf("swap alias %s: %w", alias, err)
	}

	var actions []map[string]any
	for _, idx := range bound {
		if idx == index {
			continue
		}
		actions = append(actions, map[string]any{
			"remove": map[string]any{"index": idx, "alias": alias},
		})
	}
	actions = append(actions, map[string]any{
		"add": map[string]any{"index": index, "alias": alias},
	})

	body, err := json.Marshal(map[string]any{"actions": actions})
	if err != nil {
		return fmt.Errorf("swap alias %s: marshal actions: %w", alias, err)
	}

	res, err := e.client.Indices.UpdateAliases(
		bytes.NewReader(body),
		e.client.Indices.UpdateAliases.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("swap alias %s: %w", alias, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		var errResp esErrorResponse
		if decErr := json.NewDecoder(res.Body).Decode(&errResp); decErr == nil && errResp.Error.Type != "" {
			return fmt.Errorf("swap alias %s: %s: %s", alias, errResp.Error.Type, errResp.Error.Reason)
		}
		return fmt.Errorf("swap alias %s: unexpected status %s", alias, res.Status())
	}

	e.logger.Info("alias switched",
		slog.String("alias", alias),
		slog.String("index", index),
		slog.Any("unbound", bound),
	)
	return nil
}

// aliasIndices returns the indices the alias currently points at. An unknown
// alias yields an empty list.
func (e *Engine) aliasIndices(ctx context.Context, alias string) ([]string, error) {
	res, err := e.client.Indices.GetAlias(
		e.client.Indices.GetAlias.WithName(alias),
		e.client.Indices.GetAlias.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get alias: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 404 {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("get alias: unexpected status %s", res.Status())
	}

	var bindings map[string]json.RawMessage
	if err := json.NewDecoder(res.Body).Decode(&bindings); err != nil {
		return nil, fmt.Errorf("get alias: decode response: %w", err)
	}

	indices := make([]string, 0, len(bindings))
	for idx := range bindings {
		indices = append(indices, idx)
	}
	return indices, nil
}

// CountDocuments returns the number of documents in the given index.
func (e *Engine) CountDocuments(ctx context.Context, index string) (int, error) {
	res, err := e.client.Count(
		e.client.Count.WithIndex(index),
		e.client.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("count documents in %s: %w", index, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return 0, fmt.Errorf("count documents in %s: unexpected status %s", index, res.Status())
	}

	var countResp esCountResponse
	if err := json.NewDecoder(res.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("count documents in %s: decode response: %w", index, err)
	}
	return countResp.Count, nil
}
