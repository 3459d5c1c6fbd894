// Package event publishes rebuild lifecycle events to Kafka so downstream
// services can react to index cutovers.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Topics for rebuild lifecycle events.
const (
	TopicReindexCompleted = "ecommerce.search.reindex.completed"
	TopicReindexFailed    = "ecommerce.search.reindex.failed"
)

// Event types carried in the envelope.
const (
	TypeReindexCompleted = "search.reindex.completed"
	TypeReindexFailed    = "search.reindex.failed"
)

const source = "search-indexer"

// Envelope is the standard event wrapper for all published messages.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Data          json.RawMessage `json:"data"`
}

// ReindexCompleted is the payload published after a successful cutover.
type ReindexCompleted struct {
	Index          string  `json:"index"`
	Alias          string  `json:"alias"`
	Total          int64   `json:"total"`
	Processed      int64   `json:"processed"`
	Errors         int64   `json:"errors"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	PerSecond      float64 `json:"per_second"`
}

// ReindexFailed is the payload published when a run aborts before cutover.
type ReindexFailed struct {
	Index     string `json:"index"`
	Alias     string `json:"alias"`
	Processed int64  `json:"processed"`
	Errors    int64  `json:"errors"`
	Reason    string `json:"reason"`
}

// newEnvelope wraps a payload with a generated ID and current timestamp.
// The run ID doubles as the correlation ID so logs and events line up.
func newEnvelope(eventType, index, runID string, data any) (*Envelope, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		AggregateID:   index,
		AggregateType: "search_index",
		Version:       1,
		Timestamp:     time.Now().UTC(),
		Source:        source,
		CorrelationID: runID,
		Data:          dataBytes,
	}, nil
}

// marshal serializes the envelope to JSON bytes.
func (e *Envelope) marshal() ([]byte, error) {
	return json.Marshal(e)
}
