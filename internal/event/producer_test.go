package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/search-indexer/internal/domain"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func testProducer(w writer) *Producer {
	return &Producer{
		writer: w,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func sampleSummary() *domain.Summary {
	return &domain.Summary{
		Index:          "products_v4",
		Alias:          "products_current",
		Total:          1001,
		Processed:      1000,
		Errors:         1,
		Elapsed:        90 * time.Second,
		ElapsedSeconds: 90,
		PerSecond:      11.11,
	}
}

func TestPublishCompleted(t *testing.T) {
	w := &recordingWriter{}
	p := testProducer(w)

	err := p.PublishCompleted(context.Background(), "run-123", sampleSummary())
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, TopicReindexCompleted, msg.Topic)
	assert.Equal(t, "products_v4", string(msg.Key))

	var envelope Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &envelope))
	assert.Equal(t, TypeReindexCompleted, envelope.EventType)
	assert.Equal(t, "search_index", envelope.AggregateType)
	assert.Equal(t, "run-123", envelope.CorrelationID)
	assert.NotEmpty(t, envelope.EventID)

	var payload ReindexCompleted
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, int64(1000), payload.Processed)
	assert.Equal(t, int64(1), payload.Errors)
	assert.Equal(t, "products_current", payload.Alias)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, TypeReindexCompleted, headers["event_type"])
	assert.Equal(t, "search-indexer", headers["source"])
	assert.Equal(t, "run-123", headers["correlation_id"])
}

func TestPublishFailed(t *testing.T) {
	w := &recordingWriter{}
	p := testProducer(w)

	cause := errors.New("index creation failed")
	err := p.PublishFailed(context.Background(), "run-456", sampleSummary(), cause)
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	assert.Equal(t, TopicReindexFailed, w.messages[0].Topic)

	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &envelope))

	var payload ReindexFailed
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "index creation failed", payload.Reason)
}

func TestPublish_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker unreachable")}
	p := testProducer(w)

	err := p.PublishCompleted(context.Background(), "run-789", sampleSummary())
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicReindexCompleted)
}
