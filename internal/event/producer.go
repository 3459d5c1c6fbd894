package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/utafrali/search-indexer/internal/domain"
)

// writer is the subset of kafka.Writer the producer uses. Tests swap in a
// recording implementation.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes rebuild lifecycle events.
type Producer struct {
	writer  writer
	brokers []string
	logger  *slog.Logger
}

// NewProducer creates a Kafka-backed producer.
func NewProducer(brokers []string, logger *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer:  w,
		brokers: brokers,
		logger:  logger,
	}
}

// PublishCompleted announces a successful rebuild and cutover.
func (p *Producer) PublishCompleted(ctx context.Context, runID string, summary *domain.Summary) error {
	payload := ReindexCompleted{
		Index:          summary.Index,
		Alias:          summary.Alias,
		Total:          summary.Total,
		Processed:      summary.Processed,
		Errors:         summary.Errors,
		ElapsedSeconds: summary.ElapsedSeconds,
		PerSecond:      summary.PerSecond,
	}
	return p.publish(ctx, TopicReindexCompleted, TypeReindexCompleted, runID, summary.Index, payload)
}

// PublishFailed announces an aborted rebuild. The previous index remains
// live, so consumers only need this for alerting.
func (p *Producer) PublishFailed(ctx context.Context, runID string, summary *domain.Summary, cause error) error {
	payload := ReindexFailed{
		Index:     summary.Index,
		Alias:     summary.Alias,
		Processed: summary.Processed,
		Errors:    summary.Errors,
		Reason:    cause.Error(),
	}
	return p.publish(ctx, TopicReindexFailed, TypeReindexFailed, runID, summary.Index, payload)
}

func (p *Producer) publish(ctx context.Context, topic, eventType, runID, index string, data any) error {
	envelope, err := newEnvelope(eventType, index, runID, data)
	if err != nil {
		return fmt.Errorf("build event envelope: %w", err)
	}

	value, err := envelope.marshal()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(envelope.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.EventType)},
			{Key: "source", Value: []byte(envelope.Source)},
			{Key: "correlation_id", Value: []byte(envelope.CorrelationID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish event to %s: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "event published",
		slog.String("topic", topic),
		slog.String("event_type", eventType),
		slog.String("aggregate_id", envelope.AggregateID),
	)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
