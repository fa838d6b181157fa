package producer

import (
	"context"

	"leavedesk/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// Messages are keyed by aggregate id so one request's events stay
// ordered within a partition.
func (w *Worker) publish(ctx context.Context, event kafka.OutboxEvent) error {
	return w.writer.WriteMessages(ctx, kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(event.ID)},
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "trace_id", Value: []byte(event.TraceID)},
		},
	})
}
