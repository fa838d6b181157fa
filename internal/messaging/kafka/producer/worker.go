package producer

import (
	"context"
	"time"

	"leavedesk/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const drainBatchSize = 50

// Worker drains the transactional outbox to the broker. Rows that fail
// to publish stay in the outbox with backoff; delivery is at-least-once
// and consumers are expected to dedupe on event id.
type Worker struct {
	repo   kafka.OutboxRepository
	writer *kafkago.Writer
	logger *zap.Logger
	poll   time.Duration
}

func NewWorker(repo kafka.OutboxRepository, writer *kafkago.Writer, logger *zap.Logger, poll time.Duration) *Worker {
	if poll <= 0 {
		poll = 3 * time.Second
	}
	return &Worker{
		repo:   repo,
		writer: writer,
		logger: logger.Named("kafka.producer.worker"),
		poll:   poll,
	}
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	w.logger.Info("outbox worker started", zap.Duration("poll_interval", w.poll))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker stopped")
			return
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.Error("outbox drain failed", zap.Error(err))
			}
		}
	}
}

func (w *Worker) drain(ctx context.Context) error {
	events, err := w.repo.ListPending(ctx, drainBatchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		log := w.logger.With(
			zap.String("outbox_id", event.ID),
			zap.String("event_type", event.EventType),
			zap.String("topic", event.Topic),
		)

		if err := w.publish(ctx, event); err != nil {
			log.Error("publish failed",
				zap.Int("retry_count", event.RetryCount),
				zap.Error(err),
			)
			_ = w.repo.MarkFailed(ctx, event.ID, err.Error())
			continue
		}

		if err := w.repo.MarkSent(ctx, event.ID); err != nil {
			log.Error("mark sent failed", zap.Error(err))
			continue
		}

		log.Info("outbox event sent")
	}

	return nil
}
