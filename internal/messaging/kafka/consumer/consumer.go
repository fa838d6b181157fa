package consumer

import (
	"context"
	"encoding/json"

	"leavedesk/internal/events"
	"leavedesk/internal/notification"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeNotificationQueue stamps delivery on notification records as
// their queued events come off the broker. Records that cannot be
// stamped stay uncommitted and are retried on the next fetch.
func ConsumeNotificationQueue(
	ctx context.Context,
	reader *kafkago.Reader,
	notificationRepo notification.Repository,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.notification_queue")
	log.Info("notification queue consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("notification queue consumer stopped")
				return
			}
			log.Error("fetch notification message failed", zap.Error(err))
			continue
		}

		var event events.NotificationQueuedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode notification_queued event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := notificationRepo.MarkDelivered(ctx, event.NotificationID); err != nil {
			log.Error("mark notification delivered failed",
				zap.String("notification_id", event.NotificationID),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit notification message failed", zap.Error(err))
			continue
		}

		log.Info("notification delivered",
			zap.String("notification_id", event.NotificationID),
			zap.String("recipient_id", event.RecipientID),
		)
	}
}
