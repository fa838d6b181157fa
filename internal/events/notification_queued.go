package events

import "time"

const NotificationQueuedTopic = "leave.notification.v1"

const NotificationQueuedEventType = "notification_queued"

// NotificationQueuedEvent hands a persisted notification draft to the
// delivery pipeline. The record itself is already committed; this event
// only triggers delivery.
type NotificationQueuedEvent struct {
	EventType      string    `json:"event_type"`
	NotificationID string    `json:"notification_id"`
	RecipientID    string    `json:"recipient_id"`
	Category       string    `json:"category"`
	Message        string    `json:"message"`
	LeaveRequestID string    `json:"leave_request_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
