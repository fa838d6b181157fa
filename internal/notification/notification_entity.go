package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	CategoryInfo    = "info"
	CategoryWarning = "warning"
	CategorySuccess = "success"
)

// Notification is one in-app message for one recipient. Rows are
// written inside the workflow transaction that caused them; delivery
// over the broker is stamped later by the consumer.
type Notification struct {
	ID             uuid.UUID
	RecipientID    uuid.UUID
	Category       string
	Title          string
	Message        string
	LeaveRequestID *uuid.UUID
	ReadAt         *time.Time
	DeliveredAt    *time.Time
	CreatedAt      time.Time
}

// Draft is an unpersisted notification produced by a dispatcher. The
// workflow assigns IDs and timestamps when it persists the batch.
type Draft struct {
	RecipientID    uuid.UUID
	Category       string
	Title          string
	Message        string
	LeaveRequestID *uuid.UUID
}

func FromDraft(d Draft) Notification {
	return Notification{
		ID:             uuid.New(),
		RecipientID:    d.RecipientID,
		Category:       d.Category,
		Title:          d.Title,
		Message:        d.Message,
		LeaveRequestID: d.LeaveRequestID,
		CreatedAt:      time.Now(),
	}
}
