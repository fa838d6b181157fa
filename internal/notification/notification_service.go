package notification

import (
	"context"
	"net/http"
	"time"

	"leavedesk/internal/shared/apperror"
)

var ErrNotificationNotFound = apperror.New(
	apperror.CodeNotFound,
	"notification not found",
	http.StatusNotFound,
)

type NotificationResponse struct {
	ID             string     `json:"id"`
	Category       string     `json:"category"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	LeaveRequestID *string    `json:"leaveRequestId"`
	ReadAt         *time.Time `json:"readAt"`
	DeliveredAt    *time.Time `json:"deliveredAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

//go:generate mockgen -source=notification_service.go -destination=mock/notification_service_mock.go -package=mock
type Service interface {
	ListMine(ctx context.Context, recipientID string, limit, offset int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) ListMine(ctx context.Context, recipientID string, limit, offset int) ([]NotificationResponse, int64, error) {
	notifications, err := s.repo.ListForRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	unread, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]NotificationResponse, len(notifications))
	for i, n := range notifications {
		item := NotificationResponse{
			ID:          n.ID.String(),
			Category:    n.Category,
			Title:       n.Title,
			Message:     n.Message,
			ReadAt:      n.ReadAt,
			DeliveredAt: n.DeliveredAt,
			CreatedAt:   n.CreatedAt,
		}
		if n.LeaveRequestID != nil {
			id := n.LeaveRequestID.String()
			item.LeaveRequestID = &id
		}
		resp[i] = item
	}
	return resp, unread, nil
}

func (s *service) MarkRead(ctx context.Context, id, recipientID string) error {
	updated, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return err
	}
	if !updated {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID string) error {
	return s.repo.MarkAllRead(ctx, recipientID)
}
