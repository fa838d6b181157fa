package auditlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EntryResponse struct {
	ID        string    `json:"id"`
	ActorName string    `json:"actorName"`
	Activity  string    `json:"activity"`
	CreatedAt time.Time `json:"createdAt"`
}

//go:generate mockgen -source=auditlog_service.go -destination=mock/auditlog_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context, limit, offset int) ([]EntryResponse, int64, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, limit, offset int) ([]EntryResponse, int64, error) {
	entries, err := s.repo.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	resp := make([]EntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = EntryResponse{
			ID:        e.ID.String(),
			ActorName: e.ActorName,
			Activity:  e.Activity,
			CreatedAt: e.CreatedAt,
		}
	}
	return resp, total, nil
}

// NewEntry builds an entry stamped now. The caller appends it inside
// the transaction of the transition it describes.
func NewEntry(actorName, activity string) Entry {
	return Entry{
		ID:        uuid.New(),
		ActorName: actorName,
		Activity:  activity,
		CreatedAt: time.Now(),
	}
}
