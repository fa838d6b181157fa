package kafka

import (
	"context"
	"database/sql"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

// OutboxEvent is one row of the transactional outbox. Rows are written
// on the same *sql.Tx as the state change that produced them, so an
// event exists iff the transition committed.
type OutboxEvent struct {
	ID            string
	TraceID       string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	query := `
INSERT INTO outbox_events
	(id, trace_id, aggregate_type, aggregate_id, event_type, topic, payload, status)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := r.execer().ExecContext(ctx, query,
		event.ID, event.TraceID, event.AggregateType, event.AggregateID,
		event.EventType, event.Topic, event.Payload, event.Status,
	)
	return err
}

// ListPending returns undelivered rows that are due, oldest first.
// Failed rows come back once their backoff window has elapsed.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	query := `
SELECT id::text, trace_id, aggregate_type, aggregate_id::text,
       event_type, topic, payload, status, retry_count
FROM outbox_events
WHERE status <> $1
  AND (next_attempt_at IS NULL OR next_attempt_at <= NOW())
ORDER BY created_at
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, query, OutboxStatusSent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.TraceID, &e.AggregateType, &e.AggregateID,
			&e.EventType, &e.Topic, &e.Payload, &e.Status, &e.RetryCount,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	query := `
UPDATE outbox_events
SET status = $2, last_error = NULL, sent_at = NOW(), updated_at = NOW()
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, OutboxStatusSent)
	return err
}

// MarkFailed records the error and schedules the next attempt with
// exponential backoff, capped at five minutes.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	query := `
UPDATE outbox_events
SET status = $2,
    retry_count = retry_count + 1,
    last_error = LEFT($3, 500),
    next_attempt_at = NOW() + LEAST(POWER(2, retry_count) * INTERVAL '5 seconds', INTERVAL '5 minutes'),
    updated_at = NOW()
WHERE id = $1
`
	_, err := r.db.ExecContext(ctx, query, id, OutboxStatusFailed, reason)
	return err
}

func (r *outboxRepository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
