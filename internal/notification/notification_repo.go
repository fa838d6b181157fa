package notification

import (
	"context"
	"database/sql"
)

//go:generate mockgen -source=notification_repo.go -destination=mock/notification_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, n Notification) error
	ListForRecipient(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id, recipientID string) (bool, error)
	MarkAllRead(ctx context.Context, recipientID string) error
	MarkDelivered(ctx context.Context, id string) error
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) Create(ctx context.Context, n Notification) error {
	query := `
        INSERT INTO notifications (id, recipient_id, category, title, message, leave_request_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := r.execer().ExecContext(ctx, query,
		n.ID, n.RecipientID, n.Category, n.Title, n.Message, n.LeaveRequestID, n.CreatedAt)
	return err
}

func (r *repository) ListForRecipient(ctx context.Context, recipientID string, limit, offset int) ([]Notification, error) {
	query := `
SELECT id, recipient_id, category, title, message, leave_request_id, read_at, delivered_at, created_at
FROM notifications
WHERE recipient_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.db.QueryContext(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(
			&n.ID, &n.RecipientID, &n.Category, &n.Title, &n.Message,
			&n.LeaveRequestID, &n.ReadAt, &n.DeliveredAt, &n.CreatedAt,
		); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return notifications, nil
}

func (r *repository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM notifications
		WHERE recipient_id = $1 AND read_at IS NULL
	`, recipientID).Scan(&count)
	return count, err
}

// MarkRead only touches the recipient's own row; a false return means
// no such unread notification exists for them.
func (r *repository) MarkRead(ctx context.Context, id, recipientID string) (bool, error) {
	res, err := r.execer().ExecContext(ctx, `
		UPDATE notifications
		SET read_at = NOW()
		WHERE id = $1 AND recipient_id = $2 AND read_at IS NULL
	`, id, recipientID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := r.execer().ExecContext(ctx, `
		UPDATE notifications
		SET read_at = NOW()
		WHERE recipient_id = $1 AND read_at IS NULL
	`, recipientID)
	return err
}

func (r *repository) MarkDelivered(ctx context.Context, id string) error {
	_, err := r.execer().ExecContext(ctx, `
		UPDATE notifications
		SET delivered_at = NOW()
		WHERE id = $1 AND delivered_at IS NULL
	`, id)
	return err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
