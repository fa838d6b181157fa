package auditlog

import (
	"context"
	"database/sql"
)

//go:generate mockgen -source=auditlog_repo.go -destination=mock/auditlog_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Append(ctx context.Context, e Entry) error
	ListRecent(ctx context.Context, limit, offset int) ([]Entry, error)
	Count(ctx context.Context) (int64, error)
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

func (r *repository) Append(ctx context.Context, e Entry) error {
	query := `
        INSERT INTO audit_log_entries (id, actor_name, activity, created_at)
        VALUES ($1, $2, $3, $4)
    `
	_, err := r.execer().ExecContext(ctx, query, e.ID, e.ActorName, e.Activity, e.CreatedAt)
	return err
}

// ListRecent returns entries newest first, the order the activity
// screen displays them in.
func (r *repository) ListRecent(ctx context.Context, limit, offset int) ([]Entry, error) {
	query := `
SELECT id, actor_name, activity, created_at
FROM audit_log_entries
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorName, &e.Activity, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_log_entries`).Scan(&count)
	return count, err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
