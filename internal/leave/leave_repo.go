package leave

import (
	"context"
	"database/sql"
	"errors"

	leaveerrors "leavedesk/internal/leave/errors"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, lr *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	// FindByIDForUpdate locks the request row for the duration of the
	// surrounding transaction, serializing concurrent transitions.
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	UpdateStatus(ctx context.Context, lr *LeaveRequest) error
	ListPendingForApprover(ctx context.Context, approverID string) ([]LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
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

const leaveColumns = `
	id, request_number, employee_id, leave_type_id, start_date, end_date,
	days, reason, status, next_approver_id, was_debited, attachment_ref,
	created_at, updated_at
`

func (r *repository) Create(ctx context.Context, lr *LeaveRequest) error {
	query := `
        INSERT INTO leave_requests (
            id, request_number, employee_id, leave_type_id, start_date, end_date,
            days, reason, status, next_approver_id, was_debited, attachment_ref,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
    `
	_, err := r.execer().ExecContext(ctx, query,
		lr.ID, lr.RequestNumber, lr.EmployeeID, lr.LeaveTypeID,
		lr.StartDate, lr.EndDate, lr.Days, lr.Reason, lr.Status,
		lr.NextApproverID, lr.WasDebited, lr.AttachmentRef, lr.CreatedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1`
	return r.scanOne(r.querier().QueryRowContext(ctx, query, id))
}

func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.querier().QueryRowContext(ctx, query, id))
}

// UpdateStatus writes the fields a transition is allowed to change.
// The immutable submission data (dates, days, reason) never moves.
func (r *repository) UpdateStatus(ctx context.Context, lr *LeaveRequest) error {
	query := `
		UPDATE leave_requests
		SET status = $2, next_approver_id = $3, was_debited = $4, updated_at = NOW()
		WHERE id = $1
	`
	_, err := r.execer().ExecContext(ctx, query,
		lr.ID, lr.Status, lr.NextApproverID, lr.WasDebited)
	return err
}

func (r *repository) ListPendingForApprover(ctx context.Context, approverID string) ([]LeaveRequest, error) {
	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE status = $1 AND next_approver_id = $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, StatusPending, approverID)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *repository) ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error) {
	query := `
		SELECT ` + leaveColumns + `
		FROM leave_requests
		WHERE employee_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	return r.scanAll(rows)
}

func (r *repository) scanOne(row *sql.Row) (*LeaveRequest, error) {
	var lr LeaveRequest
	err := row.Scan(
		&lr.ID, &lr.RequestNumber, &lr.EmployeeID, &lr.LeaveTypeID,
		&lr.StartDate, &lr.EndDate, &lr.Days, &lr.Reason, &lr.Status,
		&lr.NextApproverID, &lr.WasDebited, &lr.AttachmentRef,
		&lr.CreatedAt, &lr.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	if err != nil {
		return nil, err
	}
	return &lr, nil
}

func (r *repository) scanAll(rows *sql.Rows) ([]LeaveRequest, error) {
	defer rows.Close()

	requests := make([]LeaveRequest, 0)
	for rows.Next() {
		var lr LeaveRequest
		if err := rows.Scan(
			&lr.ID, &lr.RequestNumber, &lr.EmployeeID, &lr.LeaveTypeID,
			&lr.StartDate, &lr.EndDate, &lr.Days, &lr.Reason, &lr.Status,
			&lr.NextApproverID, &lr.WasDebited, &lr.AttachmentRef,
			&lr.CreatedAt, &lr.UpdatedAt,
		); err != nil {
			return nil, err
		}
		requests = append(requests, lr)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (r *repository) querier() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
