package ledger

import (
	"context"
	"database/sql"
	"errors"

	ledgererrors "leavedesk/internal/ledger/errors"

	"go.uber.org/zap"
)

// Ledger owns the annual-leave day allowance. Debit and Credit are the
// only writers of employees.annual_leave_balance in the whole system.
//
// The balance invariant: never negative after a committed operation.
// Exactly-once semantics (one debit per final approval, one credit per
// reversal) are the caller's responsibility; the workflow tracks a
// was_debited flag on the request for that.
//
//go:generate mockgen -source=ledger.go -destination=mock/ledger_mock.go -package=mock
type Ledger interface {
	WithTx(tx *sql.Tx) Ledger
	Balance(ctx context.Context, employeeID string) (int, error)
	Debit(ctx context.Context, employeeID string, days int) error
	Credit(ctx context.Context, employeeID string, days int) error
}

type ledger struct {
	db     *sql.DB
	tx     *sql.Tx
	logger *zap.Logger
}

func New(db *sql.DB, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("ledger")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("ledger")
	}
	return &ledger{db: db, logger: l}
}

func (l *ledger) WithTx(tx *sql.Tx) Ledger {
	return &ledger{db: l.db, tx: tx, logger: l.logger}
}

// Balance reads the current allowance without locking. Used for the
// submission pre-flight check; the authoritative check happens again
// under a row lock at debit time.
func (l *ledger) Balance(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := l.querier().QueryRowContext(ctx, `
		SELECT annual_leave_balance FROM employees
		WHERE id = $1 AND deleted_at IS NULL
	`, employeeID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledgererrors.ErrEmployeeNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit decreases the balance by days. Fails with ErrInsufficientBalance
// without mutating anything when days exceed the current balance. The
// row stays locked until the surrounding transaction ends, so a
// concurrent debit on the same employee serializes behind this one.
func (l *ledger) Debit(ctx context.Context, employeeID string, days int) error {
	if days <= 0 {
		return ledgererrors.ErrInvalidAmount
	}

	balance, err := l.balanceForUpdate(ctx, employeeID)
	if err != nil {
		return err
	}
	if days > balance {
		l.logger.Warn("ledger debit refused",
			zap.String("employee_id", employeeID),
			zap.Int("days", days),
			zap.Int("balance", balance),
		)
		return ledgererrors.ErrInsufficientBalance
	}

	return l.setBalance(ctx, employeeID, balance-days)
}

// Credit increases the balance by days. Accepts any non-negative
// amount; zero is a no-op. No upper bound is enforced.
func (l *ledger) Credit(ctx context.Context, employeeID string, days int) error {
	if days < 0 {
		return ledgererrors.ErrInvalidAmount
	}
	if days == 0 {
		return nil
	}

	balance, err := l.balanceForUpdate(ctx, employeeID)
	if err != nil {
		return err
	}

	return l.setBalance(ctx, employeeID, balance+days)
}

func (l *ledger) balanceForUpdate(ctx context.Context, employeeID string) (int, error) {
	var balance int
	err := l.querier().QueryRowContext(ctx, `
		SELECT annual_leave_balance FROM employees
		WHERE id = $1 AND deleted_at IS NULL
		FOR UPDATE
	`, employeeID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ledgererrors.ErrEmployeeNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

func (l *ledger) setBalance(ctx context.Context, employeeID string, balance int) error {
	_, err := l.execer().ExecContext(ctx, `
		UPDATE employees
		SET annual_leave_balance = $2, updated_at = NOW()
		WHERE id = $1
	`, employeeID, balance)
	return err
}

func (l *ledger) querier() interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if l.tx != nil {
		return l.tx
	}
	return l.db
}

func (l *ledger) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if l.tx != nil {
		return l.tx
	}
	return l.db
}
