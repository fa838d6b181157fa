package employee

import (
	"errors"
	"strings"

	employeeerrors "leavedesk/internal/employee/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapRepositoryError translates postgres unique violations into the
// module's typed conflicts; everything else passes through unchanged.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "nip"):
			return employeeerrors.ErrDuplicateNIP
		case strings.Contains(pgErr.ConstraintName, "email"):
			return employeeerrors.ErrDuplicateEmail
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") {
		if strings.Contains(errMsg, "nip") {
			return employeeerrors.ErrDuplicateNIP
		}
		if strings.Contains(errMsg, "email") {
			return employeeerrors.ErrDuplicateEmail
		}
	}

	return err
}
