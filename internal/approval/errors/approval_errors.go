package approvalerrors

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
)

var (
	ErrNoChainConfigured = apperror.New(
		apperror.CodeInvalidState,
		"no approval chain is configured for this department",
		http.StatusUnprocessableEntity,
	)
	ErrChainTooLong = apperror.New(
		apperror.CodeInvalidInput,
		"approval chain cannot exceed 3 approvers",
		http.StatusBadRequest,
	)
	ErrUnknownApprover = apperror.New(
		apperror.CodeInvalidInput,
		"approval chain references an unknown employee",
		http.StatusBadRequest,
	)
)
