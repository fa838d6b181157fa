package ledgererrors

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
)

var (
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"requested days exceed the remaining annual leave balance",
		http.StatusUnprocessableEntity,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"ledger amount must be a positive number of days",
		http.StatusBadRequest,
	)
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found in ledger",
		http.StatusNotFound,
	)
)
