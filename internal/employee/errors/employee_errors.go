package employeeerrors

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
)

var (
	ErrEmployeeNotFound = apperror.New(
		apperror.CodeNotFound,
		"employee not found",
		http.StatusNotFound,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrDuplicateNIP = apperror.New(
		apperror.CodeConflict,
		"an employee with this NIP already exists",
		http.StatusConflict,
	)
	ErrDuplicateEmail = apperror.New(
		apperror.CodeConflict,
		"an employee with this email already exists",
		http.StatusConflict,
	)
)
