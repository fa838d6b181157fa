package leaveerrors

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
)

var (
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"end date must not be before start date",
		http.StatusBadRequest,
	)
	ErrInvalidDays = apperror.New(
		apperror.CodeInvalidInput,
		"requested days must be a positive number",
		http.StatusBadRequest,
	)
	ErrInvalidTransition = apperror.New(
		apperror.CodeInvalidState,
		"the request's current status does not allow this action",
		http.StatusConflict,
	)
	ErrNotAuthorizedApprover = apperror.New(
		apperror.CodeForbidden,
		"you are not the current approver for this request",
		http.StatusForbidden,
	)
	ErrCancellationForbidden = apperror.New(
		apperror.CodeForbidden,
		"only the requester or an admin can cancel this request",
		http.StatusForbidden,
	)
	ErrReauthenticationFailed = apperror.New(
		apperror.CodeUnauthorized,
		"password confirmation failed",
		http.StatusUnauthorized,
	)
	ErrUnknownDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be APPROVE, REJECT or SUSPEND",
		http.StatusBadRequest,
	)

	// ErrPendingWithoutApprover marks a pending request whose next
	// approver is missing. This is a data corruption, not user error.
	ErrPendingWithoutApprover = apperror.New(
		apperror.CodeInternalError,
		"pending leave request has no current approver",
		http.StatusInternalServerError,
	)
)
