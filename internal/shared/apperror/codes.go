package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeInvalidState        = "INVALID_STATE"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeStorageFailure     = "STORAGE_FAILURE"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
