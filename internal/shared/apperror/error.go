package apperror

import "fmt"

type AppError struct {
	Code       string // machine-readable kind (e.g., INSUFFICIENT_BALANCE)
	Message    string // user-facing message
	HTTPStatus int
	Err        error // wrapped cause (optional)
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap makes AppError compatible with errors.Is/As chains.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError without a wrapped cause.
func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap creates an AppError around an existing error. Returns nil for a nil cause.
func Wrap(err error, code, message string, httpStatus int) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}
