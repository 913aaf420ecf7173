// Package errors provides the application error type shared by services and
// handlers. Services return *AppError so handlers can render a stable code and
// message without leaking internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped copies
// still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound  = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrDuplicateTransaction = &AppError{Code: "DUPLICATE_TRANSACTION", Message: "A transaction with this external id already exists on the account", StatusCode: http.StatusConflict}
	ErrImportFailed         = &AppError{Code: "IMPORT_FAILED", Message: "Transactions could not be imported", StatusCode: http.StatusUnprocessableEntity}
)

// Claim and tracing errors.
var (
	ErrClaimNotFound = &AppError{Code: "CLAIM_NOT_FOUND", Message: "Separate property claim not found", StatusCode: http.StatusNotFound}
	ErrJobNotFound   = &AppError{Code: "JOB_NOT_FOUND", Message: "Recalculation job not found", StatusCode: http.StatusNotFound}
	ErrQueueClosed   = &AppError{Code: "QUEUE_CLOSED", Message: "Recalculation queue is not accepting jobs", StatusCode: http.StatusServiceUnavailable}

	ErrDataUnavailable     = &AppError{Code: "DATA_UNAVAILABLE", Message: "Ledger data required for the calculation is unavailable", StatusCode: http.StatusUnprocessableEntity}
	ErrOrderingConflict    = &AppError{Code: "ORDERING_CONFLICT", Message: "Transactions cannot be totally ordered", StatusCode: http.StatusConflict}
	ErrArithmeticInvariant = &AppError{Code: "ARITHMETIC_INVARIANT_VIOLATION", Message: "Calculation produced an out-of-range traceable amount", StatusCode: http.StatusInternalServerError}
	ErrTraceRangeExceeded  = &AppError{Code: "TRACE_RANGE_EXCEEDED", Message: "Claim date range exceeds the configured tracing bound", StatusCode: http.StatusUnprocessableEntity}
)
