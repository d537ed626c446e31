// Package errors provides custom error types for the platita API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
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

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrTooManyRequests    = &AppError{Code: "TOO_MANY_REQUESTS", Message: "Too many requests, slow down", StatusCode: http.StatusTooManyRequests}
)

// General errors. Ownership failures reuse the not-found sentinels so a
// resource that exists but belongs to someone else is indistinguishable
// from one that does not exist.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Ownership errors.
var (
	ErrAccountNotFound  = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrMovementNotFound = &AppError{Code: "MOVEMENT_NOT_FOUND", Message: "Movement not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse    = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing movements", StatusCode: http.StatusConflict}
)

// Linkage-consistency errors.
var (
	ErrMovementNotEditable       = &AppError{Code: "MOVEMENT_NOT_EDITABLE", Message: "Transfer legs can only be changed through the transfer operations", StatusCode: http.StatusBadRequest}
	ErrSameAccountTransfer       = &AppError{Code: "SAME_ACCOUNT_TRANSFER", Message: "Cannot transfer to the same account", StatusCode: http.StatusBadRequest}
	ErrAlreadyTransfer           = &AppError{Code: "ALREADY_TRANSFER", Message: "Movement is already part of a transfer", StatusCode: http.StatusConflict}
	ErrTransferNotFound          = &AppError{Code: "TRANSFER_NOT_FOUND", Message: "Transfer not found", StatusCode: http.StatusNotFound}
	ErrNotAReceivable            = &AppError{Code: "NOT_A_RECEIVABLE", Message: "Movement is not marked as receivable", StatusCode: http.StatusBadRequest}
	ErrReceivableAlreadyResolved = &AppError{Code: "RECEIVABLE_ALREADY_RESOLVED", Message: "Receivable has already been settled", StatusCode: http.StatusConflict}
	ErrPaymentAlreadyLinked      = &AppError{Code: "PAYMENT_ALREADY_LINKED", Message: "Income movement already settles another receivable", StatusCode: http.StatusConflict}
	ErrSplitSumMismatch          = &AppError{Code: "SPLIT_SUM_MISMATCH", Message: "Split amounts must add up to the original amount exactly", StatusCode: http.StatusBadRequest}
)

// External-dependency errors. The only class callers may treat as transient.
var (
	ErrRateUnavailable = &AppError{Code: "RATE_UNAVAILABLE", Message: "Exchange rate is currently unavailable", StatusCode: http.StatusServiceUnavailable}
)
