package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"description"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Authentication ----

func ErrMissingCredentials() *AppError {
	return New("AUTHENTICATION_ERROR", "Missing API credentials", http.StatusUnauthorized)
}

func ErrInvalidCredentials() *AppError {
	return New("AUTHENTICATION_ERROR", "Invalid API credentials", http.StatusUnauthorized)
}

// ---- Validation / Business Rules ----

func ErrAmountTooSmall() *AppError {
	return New("BAD_REQUEST_ERROR", "amount must be at least 100", http.StatusBadRequest)
}

func ErrPaymentNotRefundable() *AppError {
	return New("BAD_REQUEST_ERROR", "Payment not in refundable state", http.StatusBadRequest)
}

func ErrPaymentNotCapturable() *AppError {
	return New("BAD_REQUEST_ERROR", "Payment not in capturable state", http.StatusBadRequest)
}

func ErrRefundExceedsAvailable() *AppError {
	return New("BAD_REQUEST_ERROR", "Refund amount exceeds available amount", http.StatusBadRequest)
}

// Validation returns a BAD_REQUEST_ERROR with a custom description.
func Validation(message string) *AppError {
	return New("BAD_REQUEST_ERROR", message, http.StatusBadRequest)
}

// ---- Lookup ----

func ErrNotFound(entity string) *AppError {
	return New("NOT_FOUND_ERROR", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

// ---- Settlement (worker-side job failures) ----

// ErrRefundExceedsPayment marks the invariant breach detected at settlement
// time. The job fails loudly and the refund stays pending for operator
// inspection.
func ErrRefundExceedsPayment() *AppError {
	return New("REFUND_EXCEEDS_PAYMENT", "Refund amount exceeds payment amount", http.StatusUnprocessableEntity)
}

// ---- System & Infrastructure ----

// InternalError wraps an internal error as a SERVER_ERROR.
func InternalError(err error) *AppError {
	return Wrap("SERVER_ERROR", "Internal server error", http.StatusInternalServerError, err)
}
