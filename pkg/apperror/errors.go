package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Transient  bool   `json:"-"` // Retryable failures: timeouts, connection refusal, overload
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

// ---- Validation (VAL) ----

// Validation returns a request-rejection error; these never enter the queue.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Amount must be greater than zero", http.StatusBadRequest)
}

func ErrAmountTooLarge(max string) *AppError {
	return New("VAL_003", fmt.Sprintf("Amount exceeds the maximum of %s", max), http.StatusBadRequest)
}

func ErrSameAccount() *AppError {
	return New("VAL_004", "Source and destination accounts must differ", http.StatusBadRequest)
}

// ---- Transfer Business Logic (TRF) ----

func ErrInsufficientFunds() *AppError {
	return New("TRF_001", "Insufficient funds in source account", http.StatusBadRequest)
}

func ErrAccountNotFound(accountID string) *AppError {
	return New("TRF_002", fmt.Sprintf("Account %s not found", accountID), http.StatusNotFound)
}

func ErrTransactionNotFound() *AppError {
	return New("TRF_003", "Transaction not found", http.StatusNotFound)
}

func ErrDuplicateAccount() *AppError {
	return New("TRF_004", "Account already exists", http.StatusConflict)
}

// ---- Infrastructure (INF) ----

// ErrTransient marks a failure as likely to succeed on retry:
// timeout, connection refusal, downstream overload.
func ErrTransient(err error) *AppError {
	e := Wrap("INF_001", "Transient downstream failure", http.StatusServiceUnavailable, err)
	e.Transient = true
	return e
}

// ErrCircuitOpen is the synthetic failure produced when the breaker is
// protecting a degraded dependency. Classified transient: the dependency
// may recover before the message is redelivered.
func ErrCircuitOpen(service string) *AppError {
	e := New("INF_002", fmt.Sprintf("Circuit breaker open for %s", service), http.StatusServiceUnavailable)
	e.Transient = true
	return e
}

func ErrIdempotencyStore(err error) *AppError {
	return Wrap("INF_003", "Idempotency store unavailable", http.StatusServiceUnavailable, err)
}

// ---- System (SYS) ----

// InternalError wraps an unexpected error. Deliberately non-transient:
// retrying an unknown failure risks masking a bug as a transient condition.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

func ErrDatabaseError(err error) *AppError {
	return Wrap("SYS_002", "Internal database error", http.StatusInternalServerError, err)
}

// IsTransient reports whether err should be retried. AppErrors carry an
// explicit classification; raw network timeouts and context deadline
// expiry count as transient, everything else is permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Transient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}
