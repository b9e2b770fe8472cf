package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode is a stable, client-visible error identifier
type ErrorCode string

const (
	// Generic
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeConflict     ErrorCode = "CONFLICT"

	// Raffle
	ErrCodeNoActiveEpoch        ErrorCode = "NO_ACTIVE_EPOCH"
	ErrCodeNoEntries            ErrorCode = "NO_ENTRIES"
	ErrCodeActiveEpochExists    ErrorCode = "ACTIVE_EPOCH_EXISTS"
	ErrCodeDuplicateTransaction ErrorCode = "DUPLICATE_TRANSACTION"

	// Chain oracle
	ErrCodeOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"
	ErrCodeOracleNotFound    ErrorCode = "ORACLE_NOT_FOUND"

	// Storage
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
)

// AppError is a typed application error
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"-"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeOracleNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation ||
		e.Code == ErrCodeBadRequest ||
		e.Code == ErrCodeNoActiveEpoch ||
		e.Code == ErrCodeNoEntries
}

func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized
}

func (e *AppError) IsConflict() bool {
	return e.Code == ErrCodeConflict ||
		e.Code == ErrCodeActiveEpochExists ||
		e.Code == ErrCodeDuplicateTransaction
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeDatabaseError ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeOracleUnavailable
}

// WithContext adds request context to the error
func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds a client-visible detail
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

// New creates an application error
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Stack:     getStackTrace(),
	}
}

// Wrap wraps an existing error
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewBadRequestError(reason string) *AppError {
	return New(ErrCodeBadRequest, reason)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

func NewNoActiveEpochError() *AppError {
	return New(ErrCodeNoActiveEpoch, "No active epoch")
}

func NewNoEntriesError(epochID uint) *AppError {
	return New(ErrCodeNoEntries, "Epoch has no entries, cannot draw a winner").
		WithDetail("epoch_id", epochID)
}

func NewActiveEpochExistsError(epochID uint) *AppError {
	return New(ErrCodeActiveEpochExists, "An active epoch already exists").
		WithDetail("epoch_id", epochID)
}

func NewDuplicateTransactionError(txHash string) *AppError {
	return New(ErrCodeDuplicateTransaction, "Transaction already processed").
		WithDetail("tx_hash", txHash)
}

func NewOracleUnavailableError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeOracleUnavailable, fmt.Sprintf("Chain oracle unavailable: %s", operation)).
		WithDetail("operation", operation)
}

func NewOracleNotFoundError(resource string) *AppError {
	return New(ErrCodeOracleNotFound, fmt.Sprintf("Not found on chain: %s", resource)).
		WithDetail("resource", resource)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError finds an AppError anywhere in the chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil && stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
