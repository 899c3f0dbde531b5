package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Fields  []string `json:"fields,omitempty"`
	IDs     []string `json:"ids,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so Clone-d errors still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// Retryable reports whether the failure came from a remote collaborator and may succeed on retry.
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Code == ErrStorage.Code || e.Code == ErrOperationFailed.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrStorage            = New("STORAGE_ERROR", http.StatusServiceUnavailable, "storage unavailable, please retry")
	ErrOperationFailed    = New("OPERATION_FAILED", http.StatusServiceUnavailable, "bulk operation failed")
	ErrUnsupportedFile    = New("UNSUPPORTED_FILE", http.StatusUnsupportedMediaType, "unsupported file")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Validation builds a field-level validation error listing the offending fields.
func Validation(message string, fields ...string) *Error {
	clone := Clone(ErrValidation, message)
	if len(fields) > 0 {
		clone.Fields = append([]string(nil), fields...)
	}
	return clone
}

// Storage wraps a collaborator failure on a single record.
func Storage(err error, message string) *Error {
	return Wrap(err, ErrStorage.Code, ErrStorage.Status, message)
}

// OperationFailed reports a whole batch as failed, carrying every attempted id.
func OperationFailed(err error, action string, ids []string) *Error {
	e := Wrap(err, ErrOperationFailed.Code, ErrOperationFailed.Status, fmt.Sprintf("%s failed for %d record(s)", action, len(ids)))
	e.IDs = append([]string(nil), ids...)
	return e
}

// UnsupportedFile rejects an attachment by type or size.
func UnsupportedFile(reason string) *Error {
	return Clone(ErrUnsupportedFile, strings.TrimSpace("unsupported file: "+reason))
}
