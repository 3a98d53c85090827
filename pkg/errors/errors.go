package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes rendered in the "code" field of error responses.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeValidation       = "VALIDATION_ERROR"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

// Error is a domain error that knows its HTTP status. Two *Error values match
// under errors.Is when their codes are equal.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if e == nil || !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a code, status and message to err.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

var (
	ErrNotFound    = New(CodeNotFound, http.StatusNotFound, "resource not found")
	ErrConflict    = New(CodeConflict, http.StatusConflict, "conflict")
	ErrValidation  = New(CodeValidation, http.StatusBadRequest, "validation failed")
	ErrUnavailable = New(CodeStoreUnavailable, http.StatusServiceUnavailable, "student store unavailable")
	ErrInternal    = New(CodeInternal, http.StatusInternalServerError, "internal server error")
)

// ErrCacheMiss signals that a cache lookup found nothing for the key.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error. Deadline and cancellation
// errors become STORE_UNAVAILABLE; anything else untyped is INTERNAL_ERROR
// with a generic message so internals never leak to clients.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Wrap(err, ErrUnavailable.Code, ErrUnavailable.Status, ErrUnavailable.Message)
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies err, replacing its message when message is non-empty.
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
