package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure; the HTTP layer maps kinds to status codes.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindDatesUnavailable  Kind = "dates_unavailable"
	KindConflict          Kind = "conflict"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindAlreadyTerminal   Kind = "already_terminal"
	KindInvalidTransition Kind = "invalid_transition"
	KindHoldExpired       Kind = "hold_expired"
	KindStorage           Kind = "storage_failure"
)

// Error is the error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// for every not-found error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDatesUnavailable  = &Error{Kind: KindDatesUnavailable, Message: "dates are not available"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden         = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrAlreadyTerminal   = &Error{Kind: KindAlreadyTerminal, Message: "booking is already in a terminal state"}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition, Message: "invalid booking transition"}
	ErrHoldExpired       = &Error{Kind: KindHoldExpired, Message: "booking hold has expired"}
	ErrStorage           = &Error{Kind: KindStorage, Message: "storage failure"}
)

// ErrConcurrentModification is returned by the store when a guarded update
// matched no row because another writer changed it first.
var ErrConcurrentModification = errors.New("concurrent modification")

func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a validation error with optional per-field messages.
func Validation(message string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// FieldError is a validation error for a single field.
func FieldError(field, message string) *Error {
	return Validation(message, map[string]string{field: message})
}

func NotFound(entity string, id int64) *Error {
	return Errorf(KindNotFound, "%s %d not found", entity, id)
}

func Forbidden(format string, args ...any) *Error {
	return Errorf(KindForbidden, format, args...)
}

// Storage wraps a driver error. Domain errors pass through unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf returns the kind of err, or KindStorage for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStorage
}
