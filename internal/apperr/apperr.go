// Package apperr defines the machine-checkable error kinds returned by the
// reservation and restriction services.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies the failure class independent of the message text.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindForbidden        Kind = "forbidden"
	KindConflict         Kind = "conflict"
	KindQuotaExceeded    Kind = "quota_exceeded"
	KindClosed           Kind = "closed"
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindAlreadyCancelled Kind = "already_cancelled"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error carries a kind plus a descriptive message. Callers branch on the
// kind; the message is for humans.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap builds an error of the given kind around an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// InvalidInput is shorthand for New(KindInvalidInput, ...).
func InvalidInput(format string, args ...interface{}) *Error {
	return New(KindInvalidInput, format, args...)
}

// NotFound is shorthand for New(KindNotFound, ...).
func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// Forbidden is shorthand for New(KindForbidden, ...).
func Forbidden(format string, args ...interface{}) *Error {
	return New(KindForbidden, format, args...)
}

// Conflict is shorthand for New(KindConflict, ...).
func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

// Store wraps a persistence collaborator failure.
func Store(err error, format string, args ...interface{}) *Error {
	return Wrap(KindStoreUnavailable, err, format, args...)
}

// KindOf extracts the kind from an error chain. Unclassified errors map to
// KindStoreUnavailable since the only unclassified failures the services
// produce come from collaborators.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreUnavailable
}

// IsKind reports whether the error chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
