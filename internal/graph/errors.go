package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a graph error for callers and transports.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindDuplicateName Kind = "duplicate_name"
	KindStore         Kind = "store_failure"
	KindSync          Kind = "synchronization_failure"
)

// Error is the error type returned by every store operation.
// Message is safe to show to a user; Err keeps the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below, so errors.Is(err, ErrNotFound) works
// for any not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrDuplicateName = &Error{Kind: KindDuplicateName}
	ErrStore         = &Error{Kind: KindStore}
	ErrSync          = &Error{Kind: KindSync}
)

func validationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func duplicateName(name string) *Error {
	return &Error{Kind: KindDuplicateName, Message: fmt.Sprintf("dimension %q already exists", name)}
}

// storeFailure wraps a driver error. The driver text stays in Err only.
func storeFailure(op string, err error) error {
	var ge *Error
	if errors.As(err, &ge) {
		return err
	}
	return &Error{Kind: KindStore, Message: op + " failed", Err: err}
}

// KindOf returns the kind of err, or KindStore for foreign errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindStore
}

// Describe renders err as "<kind>: <message>" without exposing driver text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var ge *Error
	if errors.As(err, &ge) {
		return fmt.Sprintf("%s: %s", ge.Kind, ge.Message)
	}
	return fmt.Sprintf("%s: unexpected failure", KindStore)
}

// isUniqueViolation checks if an error is a SQLite UNIQUE/PRIMARY KEY constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
