// Package apperr defines the typed error taxonomy shared by services and
// handlers, so callers can tell "not authenticated" apart from "database
// down" instead of receiving a generic nil result.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an operation failure.
type Kind int

const (
	// KindAuthRequired means no caller identity was present where one is mandatory.
	KindAuthRequired Kind = iota
	// KindForbidden means the caller is known but not allowed to act on the target.
	KindForbidden
	// KindNotFound means the target row is absent or not visible to the caller.
	KindNotFound
	// KindValidation means the request content or target was malformed.
	KindValidation
	// KindInternal means a store or cache fault; callers must not retry
	// automatically, there is no idempotency key for creates.
	KindInternal
)

// Error carries a failure kind plus a human-readable message and an optional
// wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// AuthRequired builds a KindAuthRequired error.
func AuthRequired(msg string) *Error {
	return &Error{Kind: KindAuthRequired, Message: msg}
}

// Forbidden builds a KindForbidden error.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// NotFound builds a KindNotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Validation builds a KindValidation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Internal wraps a store/cache fault.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf extracts the Kind of err, defaulting to KindInternal for errors that
// did not originate from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsNotFound reports whether err is a KindNotFound error.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindNotFound
}
