// Package faults defines the error taxonomy shared by every service:
// validation, conflict, authorization and state errors map to caller
// facing responses, anything else is treated as an internal failure.
package faults

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindConflict      Kind = "CONFLICT"
	KindAuthorization Kind = "AUTHORIZATION"
	KindState         Kind = "STATE"
)

// Error is a classified, caller-facing error.
type Error struct {
	Kind    Kind
	Message string

	// ConflictingStart is set on conflict errors so the caller can see
	// which reservation start time collided with the request.
	ConflictingStart time.Time
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Validation reports malformed or out-of-policy input.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a slot that is no longer free, naming the colliding
// reservation's start time.
func Conflict(collidingStart time.Time, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), ConflictingStart: collidingStart}
}

// Authorization reports a caller acting on a resource it does not own.
func Authorization(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// State reports an operation invalid for the entity's current status.
func State(format string, args ...interface{}) *Error {
	return &Error{Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the classification of err, or false for unclassified
// (system) errors.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
