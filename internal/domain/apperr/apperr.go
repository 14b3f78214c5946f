// Package apperr defines the error taxonomy shared across use cases.
// Repositories and use cases wrap these sentinels with %w so callers can
// classify failures with errors.Is without depending on message text.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates no actor could be resolved for the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the actor lacks the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrPrecondition indicates a named precondition failed before any
	// mutation was applied.
	ErrPrecondition = errors.New("precondition failed")

	// ErrConflict indicates an invalid state transition.
	ErrConflict = errors.New("conflict")
)

// NotFound wraps ErrNotFound with an entity description
func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Forbidden wraps ErrForbidden with a reason
func Forbidden(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// Precondition wraps ErrPrecondition with the missing precondition
func Precondition(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPrecondition, fmt.Sprintf(format, args...))
}

// Conflict wraps ErrConflict with the rejected transition
func Conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
