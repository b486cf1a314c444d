// Package coach provides the conversation handler that ties together
// access control, reply generation, profile extraction, and history.
package coach

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates that a connection to the storage backend failed.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrInvalidInput indicates that the provided input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageOperation indicates that a storage operation failed.
	ErrStorageOperation = errors.New("storage operation failed")

	// ErrLLMOperation indicates that an LLM operation failed.
	ErrLLMOperation = errors.New("llm operation failed")

	// ErrAccessDenied indicates that the user exhausted their access code attempts.
	ErrAccessDenied = errors.New("access denied")

	// ErrClosed indicates that the handler has been shut down.
	ErrClosed = errors.New("handler closed")
)

// CoachError wraps errors with operation context.
//
// It provides additional context about which operation failed,
// making error messages more informative for debugging.
type CoachError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "coachbot: <Op>: <Err>"
func (e *CoachError) Error() string {
	return fmt.Sprintf("coachbot: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *CoachError) Unwrap() error {
	return e.Err
}

// NewCoachError creates a new CoachError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewCoachError("HandleMessage", err)
//	}
func NewCoachError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CoachError{Op: op, Err: err}
}
