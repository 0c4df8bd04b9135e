// Package errors provides domain-specific error types and sentinel errors
// for improved error handling across the application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common scenarios.
// Use errors.Is() to check these errors in your code.
var (
	// ErrNotRegistered indicates the user has not completed onboarding.
	ErrNotRegistered = errors.New("user not registered")

	// ErrSessionExpired indicates a dialog session was cleared or timed out
	// before the incoming event referenced it.
	ErrSessionExpired = errors.New("session expired")

	// ErrUnparseableDate indicates no date anchor could be resolved from the text.
	ErrUnparseableDate = errors.New("unparseable date")

	// ErrPastDate indicates the resolved date/time precedes the current instant.
	ErrPastDate = errors.New("date is in the past")

	// ErrSlotOccupied indicates the requested window already holds an
	// appointment for this user.
	ErrSlotOccupied = errors.New("slot occupied")

	// ErrRateLimitExceeded indicates rate limit has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrInvalidInput indicates user provided invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timed out")
)

// ValidationError represents input validation failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// CalendarError represents calendar collaborator failures with context.
type CalendarError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *CalendarError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("calendar error (op=%s, status=%d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("calendar error (op=%s): %v", e.Operation, e.Err)
}

func (e *CalendarError) Unwrap() error {
	return e.Err
}

// NewCalendarError creates a new calendar error.
func NewCalendarError(operation string, statusCode int, err error) *CalendarError {
	return &CalendarError{
		Operation:  operation,
		StatusCode: statusCode,
		Err:        err,
	}
}
