package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidAction is returned for an unrecognized action discriminator.
	ErrInvalidAction = errors.New("invalid action")
	// ErrInsufficientStock is returned when an issue exceeds the stock on hand.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidCredentials is returned when a login does not match any user.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

// WrapError wraps an error with additional context.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
