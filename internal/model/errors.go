package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Session errors
	ErrAuthRequired = errors.New("authentication required")

	// Score errors
	ErrScoreNotFound = errors.New("score record not found")
	ErrUnknownGame   = errors.New("unknown game")

	// Input errors
	ErrValidation = errors.New("validation failed")
)

// ValidationError describes a malformed input field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is match ErrValidation
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
