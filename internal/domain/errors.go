package domain

import (
	"errors"
	"fmt"
)

// Domain-specific errors for better error handling and user feedback
var (
	// ErrLinkNotFound is returned when a short code doesn't exist, and also
	// when an admin key doesn't match: the two cases must be
	// indistinguishable so link existence never leaks.
	ErrLinkNotFound = errors.New("link not found")

	// ErrLinkExpired is returned when accessing an expired or inactive link
	ErrLinkExpired = errors.New("link expired or inactive")

	// ErrInvalidURL is returned when the provided URL is invalid
	ErrInvalidURL = errors.New("invalid URL format")

	// ErrInvalidExpiry is returned when expires_in is outside 1..365
	ErrInvalidExpiry = errors.New("expiration days out of range")

	// ErrCodeExhausted is returned when unique code generation runs out of
	// retries. Practically unreachable; treated as a configuration fault.
	ErrCodeExhausted = errors.New("unable to allocate a unique short code")

	// ErrDatabaseConnection is returned for database connectivity issues
	ErrDatabaseConnection = errors.New("database connection error")
)

// AppError wraps errors with additional context for better debugging
type AppError struct {
	Err        error  // Original error
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Internal   bool   // Whether to log as internal error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Err:        ErrLinkNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Internal:   false,
	}
}

// NewValidationError creates a 400 validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Err:        ErrInvalidURL,
		Message:    message,
		StatusCode: 400,
		Internal:   false,
	}
}

// NewInternalError creates a 500 internal server error
func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "Internal server error occurred",
		StatusCode: 500,
		Internal:   true, // Log this error
	}
}
