// Package shared contains the error taxonomy and value objects used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// Storage errors
	ErrCorrupted        = errors.New("stored data is corrupted")
	ErrConcurrentAccess = errors.New("resource is locked by another writer")

	// Rendering errors
	ErrRenderFailed = errors.New("document rendering failed")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "study", "account", "report"
	Op      string // Operation that failed, e.g., "Validate", "Append"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// UserMessage returns the human-readable part without the domain prefix.
func (e *DomainError) UserMessage() string {
	return e.Message
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Study domain errors
var (
	ErrSubjectRequired      = NewDomainError("study", "Validate", ErrEmptyValue, "subject is required")
	ErrChapterRequired      = NewDomainError("study", "Validate", ErrEmptyValue, "chapter is required")
	ErrDateRequired         = NewDomainError("study", "Validate", ErrEmptyValue, "date is required")
	ErrInvalidDuration      = NewDomainError("study", "Validate", ErrValueOutOfRange, "duration must be between 1 and 1440 minutes")
	ErrInvalidConfidence    = NewDomainError("study", "Validate", ErrValueOutOfRange, "confidence rating must be between 1 and 5")
	ErrInvalidXPPolicy      = NewDomainError("study", "NewXPPolicy", ErrInvalidInput, "XP multipliers must be positive and non-decreasing")
	ErrUserLocked           = NewDomainError("study", "Lock", ErrConcurrentAccess, "another session is being logged for this user")
	ErrUnknownPeriod        = NewDomainError("report", "ResolvePeriod", ErrInvalidInput, "unknown report period")
	ErrInsufficientSessions = NewDomainError("report", "Analyze", ErrValidation, "not enough sessions for this analysis")
	ErrNoSessions           = NewDomainError("study", "Export", ErrNotFound, "no study sessions recorded")
	ErrUnknownFormat        = NewDomainError("study", "Export", ErrInvalidInput, "unknown export format")
)

// Account domain errors
var (
	ErrAccountNotFound      = NewDomainError("account", "Find", ErrNotFound, "username not found")
	ErrAccountAlreadyExists = NewDomainError("account", "Create", ErrAlreadyExists, "username already exists")
	ErrInvalidUsername      = NewDomainError("account", "Validate", ErrInvalidFormat, "username must be 3-32 letters, digits, '_', '-' or '.'")
	ErrPasswordTooShort     = NewDomainError("account", "Validate", ErrValidation, "password must be at least 6 characters")
	ErrPasswordMismatch     = NewDomainError("account", "Validate", ErrValidation, "passwords do not match")
	ErrWrongPassword        = NewDomainError("account", "Authenticate", ErrUnauthorized, "incorrect password")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsUnauthorized checks if the error is an authentication failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsCorrupted checks if stored data could not be decoded.
func IsCorrupted(err error) bool {
	return errors.Is(err, ErrCorrupted)
}

// UserMessage extracts a message suitable for showing to the end user.
// Domain errors yield their message; anything else yields fallback.
func UserMessage(err error, fallback string) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.UserMessage()
	}
	return fallback
}
