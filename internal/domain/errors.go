package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur during scoring operations.
var (
	// ErrInvalidConfiguration indicates that scoring configuration is
	// invalid or incomplete: a missing criteria set, an unrecognized
	// normalization method, or a score referencing an unknown criterion.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInsufficientData indicates that an operation has fewer inputs
	// than its statistical floor: consensus needs at least two
	// evaluators, calibration at least ten historical scores.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrCriterionNotFound indicates that a submitted score references a
	// criterion absent from the criteria set.
	ErrCriterionNotFound = errors.New("criterion not found")

	// ErrUnknownMethod indicates an unrecognized normalization or
	// consensus method.
	ErrUnknownMethod = errors.New("unknown method")
)

// ConfigurationError represents a configuration failure that prevents an
// evaluation from proceeding. It is never retried and carries the component
// that rejected the configuration.
type ConfigurationError struct {
	// Component is the engine component that rejected the configuration.
	Component string

	// Detail describes what is wrong with the configuration.
	Detail string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error in %s: %s: %v", e.Component, e.Detail, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Detail)
}

// Unwrap returns the underlying error. When none was supplied it returns
// ErrInvalidConfiguration so errors.Is matching still works.
func (e *ConfigurationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidConfiguration
}

// NewConfigurationError creates a ConfigurationError with the given details.
func NewConfigurationError(component, detail string, err error) *ConfigurationError {
	return &ConfigurationError{Component: component, Detail: detail, Err: err}
}

// InsufficientDataError reports that an operation received fewer inputs
// than it needs to produce a statistically meaningful result. The caller
// must gather more data before retrying; the error message is intended to
// be actionable ("need more evaluators/history") rather than generic.
type InsufficientDataError struct {
	// Subject names what was in short supply, e.g. "evaluator scores".
	Subject string

	// Required is the minimum count needed.
	Required int

	// Actual is the count supplied.
	Actual int
}

// Error implements the error interface for InsufficientDataError.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: need at least %d %s, got %d", e.Required, e.Subject, e.Actual)
}

// Unwrap returns ErrInsufficientData, supporting errors.Is matching.
func (e *InsufficientDataError) Unwrap() error { return ErrInsufficientData }

// NewInsufficientDataError creates an InsufficientDataError with the given
// details.
func NewInsufficientDataError(subject string, required, actual int) *InsufficientDataError {
	return &InsufficientDataError{Subject: subject, Required: required, Actual: actual}
}

// ValidationError represents malformed input rejected at the boundary
// before any computation proceeds. It can accumulate multiple failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
