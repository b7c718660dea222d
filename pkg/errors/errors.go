package errors

import (
	"errors"
	"fmt"
)

// Domain error kinds. Every failure surfaced by this module wraps one of these,
// so callers can branch with errors.Is without parsing messages.

var (
	// ErrConfig indicates bad or missing configuration: environment file not
	// found, unparseable, not a mapping, unknown environment name, or a missing
	// required field
	ErrConfig = errors.New("configuration error")

	// ErrConnection indicates pool construction or liveness-probe failure
	ErrConnection = errors.New("connection error")

	// ErrArchive indicates a failure writing report snapshots to the archive store
	ErrArchive = errors.New("archive error")

	// ErrInternal indicates an unexpected internal error
	ErrInternal = errors.New("internal error")
)

// MultiError collects errors from operations that must keep going after a
// failure, such as disposing every cached pool
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	default:
		return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
	}
}

// Unwrap exposes the collected errors to errors.Is / errors.As
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add appends a non-nil error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
