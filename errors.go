package hgemm

import (
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Configuration-invariant violations, caught before any execution
	ErrTypeConfig ErrorType = iota
	// Invalid argument errors
	ErrTypeInvalidArg
	// Execution errors
	ErrTypeExecution
	// Numerical errors reported by the verification collaborator
	ErrTypeNumerical
)

// GemmError represents a structured error with context
type GemmError struct {
	Type    ErrorType
	Op      string // Operation that failed
	Message string // Human-readable message
	Err     error  // Underlying error if any
}

// Error implements the error interface
func (e *GemmError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("hgemm %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("hgemm %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *GemmError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConfig:
		return "Configuration"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeNumerical:
		return "Numerical"
	default:
		return "Unknown"
	}
}

// Common error constructors

// NewConfigError creates a configuration-invariant violation. These are
// fatal: a configuration failing its static constraints never launches.
func NewConfigError(op string, message string) error {
	return &GemmError{
		Type:    ErrTypeConfig,
		Op:      op,
		Message: message,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &GemmError{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &GemmError{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewNumericalError creates a numerical error
func NewNumericalError(op string, message string) error {
	return &GemmError{
		Type:    ErrTypeNumerical,
		Op:      op,
		Message: message,
	}
}

// IsConfigError checks if an error is a configuration-invariant violation
func IsConfigError(err error) bool {
	if e, ok := err.(*GemmError); ok {
		return e.Type == ErrTypeConfig
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	if e, ok := err.(*GemmError); ok {
		return e.Type == ErrTypeInvalidArg
	}
	return false
}

// IsNumericalError checks if an error is a numerical error
func IsNumericalError(err error) bool {
	if e, ok := err.(*GemmError); ok {
		return e.Type == ErrTypeNumerical
	}
	return false
}
