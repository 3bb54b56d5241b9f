// Package guda structured error types for launch and buffer failures
package guda

import (
	"errors"
	"fmt"
)

// ErrorType represents categories of errors
type ErrorType int

const (
	// Memory errors
	ErrTypeMemory ErrorType = iota
	// Invalid argument errors
	ErrTypeInvalidArg
	// Execution errors
	ErrTypeExecution
	// Numerical errors
	ErrTypeNumerical
	// Device errors
	ErrTypeDevice
)

// GUDAError represents a structured error with context
type GUDAError struct {
	Type    ErrorType
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context
}

// Error implements the error interface
func (e *GUDAError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GUDA %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("GUDA %s error in %s: %s",
		e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection
func (e *GUDAError) Unwrap() error {
	return e.Err
}

// String returns the error type as a string
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeNumerical:
		return "Numerical"
	case ErrTypeDevice:
		return "Device"
	default:
		return "Unknown"
	}
}

// NewMemoryError creates a memory-related error
func NewMemoryError(op string, message string, err error) error {
	return &GUDAError{
		Type:    ErrTypeMemory,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewInvalidArgError creates an invalid argument error
func NewInvalidArgError(op string, message string) error {
	return &GUDAError{
		Type:    ErrTypeInvalidArg,
		Op:      op,
		Message: message,
	}
}

// NewExecutionError creates an execution error
func NewExecutionError(op string, message string, err error) error {
	return &GUDAError{
		Type:    ErrTypeExecution,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// NewNumericalError creates a numerical error. The context usually
// identifies the offending element.
func NewNumericalError(op string, message string, context interface{}) error {
	return &GUDAError{
		Type:    ErrTypeNumerical,
		Op:      op,
		Message: message,
		Context: context,
	}
}

var (
	// ErrInvalidSize indicates a non-positive element count
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrDoubleFree indicates double free attempt
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrInvalidDevice indicates invalid device ID
	ErrInvalidDevice = NewInvalidArgError("SetDevice", "invalid device ID")

	// ErrBarrierBroken is raised in work-items waiting on a barrier whose
	// group lost a member to a panic.
	ErrBarrierBroken = NewExecutionError("Barrier", "workgroup barrier broken", nil)

	// ErrBarrierDivergence indicates that some work-items of a group
	// returned while others were waiting on a barrier.
	ErrBarrierDivergence = NewExecutionError("Barrier", "work-items diverged at a barrier", nil)
)

func errorType(err error) (ErrorType, bool) {
	var e *GUDAError
	if errors.As(err, &e) {
		return e.Type, true
	}
	return 0, false
}

// IsMemoryError checks if an error is a memory error
func IsMemoryError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeMemory
}

// IsInvalidArgError checks if an error is an invalid argument error
func IsInvalidArgError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeInvalidArg
}

// IsExecutionError checks if an error is an execution error
func IsExecutionError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeExecution
}

// IsNumericalError checks if an error is a numerical error
func IsNumericalError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeNumerical
}
