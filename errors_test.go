package guda

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType ErrorType
		wantOp   string
		wantMsg  string
		checkFn  func(error) bool
	}{
		{
			name:     "Double Free Error",
			err:      ErrDoubleFree,
			wantType: ErrTypeMemory,
			wantOp:   "Free",
			wantMsg:  "double free detected",
			checkFn:  IsMemoryError,
		},
		{
			name:     "Invalid Size Error",
			err:      ErrInvalidSize,
			wantType: ErrTypeInvalidArg,
			wantOp:   "Malloc",
			wantMsg:  "size must be positive",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Invalid Device Error",
			err:      ErrInvalidDevice,
			wantType: ErrTypeInvalidArg,
			wantOp:   "SetDevice",
			wantMsg:  "invalid device ID",
			checkFn:  IsInvalidArgError,
		},
		{
			name:     "Barrier Broken Error",
			err:      ErrBarrierBroken,
			wantType: ErrTypeExecution,
			wantOp:   "Barrier",
			wantMsg:  "workgroup barrier broken",
			checkFn:  IsExecutionError,
		},
		{
			name:     "Barrier Divergence Error",
			err:      ErrBarrierDivergence,
			wantType: ErrTypeExecution,
			wantOp:   "Barrier",
			wantMsg:  "work-items diverged at a barrier",
			checkFn:  IsExecutionError,
		},
		{
			name:     "Numerical Error",
			err:      NewNumericalError("Verify", "mismatch", 3),
			wantType: ErrTypeNumerical,
			wantOp:   "Verify",
			wantMsg:  "mismatch",
			checkFn:  IsNumericalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gudaErr, ok := tt.err.(*GUDAError)
			if !ok {
				t.Fatalf("Expected GUDAError, got %T", tt.err)
			}
			if gudaErr.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", gudaErr.Type, tt.wantType)
			}
			if gudaErr.Op != tt.wantOp {
				t.Errorf("Op = %v, want %v", gudaErr.Op, tt.wantOp)
			}
			if gudaErr.Message != tt.wantMsg {
				t.Errorf("Message = %v, want %v", gudaErr.Message, tt.wantMsg)
			}
			if !tt.checkFn(tt.err) {
				t.Errorf("Type check function returned false")
			}
			if tt.err.Error() == "" {
				t.Error("Error string is empty")
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	wrappedErr := NewExecutionError("Test", "wrapped error", baseErr)

	gudaErr, ok := wrappedErr.(*GUDAError)
	if !ok {
		t.Fatal("Expected GUDAError")
	}
	if unwrapped := gudaErr.Unwrap(); unwrapped != baseErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, baseErr)
	}
	if !errors.Is(wrappedErr, baseErr) {
		t.Error("errors.Is() should return true for wrapped error")
	}
}

func TestErrorPredicatesSeeThroughWrapping(t *testing.T) {
	err := fmt.Errorf("launch 3: %w", NewInvalidArgError("Launch", "bad range"))
	if !IsInvalidArgError(err) {
		t.Error("IsInvalidArgError should unwrap fmt.Errorf chains")
	}
	if IsMemoryError(err) || IsExecutionError(err) || IsNumericalError(err) {
		t.Error("only the invalid argument predicate should match")
	}
	if IsInvalidArgError(errors.New("plain")) {
		t.Error("plain errors are not GUDA errors")
	}
}

func TestErrorTypeString(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeMemory, "Memory"},
		{ErrTypeInvalidArg, "InvalidArgument"},
		{ErrTypeExecution, "Execution"},
		{ErrTypeNumerical, "Numerical"},
		{ErrTypeDevice, "Device"},
		{ErrorType(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", tt.errType, got, tt.want)
		}
	}
}
