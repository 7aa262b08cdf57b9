package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrUsage indicates the command line could not be understood.
	ErrUsage = errors.New("usage error")

	// ErrUnknownCommand indicates an unrecognized subcommand.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrLineOutOfRange indicates a line number outside the document.
	ErrLineOutOfRange = errors.New("line out of range")

	// ErrInvalidScript indicates a replay script that cannot be applied.
	ErrInvalidScript = errors.New("invalid script")

	// ErrStressMismatch indicates the engine diverged from the model.
	ErrStressMismatch = errors.New("stress mismatch")
)

// OperationError represents an error that occurred during a specific operation.
type OperationError struct {
	Op      string // Operation name (e.g., "stats", "replay")
	Target  string // Target of the operation (e.g., file path)
	Context string // Additional context
	Err     error  // Underlying error
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, target string, err error) *OperationError {
	return &OperationError{
		Op:     op,
		Target: target,
		Err:    err,
	}
}

// WithContext adds context to the error.
// Safe to call on nil receiver - returns nil.
func (e *OperationError) WithContext(ctx string) *OperationError {
	if e == nil {
		return nil
	}
	e.Context = ctx
	return e
}

func (e *OperationError) Error() string {
	if e == nil {
		return ""
	}

	msg := e.Op
	if e.Target != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Target)
	}
	if e.Context != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Context)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RecoveredPanicError wraps a panic value as an error.
type RecoveredPanicError struct {
	Value any
}

func (e *RecoveredPanicError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("panic: %v", e.Value)
}
