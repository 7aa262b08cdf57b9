package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrOffsetOutOfRange indicates an offset is outside the valid document range.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrRangeInvalid indicates an invalid range (e.g., a negative count).
	ErrRangeInvalid = errors.New("invalid range")

	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrCheckpointNotFound indicates a checkpoint was not found.
	ErrCheckpointNotFound = errors.New("checkpoint not found")

	// ErrForeignSnapshot indicates a snapshot taken from another document.
	ErrForeignSnapshot = errors.New("snapshot belongs to another document")

	// ErrReadOnly indicates an operation was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)
