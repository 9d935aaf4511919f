package engine

import "errors"

// Errors returned by engine operations.
var (
	// ErrNothingToUndo indicates the undo stack is empty.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates the redo stack is empty.
	ErrNothingToRedo = errors.New("nothing to redo")

	// ErrReadOnly indicates an edit was attempted on a read-only engine.
	ErrReadOnly = errors.New("engine is read-only")
)
