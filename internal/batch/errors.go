package batch

import "errors"

var (
	// ErrOverlappingEdits indicates two edits of one batch touch the same
	// tokens. The whole batch is rejected.
	ErrOverlappingEdits = errors.New("overlapping edits")

	// ErrIndexOutOfRange indicates an edit addressing tokens past the end
	// of the AST.
	ErrIndexOutOfRange = errors.New("token index out of range")

	// ErrNothingToUndo indicates an empty undo stack.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo indicates an empty redo stack.
	ErrNothingToRedo = errors.New("nothing to redo")
)
