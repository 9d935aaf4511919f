package display

import "errors"

// Display map errors.
var (
	// ErrEmptyFold indicates a fold over an empty range.
	ErrEmptyFold = errors.New("fold range is empty")

	// ErrUnknownBlock indicates a block id that is not in the map.
	ErrUnknownBlock = errors.New("unknown block")

	// ErrForeignSnapshot indicates a snapshot of another buffer.
	ErrForeignSnapshot = errors.New("snapshot belongs to another buffer")
)
