package buffer

import "errors"

// Errors returned by buffer operations.
var (
	ErrRangeInvalid = errors.New("invalid range")
	ErrEditsOverlap = errors.New("edits overlap or are not in reverse order")
)
