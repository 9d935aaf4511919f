package index

import "errors"

// Index errors.
var (
	// ErrTokenize is returned when the lexer fails. The previous tokens
	// are kept.
	ErrTokenize = errors.New("tokenize failed")

	// ErrForeignSnapshot is returned when a snapshot of another buffer is
	// synced into an index.
	ErrForeignSnapshot = errors.New("snapshot belongs to another buffer")
)
