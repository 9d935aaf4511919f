package lsp

import "errors"

// Diagnostic errors.
var (
	// ErrInvalidRange indicates a protocol range whose end precedes its start.
	ErrInvalidRange = errors.New("invalid diagnostic range")

	// ErrNoSnapshot indicates a publish without a snapshot to anchor against.
	ErrNoSnapshot = errors.New("publish has no snapshot")

	// ErrForeignSnapshot indicates a snapshot of another buffer.
	ErrForeignSnapshot = errors.New("snapshot belongs to another buffer")

	// ErrCacheSchema indicates a cache file written by another format version.
	ErrCacheSchema = errors.New("diagnostic cache schema mismatch")
)
