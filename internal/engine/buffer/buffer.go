package buffer

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/dshills/stoat/internal/engine/rope"
)

// LineEnding specifies the line ending style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // Unix: \n
	LineEndingCRLF                   // Windows: \r\n
	LineEndingCR                     // Old Mac: \r
)

// String returns the string representation of the line ending.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Buffer is the single writable text of a document. Every applied edit is
// appended to an edit history that anchors are resolved through.
// All methods are thread-safe.
type Buffer struct {
	mu         sync.RWMutex
	id         BufferID
	rope       rope.Rope
	history    history
	lineEnding LineEnding
	logger     *slog.Logger
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		id:         NewBufferID(),
		rope:       rope.New(),
		lineEnding: LineEndingLF,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// NewBufferFromString creates a buffer with initial content.
// The initial content is version 0.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.rope = rope.FromString(b.normalizeLineEndings(s))
	return b
}

// NewBufferFromReader creates a buffer from an io.Reader.
func NewBufferFromReader(r io.Reader, opts ...Option) (*Buffer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read buffer: %w", err)
	}
	return NewBufferFromString(string(data), opts...), nil
}

// normalizeLineEndings converts all line endings to the buffer's preferred style.
func (b *Buffer) normalizeLineEndings(s string) string {
	if !strings.ContainsRune(s, '\r') && b.lineEnding == LineEndingLF {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	switch b.lineEnding {
	case LineEndingCRLF:
		s = strings.ReplaceAll(s, "\n", "\r\n")
	case LineEndingCR:
		s = strings.ReplaceAll(s, "\n", "\r")
	}
	return s
}

// ID returns the buffer's id.
func (b *Buffer) ID() BufferID {
	return b.id
}

// Version returns the number of edits applied so far.
func (b *Buffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.history.len()
}

// Len returns the total byte length of the buffer.
func (b *Buffer) Len() ByteOffset {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rope.Len()
}

// Text returns the full buffer content as a string.
func (b *Buffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.rope.String()
}

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lineEnding
}

// Insert inserts text at the given offset and returns the resulting patch.
func (b *Buffer) Insert(offset ByteOffset, text string) (Patch, error) {
	return b.ApplyEdit(NewInsert(offset, text))
}

// Delete removes text in the given range and returns the resulting patch.
func (b *Buffer) Delete(start, end ByteOffset) (Patch, error) {
	return b.ApplyEdit(NewDelete(start, end))
}

// Replace replaces text in the given range and returns the resulting patch.
func (b *Buffer) Replace(start, end ByteOffset, text string) (Patch, error) {
	return b.ApplyEdit(NewEdit(NewRange(start, end), text))
}

// ApplyEdit applies a single edit to the buffer.
func (b *Buffer) ApplyEdit(edit Edit) (Patch, error) {
	patches, err := b.ApplyEdits([]Edit{edit})
	if err != nil {
		return Patch{}, err
	}
	if len(patches) == 0 {
		return Patch{Old: edit.Range, New: Range{Start: edit.Range.Start, End: edit.Range.Start}}, nil
	}
	return patches[0], nil
}

// ApplyEdits applies multiple edits atomically.
// Edits must be in reverse order (highest offset first) and expressed in the
// coordinates of the current text. The returned patches are in ascending
// order; their New ranges are in the coordinates of the resulting text.
// No-op edits are skipped and produce no patch.
func (b *Buffer) ApplyEdits(edits []Edit) ([]Patch, error) {
	if len(edits) == 0 {
		return nil, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			return nil, fmt.Errorf("edit %d %s: %w", i, edits[i], ErrEditsOverlap)
		}
	}
	ropeLen := b.rope.Len()
	for i, edit := range edits {
		if edit.Range.Start < 0 || edit.Range.Start > edit.Range.End || edit.Range.End > ropeLen {
			return nil, fmt.Errorf("edit %d %s (len %d): %w", i, edit, ropeLen, ErrRangeInvalid)
		}
	}

	applied := make([]Patch, 0, len(edits))
	for _, edit := range edits {
		if edit.IsNoOp() {
			continue
		}
		text := b.normalizeLineEndings(edit.NewText)
		b.rope = b.rope.Replace(edit.Range.Start, edit.Range.End, text)
		b.history.append(editRecord{
			start:  edit.Range.Start,
			end:    edit.Range.End,
			newLen: ByteOffset(len(text)),
		})
		applied = append(applied, Patch{
			Old: edit.Range,
			New: Range{Start: edit.Range.Start, End: edit.Range.Start + ByteOffset(len(text))},
		})
	}

	// Applied highest first; shift each patch by the edits below it.
	patches := make([]Patch, len(applied))
	var delta ByteOffset
	for i := range applied {
		p := applied[len(applied)-1-i]
		p.New.Start += delta
		p.New.End += delta
		delta += p.Delta()
		patches[i] = p
	}

	b.logger.Debug("buffer edited",
		"buffer", b.id,
		"edits", len(patches),
		"version", b.history.len(),
	)
	return patches, nil
}

// Snapshot returns an immutable view of the current buffer state.
// Safe for concurrent access from other goroutines.
func (b *Buffer) Snapshot() *Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &Snapshot{
		id:         b.id,
		rope:       b.rope,
		history:    b.history.frozen(),
		lineEnding: b.lineEnding,
	}
}
