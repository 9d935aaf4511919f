package buffer

import (
	"unicode/utf8"

	"github.com/dshills/stoat/internal/engine/rope"
)

// Snapshot provides a read-only view of a buffer at a specific version.
// It is safe for concurrent access and will not change even if the original
// buffer is modified.
type Snapshot struct {
	id         BufferID
	rope       rope.Rope
	history    history
	lineEnding LineEnding
}

// NewSnapshot returns a snapshot of a fresh buffer holding text.
func NewSnapshot(text string) *Snapshot {
	return NewBufferFromString(text).Snapshot()
}

// ID returns the id of the buffer the snapshot was taken from.
func (s *Snapshot) ID() BufferID {
	return s.id
}

// Version returns the number of edits the snapshot has observed.
func (s *Snapshot) Version() uint64 {
	return s.history.len()
}

// Observes returns true if the snapshot has seen every edit up to version.
func (s *Snapshot) Observes(version uint64) bool {
	return version <= s.Version()
}

// Text returns the full snapshot content as a string.
func (s *Snapshot) Text() string {
	return s.rope.String()
}

// TextRange returns text in the given byte range, clamped to the snapshot.
func (s *Snapshot) TextRange(start, end ByteOffset) string {
	return s.rope.Slice(start, end)
}

// TextForRange returns the text of r.
func (s *Snapshot) TextForRange(r Range) string {
	return s.rope.Slice(r.Start, r.End)
}

// Len returns the total byte length of the snapshot.
func (s *Snapshot) Len() ByteOffset {
	return s.rope.Len()
}

// IsEmpty returns true if the snapshot is empty.
func (s *Snapshot) IsEmpty() bool {
	return s.rope.IsEmpty()
}

// LineEnding returns the snapshot's line ending style.
func (s *Snapshot) LineEnding() LineEnding {
	return s.lineEnding
}

// LineCount returns the number of lines.
func (s *Snapshot) LineCount() uint32 {
	return s.rope.LineCount()
}

// LineText returns the text of a specific line (without newline).
func (s *Snapshot) LineText(line uint32) string {
	return s.rope.LineText(line)
}

// LineLen returns the length of a specific line in bytes (without newline).
func (s *Snapshot) LineLen(line uint32) uint32 {
	return s.rope.LineLen(line)
}

// LineStartOffset returns the byte offset of the start of a line.
func (s *Snapshot) LineStartOffset(line uint32) ByteOffset {
	return s.rope.LineStartOffset(line)
}

// LineEndOffset returns the byte offset of the end of a line (before newline).
func (s *Snapshot) LineEndOffset(line uint32) ByteOffset {
	return s.rope.LineEndOffset(line)
}

// RuneAt returns the rune at the given byte offset.
// Returns utf8.RuneError and size 0 if offset is out of range.
func (s *Snapshot) RuneAt(offset ByteOffset) (rune, int) {
	if offset < 0 || offset >= s.Len() {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRuneInString(s.rope.Slice(offset, offset+utf8.UTFMax))
}

// ClipOffset clamps an offset to [0, Len].
func (s *Snapshot) ClipOffset(offset ByteOffset) ByteOffset {
	return max(0, min(offset, s.Len()))
}

// ClipPoint clamps a point to the nearest position in the text.
func (s *Snapshot) ClipPoint(p Point) Point {
	return s.OffsetToPoint(s.PointToOffset(p))
}

// MaxPoint returns the position of the end of the text.
func (s *Snapshot) MaxPoint() Point {
	p := s.rope.Summary().Point()
	return Point{Line: p.Line, Column: p.Column}
}

// OffsetToPoint converts a byte offset to line/column.
func (s *Snapshot) OffsetToPoint(offset ByteOffset) Point {
	p := s.rope.OffsetToPoint(offset)
	return Point{Line: p.Line, Column: p.Column}
}

// PointToOffset converts line/column to byte offset.
func (s *Snapshot) PointToOffset(point Point) ByteOffset {
	return s.rope.PointToOffset(rope.Point{Line: point.Line, Column: point.Column})
}

// OffsetToPointUTF16 converts a byte offset to UTF-16 line/column.
func (s *Snapshot) OffsetToPointUTF16(offset ByteOffset) PointUTF16 {
	offset = s.ClipOffset(offset)
	point := s.rope.OffsetToPoint(offset)
	lineStart := s.rope.LineStartOffset(point.Line)
	return PointUTF16{
		Line:   point.Line,
		Column: utf16ColumnFromString(s.rope.Slice(lineStart, offset)),
	}
}

// PointUTF16ToOffset converts UTF-16 line/column to byte offset.
// Lines past the end clamp to the end of the text; columns past the end of
// a line clamp to the line end.
func (s *Snapshot) PointUTF16ToOffset(point PointUTF16) ByteOffset {
	if point.Line >= s.LineCount() {
		return s.Len()
	}
	lineStart := s.rope.LineStartOffset(point.Line)
	lineText := s.rope.Slice(lineStart, s.rope.LineEndOffset(point.Line))
	return lineStart + ByteOffset(byteOffsetFromUTF16Column(lineText, point.Column))
}

// AnchorBefore returns a Left-biased anchor at offset.
// Out-of-range offsets clamp to [0, Len].
func (s *Snapshot) AnchorBefore(offset ByteOffset) Anchor {
	return s.AnchorAt(offset, Left)
}

// AnchorAfter returns a Right-biased anchor at offset.
// Out-of-range offsets clamp to [0, Len].
func (s *Snapshot) AnchorAfter(offset ByteOffset) Anchor {
	return s.AnchorAt(offset, Right)
}

// AnchorAt returns an anchor at offset with the given bias.
func (s *Snapshot) AnchorAt(offset ByteOffset, bias Bias) Anchor {
	return Anchor{
		Buffer:  s.id,
		Version: s.Version(),
		Offset:  s.ClipOffset(offset),
		Bias:    bias,
	}
}

// AnchorRange returns an anchor range covering r that expands with text
// inserted at either end.
func (s *Snapshot) AnchorRange(r Range) AnchorRange {
	return AnchorRange{Start: s.AnchorBefore(r.Start), End: s.AnchorAfter(r.End)}
}

// ToOffset resolves an anchor to a byte offset in this snapshot by moving
// it across every edit between the anchor's version and the snapshot's.
// Anchors from a version the snapshot has not observed, or from another
// buffer, resolve to their recorded offset clamped to the snapshot.
func (s *Snapshot) ToOffset(a Anchor) ByteOffset {
	switch a.sentinel {
	case sentinelMin:
		return 0
	case sentinelMax:
		return s.Len()
	}

	off := a.Offset
	if a.Buffer == s.id && a.Version <= s.Version() {
		off, _ = s.history.transform(off, a.Bias, a.Version)
	}
	return s.ClipOffset(off)
}

// ToPoint resolves an anchor to a line/column position.
func (s *Snapshot) ToPoint(a Anchor) Point {
	return s.OffsetToPoint(s.ToOffset(a))
}
