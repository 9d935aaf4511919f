package buffer

import (
	"cmp"
	"fmt"
)

// ByteOffset represents a byte position in the buffer.
// This is the fundamental position type, directly indexing into the text.
type ByteOffset = int64

// Point represents a line and column position.
// Both Line and Column are 0-indexed.
// Column is measured in bytes from the start of the line.
type Point struct {
	Line   uint32 // 0-indexed line number
	Column uint32 // 0-indexed column (byte offset within line)
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	if c := cmp.Compare(p.Line, other.Line); c != 0 {
		return c
	}
	return cmp.Compare(p.Column, other.Column)
}

// Before returns true if p comes before other.
func (p Point) Before(other Point) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// PointUTF16 represents a line and column position where the column
// is measured in UTF-16 code units, as used by the LSP protocol.
type PointUTF16 struct {
	Line   uint32 // 0-indexed line number
	Column uint32 // 0-indexed column in UTF-16 code units
}

// String returns a human-readable representation of the point.
func (p PointUTF16) String() string {
	return fmt.Sprintf("(%d:%d utf16)", p.Line, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p PointUTF16) Compare(other PointUTF16) int {
	if c := cmp.Compare(p.Line, other.Line); c != 0 {
		return c
	}
	return cmp.Compare(p.Column, other.Column)
}

// utf16ColumnFromString counts UTF-16 code units in a string.
func utf16ColumnFromString(s string) uint32 {
	var col uint32
	for _, r := range s {
		if r >= 0x10000 {
			col += 2 // surrogate pair
		} else {
			col++
		}
	}
	return col
}

// byteOffsetFromUTF16Column converts a UTF-16 column to a byte offset within
// a line. A column inside a surrogate pair resolves to the start of the rune;
// columns past the end clamp to the line length.
func byteOffsetFromUTF16Column(line string, utf16Col uint32) int {
	var col uint32
	for i, r := range line {
		units := uint32(1)
		if r >= 0x10000 {
			units = 2
		}
		if col+units > utf16Col {
			return i
		}
		col += units
	}
	return len(line)
}
