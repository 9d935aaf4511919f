package buffer

import "fmt"

// Range represents a byte range in the buffer.
// Start is inclusive, End is exclusive: [Start, End).
type Range struct {
	Start ByteOffset // Inclusive start position
	End   ByteOffset // Exclusive end position
}

// NewRange creates a new Range from start and end offsets.
func NewRange(start, end ByteOffset) Range {
	return Range{Start: start, End: end}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%d:%d)", r.Start, r.End)
}

// Len returns the length of the range in bytes.
func (r Range) Len() ByteOffset {
	return r.End - r.Start
}

// IsEmpty returns true if the range has zero length.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Contains returns true if the given offset is within the range.
func (r Range) Contains(offset ByteOffset) bool {
	return offset >= r.Start && offset < r.End
}

// Overlaps returns true if this range shares at least one byte with another.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Touches returns true if the ranges overlap or are adjacent.
func (r Range) Touches(other Range) bool {
	return r.Start <= other.End && other.Start <= r.End
}

// Union returns the smallest range that contains both ranges.
func (r Range) Union(other Range) Range {
	return Range{Start: min(r.Start, other.Start), End: max(r.End, other.End)}
}

// PointRange represents a range using line/column positions.
type PointRange struct {
	Start Point // Inclusive start position
	End   Point // Exclusive end position
}

// String returns a human-readable representation of the range.
func (r PointRange) String() string {
	return fmt.Sprintf("[%s:%s)", r.Start, r.End)
}

// PointRangeUTF16 represents a range using line/UTF-16 column positions.
type PointRangeUTF16 struct {
	Start PointUTF16 // Inclusive start position
	End   PointUTF16 // Exclusive end position
}
