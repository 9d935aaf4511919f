package display

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
)

// Each layer of the pipeline has its own point type so coordinates of
// different spaces cannot be mixed. Inlay and fold columns count bytes;
// tab, wrap, block and display columns count terminal cells.

// InlayPoint is a position after inlay text is inserted.
type InlayPoint struct {
	Row    uint32
	Column uint32
}

// FoldPoint is a position after folded ranges are collapsed.
type FoldPoint struct {
	Row    uint32
	Column uint32
}

// TabPoint is a position after tabs are expanded.
type TabPoint struct {
	Row    uint32
	Column uint32
}

// WrapPoint is a position after long rows are soft wrapped.
type WrapPoint struct {
	Row    uint32
	Column uint32
}

// BlockPoint is a position after decoration rows are inserted.
type BlockPoint struct {
	Row    uint32
	Column uint32
}

// DisplayPoint is a final on-screen position.
type DisplayPoint struct {
	Row    uint32
	Column uint32
}

// Offsets count bytes or cells from the start of a layer's text, with one
// unit per row separator.
type (
	InlayOffset   int64
	FoldOffset    int64
	TabOffset     int64
	WrapOffset    int64
	BlockOffset   int64
	DisplayOffset int64
)

func comparePoints(r1, c1, r2, c2 uint32) int {
	if c := cmp.Compare(r1, r2); c != 0 {
		return c
	}
	return cmp.Compare(c1, c2)
}

// Compare orders points by row, then column.
func (p InlayPoint) Compare(o InlayPoint) int { return comparePoints(p.Row, p.Column, o.Row, o.Column) }

// Compare orders points by row, then column.
func (p FoldPoint) Compare(o FoldPoint) int { return comparePoints(p.Row, p.Column, o.Row, o.Column) }

// Compare orders points by row, then column.
func (p TabPoint) Compare(o TabPoint) int { return comparePoints(p.Row, p.Column, o.Row, o.Column) }

// Compare orders points by row, then column.
func (p WrapPoint) Compare(o WrapPoint) int { return comparePoints(p.Row, p.Column, o.Row, o.Column) }

// Compare orders points by row, then column.
func (p BlockPoint) Compare(o BlockPoint) int { return comparePoints(p.Row, p.Column, o.Row, o.Column) }

// Compare orders points by row, then column.
func (p DisplayPoint) Compare(o DisplayPoint) int {
	return comparePoints(p.Row, p.Column, o.Row, o.Column)
}

// String returns "row:column".
func (p DisplayPoint) String() string {
	return fmt.Sprintf("%d:%d", p.Row, p.Column)
}

// Edit describes a change to a run of rows in one coordinate space: rows
// [Start, OldEnd) before the change became rows [Start, NewEnd) after it.
// Rows past the edit keep their content and shift by NewEnd - OldEnd.
type Edit struct {
	Start  uint32
	OldEnd uint32
	NewEnd uint32
}

// IsEmpty reports whether the edit changes nothing.
func (e Edit) IsEmpty() bool {
	return e.Start == e.OldEnd && e.Start == e.NewEnd
}

// Delta returns the change in row count.
func (e Edit) Delta() int64 {
	return int64(e.NewEnd) - int64(e.OldEnd)
}

// Union returns one edit equivalent to applying e and then o. Either may
// be empty.
func (e Edit) Union(o Edit) Edit {
	switch {
	case e.IsEmpty():
		return o
	case o.IsEmpty():
		return e
	}
	// back maps a row of the space after e to the space before it.
	back := func(row uint32) uint32 {
		switch {
		case row >= e.NewEnd:
			return uint32(int64(row) - e.Delta())
		case row <= e.Start:
			return row
		}
		return e.OldEnd
	}
	// forward maps a row of the space after e through o.
	forward := func(row uint32) uint32 {
		switch {
		case row >= o.OldEnd:
			return uint32(int64(row) + o.Delta())
		case row <= o.Start:
			return row
		}
		return o.NewEnd
	}
	return Edit{
		Start:  min(e.Start, o.Start),
		OldEnd: max(e.OldEnd, back(o.OldEnd)),
		NewEnd: max(forward(e.NewEnd), o.NewEnd),
	}
}

func (e Edit) String() string {
	return fmt.Sprintf("[%d, %d) -> [%d, %d)", e.Start, e.OldEnd, e.Start, e.NewEnd)
}

// Layer is one stage of the pipeline, converting between its input space
// In and its output space Out.
type Layer[In, Out any] interface {
	// ToCoords maps an input point forward. It is monotonic.
	ToCoords(p In) Out
	// FromCoords maps an output point back. Points inside synthetic or
	// hidden content clamp to the start of that content.
	FromCoords(p Out) In
	// ApplyEdit updates the layer after its input changed by e and returns
	// the resulting change to its output rows.
	ApplyEdit(e Edit) Edit
	// Version increases on every change to the layer's output.
	Version() uint64
}

// lineSource is the row text a layer exposes to the next one.
type lineSource interface {
	RowCount() uint32
	Line(row uint32) string
}

// rowStarts caches the offset of every row start of a layer's output, for
// the layer version it was built at. Each row separator counts as one unit.
type rowStarts struct {
	mu      sync.Mutex
	version uint64
	starts  []int64
}

// get returns the row starts of src, rebuilding them when version moved.
// width measures a row in the layer's column unit.
func (s *rowStarts) get(src lineSource, width func(string) uint32, version uint64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.starts != nil && s.version == version {
		return s.starts
	}
	n := src.RowCount()
	starts := make([]int64, n)
	var off int64
	for r := range n {
		starts[r] = off
		off += int64(width(src.Line(r))) + 1
	}
	s.starts, s.version = starts, version
	return starts
}

// offsetOf returns the offset of (row, col) in src, clamping past the end.
func (s *rowStarts) offsetOf(src lineSource, width func(string) uint32, version uint64, row, col uint32) int64 {
	starts := s.get(src, width, version)
	if len(starts) == 0 {
		return 0
	}
	row = min(row, uint32(len(starts)-1))
	return starts[row] + int64(min(col, width(src.Line(row))))
}

// pointOf is the inverse of offsetOf, clamping past the end.
func (s *rowStarts) pointOf(src lineSource, width func(string) uint32, version uint64, off int64) (uint32, uint32) {
	starts := s.get(src, width, version)
	if len(starts) == 0 || off <= 0 {
		return 0, 0
	}
	row, found := slices.BinarySearch(starts, off)
	if !found {
		row--
	}
	w := int64(width(src.Line(uint32(row))))
	return uint32(row), uint32(min(off-starts[row], w))
}

func byteWidth(s string) uint32 {
	return uint32(len(s))
}
