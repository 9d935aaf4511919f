package display

import (
	"cmp"
	"sort"

	"github.com/rivo/uniseg"

	"github.com/dshills/stoat/internal/engine/sumtree"
)

// wrapLookBack is how far back from the overflowing cell a break
// opportunity is searched for before breaking mid-word.
const wrapLookBack = 20

type none = struct{}

// wrapRow holds the cell columns where the continuation rows of one input
// row begin.
type wrapRow struct {
	starts []uint32
}

// Summary implements sumtree.Item.
func (r wrapRow) Summary(none) wrapSummary {
	return wrapSummary{Input: 1, Output: 1 + uint32(len(r.starts))}
}

type wrapSummary struct {
	Input  uint32
	Output uint32
}

// Add implements sumtree.Summary.
func (s wrapSummary) Add(o wrapSummary, _ none) wrapSummary {
	return wrapSummary{Input: s.Input + o.Input, Output: s.Output + o.Output}
}

type wrapTree = sumtree.Tree[wrapRow, wrapSummary, none]

// WrapMap soft wraps rows wider than the wrap width. It prefers line
// break opportunities found by Unicode line segmentation and breaks
// mid-word only when none lies within the look-back window. A width of
// zero disables wrapping.
type WrapMap struct {
	input   *TabMap
	width   uint32
	rows    wrapTree
	version uint64
	starts  rowStarts
}

// NewWrapMap creates a wrap map and wraps every row.
func NewWrapMap(input *TabMap, width uint32) *WrapMap {
	m := &WrapMap{input: input, width: width}
	m.rows = sumtree.FromItems[wrapRow, wrapSummary](m.wrapRows(0, input.RowCount()), none{})
	return m
}

// Width returns the wrap width.
func (m *WrapMap) Width() uint32 {
	return m.width
}

// SetWidth rewraps every row and returns the change to wrap rows.
func (m *WrapMap) SetWidth(width uint32) Edit {
	old := m.RowCount()
	m.width = width
	m.rows = sumtree.FromItems[wrapRow, wrapSummary](m.wrapRows(0, m.input.RowCount()), none{})
	m.version++
	return Edit{Start: 0, OldEnd: old, NewEnd: m.RowCount()}
}

// Version implements Layer.
func (m *WrapMap) Version() uint64 {
	return m.version
}

// ApplyEdit implements Layer. Only the rows of e are rewrapped.
func (m *WrapMap) ApplyEdit(e Edit) Edit {
	n := uint32(m.rows.Len())
	start, oldEnd := min(e.Start, n), min(e.OldEnd, n)
	outStart := m.outputBefore(start)
	outOldEnd := m.outputBefore(oldEnd)

	items := m.wrapRows(start, max(e.NewEnd, start))
	m.rows = m.rows.Replace(int(start), int(max(oldEnd, start)), items, none{})

	outNewEnd := outStart
	for _, it := range items {
		outNewEnd += 1 + uint32(len(it.starts))
	}
	m.version++
	return Edit{Start: outStart, OldEnd: outOldEnd, NewEnd: outNewEnd}
}

func (m *WrapMap) wrapRows(start, end uint32) []wrapRow {
	rows := make([]wrapRow, end-start)
	if m.width == 0 {
		return rows
	}
	for r := start; r < end; r++ {
		rows[r-start] = wrapRow{starts: wrapLine(m.input.Line(r), m.width)}
	}
	return rows
}

// outputBefore returns the number of wrap rows before input row row.
func (m *WrapMap) outputBefore(row uint32) uint32 {
	if row >= uint32(m.rows.Len()) {
		return m.rows.Summary().Output
	}
	c := m.seekInput(row)
	return c.Start().Output
}

func (m *WrapMap) seekInput(row uint32) *sumtree.Cursor[wrapRow, wrapSummary, none] {
	c := m.rows.Cursor(none{})
	c.Seek(sumtree.SeekFunc[wrapSummary, none](func(pos wrapSummary, _ none) int {
		return cmp.Compare(row+1, pos.Input)
	}), sumtree.Left)
	return c
}

func (m *WrapMap) seekOutput(row uint32) *sumtree.Cursor[wrapRow, wrapSummary, none] {
	c := m.rows.Cursor(none{})
	c.Seek(sumtree.SeekFunc[wrapSummary, none](func(pos wrapSummary, _ none) int {
		return cmp.Compare(row+1, pos.Output)
	}), sumtree.Left)
	return c
}

// RowCount returns the number of wrap rows.
func (m *WrapMap) RowCount() uint32 {
	return m.rows.Summary().Output
}

// locate returns the input row, the index of the wrapped segment and the
// segment's cell range for wrap row row. ok is false past the end.
func (m *WrapMap) locate(row uint32) (in uint32, from, to uint32, last, ok bool) {
	c := m.seekOutput(row)
	item, ok := c.Item()
	if !ok {
		return 0, 0, 0, false, false
	}
	sub := row - c.Start().Output
	in = c.Start().Input
	if sub > 0 {
		from = item.starts[sub-1]
	}
	last = int(sub) == len(item.starts)
	if !last {
		to = item.starts[sub]
	}
	return in, from, to, last, true
}

// Line returns the text of wrap row row.
func (m *WrapMap) Line(row uint32) string {
	in, from, to, last, ok := m.locate(row)
	if !ok {
		return ""
	}
	line := m.input.Line(in)
	if last {
		to = ^uint32(0)
	}
	return sliceCells(line, from, to)
}

// ToCoords implements Layer. A point at a wrap boundary starts the next
// row.
func (m *WrapMap) ToCoords(p TabPoint) WrapPoint {
	n := uint32(m.rows.Len())
	if n == 0 {
		return WrapPoint{}
	}
	if p.Row >= n {
		p = TabPoint{Row: n - 1, Column: textCells(m.input.Line(n - 1))}
	}
	c := m.seekInput(p.Row)
	item, _ := c.Item()
	sub := sort.Search(len(item.starts), func(i int) bool { return item.starts[i] > p.Column })
	col := p.Column
	if sub > 0 {
		col -= item.starts[sub-1]
	}
	return WrapPoint{Row: c.Start().Output + uint32(sub), Column: col}
}

// FromCoords implements Layer. Columns past the end of a wrapped segment
// clamp to its last cell.
func (m *WrapMap) FromCoords(p WrapPoint) TabPoint {
	if rows := m.RowCount(); p.Row >= rows {
		if rows == 0 {
			return TabPoint{}
		}
		p = WrapPoint{Row: rows - 1, Column: ^uint32(0)}
	}
	in, from, to, last, _ := m.locate(p.Row)
	col := from + min(p.Column, ^uint32(0)-from)
	if !last && col >= to {
		col = to - 1
	}
	return TabPoint{Row: in, Column: col}
}

// PointToOffset returns the offset of p in the wrapped text.
func (m *WrapMap) PointToOffset(p WrapPoint) WrapOffset {
	return WrapOffset(m.starts.offsetOf(m, textCells, m.version, p.Row, p.Column))
}

// OffsetToPoint returns the point at off in the wrapped text.
func (m *WrapMap) OffsetToPoint(off WrapOffset) WrapPoint {
	row, col := m.starts.pointOf(m, textCells, m.version, int64(off))
	return WrapPoint{Row: row, Column: col}
}

// wrapLine returns the cell columns where continuation rows of line begin.
func wrapLine(line string, width uint32) []uint32 {
	if width == 0 || textCells(line) <= width {
		return nil
	}
	breaks := breakOpportunities(line)

	var starts []uint32
	var rowStart, col uint32
	eachCluster(line, func(cluster string, _ int) bool {
		w := textCells(cluster)
		for w > 0 && col > rowStart && col+w-rowStart > width {
			brk := col
			if o, ok := lastBreak(breaks, rowStart, col); ok {
				brk = o
			}
			starts = append(starts, brk)
			rowStart = brk
		}
		col += w
		return true
	})
	return starts
}

// lastBreak returns the latest break opportunity in (rowStart, col] that
// is no more than wrapLookBack cells before col.
func lastBreak(breaks []uint32, rowStart, col uint32) (uint32, bool) {
	i := sort.Search(len(breaks), func(i int) bool { return breaks[i] > col }) - 1
	if i < 0 {
		return 0, false
	}
	b := breaks[i]
	if b <= rowStart || b+wrapLookBack < col {
		return 0, false
	}
	return b, true
}

// breakOpportunities returns the cell columns after which a line may be
// broken, excluding the end of the line.
func breakOpportunities(line string) []uint32 {
	var breaks []uint32
	var col uint32
	state := -1
	rest := line
	for len(rest) > 0 {
		var segment string
		segment, rest, _, state = uniseg.FirstLineSegmentInString(rest, state)
		col += textCells(segment)
		if len(rest) > 0 {
			breaks = append(breaks, col)
		}
	}
	return breaks
}

// sliceCells returns the grapheme clusters of s that start in cell range
// [from, to).
func sliceCells(s string, from, to uint32) string {
	var col uint32
	start, end := -1, len(s)
	eachCluster(s, func(cluster string, i int) bool {
		if start < 0 && col >= from {
			start = i
		}
		if col >= to {
			end = i
			return false
		}
		col += textCells(cluster)
		return true
	})
	if start < 0 {
		return ""
	}
	return s[start:end]
}

var _ Layer[TabPoint, WrapPoint] = (*WrapMap)(nil)
