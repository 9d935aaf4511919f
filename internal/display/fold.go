package display

import (
	"sort"
	"strings"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/index"
)

// DefaultPlaceholder is shown in place of folded text.
const DefaultPlaceholder = "⋯"

// FoldID identifies a fold.
type FoldID uint64

// Fold is a buffer range collapsed to a placeholder. Its start anchor moves
// past text inserted at it and its end anchor stays before text inserted
// at it, so insertions at the edges stay visible.
type Fold struct {
	ID          FoldID
	Range       buffer.AnchorRange
	Placeholder string
}

// Summary implements sumtree.Item.
func (f Fold) Summary(*buffer.Snapshot) index.RangeSummary {
	return index.RangeSummary{Start: f.Range.Start, End: f.Range.End, MaxStart: f.Range.Start, Count: 1}
}

func (f Fold) position() buffer.Anchor { return f.Range.Start }
func (f Fold) key() uint64             { return uint64(f.ID) }

// foldSpan is a fold resolved into inlay coordinates.
type foldSpan struct {
	id           FoldID
	start, end   InlayPoint
	placeholder  string
	outRow       uint32 // fold row holding the placeholder
	startCol     uint32 // fold column of the placeholder
	endCol       uint32 // fold column after the placeholder
	hiddenBefore uint32 // rows hidden by earlier folds
}

func (s foldSpan) hidden() uint32 {
	return s.end.Row - s.start.Row
}

// FoldMap collapses folded ranges. The rows a fold spans merge into one
// row: the text before the fold, the placeholder, then the text after it.
// Folds never overlap; folding a range that overlaps or touches existing
// folds merges them.
type FoldMap struct {
	input       *InlayMap
	folds       anchorTree[Fold]
	spans       []foldSpan
	nextID      FoldID
	placeholder string
	rows        rowCache[string]
	version     uint64
	starts      rowStarts
}

// NewFoldMap creates a fold map without folds. An empty placeholder
// selects DefaultPlaceholder.
func NewFoldMap(input *InlayMap, placeholder string) *FoldMap {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	m := &FoldMap{input: input, placeholder: placeholder}
	m.rows.reset(input.RowCount())
	return m
}

func (m *FoldMap) snapshot() *buffer.Snapshot {
	return m.input.Snapshot()
}

// Version implements Layer.
func (m *FoldMap) Version() uint64 {
	return m.version
}

// Fold collapses [start, end). An empty placeholder selects the map's
// default. It returns ErrEmptyFold for an empty range.
func (m *FoldMap) Fold(start, end buffer.ByteOffset, placeholder string) (FoldID, Edit, error) {
	snap := m.snapshot()
	start, end = snap.ClipOffset(start), snap.ClipOffset(end)
	if start >= end {
		return 0, Edit{}, ErrEmptyFold
	}
	if placeholder == "" {
		placeholder = m.placeholder
	}

	// Absorb every fold overlapping or touching the new one.
	merged := make(map[uint64]bool)
	m.folds.Each(func(_ int, f Fold) bool {
		r := f.Range.ToRange(snap)
		if r.Start <= end && r.End >= start {
			merged[f.key()] = true
			start, end = min(start, r.Start), max(end, r.End)
		}
		return true
	})

	m.nextID++
	fold := Fold{
		ID:          m.nextID,
		Range:       buffer.AnchorRange{Start: snap.AnchorAfter(start), End: snap.AnchorBefore(end)},
		Placeholder: placeholder,
	}
	first, last := snap.OffsetToPoint(start).Line, snap.OffsetToPoint(end).Line
	e := m.change(first, last+1, last+1, func() {
		m.folds, _ = removeAnchored(m.folds, merged, snap)
		m.folds = insertAnchored(m.folds, fold, snap)
	})
	return fold.ID, e, nil
}

// Unfold removes folds by id. It reports false when none existed.
func (m *FoldMap) Unfold(ids ...FoldID) (Edit, bool) {
	keys := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		keys[uint64(id)] = true
	}
	first, last, found := ^uint32(0), uint32(0), false
	for _, s := range m.spans {
		if keys[uint64(s.id)] {
			first, last, found = min(first, s.start.Row), max(last, s.end.Row), true
		}
	}
	if !found {
		// Empty folds have no span but may still be stored.
		m.folds, _ = removeAnchored(m.folds, keys, m.snapshot())
		return Edit{}, false
	}
	e := m.change(first, last+1, last+1, func() {
		m.folds, _ = removeAnchored(m.folds, keys, m.snapshot())
	})
	return e, true
}

// UnfoldRange removes every fold overlapping [start, end).
func (m *FoldMap) UnfoldRange(start, end buffer.ByteOffset) (Edit, bool) {
	snap := m.snapshot()
	var ids []FoldID
	m.folds.Each(func(_ int, f Fold) bool {
		r := f.Range.ToRange(snap)
		if r.Start < end && r.End > start || start == end && r.Start <= start && r.End > start {
			ids = append(ids, f.ID)
		}
		return true
	})
	if len(ids) == 0 {
		return Edit{}, false
	}
	return m.Unfold(ids...)
}

// IsFolded reports whether offset lies strictly inside a fold.
func (m *FoldMap) IsFolded(offset buffer.ByteOffset) bool {
	snap := m.snapshot()
	folded := false
	m.folds.Walk(
		func(sum index.RangeSummary) bool {
			if folded || sum.Count == 0 {
				return false
			}
			lo, hi := sum.Resolve(snap)
			return lo < offset && hi > offset
		},
		func(_ int, f Fold) bool {
			r := f.Range.ToRange(snap)
			folded = r.Start < offset && r.End > offset
			return !folded
		},
	)
	return folded
}

// Folds returns every fold in position order.
func (m *FoldMap) Folds() []Fold {
	return m.folds.Items()
}

// ApplyEdit implements Layer. Folds emptied by the edit are dropped.
func (m *FoldMap) ApplyEdit(e Edit) Edit {
	return m.change(e.Start, e.OldEnd, e.NewEnd, func() {
		snap := m.snapshot()
		empty := make(map[uint64]bool)
		m.folds.Each(func(_ int, f Fold) bool {
			if r := f.Range.ToRange(snap); r.Start >= r.End {
				empty[f.key()] = true
			}
			return true
		})
		if len(empty) > 0 {
			m.folds, _ = removeAnchored(m.folds, empty, snap)
		}
	})
}

// change runs mutate, which turns input rows [start, oldEnd) into
// [start, newEnd), and returns the resulting change to fold rows.
func (m *FoldMap) change(start, oldEnd, newEnd uint32, mutate func()) Edit {
	oldStart, oldStop := m.outRows(start, oldEnd)
	mutate()
	m.resolve()
	newStart, newStop := m.outRows(start, newEnd)

	e := Edit{Start: min(oldStart, newStart), OldEnd: oldStop, NewEnd: newStop}
	m.rows.splice(e)
	m.version++
	return e
}

// outRows returns the fold rows covering input rows [start, end).
func (m *FoldMap) outRows(start, end uint32) (uint32, uint32) {
	first := m.outRow(start)
	if end <= start {
		return first, first
	}
	return first, m.outRow(end-1) + 1
}

// outRow returns the fold row showing input row row. Rows hidden by a
// fold map to the fold's row.
func (m *FoldMap) outRow(row uint32) uint32 {
	k := sort.Search(len(m.spans), func(i int) bool { return m.spans[i].start.Row >= row })
	if k == 0 {
		return row
	}
	s := m.spans[k-1]
	if s.end.Row >= row {
		return s.outRow
	}
	return row - s.hiddenBefore - s.hidden()
}

// resolve recomputes the fold spans from the current input.
func (m *FoldMap) resolve() {
	snap := m.snapshot()
	m.spans = m.spans[:0]
	var hidden uint32
	m.folds.Each(func(_ int, f Fold) bool {
		r := f.Range.ToRange(snap)
		if r.Start >= r.End {
			return true
		}
		s := foldSpan{
			id:           f.ID,
			start:        m.input.ToCoords(snap.OffsetToPoint(r.Start)),
			end:          m.input.ToCoords(snap.OffsetToPoint(r.End)),
			placeholder:  f.Placeholder,
			hiddenBefore: hidden,
		}
		s.outRow = s.start.Row - hidden
		s.startCol = s.start.Column
		if n := len(m.spans); n > 0 && m.spans[n-1].end.Row == s.start.Row {
			prev := m.spans[n-1]
			s.startCol = prev.endCol + (s.start.Column - prev.end.Column)
		}
		s.endCol = s.startCol + uint32(len(s.placeholder))
		hidden += s.hidden()
		m.spans = append(m.spans, s)
		return true
	})
}

func (m *FoldMap) totalHidden() uint32 {
	if len(m.spans) == 0 {
		return 0
	}
	last := m.spans[len(m.spans)-1]
	return last.hiddenBefore + last.hidden()
}

// RowCount returns the number of fold rows.
func (m *FoldMap) RowCount() uint32 {
	return m.input.RowCount() - m.totalHidden()
}

// Line returns the text of fold row row.
func (m *FoldMap) Line(row uint32) string {
	return m.rows.get(row, m.buildRow)
}

// firstSpanOnRow returns the index of the first span whose placeholder is
// on fold row row or later.
func (m *FoldMap) firstSpanOnRow(row uint32) int {
	return sort.Search(len(m.spans), func(i int) bool { return m.spans[i].outRow >= row })
}

// inputRow returns the input row a fold row begins with.
func (m *FoldMap) inputRow(row uint32, k int) uint32 {
	if k == 0 {
		return row
	}
	s := m.spans[k-1]
	return row + s.hiddenBefore + s.hidden()
}

func (m *FoldMap) buildRow(row uint32) string {
	if row >= m.RowCount() {
		return ""
	}
	k := m.firstSpanOnRow(row)
	cur := InlayPoint{Row: m.inputRow(row, k)}

	var b strings.Builder
	for ; k < len(m.spans) && m.spans[k].outRow == row; k++ {
		s := m.spans[k]
		b.WriteString(sliceLine(m.input.Line(cur.Row), cur.Column, s.start.Column))
		b.WriteString(s.placeholder)
		cur = s.end
	}
	line := m.input.Line(cur.Row)
	b.WriteString(sliceLine(line, cur.Column, uint32(len(line))))
	return b.String()
}

// ToCoords implements Layer. Points strictly inside a fold clamp to its
// start.
func (m *FoldMap) ToCoords(p InlayPoint) FoldPoint {
	k := sort.Search(len(m.spans), func(i int) bool { return m.spans[i].start.Compare(p) >= 0 })
	if k > 0 && p.Compare(m.spans[k-1].end) < 0 {
		s := m.spans[k-1]
		return FoldPoint{Row: s.outRow, Column: s.startCol}
	}
	if k == 0 {
		return FoldPoint{Row: p.Row, Column: p.Column}
	}
	prev := m.spans[k-1]
	row := p.Row - prev.hiddenBefore - prev.hidden()
	if prev.end.Row == p.Row {
		return FoldPoint{Row: row, Column: prev.endCol + (p.Column - prev.end.Column)}
	}
	return FoldPoint{Row: row, Column: p.Column}
}

// FromCoords implements Layer. Columns inside a placeholder clamp to the
// fold's start.
func (m *FoldMap) FromCoords(p FoldPoint) InlayPoint {
	if rows := m.RowCount(); p.Row >= rows {
		if rows == 0 {
			return InlayPoint{}
		}
		p = FoldPoint{Row: rows - 1, Column: ^uint32(0)}
	}
	k := m.firstSpanOnRow(p.Row)
	cur := InlayPoint{Row: m.inputRow(p.Row, k)}
	var curCol uint32
	for ; k < len(m.spans) && m.spans[k].outRow == p.Row; k++ {
		s := m.spans[k]
		if p.Column < s.startCol {
			break
		}
		if p.Column < s.endCol {
			return s.start
		}
		cur, curCol = s.end, s.endCol
	}
	lineLen := uint32(len(m.input.Line(cur.Row)))
	col := cur.Column + min(p.Column-curCol, lineLen)
	return InlayPoint{Row: cur.Row, Column: min(col, lineLen)}
}

// PointToOffset returns the offset of p in the folded text.
func (m *FoldMap) PointToOffset(p FoldPoint) FoldOffset {
	return FoldOffset(m.starts.offsetOf(m, byteWidth, m.version, p.Row, p.Column))
}

// OffsetToPoint returns the point at off in the folded text.
func (m *FoldMap) OffsetToPoint(off FoldOffset) FoldPoint {
	row, col := m.starts.pointOf(m, byteWidth, m.version, int64(off))
	return FoldPoint{Row: row, Column: col}
}

// sliceLine returns line[from:to] with both bounds clamped.
func sliceLine(line string, from, to uint32) string {
	n := uint32(len(line))
	from, to = min(from, n), min(to, n)
	if from >= to {
		return ""
	}
	return line[from:to]
}

var _ Layer[InlayPoint, FoldPoint] = (*FoldMap)(nil)
var _ sumtree.Item[index.RangeSummary, *buffer.Snapshot] = Fold{}
