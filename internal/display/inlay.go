package display

import (
	"strings"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/index"
)

// InlayID identifies an inlay.
type InlayID uint64

// Inlay is visual-only text shown at a buffer position, such as a type
// hint. A Left-biased inlay stays after the character to its left when
// text is inserted at its position; a Right-biased one moves with the
// inserted text.
type Inlay struct {
	ID       InlayID
	Position buffer.Anchor
	Text     string
}

// Summary implements sumtree.Item.
func (i Inlay) Summary(*buffer.Snapshot) index.RangeSummary { return pointSummary(i.Position) }

func (i Inlay) position() buffer.Anchor { return i.Position }
func (i Inlay) key() uint64             { return uint64(i.ID) }

// placedInlay is an inlay resolved onto one row.
type placedInlay struct {
	column uint32 // buffer column
	width  uint32
}

type inlayRow struct {
	text   string
	inlays []placedInlay
}

// InlayMap inserts inlay text into buffer rows. Inlays never contain
// newlines, so inlay rows correspond one to one with buffer rows.
//
// Buffer text at an inlay's position renders after the inlay. Output
// columns inside inlay text map back to the inlay's position.
type InlayMap struct {
	snap    *buffer.Snapshot
	inlays  anchorTree[Inlay]
	nextID  InlayID
	rows    rowCache[inlayRow]
	version uint64
	starts  rowStarts
}

// NewInlayMap creates an inlay map without inlays.
func NewInlayMap(snap *buffer.Snapshot) *InlayMap {
	m := &InlayMap{snap: snap}
	m.rows.reset(snap.LineCount())
	return m
}

// Snapshot returns the buffer snapshot the map reflects.
func (m *InlayMap) Snapshot() *buffer.Snapshot {
	return m.snap
}

// Version implements Layer.
func (m *InlayMap) Version() uint64 {
	return m.version
}

// Insert adds an inlay at offset and returns its id and the changed row.
// Newlines in text are replaced with spaces.
func (m *InlayMap) Insert(offset buffer.ByteOffset, text string, bias buffer.Bias) (InlayID, Edit) {
	m.nextID++
	inlay := Inlay{
		ID:       m.nextID,
		Position: m.snap.AnchorAt(offset, bias),
		Text:     sanitizeInlay(text),
	}
	m.inlays = insertAnchored(m.inlays, inlay, m.snap)

	row := m.snap.ToPoint(inlay.Position).Line
	e := Edit{Start: row, OldEnd: row + 1, NewEnd: row + 1}
	m.rows.splice(e)
	m.version++
	return inlay.ID, e
}

// Remove deletes inlays by id. It reports false when none existed.
func (m *InlayMap) Remove(ids ...InlayID) (Edit, bool) {
	keys := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		keys[uint64(id)] = true
	}
	tree, removed := removeAnchored(m.inlays, keys, m.snap)
	if len(removed) == 0 {
		return Edit{}, false
	}
	m.inlays = tree

	first, last := ^uint32(0), uint32(0)
	for _, inlay := range removed {
		row := m.snap.ToPoint(inlay.Position).Line
		first, last = min(first, row), max(last, row)
	}
	e := Edit{Start: first, OldEnd: last + 1, NewEnd: last + 1}
	m.rows.splice(e)
	m.version++
	return e, true
}

// Inlays returns every inlay in position order.
func (m *InlayMap) Inlays() []Inlay {
	return m.inlays.Items()
}

// ApplyEdit implements Layer. The buffer rows changed by e have already
// been applied to the snapshot set with setSnapshot.
func (m *InlayMap) ApplyEdit(e Edit) Edit {
	m.rows.splice(e)
	m.version++
	return e
}

func (m *InlayMap) setSnapshot(snap *buffer.Snapshot) {
	m.snap = snap
}

// RowCount returns the number of rows.
func (m *InlayMap) RowCount() uint32 {
	return m.snap.LineCount()
}

// Line returns the text of row with inlays inserted.
func (m *InlayMap) Line(row uint32) string {
	return m.row(row).text
}

func (m *InlayMap) row(row uint32) inlayRow {
	return m.rows.get(row, m.buildRow)
}

func (m *InlayMap) buildRow(row uint32) inlayRow {
	if row >= m.snap.LineCount() {
		return inlayRow{}
	}
	text := m.snap.LineText(row)
	start := m.snap.LineStartOffset(row)
	end := m.snap.LineEndOffset(row)

	var r inlayRow
	var b strings.Builder
	var col uint32
	anchoredBetween(m.inlays, start, end, m.snap, func(inlay Inlay, off buffer.ByteOffset) {
		at := uint32(off - start)
		b.WriteString(text[col:at])
		b.WriteString(inlay.Text)
		col = at
		r.inlays = append(r.inlays, placedInlay{column: at, width: uint32(len(inlay.Text))})
	})
	if r.inlays == nil {
		r.text = text
		return r
	}
	b.WriteString(text[col:])
	r.text = b.String()
	return r
}

// ToCoords implements Layer. Positions past the end of a row or of the
// text clamp.
func (m *InlayMap) ToCoords(p buffer.Point) InlayPoint {
	p = m.snap.ClipPoint(p)
	var shift uint32
	for _, in := range m.row(p.Line).inlays {
		if in.column > p.Column {
			break
		}
		shift += in.width
	}
	return InlayPoint{Row: p.Line, Column: p.Column + shift}
}

// FromCoords implements Layer.
func (m *InlayMap) FromCoords(p InlayPoint) buffer.Point {
	if rows := m.RowCount(); p.Row >= rows {
		return m.snap.MaxPoint()
	}
	var shift uint32
	for _, in := range m.row(p.Row).inlays {
		at := in.column + shift
		if p.Column < at {
			break
		}
		if p.Column < at+in.width {
			return buffer.Point{Line: p.Row, Column: in.column}
		}
		shift += in.width
	}
	return m.snap.ClipPoint(buffer.Point{Line: p.Row, Column: p.Column - shift})
}

// PointToOffset returns the offset of p in the inlay text.
func (m *InlayMap) PointToOffset(p InlayPoint) InlayOffset {
	return InlayOffset(m.starts.offsetOf(m, byteWidth, m.version, p.Row, p.Column))
}

// OffsetToPoint returns the point at off in the inlay text.
func (m *InlayMap) OffsetToPoint(off InlayOffset) InlayPoint {
	row, col := m.starts.pointOf(m, byteWidth, m.version, int64(off))
	return InlayPoint{Row: row, Column: col}
}

func sanitizeInlay(text string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, text)
}
