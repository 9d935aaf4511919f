package display

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// DefaultTabWidth is used when a tab width below one is configured.
const DefaultTabWidth = 4

// runeCells returns the terminal width of r. Control characters are zero
// wide.
func runeCells(r rune) uint32 {
	return uint32(runewidth.RuneWidth(r))
}

// textCells returns the width of s, which must not contain tabs.
func textCells(s string) uint32 {
	var w uint32
	for _, r := range s {
		w += runeCells(r)
	}
	return w
}

// TabMap expands tabs to the next multiple of the tab width and measures
// every other rune by its cell width. Output columns count cells.
type TabMap struct {
	input    *FoldMap
	tabWidth uint32
	rows     rowCache[string]
	version  uint64
	starts   rowStarts
}

// NewTabMap creates a tab map. A width below one selects DefaultTabWidth.
func NewTabMap(input *FoldMap, tabWidth uint32) *TabMap {
	m := &TabMap{input: input}
	m.tabWidth = normalizeTabWidth(tabWidth)
	m.rows.reset(input.RowCount())
	return m
}

func normalizeTabWidth(w uint32) uint32 {
	if w < 1 {
		return DefaultTabWidth
	}
	return w
}

// TabWidth returns the tab width.
func (m *TabMap) TabWidth() uint32 {
	return m.tabWidth
}

// SetTabWidth changes the tab width and returns the change to every row.
func (m *TabMap) SetTabWidth(w uint32) Edit {
	m.tabWidth = normalizeTabWidth(w)
	n := m.RowCount()
	m.rows.reset(n)
	m.version++
	return Edit{Start: 0, OldEnd: n, NewEnd: n}
}

// nextTabStop returns the column a tab starting at col extends to.
func (m *TabMap) nextTabStop(col uint32) uint32 {
	return col + m.tabWidth - col%m.tabWidth
}

// clusterCells returns the width of a grapheme cluster starting at
// column col.
func (m *TabMap) clusterCells(cluster string, col uint32) uint32 {
	if cluster == "\t" {
		return m.nextTabStop(col) - col
	}
	return textCells(cluster)
}

// eachCluster calls fn with every grapheme cluster of s and its byte
// offset until fn returns false.
func eachCluster(s string, fn func(cluster string, start int) bool) {
	state := -1
	for start := 0; start < len(s); {
		var cluster string
		cluster, _, _, state = uniseg.FirstGraphemeClusterInString(s[start:], state)
		if !fn(cluster, start) {
			return
		}
		start += len(cluster)
	}
}

// Version implements Layer.
func (m *TabMap) Version() uint64 {
	return m.version
}

// ApplyEdit implements Layer. Rows correspond one to one with fold rows.
func (m *TabMap) ApplyEdit(e Edit) Edit {
	m.rows.splice(e)
	m.version++
	return e
}

// RowCount returns the number of rows.
func (m *TabMap) RowCount() uint32 {
	return m.input.RowCount()
}

// Line returns row with tabs replaced by spaces.
func (m *TabMap) Line(row uint32) string {
	return m.rows.get(row, m.buildRow)
}

func (m *TabMap) buildRow(row uint32) string {
	line := m.input.Line(row)
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	b.Grow(len(line) + int(m.tabWidth))
	var col uint32
	eachCluster(line, func(cluster string, _ int) bool {
		w := m.clusterCells(cluster, col)
		if cluster == "\t" {
			b.WriteString(strings.Repeat(" ", int(w)))
		} else {
			b.WriteString(cluster)
		}
		col += w
		return true
	})
	return b.String()
}

// ToCoords implements Layer. A column inside a grapheme cluster clamps to
// the cluster's start.
func (m *TabMap) ToCoords(p FoldPoint) TabPoint {
	if rows := m.RowCount(); rows > 0 && p.Row >= rows {
		p = FoldPoint{Row: rows - 1, Column: ^uint32(0)}
	}
	var col uint32
	eachCluster(m.input.Line(p.Row), func(cluster string, start int) bool {
		if uint32(start+len(cluster)) > p.Column {
			return false
		}
		col += m.clusterCells(cluster, col)
		return true
	})
	return TabPoint{Row: p.Row, Column: col}
}

// FromCoords implements Layer. Columns inside a tab's expansion or a wide
// cluster clamp to its start.
func (m *TabMap) FromCoords(p TabPoint) FoldPoint {
	if rows := m.RowCount(); rows > 0 && p.Row >= rows {
		p = TabPoint{Row: rows - 1, Column: ^uint32(0)}
	}
	line := m.input.Line(p.Row)
	out := uint32(len(line))
	var col uint32
	eachCluster(line, func(cluster string, start int) bool {
		w := m.clusterCells(cluster, col)
		if p.Column < col+w {
			out = uint32(start)
			return false
		}
		col += w
		return true
	})
	return FoldPoint{Row: p.Row, Column: out}
}

// PointToOffset returns the offset of p in the expanded text.
func (m *TabMap) PointToOffset(p TabPoint) TabOffset {
	return TabOffset(m.starts.offsetOf(m, textCells, m.version, p.Row, p.Column))
}

// OffsetToPoint returns the point at off in the expanded text.
func (m *TabMap) OffsetToPoint(off TabOffset) TabPoint {
	row, col := m.starts.pointOf(m, textCells, m.version, int64(off))
	return TabPoint{Row: row, Column: col}
}

var _ Layer[FoldPoint, TabPoint] = (*TabMap)(nil)
