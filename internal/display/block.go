package display

import (
	"sort"
	"strings"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/index"
)

// BlockID identifies a block.
type BlockID uint64

// Placement says on which side of its row a block is shown.
type Placement uint8

const (
	// Above shows the block before the first wrap row of its line.
	Above Placement = iota
	// Below shows the block after the last wrap row of its line.
	Below
)

// String returns the placement name.
func (p Placement) String() string {
	if p == Below {
		return "below"
	}
	return "above"
}

// Block is a run of decoration rows attached to the line holding its
// position. Block rows correspond to no buffer text.
type Block struct {
	ID        BlockID
	Position  buffer.Anchor
	Placement Placement
	Height    uint32
	Text      string
}

// Summary implements sumtree.Item.
func (b Block) Summary(*buffer.Snapshot) index.RangeSummary { return pointSummary(b.Position) }

func (b Block) position() buffer.Anchor { return b.Position }
func (b Block) key() uint64             { return uint64(b.ID) }

// placedBlock is a block resolved onto wrap rows. Its rows are shown
// before wrap row at.
type placedBlock struct {
	id        BlockID
	at        uint32
	placement Placement
	height    uint32
	lines     []string
}

// BlockMap inserts block rows between wrap rows.
type BlockMap struct {
	input   *WrapMap
	blocks  anchorTree[Block]
	placed  []placedBlock
	heights []uint32 // heights[i] is the total height of placed[:i+1]
	nextID  BlockID
	version uint64
	starts  rowStarts
}

// NewBlockMap creates a block map without blocks.
func NewBlockMap(input *WrapMap) *BlockMap {
	return &BlockMap{input: input}
}

// Version implements Layer.
func (m *BlockMap) Version() uint64 {
	return m.version
}

func (m *BlockMap) snapshot() *buffer.Snapshot {
	return m.input.input.input.snapshot()
}

// wrapRowOf returns the wrap row showing buffer point p.
func (m *BlockMap) wrapRowOf(p buffer.Point) uint32 {
	wrap := m.input
	tab := wrap.input
	fold := tab.input
	return wrap.ToCoords(tab.ToCoords(fold.ToCoords(fold.input.ToCoords(p)))).Row
}

// Insert attaches a block to the line holding offset. A zero height takes
// the number of lines in text. Text lines beyond the height are not shown.
func (m *BlockMap) Insert(offset buffer.ByteOffset, placement Placement, height uint32, text string) (BlockID, Edit) {
	snap := m.snapshot()
	if height == 0 && text != "" {
		height = uint32(strings.Count(text, "\n") + 1)
	}
	m.nextID++
	b := Block{
		ID:        m.nextID,
		Position:  snap.AnchorAfter(snap.ClipOffset(offset)),
		Placement: placement,
		Height:    height,
		Text:      text,
	}
	row := m.attachRow(b, snap)
	e := m.change(row, row+1, row+1, func() {
		m.blocks = insertAnchored(m.blocks, b, snap)
	})
	return b.ID, e
}

// Remove deletes blocks by id. It reports false when none existed.
func (m *BlockMap) Remove(ids ...BlockID) (Edit, bool) {
	keys := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		keys[uint64(id)] = true
	}
	first, last, found := m.rowsOf(keys)
	if !found {
		return Edit{}, false
	}
	e := m.change(first, last+1, last+1, func() {
		m.blocks, _ = removeAnchored(m.blocks, keys, m.snapshot())
	})
	return e, true
}

// Resize changes the height of a block. It returns ErrUnknownBlock for an
// unknown id.
func (m *BlockMap) Resize(id BlockID, height uint32) (Edit, error) {
	keys := map[uint64]bool{uint64(id): true}
	first, last, found := m.rowsOf(keys)
	if !found {
		return Edit{}, ErrUnknownBlock
	}
	e := m.change(first, last+1, last+1, func() {
		snap := m.snapshot()
		var removed []Block
		m.blocks, removed = removeAnchored(m.blocks, keys, snap)
		for _, b := range removed {
			b.Height = height
			m.blocks = insertAnchored(m.blocks, b, snap)
		}
	})
	return e, nil
}

// rowsOf returns the range of wrap rows the placed blocks in keys attach
// to.
func (m *BlockMap) rowsOf(keys map[uint64]bool) (first, last uint32, found bool) {
	first = ^uint32(0)
	for _, p := range m.placed {
		if !keys[uint64(p.id)] {
			continue
		}
		row := p.at
		if p.placement == Below && row > 0 {
			row--
		}
		first, last, found = min(first, row), max(last, row), true
	}
	return first, last, found
}

// Blocks returns every block in position order.
func (m *BlockMap) Blocks() []Block {
	return m.blocks.Items()
}

// ApplyEdit implements Layer.
func (m *BlockMap) ApplyEdit(e Edit) Edit {
	return m.change(e.Start, e.OldEnd, e.NewEnd, func() {})
}

// change runs mutate, which turns wrap rows [start, oldEnd) into
// [start, newEnd), and returns the resulting change to block rows. The
// range covers the blocks attached to the changed rows.
func (m *BlockMap) change(start, oldEnd, newEnd uint32, mutate func()) Edit {
	oldStart := start + m.heightBefore(start)
	oldStop := oldEnd + m.heightThrough(oldEnd)
	mutate()
	m.resolve()
	newStart := start + m.heightBefore(start)
	newStop := newEnd + m.heightThrough(newEnd)
	m.version++
	return Edit{Start: min(oldStart, newStart), OldEnd: oldStop, NewEnd: newStop}
}

// attachRow returns the wrap row b is attached to: the first wrap row of
// its line for Above, the last one for Below.
func (m *BlockMap) attachRow(b Block, snap *buffer.Snapshot) uint32 {
	line := snap.OffsetToPoint(snap.ToOffset(b.Position)).Line
	if b.Placement == Above {
		return m.wrapRowOf(buffer.Point{Line: line})
	}
	return m.wrapRowOf(buffer.Point{Line: line, Column: snap.LineLen(line)})
}

// resolve places every block on the current wrap rows.
func (m *BlockMap) resolve() {
	snap := m.snapshot()
	m.placed = m.placed[:0]
	m.blocks.Each(func(_ int, b Block) bool {
		if b.Height == 0 {
			return true
		}
		p := placedBlock{id: b.ID, at: m.attachRow(b, snap), placement: b.Placement, height: b.Height}
		if b.Placement == Below {
			p.at++
		}
		if b.Text != "" {
			p.lines = strings.Split(b.Text, "\n")
		}
		m.placed = append(m.placed, p)
		return true
	})
	// Blocks below a row come before blocks above the next one.
	sort.SliceStable(m.placed, func(i, j int) bool {
		a, b := m.placed[i], m.placed[j]
		if a.at != b.at {
			return a.at < b.at
		}
		return a.placement == Below && b.placement == Above
	})
	m.heights = m.heights[:0]
	var total uint32
	for _, p := range m.placed {
		total += p.height
		m.heights = append(m.heights, total)
	}
}

// heightBefore returns the height of the blocks with at < row.
func (m *BlockMap) heightBefore(row uint32) uint32 {
	i := sort.Search(len(m.placed), func(i int) bool { return m.placed[i].at >= row })
	if i == 0 {
		return 0
	}
	return m.heights[i-1]
}

// heightThrough returns the height of the blocks with at <= row.
func (m *BlockMap) heightThrough(row uint32) uint32 {
	i := sort.Search(len(m.placed), func(i int) bool { return m.placed[i].at > row })
	if i == 0 {
		return 0
	}
	return m.heights[i-1]
}

func (m *BlockMap) totalHeight() uint32 {
	if len(m.heights) == 0 {
		return 0
	}
	return m.heights[len(m.heights)-1]
}

// RowCount returns the number of block rows.
func (m *BlockMap) RowCount() uint32 {
	return m.input.RowCount() + m.totalHeight()
}

// locate returns the wrap row at or after block row row. When row lies in
// a block, k is the index of that block in placed and line the block line;
// otherwise k is -1.
func (m *BlockMap) locate(row uint32) (wrap uint32, k int, line uint32) {
	rows := m.input.RowCount()
	wrap = uint32(sort.Search(int(rows)+1, func(w int) bool {
		return uint32(w)+m.heightThrough(uint32(w)) >= row
	}))
	if wrap < rows && wrap+m.heightThrough(wrap) == row {
		return wrap, -1, 0
	}
	first := wrap + m.heightBefore(wrap)
	i := sort.Search(len(m.placed), func(i int) bool { return m.placed[i].at >= wrap })
	for ; i < len(m.placed) && m.placed[i].at == wrap; i++ {
		if row < first+m.placed[i].height {
			return wrap, i, row - first
		}
		first += m.placed[i].height
	}
	return wrap, -1, 0
}

// Line returns the text of block row row.
func (m *BlockMap) Line(row uint32) string {
	wrap, k, line := m.locate(row)
	if k < 0 {
		return m.input.Line(wrap)
	}
	if lines := m.placed[k].lines; int(line) < len(lines) {
		return lines[line]
	}
	return ""
}

// IsBlockRow reports whether block row row belongs to a block.
func (m *BlockMap) IsBlockRow(row uint32) bool {
	_, k, _ := m.locate(row)
	return k >= 0
}

// ToCoords implements Layer.
func (m *BlockMap) ToCoords(p WrapPoint) BlockPoint {
	return BlockPoint{Row: p.Row + m.heightThrough(p.Row), Column: p.Column}
}

// FromCoords implements Layer. Points inside a block clamp to the start of
// the row it is attached to.
func (m *BlockMap) FromCoords(p BlockPoint) WrapPoint {
	rows := m.input.RowCount()
	if rows == 0 {
		return WrapPoint{}
	}
	if p.Row >= m.RowCount() {
		return WrapPoint{Row: rows - 1, Column: textCells(m.input.Line(rows - 1))}
	}
	wrap, k, _ := m.locate(p.Row)
	if k < 0 {
		return WrapPoint{Row: wrap, Column: p.Column}
	}
	if m.placed[k].placement == Below && wrap > 0 {
		return WrapPoint{Row: wrap - 1}
	}
	return WrapPoint{Row: min(wrap, rows-1)}
}

// PointToOffset returns the offset of p in the block text.
func (m *BlockMap) PointToOffset(p BlockPoint) BlockOffset {
	return BlockOffset(m.starts.offsetOf(m, textCells, m.version, p.Row, p.Column))
}

// OffsetToPoint returns the point at off in the block text.
func (m *BlockMap) OffsetToPoint(off BlockOffset) BlockPoint {
	row, col := m.starts.pointOf(m, textCells, m.version, int64(off))
	return BlockPoint{Row: row, Column: col}
}

var _ Layer[WrapPoint, BlockPoint] = (*BlockMap)(nil)
