package display

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dshills/stoat/internal/engine/buffer"
)

// Option configures a DisplayMap.
type Option func(*config)

type config struct {
	tabWidth    uint32
	wrapWidth   uint32
	placeholder string
	logger      *slog.Logger
}

// WithTabWidth sets the tab width. The default is DefaultTabWidth.
func WithTabWidth(w uint32) Option {
	return func(c *config) {
		c.tabWidth = w
	}
}

// WithWrapWidth sets the wrap width in cells. Zero, the default, disables
// wrapping.
func WithWrapWidth(w uint32) Option {
	return func(c *config) {
		c.wrapWidth = w
	}
}

// WithFoldPlaceholder sets the text shown for folds created without one.
func WithFoldPlaceholder(p string) Option {
	return func(c *config) {
		c.placeholder = p
	}
}

// WithLogger sets the logger for sync diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// DisplayMap composes the coordinate layers between buffer points and
// display points. Display points are block points.
//
// DisplayMap is safe for concurrent use.
type DisplayMap struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	inlays  *InlayMap
	folds   *FoldMap
	tabs    *TabMap
	wraps   *WrapMap
	blocks  *BlockMap
	version uint64
}

// NewDisplayMap builds every layer for snap.
func NewDisplayMap(snap *buffer.Snapshot, opts ...Option) *DisplayMap {
	cfg := config{tabWidth: DefaultTabWidth}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	m := &DisplayMap{logger: cfg.logger}
	m.inlays = NewInlayMap(snap)
	m.folds = NewFoldMap(m.inlays, cfg.placeholder)
	m.tabs = NewTabMap(m.folds, cfg.tabWidth)
	m.wraps = NewWrapMap(m.tabs, cfg.wrapWidth)
	m.blocks = NewBlockMap(m.wraps)
	return m
}

// Snapshot returns the synced buffer snapshot.
func (m *DisplayMap) Snapshot() *buffer.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inlays.Snapshot()
}

// Version is bumped by every change to the display.
func (m *DisplayMap) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Sync applies the patches that led to snap. All patches of one call are
// treated as one row edit spanning them. Without patches every row is
// rebuilt. Snapshots older than or equal to the synced one are ignored.
func (m *DisplayMap) Sync(snap *buffer.Snapshot, patches []buffer.Patch) (Edit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := m.inlays.Snapshot()
	if snap.ID() != before.ID() {
		return Edit{}, fmt.Errorf("sync display map: %w", ErrForeignSnapshot)
	}
	if snap.Version() <= before.Version() {
		m.logger.Debug("display map sync ignored stale snapshot",
			"version", snap.Version(), "synced", before.Version())
		return Edit{}, nil
	}

	e := Edit{Start: 0, OldEnd: before.LineCount(), NewEnd: snap.LineCount()}
	if len(patches) > 0 {
		first, last := patches[0], patches[len(patches)-1]
		e = Edit{
			Start:  snap.OffsetToPoint(first.New.Start).Line,
			OldEnd: before.OffsetToPoint(last.Old.End).Line + 1,
			NewEnd: snap.OffsetToPoint(last.New.End).Line + 1,
		}
	}

	m.inlays.setSnapshot(snap)
	out := m.apply(e, true)
	m.logger.Debug("display map synced",
		"version", snap.Version(), "patches", len(patches), "edit", e.String(), "display", out.String())
	return out, nil
}

// apply threads a row edit through the layers below the one that made it.
// fromInlays starts at the inlay layer, otherwise at the fold layer.
func (m *DisplayMap) apply(e Edit, fromInlays bool) Edit {
	if fromInlays {
		e = m.inlays.ApplyEdit(e)
	}
	e = m.folds.ApplyEdit(e)
	return m.fromTabs(e)
}

func (m *DisplayMap) fromTabs(e Edit) Edit {
	e = m.tabs.ApplyEdit(e)
	return m.fromWraps(e)
}

func (m *DisplayMap) fromWraps(e Edit) Edit {
	e = m.wraps.ApplyEdit(e)
	e = m.blocks.ApplyEdit(e)
	m.version++
	return e
}

// ToDisplayPoint maps a buffer point to the display.
func (m *DisplayMap) ToDisplayPoint(p buffer.Point) DisplayPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.toDisplay(p)
}

func (m *DisplayMap) toDisplay(p buffer.Point) DisplayPoint {
	bp := m.blocks.ToCoords(m.wraps.ToCoords(m.tabs.ToCoords(m.folds.ToCoords(m.inlays.ToCoords(p)))))
	return DisplayPoint(bp)
}

// FromDisplayPoint maps a display point back to the buffer. Points in
// synthetic text clamp to the start of the region.
func (m *DisplayMap) FromDisplayPoint(p DisplayPoint) buffer.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inlays.FromCoords(m.folds.FromCoords(m.tabs.FromCoords(m.wraps.FromCoords(m.blocks.FromCoords(BlockPoint(p))))))
}

// ToDisplayOffset maps a buffer offset to a display point.
func (m *DisplayMap) ToDisplayOffset(off buffer.ByteOffset) DisplayPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.inlays.Snapshot()
	return m.toDisplay(snap.OffsetToPoint(snap.ClipOffset(off)))
}

// FromDisplayOffset maps a display point to a buffer offset.
func (m *DisplayMap) FromDisplayOffset(p DisplayPoint) buffer.ByteOffset {
	pt := m.FromDisplayPoint(p)
	return m.Snapshot().PointToOffset(pt)
}

// RowCount returns the number of display rows.
func (m *DisplayMap) RowCount() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocks.RowCount()
}

// LineText returns the text of display row row. Rows past the end are
// empty.
func (m *DisplayMap) LineText(row uint32) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if row >= m.blocks.RowCount() {
		return ""
	}
	return m.blocks.Line(row)
}

// IsBlockRow reports whether display row row belongs to a block.
func (m *DisplayMap) IsBlockRow(row uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return row < m.blocks.RowCount() && m.blocks.IsBlockRow(row)
}

// Text returns every display row joined by newlines.
func (m *DisplayMap) Text() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var b strings.Builder
	for row := uint32(0); row < m.blocks.RowCount(); row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.blocks.Line(row))
	}
	return b.String()
}

// MaxPoint returns the end of the last display row.
func (m *DisplayMap) MaxPoint() DisplayPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.blocks.RowCount()
	if rows == 0 {
		return DisplayPoint{}
	}
	return DisplayPoint{Row: rows - 1, Column: textCells(m.blocks.Line(rows - 1))}
}

// DisplayOffset returns the offset of p in the display text.
func (m *DisplayMap) DisplayOffset(p DisplayPoint) DisplayOffset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return DisplayOffset(m.blocks.PointToOffset(BlockPoint(p)))
}

// DisplayPointAt returns the display point at off in the display text.
func (m *DisplayMap) DisplayPointAt(off DisplayOffset) DisplayPoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return DisplayPoint(m.blocks.OffsetToPoint(BlockOffset(off)))
}

// InsertInlay shows text at offset.
func (m *DisplayMap) InsertInlay(offset buffer.ByteOffset, text string, bias buffer.Bias) (InlayID, Edit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, e := m.inlays.Insert(offset, text, bias)
	return id, m.apply(e, false)
}

// RemoveInlays removes inlays by id.
func (m *DisplayMap) RemoveInlays(ids ...InlayID) (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.inlays.Remove(ids...)
	if !ok {
		return Edit{}, false
	}
	return m.apply(e, false), true
}

// Inlays returns every inlay in position order.
func (m *DisplayMap) Inlays() []Inlay {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inlays.Inlays()
}

// Fold collapses [start, end). An empty placeholder selects the default.
func (m *DisplayMap) Fold(start, end buffer.ByteOffset, placeholder string) (FoldID, Edit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, e, err := m.folds.Fold(start, end, placeholder)
	if err != nil {
		return 0, Edit{}, err
	}
	return id, m.fromTabs(e), nil
}

// Unfold removes folds by id.
func (m *DisplayMap) Unfold(ids ...FoldID) (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.folds.Unfold(ids...)
	if !ok {
		return Edit{}, false
	}
	return m.fromTabs(e), true
}

// UnfoldRange removes every fold overlapping [start, end), or containing
// start when the range is empty.
func (m *DisplayMap) UnfoldRange(start, end buffer.ByteOffset) (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.folds.UnfoldRange(start, end)
	if !ok {
		return Edit{}, false
	}
	return m.fromTabs(e), true
}

// IsFolded reports whether offset is hidden by a fold.
func (m *DisplayMap) IsFolded(offset buffer.ByteOffset) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.folds.IsFolded(offset)
}

// Folds returns every fold in position order.
func (m *DisplayMap) Folds() []Fold {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.folds.Folds()
}

// InsertBlock attaches a block to the line holding offset.
func (m *DisplayMap) InsertBlock(offset buffer.ByteOffset, placement Placement, height uint32, text string) (BlockID, Edit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, e := m.blocks.Insert(offset, placement, height, text)
	m.version++
	return id, e
}

// RemoveBlocks removes blocks by id.
func (m *DisplayMap) RemoveBlocks(ids ...BlockID) (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.blocks.Remove(ids...)
	if ok {
		m.version++
	}
	return e, ok
}

// ResizeBlock changes the height of a block.
func (m *DisplayMap) ResizeBlock(id BlockID, height uint32) (Edit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, err := m.blocks.Resize(id, height)
	if err != nil {
		return Edit{}, err
	}
	m.version++
	return e, nil
}

// Blocks returns every block in position order.
func (m *DisplayMap) Blocks() []Block {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.blocks.Blocks()
}

// TabWidth returns the tab width.
func (m *DisplayMap) TabWidth() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tabs.TabWidth()
}

// SetTabWidth changes the tab width.
func (m *DisplayMap) SetTabWidth(w uint32) Edit {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fromWraps(m.tabs.SetTabWidth(w))
}

// WrapWidth returns the wrap width.
func (m *DisplayMap) WrapWidth() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wraps.Width()
}

// SetWrapWidth changes the wrap width. Zero disables wrapping.
func (m *DisplayMap) SetWrapWidth(w uint32) Edit {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.wraps.SetWidth(w)
	e = m.blocks.ApplyEdit(e)
	m.version++
	return e
}
