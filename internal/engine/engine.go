package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dshills/stoat/internal/batch"
	"github.com/dshills/stoat/internal/display"
	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/tracking"
	"github.com/dshills/stoat/internal/index"
	"github.com/dshills/stoat/internal/lsp"
	"github.com/dshills/stoat/internal/syntax"
	"github.com/dshills/stoat/internal/syntax/treesitter"
)

// Update reports what one edit changed.
type Update struct {
	// Version is the buffer version after the edit.
	Version uint64

	// Patches are the applied edits, ascending.
	Patches []buffer.Patch

	// Rows is the display row range the edit replaced.
	Rows display.Edit

	// Err is set when an index could not follow the edit. The buffer
	// edit itself succeeded; the failing index keeps its previous state.
	Err error
}

// Changed reports whether the edit changed the text.
func (u Update) Changed() bool {
	return len(u.Patches) > 0
}

// View is a consistent set of structural indices for one snapshot.
type View struct {
	Snapshot *buffer.Snapshot
	Tree     syntax.Tree
	Scopes   *index.ScopeIndex
	Brackets *index.BracketIndex
	Symbols  *index.SymbolIndex
}

// Engine owns a buffer and keeps every derived structure in step with it:
// the token map, the syntax tree and the indices built from it, the
// display map and the diagnostic store.
//
// Edits are serialized. Reads go through immutable snapshots and views,
// or through the token map, display map and diagnostic store, which are
// safe for concurrent use on their own.
type Engine struct {
	mu sync.RWMutex

	buf         *buffer.Buffer
	tokens      *index.TokenMap
	display     *display.DisplayMap
	diagnostics *lsp.Store
	lexer       syntax.Lexer
	parser      syntax.Parser
	lang        *index.Language
	view        View

	undo     [][]buffer.Edit
	redo     [][]buffer.Edit
	maxUndo  int
	readOnly bool
	logger   *slog.Logger

	initContent string
	bufOpts     []buffer.Option
	displayOpts []display.Option
	storeOpts   []lsp.StoreOption
}

// New creates an engine and builds every structure for the initial
// content.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	e := &Engine{maxUndo: DefaultMaxUndoEntries}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.lexer == nil {
		e.lexer = syntax.NewSimpleLexer()
	}
	if e.parser == nil {
		e.parser = treesitter.NewRustParser()
	}
	if e.lang == nil {
		e.lang = index.Rust
	}

	bufOpts := append([]buffer.Option{buffer.WithLogger(e.logger)}, e.bufOpts...)
	e.buf = buffer.NewBufferFromString(e.initContent, bufOpts...)
	snap := e.buf.Snapshot()

	e.tokens = index.NewTokenMap(index.WithLexer(e.lexer), index.WithLogger(e.logger))
	if err := e.tokens.Rebuild(snap); err != nil {
		return nil, err
	}
	e.view = View{Snapshot: snap}
	if err := e.reparse(ctx, nil, snap, nil); err != nil {
		return nil, err
	}
	e.display = display.NewDisplayMap(snap, append([]display.Option{display.WithLogger(e.logger)}, e.displayOpts...)...)
	e.diagnostics = lsp.NewStore(append([]lsp.StoreOption{lsp.WithLogger(e.logger)}, e.storeOpts...)...)
	e.diagnostics.Sync(snap)

	e.initContent = ""
	return e, nil
}

// Snapshot returns the current buffer snapshot.
func (e *Engine) Snapshot() *buffer.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view.Snapshot
}

// Text returns the buffer text.
func (e *Engine) Text() string {
	return e.Snapshot().Text()
}

// Version returns the buffer version.
func (e *Engine) Version() uint64 {
	return e.Snapshot().Version()
}

// View returns the indices for the current snapshot.
func (e *Engine) View() View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// Tokens returns the token map.
func (e *Engine) Tokens() *index.TokenMap {
	return e.tokens
}

// Display returns the display map. Folds, inlays and blocks are added
// through it directly.
func (e *Engine) Display() *display.DisplayMap {
	return e.display
}

// Diagnostics returns the diagnostic store.
func (e *Engine) Diagnostics() *lsp.Store {
	return e.diagnostics
}

// Lexer returns the token map's lexer.
func (e *Engine) Lexer() syntax.Lexer {
	return e.lexer
}

// IsReadOnly reports whether edits are rejected.
func (e *Engine) IsReadOnly() bool {
	return e.readOnly
}

// Insert inserts text at offset.
func (e *Engine) Insert(ctx context.Context, offset buffer.ByteOffset, text string) (Update, error) {
	return e.ApplyEdits(ctx, []buffer.Edit{buffer.NewInsert(offset, text)})
}

// Delete removes [start, end).
func (e *Engine) Delete(ctx context.Context, start, end buffer.ByteOffset) (Update, error) {
	return e.ApplyEdits(ctx, []buffer.Edit{buffer.NewDelete(start, end)})
}

// Replace replaces [start, end) with text.
func (e *Engine) Replace(ctx context.Context, start, end buffer.ByteOffset, text string) (Update, error) {
	return e.ApplyEdits(ctx, []buffer.Edit{buffer.NewEdit(buffer.NewRange(start, end), text)})
}

// ApplyEdits applies edits atomically, highest offset first as
// buffer.Buffer.ApplyEdits requires, and brings every index up to date.
// The edits form one undo entry.
func (e *Engine) ApplyEdits(ctx context.Context, edits []buffer.Edit) (Update, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return Update{}, ErrReadOnly
	}

	u, inverse, err := e.apply(ctx, edits)
	if err != nil {
		return u, err
	}
	if len(inverse) > 0 {
		e.pushUndo(inverse)
		e.redo = nil
	}
	return u, nil
}

// SetText replaces the whole text, applying only the difference so that
// anchors, folds and diagnostics outside the changed regions survive.
func (e *Engine) SetText(ctx context.Context, text string) (Update, error) {
	edits := tracking.Diff(e.Text(), text)
	if len(edits) == 0 {
		return Update{Version: e.Version()}, nil
	}
	return e.ApplyEdits(ctx, edits)
}

// ApplyBatch applies a token-level batch. Token indices refer to the
// current text as the engine's lexer splits it, trivia included.
func (e *Engine) ApplyBatch(ctx context.Context, b *batch.Batch) (Update, error) {
	ast, err := batch.Parse(e.Text(), e.lexer)
	if err != nil {
		return Update{}, err
	}
	edits, err := b.BufferEdits(ast)
	if err != nil {
		return Update{}, err
	}
	return e.ApplyEdits(ctx, edits)
}

// Undo reverts the most recent edit.
func (e *Engine) Undo(ctx context.Context) (Update, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return Update{}, ErrReadOnly
	}
	if len(e.undo) == 0 {
		return Update{}, ErrNothingToUndo
	}

	edits := e.undo[len(e.undo)-1]
	u, inverse, err := e.apply(ctx, edits)
	if err != nil {
		return u, err
	}
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, inverse)
	return u, nil
}

// Redo reapplies the most recently undone edit.
func (e *Engine) Redo(ctx context.Context) (Update, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.readOnly {
		return Update{}, ErrReadOnly
	}
	if len(e.redo) == 0 {
		return Update{}, ErrNothingToRedo
	}

	edits := e.redo[len(e.redo)-1]
	u, inverse, err := e.apply(ctx, edits)
	if err != nil {
		return u, err
	}
	e.redo = e.redo[:len(e.redo)-1]
	e.pushUndo(inverse)
	return u, nil
}

// CanUndo reports whether Undo has an entry.
func (e *Engine) CanUndo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.undo) > 0
}

// CanRedo reports whether Redo has an entry.
func (e *Engine) CanRedo() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.redo) > 0
}

func (e *Engine) pushUndo(edits []buffer.Edit) {
	e.undo = append(e.undo, edits)
	if over := len(e.undo) - e.maxUndo; over > 0 {
		e.undo = append(e.undo[:0], e.undo[over:]...)
	}
}

// apply edits the buffer and syncs every structure. It returns the edits
// that undo it.
func (e *Engine) apply(ctx context.Context, edits []buffer.Edit) (Update, []buffer.Edit, error) {
	before := e.view.Snapshot
	patches, err := e.buf.ApplyEdits(edits)
	if err != nil {
		return Update{}, nil, fmt.Errorf("apply edits: %w", err)
	}
	after := e.buf.Snapshot()
	if len(patches) == 0 {
		return Update{Version: after.Version()}, nil, nil
	}

	u := Update{Version: after.Version(), Patches: patches}
	var errs []error
	if err := e.tokens.Sync(after, patches); err != nil {
		e.logger.Warn("token map kept stale tokens", "version", after.Version(), "error", err)
		errs = append(errs, err)
	}
	e.view.Snapshot = after
	if err := e.reparse(ctx, before, after, patches); err != nil {
		e.logger.Warn("indices kept previous tree", "version", after.Version(), "error", err)
		errs = append(errs, err)
	}
	rows, err := e.display.Sync(after, patches)
	if err != nil {
		errs = append(errs, err)
	}
	u.Rows = rows
	e.diagnostics.Sync(after)
	u.Err = errors.Join(errs...)

	e.logger.Debug("engine synced",
		"version", after.Version(), "patches", len(patches), "rows", rows.String())
	return u, invert(before, patches), nil
}

// reparse parses after and rebuilds the structural indices. On failure
// the previous indices stay in the view; their anchors still resolve
// against the new snapshot.
func (e *Engine) reparse(ctx context.Context, before, after *buffer.Snapshot, patches []buffer.Patch) error {
	var tree syntax.Tree
	var err error
	if inc, ok := e.parser.(syntax.IncrementalParser); ok && e.view.Tree != nil && before != nil {
		tree, err = inc.Reparse(ctx, e.view.Tree, syntax.EditsFromPatches(before, after, patches), after.Text())
	} else {
		tree, err = e.parser.Parse(ctx, after.Text())
	}
	if err != nil {
		return fmt.Errorf("parse version %d: %w", after.Version(), err)
	}

	e.view = View{
		Snapshot: after,
		Tree:     tree,
		Scopes:   index.BuildScopes(tree, after, e.lang),
		Brackets: index.BuildBrackets(tree, after, e.lang),
		Symbols:  index.BuildSymbols(tree, after, e.lang),
	}
	return nil
}

// invert returns the edits that turn the text after patches back into
// before, highest offset first.
func invert(before *buffer.Snapshot, patches []buffer.Patch) []buffer.Edit {
	edits := make([]buffer.Edit, 0, len(patches))
	for i := len(patches) - 1; i >= 0; i-- {
		p := patches[i]
		edits = append(edits, buffer.NewEdit(p.New, before.TextForRange(p.Old)))
	}
	return edits
}
