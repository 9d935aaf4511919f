package batch

import (
	"sync"
	"time"
)

// DefaultMaxEntries bounds the undo stack when no limit is given.
const DefaultMaxEntries = 1000

// Entry describes one applied batch.
type Entry struct {
	Label     string
	Edits     int
	Timestamp time.Time
}

type historyEntry struct {
	Entry
	before *AST
	after  *AST
}

// History records the ASTs before and after each applied batch so they
// can be undone and redone. ASTs are immutable, so undo hands back the
// earlier version instead of replaying inverse edits.
type History struct {
	mu         sync.Mutex
	current    *AST
	undoStack  []historyEntry
	redoStack  []historyEntry
	maxEntries int
}

// NewHistory starts a history at ast. A maxEntries below one selects
// DefaultMaxEntries.
func NewHistory(ast *AST, maxEntries int) *History {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &History{current: ast, maxEntries: maxEntries}
}

// Current returns the latest AST.
func (h *History) Current() *AST {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Apply applies b to the current AST and records it. The redo stack is
// cleared. On error the history is unchanged.
func (h *History) Apply(b *Batch, label string) (*AST, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	after, err := b.Apply(h.current)
	if err != nil {
		return nil, err
	}
	h.undoStack = append(h.undoStack, historyEntry{
		Entry:  Entry{Label: label, Edits: b.Len(), Timestamp: time.Now()},
		before: h.current,
		after:  after,
	})
	h.redoStack = nil
	if excess := len(h.undoStack) - h.maxEntries; excess > 0 {
		h.undoStack = h.undoStack[excess:]
	}
	h.current = after
	return after, nil
}

// Undo reverts the last applied batch and returns the restored AST.
func (h *History) Undo() (*AST, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	entry := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, entry)
	h.current = entry.before
	return h.current, nil
}

// Redo reapplies the last undone batch and returns the resulting AST.
func (h *History) Redo() (*AST, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	entry := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, entry)
	h.current = entry.after
	return h.current, nil
}

// CanUndo reports whether undo is available.
func (h *History) CanUndo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.undoStack) > 0
}

// CanRedo reports whether redo is available.
func (h *History) CanRedo() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.redoStack) > 0
}

// UndoInfo returns the undoable batches, oldest first.
func (h *History) UndoInfo() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	result := make([]Entry, len(h.undoStack))
	for i, e := range h.undoStack {
		result[i] = e.Entry
	}
	return result
}

// Clear drops both stacks and keeps the current AST.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.undoStack = nil
	h.redoStack = nil
}
