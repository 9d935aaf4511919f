package display

import (
	"slices"
	"sync"
)

// rowCache holds lazily built per-row values of one coordinate space.
// Edits splice it, so rows outside an edit keep their cached value and
// rows after it shift with the edit.
//
// Readers of a DisplayMap share its read lock, so misses filled by get
// are guarded by the cache's own mutex.
type rowCache[T any] struct {
	mu    sync.Mutex
	rows  []T
	valid []bool
}

// reset sizes the cache for n rows and drops every entry.
func (c *rowCache[T]) reset(n uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = make([]T, n)
	c.valid = make([]bool, n)
}

// splice replaces the entries of rows [e.Start, e.OldEnd) with
// e.NewEnd-e.Start invalid entries.
func (c *rowCache[T]) splice(e Edit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := uint32(len(c.rows))
	start, oldEnd := min(e.Start, n), min(e.OldEnd, n)
	if oldEnd < start {
		oldEnd = start
	}
	added := 0
	if e.NewEnd > e.Start {
		added = int(e.NewEnd - e.Start)
	}
	c.rows = slices.Replace(c.rows, int(start), int(oldEnd), make([]T, added)...)
	c.valid = slices.Replace(c.valid, int(start), int(oldEnd), make([]bool, added)...)
}

// get returns the value of row, building it on a miss. Rows outside the
// cache are built every time. build runs without the lock held, so it may
// read other caches.
func (c *rowCache[T]) get(row uint32, build func(uint32) T) T {
	c.mu.Lock()
	if int(row) >= len(c.rows) {
		c.mu.Unlock()
		return build(row)
	}
	if c.valid[row] {
		v := c.rows[row]
		c.mu.Unlock()
		return v
	}
	c.mu.Unlock()

	v := build(row)

	c.mu.Lock()
	if int(row) < len(c.rows) && !c.valid[row] {
		c.rows[row] = v
		c.valid[row] = true
	}
	c.mu.Unlock()
	return v
}

// cached reports whether row holds a built value.
func (c *rowCache[T]) cached(row uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(row) < len(c.valid) && c.valid[row]
}
