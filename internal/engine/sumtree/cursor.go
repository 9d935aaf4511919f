package sumtree

// Bias selects which side of an exact match a seek lands on.
type Bias uint8

const (
	// Left stops at the first item whose end reaches the target.
	Left Bias = iota
	// Right stops at the first item whose end passes the target.
	Right
)

// SeekTarget locates a position in a tree by its summary.
// Compare returns a negative value if the target lies before the end of the
// run summarized by pos, zero if it lies exactly at its end, and a positive
// value if it lies after. It must be monotone over growing prefixes.
type SeekTarget[S any, C any] interface {
	Compare(pos S, ctx C) int
}

// SeekFunc adapts a function to a SeekTarget.
type SeekFunc[S any, C any] func(pos S, ctx C) int

// Compare implements SeekTarget.
func (f SeekFunc[S, C]) Compare(pos S, ctx C) int {
	return f(pos, ctx)
}

// frame is one step of the cursor's root-to-leaf path.
type frame[T any, S any] struct {
	node *node[T, S]
	idx  int
}

// Cursor walks the items of a tree in order while tracking the summary of
// the items before the current one.
// A new cursor is positioned before the first item; call Next or Seek.
type Cursor[T Item[S, C], S Summary[S, C], C any] struct {
	tree  Tree[T, S, C]
	ctx   C
	stack []frame[T, S]
	start S   // summary of items before the current item
	index int // index of the current item
	began bool
}

// NewCursor creates a cursor over tree using ctx to combine summaries.
func NewCursor[T Item[S, C], S Summary[S, C], C any](tree Tree[T, S, C], ctx C) *Cursor[T, S, C] {
	return &Cursor[T, S, C]{
		tree:  tree,
		ctx:   ctx,
		stack: make([]frame[T, S], 0, 8),
	}
}

// Cursor returns a cursor over the tree.
func (t Tree[T, S, C]) Cursor(ctx C) *Cursor[T, S, C] {
	return NewCursor(t, ctx)
}

// Reset positions the cursor before the first item.
func (c *Cursor[T, S, C]) Reset() {
	var zero S
	c.stack = c.stack[:0]
	c.start = zero
	c.index = 0
	c.began = false
}

// Valid returns true if the cursor is positioned on an item.
func (c *Cursor[T, S, C]) Valid() bool {
	return len(c.stack) > 0
}

// Item returns the current item.
func (c *Cursor[T, S, C]) Item() (T, bool) {
	if len(c.stack) == 0 {
		var zero T
		return zero, false
	}
	top := c.stack[len(c.stack)-1]
	return top.node.items[top.idx], true
}

// ItemSummary returns the summary of the current item.
func (c *Cursor[T, S, C]) ItemSummary() S {
	if len(c.stack) == 0 {
		var zero S
		return zero
	}
	top := c.stack[len(c.stack)-1]
	return top.node.itemSummaries[top.idx]
}

// Index returns the index of the current item, or Len when past the end.
func (c *Cursor[T, S, C]) Index() int {
	return c.index
}

// Start returns the summary of all items before the current item.
func (c *Cursor[T, S, C]) Start() S {
	return c.start
}

// End returns the summary of all items up to and including the current item.
func (c *Cursor[T, S, C]) End() S {
	return c.start.Add(c.ItemSummary(), c.ctx)
}

// Next advances to the next item and reports whether one exists.
func (c *Cursor[T, S, C]) Next() bool {
	if !c.began {
		c.began = true
		if c.tree.root == nil {
			return false
		}
		c.descendFirst(c.tree.root)
		return true
	}
	if len(c.stack) == 0 {
		return false
	}

	c.start = c.End()
	c.index++

	top := &c.stack[len(c.stack)-1]
	top.idx++
	if top.idx < len(top.node.items) {
		return true
	}

	c.stack = c.stack[:len(c.stack)-1]
	for len(c.stack) > 0 {
		f := &c.stack[len(c.stack)-1]
		f.idx++
		if f.idx < len(f.node.children) {
			c.descendFirst(f.node.children[f.idx])
			return true
		}
		c.stack = c.stack[:len(c.stack)-1]
	}
	return false
}

// descendFirst pushes the leftmost path of n.
func (c *Cursor[T, S, C]) descendFirst(n *node[T, S]) {
	for !n.isLeaf() {
		c.stack = append(c.stack, frame[T, S]{node: n})
		n = n.children[0]
	}
	c.stack = append(c.stack, frame[T, S]{node: n})
}

// Seek positions the cursor at the first item whose inclusive prefix
// summary reaches target (Left) or passes it (Right), in O(log n).
// It returns false and leaves the cursor past the end when no item does.
func (c *Cursor[T, S, C]) Seek(target SeekTarget[S, C], bias Bias) bool {
	c.Reset()
	c.began = true

	n := c.tree.root
	if n == nil {
		return false
	}

	stops := func(end S) bool {
		cmp := target.Compare(end, c.ctx)
		return cmp < 0 || (cmp == 0 && bias == Left)
	}

	for {
		if n.isLeaf() {
			for i, s := range n.itemSummaries {
				end := c.start.Add(s, c.ctx)
				if stops(end) {
					c.stack = append(c.stack, frame[T, S]{node: n, idx: i})
					return true
				}
				c.start = end
				c.index++
			}
			c.stack = c.stack[:0]
			return false
		}

		descended := false
		for i, s := range n.childSummaries {
			end := c.start.Add(s, c.ctx)
			if stops(end) {
				c.stack = append(c.stack, frame[T, S]{node: n, idx: i})
				n = n.children[i]
				descended = true
				break
			}
			c.start = end
			c.index += n.children[i].count
		}
		if !descended {
			c.stack = c.stack[:0]
			return false
		}
	}
}
