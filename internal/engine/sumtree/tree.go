package sumtree

// Summary is an aggregate over a run of items.
// Add must be associative, and the zero value must be its identity.
type Summary[S any, C any] interface {
	Add(other S, ctx C) S
}

// Item is a value stored in a Tree.
type Item[S any, C any] interface {
	Summary(ctx C) S
}

// Tree is a persistent ordered sequence of items indexed by summary.
// The zero value is an empty tree.
type Tree[T Item[S, C], S Summary[S, C], C any] struct {
	root *node[T, S]
}

// FromItems builds a tree holding items in order in O(n).
func FromItems[T Item[S, C], S Summary[S, C], C any](items []T, ctx C) Tree[T, S, C] {
	var t Tree[T, S, C]
	if len(items) == 0 {
		return t
	}

	level := make([]*node[T, S], 0, (len(items)+MaxItems-1)/MaxItems)
	for start := 0; start < len(items); start += MaxItems {
		end := min(start+MaxItems, len(items))
		chunk := make([]T, end-start)
		copy(chunk, items[start:end])
		level = append(level, t.newLeaf(chunk, ctx))
	}

	for len(level) > 1 {
		next := make([]*node[T, S], 0, (len(level)+MaxChildren-1)/MaxChildren)
		for start := 0; start < len(level); start += MaxChildren {
			end := min(start+MaxChildren, len(level))
			next = append(next, t.group(level[start:end:end], ctx))
		}
		level = next
	}

	return Tree[T, S, C]{root: level[0]}
}

// Len returns the number of items.
func (t Tree[T, S, C]) Len() int {
	if t.root == nil {
		return 0
	}
	return t.root.count
}

// IsEmpty returns true if the tree holds no items.
func (t Tree[T, S, C]) IsEmpty() bool {
	return t.root == nil
}

// Summary returns the summary of all items.
func (t Tree[T, S, C]) Summary() S {
	if t.root == nil {
		var zero S
		return zero
	}
	return t.root.summary
}

// Push returns a tree with item appended in O(log n).
func (t Tree[T, S, C]) Push(item T, ctx C) Tree[T, S, C] {
	sum := item.Summary(ctx)
	if t.root == nil {
		return Tree[T, S, C]{root: t.leafFrom([]T{item}, []S{sum}, ctx)}
	}
	left, right := t.push(t.root, item, sum, ctx)
	if right == nil {
		return Tree[T, S, C]{root: left}
	}
	return Tree[T, S, C]{root: t.newInternal([]*node[T, S]{left, right}, ctx)}
}

// Append returns the concatenation of t and other in O(log n).
func (t Tree[T, S, C]) Append(other Tree[T, S, C], ctx C) Tree[T, S, C] {
	return Tree[T, S, C]{root: collapse(t.joinNodes(t.root, other.root, ctx))}
}

// Extend returns a tree with items appended.
func (t Tree[T, S, C]) Extend(items []T, ctx C) Tree[T, S, C] {
	return t.Append(FromItems[T, S](items, ctx), ctx)
}

// SplitAt returns the first idx items and the remaining items as two trees.
// The index is clamped to [0, Len].
func (t Tree[T, S, C]) SplitAt(idx int, ctx C) (Tree[T, S, C], Tree[T, S, C]) {
	if t.root == nil {
		return t, t
	}
	l, r := t.split(t.root, idx, ctx)
	return Tree[T, S, C]{root: collapse(l)}, Tree[T, S, C]{root: collapse(r)}
}

// Insert returns a tree with items inserted before index idx.
func (t Tree[T, S, C]) Insert(idx int, items []T, ctx C) Tree[T, S, C] {
	return t.Replace(idx, idx, items, ctx)
}

// Remove returns a tree without the items in [start, end).
func (t Tree[T, S, C]) Remove(start, end int, ctx C) Tree[T, S, C] {
	return t.Replace(start, end, nil, ctx)
}

// Replace returns a tree with the items in [start, end) replaced by items.
// Indices are clamped to [0, Len].
func (t Tree[T, S, C]) Replace(start, end int, items []T, ctx C) Tree[T, S, C] {
	start = max(0, min(start, t.Len()))
	end = max(start, min(end, t.Len()))

	left, rest := t.SplitAt(start, ctx)
	_, right := rest.SplitAt(end-start, ctx)
	return left.Append(FromItems[T, S](items, ctx), ctx).Append(right, ctx)
}

// Get returns the item at index idx.
func (t Tree[T, S, C]) Get(idx int) (T, bool) {
	n := t.root
	if n == nil || idx < 0 || idx >= n.count {
		var zero T
		return zero, false
	}
	for !n.isLeaf() {
		for _, child := range n.children {
			if idx < child.count {
				n = child
				break
			}
			idx -= child.count
		}
	}
	return n.items[idx], true
}

// First returns the first item.
func (t Tree[T, S, C]) First() (T, bool) {
	return t.Get(0)
}

// Last returns the last item.
func (t Tree[T, S, C]) Last() (T, bool) {
	return t.Get(t.Len() - 1)
}

// Items returns all items in order.
func (t Tree[T, S, C]) Items() []T {
	out := make([]T, 0, t.Len())
	t.Each(func(_ int, item T) bool {
		out = append(out, item)
		return true
	})
	return out
}

// Each calls fn for every item in order until fn returns false.
func (t Tree[T, S, C]) Each(fn func(idx int, item T) bool) {
	if t.root == nil {
		return
	}
	idx := 0
	each(t.root, &idx, fn)
}

func each[T any, S any](n *node[T, S], idx *int, fn func(int, T) bool) bool {
	if n.isLeaf() {
		for _, item := range n.items {
			if !fn(*idx, item) {
				return false
			}
			*idx++
		}
		return true
	}
	for _, child := range n.children {
		if !each(child, idx, fn) {
			return false
		}
	}
	return true
}

// Walk visits items in order, skipping every subtree and item whose summary
// is rejected by keep. keep must be conservative: if it rejects a summary it
// must reject the summary of every part of that run. The walk stops when
// visit returns false.
func (t Tree[T, S, C]) Walk(keep func(S) bool, visit func(idx int, item T) bool) {
	if t.root == nil || !keep(t.root.summary) {
		return
	}
	walk(t.root, 0, keep, visit)
}

func walk[T any, S any](n *node[T, S], base int, keep func(S) bool, visit func(int, T) bool) bool {
	if n.isLeaf() {
		for i, item := range n.items {
			if !keep(n.itemSummaries[i]) {
				continue
			}
			if !visit(base+i, item) {
				return false
			}
		}
		return true
	}
	for i, child := range n.children {
		if keep(n.childSummaries[i]) {
			if !walk(child, base, keep, visit) {
				return false
			}
		}
		base += child.count
	}
	return true
}

// Height returns the height of the tree. Empty and single-leaf trees have
// height 0.
func (t Tree[T, S, C]) Height() int {
	if t.root == nil {
		return 0
	}
	return int(t.root.height)
}
