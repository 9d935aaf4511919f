package sumtree

// Tree structure constants
const (
	// MaxChildren is the maximum children per internal node before splitting.
	MaxChildren = 8

	// MaxItems is the maximum items in a leaf node before splitting.
	MaxItems = 8
)

// node is a node in the summary tree.
// Leaf nodes (height == 0) contain items.
// Internal nodes (height > 0) contain child node references.
// Nodes are never modified after construction.
type node[T any, S any] struct {
	height  uint8 // 0 for leaves, >0 for internal
	summary S     // Aggregated summary for entire subtree
	count   int   // Number of items in subtree

	// Internal node fields (height > 0)
	children       []*node[T, S]
	childSummaries []S

	// Leaf node fields (height == 0)
	items         []T
	itemSummaries []S
}

// isLeaf returns true if this is a leaf node.
func (n *node[T, S]) isLeaf() bool {
	return n.height == 0
}

// newLeaf creates a leaf from items, computing their summaries.
func (Tree[T, S, C]) newLeaf(items []T, ctx C) *node[T, S] {
	sums := make([]S, len(items))
	for i, it := range items {
		sums[i] = it.Summary(ctx)
	}
	return Tree[T, S, C]{}.leafFrom(items, sums, ctx)
}

// leafFrom creates a leaf from items with precomputed summaries.
func (Tree[T, S, C]) leafFrom(items []T, sums []S, ctx C) *node[T, S] {
	var total S
	for _, s := range sums {
		total = total.Add(s, ctx)
	}
	return &node[T, S]{
		summary:       total,
		count:         len(items),
		items:         items,
		itemSummaries: sums,
	}
}

// newInternal creates an internal node with the given children.
// All children must have the same height.
func (Tree[T, S, C]) newInternal(children []*node[T, S], ctx C) *node[T, S] {
	sums := make([]S, len(children))
	var total S
	count := 0
	for i, child := range children {
		sums[i] = child.summary
		total = total.Add(child.summary, ctx)
		count += child.count
	}
	return &node[T, S]{
		height:         children[0].height + 1,
		summary:        total,
		count:          count,
		children:       children,
		childSummaries: sums,
	}
}

// packLeaves builds one leaf, or two halves when the items overflow.
func (t Tree[T, S, C]) packLeaves(items []T, sums []S, ctx C) []*node[T, S] {
	if len(items) <= MaxItems {
		return []*node[T, S]{t.leafFrom(items, sums, ctx)}
	}
	mid := len(items) / 2
	return []*node[T, S]{
		t.leafFrom(items[:mid:mid], sums[:mid:mid], ctx),
		t.leafFrom(items[mid:], sums[mid:], ctx),
	}
}

// packChildren builds one internal node, or two halves when the children overflow.
func (t Tree[T, S, C]) packChildren(children []*node[T, S], ctx C) []*node[T, S] {
	if len(children) <= MaxChildren {
		return []*node[T, S]{t.newInternal(children, ctx)}
	}
	mid := len(children) / 2
	return []*node[T, S]{
		t.newInternal(children[:mid:mid], ctx),
		t.newInternal(children[mid:], ctx),
	}
}

// push appends an item to the rightmost leaf of n.
// It returns the replacement for n and an optional right sibling on split.
func (t Tree[T, S, C]) push(n *node[T, S], item T, sum S, ctx C) (*node[T, S], *node[T, S]) {
	if n.isLeaf() {
		items := concat(n.items, []T{item})
		sums := concat(n.itemSummaries, []S{sum})
		parts := t.packLeaves(items, sums, ctx)
		if len(parts) == 1 {
			return parts[0], nil
		}
		return parts[0], parts[1]
	}

	last := len(n.children) - 1
	left, right := t.push(n.children[last], item, sum, ctx)
	children := concat(n.children[:last], []*node[T, S]{left})
	if right != nil {
		children = append(children, right)
	}
	parts := t.packChildren(children, ctx)
	if len(parts) == 1 {
		return parts[0], nil
	}
	return parts[0], parts[1]
}

// join concatenates two subtrees. The result is one or two nodes whose
// height equals the taller input.
func (t Tree[T, S, C]) join(l, r *node[T, S], ctx C) []*node[T, S] {
	switch {
	case l.height == r.height:
		if l.isLeaf() {
			return t.packLeaves(concat(l.items, r.items), concat(l.itemSummaries, r.itemSummaries), ctx)
		}
		return t.packChildren(concat(l.children, r.children), ctx)

	case l.height > r.height:
		last := len(l.children) - 1
		parts := t.join(l.children[last], r, ctx)
		return t.packChildren(concat(l.children[:last], parts), ctx)

	default:
		parts := t.join(l, r.children[0], ctx)
		return t.packChildren(concat(parts, r.children[1:]), ctx)
	}
}

// joinNodes concatenates two possibly nil subtrees into a single node.
func (t Tree[T, S, C]) joinNodes(l, r *node[T, S], ctx C) *node[T, S] {
	if l == nil {
		return r
	}
	if r == nil {
		return l
	}
	parts := t.join(l, r, ctx)
	if len(parts) == 1 {
		return parts[0]
	}
	return t.newInternal(parts, ctx)
}

// group wraps sibling nodes in a single node, or returns nil if empty.
func (t Tree[T, S, C]) group(children []*node[T, S], ctx C) *node[T, S] {
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return t.newInternal(children, ctx)
	}
}

// split divides n into the subtree holding its first idx items and the
// subtree holding the rest. Either side may be nil.
func (t Tree[T, S, C]) split(n *node[T, S], idx int, ctx C) (*node[T, S], *node[T, S]) {
	if idx <= 0 {
		return nil, n
	}
	if idx >= n.count {
		return n, nil
	}

	if n.isLeaf() {
		left := t.leafFrom(n.items[:idx:idx], n.itemSummaries[:idx:idx], ctx)
		right := t.leafFrom(n.items[idx:], n.itemSummaries[idx:], ctx)
		return left, right
	}

	for i, child := range n.children {
		if idx < child.count {
			cl, cr := t.split(child, idx, ctx)
			left := t.joinNodes(t.group(n.children[:i:i], ctx), cl, ctx)
			right := t.joinNodes(cr, t.group(n.children[i+1:], ctx), ctx)
			return left, right
		}
		idx -= child.count
	}
	return n, nil
}

// collapse strips single-child internal roots.
func collapse[T any, S any](n *node[T, S]) *node[T, S] {
	for n != nil && !n.isLeaf() && len(n.children) == 1 {
		n = n.children[0]
	}
	return n
}

// concat returns a fresh slice holding a followed by b.
func concat[E any](a, b []E) []E {
	out := make([]E, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
