package display

import (
	"cmp"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/index"
)

// anchoredItem is an item kept in position order in an anchorTree.
type anchoredItem interface {
	sumtree.Item[index.RangeSummary, *buffer.Snapshot]
	position() buffer.Anchor
	key() uint64
}

type anchorTree[T anchoredItem] = sumtree.Tree[T, index.RangeSummary, *buffer.Snapshot]

func pointSummary(a buffer.Anchor) index.RangeSummary {
	return index.RangeSummary{Start: a, End: a, MaxStart: a, Count: 1}
}

// insertAnchored places item after every item at or before its position.
func insertAnchored[T anchoredItem](tree anchorTree[T], item T, snap *buffer.Snapshot) anchorTree[T] {
	off := snap.ToOffset(item.position())
	c := tree.Cursor(snap)
	c.Seek(sumtree.SeekFunc[index.RangeSummary, *buffer.Snapshot](func(pos index.RangeSummary, snap *buffer.Snapshot) int {
		if pos.Count == 0 {
			return 1
		}
		return cmp.Compare(off, snap.ToOffset(pos.MaxStart))
	}), sumtree.Right)
	return tree.Insert(c.Index(), []T{item}, snap)
}

// removeAnchored drops the items whose key is in keys and returns them.
func removeAnchored[T anchoredItem](tree anchorTree[T], keys map[uint64]bool, snap *buffer.Snapshot) (anchorTree[T], []T) {
	items := tree.Items()
	kept := items[:0:0]
	var removed []T
	for _, it := range items {
		if keys[it.key()] {
			removed = append(removed, it)
			continue
		}
		kept = append(kept, it)
	}
	if len(removed) == 0 {
		return tree, nil
	}
	return sumtree.FromItems[T, index.RangeSummary](kept, snap), removed
}

// anchoredBetween visits the items positioned in [start, end] in order.
func anchoredBetween[T anchoredItem](tree anchorTree[T], start, end buffer.ByteOffset, snap *buffer.Snapshot, visit func(T, buffer.ByteOffset)) {
	tree.Walk(
		func(sum index.RangeSummary) bool {
			if sum.Count == 0 {
				return false
			}
			lo, hi := sum.Resolve(snap)
			return lo <= end && hi >= start
		},
		func(_ int, it T) bool {
			if off := snap.ToOffset(it.position()); off >= start && off <= end {
				visit(it, off)
			}
			return true
		},
	)
}
