package index

import (
	"cmp"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
)

// RangeSummary aggregates a run of anchor-ranged entries sorted by start.
// Start is the first start, End the greatest end and MaxStart the last
// start. The zero value summarizes an empty run.
//
// Anchor order survives edits, so summaries computed against an older
// snapshot stay valid for newer ones.
type RangeSummary struct {
	Start    buffer.Anchor
	End      buffer.Anchor
	MaxStart buffer.Anchor
	Count    int
}

// rangeSummaryOf summarizes a single entry.
func rangeSummaryOf(r buffer.AnchorRange) RangeSummary {
	return RangeSummary{Start: r.Start, End: r.End, MaxStart: r.Start, Count: 1}
}

// Add implements sumtree.Summary.
func (s RangeSummary) Add(o RangeSummary, snap *buffer.Snapshot) RangeSummary {
	if s.Count == 0 {
		return o
	}
	if o.Count == 0 {
		return s
	}
	end := s.End
	if o.End.Cmp(end, snap) > 0 {
		end = o.End
	}
	return RangeSummary{Start: s.Start, End: end, MaxStart: o.MaxStart, Count: s.Count + o.Count}
}

// Resolve returns the run's start and greatest end in snap.
func (s RangeSummary) Resolve(snap *buffer.Snapshot) (start, end buffer.ByteOffset) {
	return snap.ToOffset(s.Start), snap.ToOffset(s.End)
}

// overlaps reports whether some entry of the run may overlap [start, end).
// Empty query ranges match entries containing start.
func (s RangeSummary) overlaps(start, end buffer.ByteOffset, snap *buffer.Snapshot) bool {
	if s.Count == 0 {
		return false
	}
	lo, hi := s.Resolve(snap)
	if start == end {
		return lo <= start && hi > start
	}
	return lo < end && hi > start
}

// mayContain reports whether some entry of the run may contain off, with
// [start, end) semantics.
func (s RangeSummary) mayContain(off buffer.ByteOffset, snap *buffer.Snapshot) bool {
	if s.Count == 0 {
		return false
	}
	lo, hi := s.Resolve(snap)
	return lo <= off && hi > off
}

// startsAfter seeks (Left) to the first entry starting at or after off,
// or (Right) to the first entry starting after it.
func startsAfter[S any](off buffer.ByteOffset, start func(S) RangeSummary) sumtree.SeekFunc[S, *buffer.Snapshot] {
	return func(pos S, snap *buffer.Snapshot) int {
		s := start(pos)
		if s.Count == 0 {
			return 1
		}
		return cmp.Compare(off, snap.ToOffset(s.MaxStart))
	}
}

// endsAfter seeks (Left) to the first entry ending at or after off, or
// (Right) to the first entry ending after it. Only meaningful for entries
// that do not nest, where ends grow with starts.
func endsAfter[S any](off buffer.ByteOffset, end func(S) RangeSummary) sumtree.SeekFunc[S, *buffer.Snapshot] {
	return func(pos S, snap *buffer.Snapshot) int {
		s := end(pos)
		if s.Count == 0 {
			return 1
		}
		return cmp.Compare(off, snap.ToOffset(s.End))
	}
}

func identity(s RangeSummary) RangeSummary { return s }
