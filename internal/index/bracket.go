package index

import (
	"cmp"
	"slices"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/syntax"
)

// BracketKind classifies a bracket pair.
type BracketKind uint8

// Bracket kinds.
const (
	BracketParen BracketKind = iota
	BracketSquare
	BracketBrace
	BracketAngle
)

// String returns the kind name.
func (k BracketKind) String() string {
	switch k {
	case BracketParen:
		return "paren"
	case BracketSquare:
		return "bracket"
	case BracketBrace:
		return "brace"
	case BracketAngle:
		return "angle"
	}
	return "unknown"
}

// Bracket is a matched open/close pair. Both anchors sit before their
// bracket character.
type Bracket struct {
	Open  buffer.Anchor
	Close buffer.Anchor
	Kind  BracketKind
}

// Span returns the pair as a range from the open bracket to just past the
// close bracket.
func (b Bracket) Span(snap *buffer.Snapshot) buffer.Range {
	op, cl := snap.ToOffset(b.Open), snap.ToOffset(b.Close)
	return buffer.Range{Start: op, End: max(op, cl+1)}
}

// Summary implements sumtree.Item.
func (b Bracket) Summary(*buffer.Snapshot) RangeSummary {
	return rangeSummaryOf(buffer.AnchorRange{Start: b.Open, End: b.Close})
}

type bracketTree = sumtree.Tree[Bracket, RangeSummary, *buffer.Snapshot]

// BracketIndex is an immutable set of bracket pairs ordered by open offset.
type BracketIndex struct {
	lang     *Language
	brackets bracketTree
}

type bracketSpan struct {
	open, close buffer.ByteOffset
	kind        BracketKind
}

// BuildBrackets extracts bracket pairs from tree. For every node and every
// pair kind, the first direct child matching the open token is paired with
// the next direct child matching the close token.
func BuildBrackets(tree syntax.Tree, snap *buffer.Snapshot, lang *Language) *BracketIndex {
	if lang == nil {
		lang = Rust
	}
	idx := &BracketIndex{lang: lang}
	if tree == nil || tree.RootNode() == nil {
		return idx
	}

	var spans []bracketSpan
	syntax.Visit(tree.RootNode(), func(n syntax.Node, _ int) bool {
		count := n.ChildCount()
		if count < 2 {
			return true
		}
		for _, pair := range lang.Brackets {
			if pair.isAngle() && !lang.AngleContainers[n.Kind()] {
				continue
			}
			open := buffer.ByteOffset(-1)
			for i := 0; i < count; i++ {
				child := n.Child(i)
				switch {
				case open < 0 && child.Kind() == pair.Open:
					open, _ = child.ByteRange()
				case open >= 0 && child.Kind() == pair.Close:
					end, _ := child.ByteRange()
					spans = append(spans, bracketSpan{open: open, close: end, kind: pair.Kind})
					i = count
				}
			}
		}
		return true
	})

	// One node can yield several kinds out of document order.
	slices.SortStableFunc(spans, func(a, b bracketSpan) int {
		return cmp.Compare(a.open, b.open)
	})
	brackets := make([]Bracket, len(spans))
	for i, s := range spans {
		brackets[i] = Bracket{Open: snap.AnchorBefore(s.open), Close: snap.AnchorBefore(s.close), Kind: s.kind}
	}
	idx.brackets = sumtree.FromItems[Bracket, RangeSummary](brackets, snap)
	return idx
}

// Len returns the number of pairs.
func (x *BracketIndex) Len() int {
	return x.brackets.Len()
}

// All returns every pair in open order.
func (x *BracketIndex) All() []Bracket {
	return x.brackets.Items()
}

// MatchingBracket returns the anchor of the bracket paired with the one
// near off. An offset on an open bracket or just past it yields the
// close bracket; an offset on a close bracket or just before it yields the
// open bracket. Pairs are tried in open order.
func (x *BracketIndex) MatchingBracket(off buffer.ByteOffset, snap *buffer.Snapshot) (buffer.Anchor, bool) {
	var match buffer.Anchor
	found := false
	x.brackets.Walk(
		func(s RangeSummary) bool {
			if s.Count == 0 {
				return false
			}
			// A pair can only match if off lies within one byte of its span.
			lo, hi := s.Resolve(snap)
			return lo <= off+1 && hi+1 >= off
		},
		func(_ int, b Bracket) bool {
			op, cl := snap.ToOffset(b.Open), snap.ToOffset(b.Close)
			switch {
			case off == op || off == op+1:
				match, found = b.Close, true
			case off == cl || off == cl-1:
				match, found = b.Open, true
			}
			return !found
		},
	)
	return match, found
}

// InnermostBracketPair returns the smallest pair with open <= off <= close.
func (x *BracketIndex) InnermostBracketPair(off buffer.ByteOffset, snap *buffer.Snapshot) (Bracket, bool) {
	var best Bracket
	bestLen := buffer.ByteOffset(-1)
	x.brackets.Walk(
		func(s RangeSummary) bool {
			if s.Count == 0 {
				return false
			}
			lo, hi := s.Resolve(snap)
			return lo <= off && hi >= off
		},
		func(_ int, b Bracket) bool {
			op, cl := snap.ToOffset(b.Open), snap.ToOffset(b.Close)
			if op <= off && off <= cl && (bestLen < 0 || cl-op < bestLen) {
				best, bestLen = b, cl-op
			}
			return true
		},
	)
	return best, bestLen >= 0
}

// BracketsInRange returns the pairs with open < r.End and close > r.Start.
func (x *BracketIndex) BracketsInRange(r buffer.Range, snap *buffer.Snapshot) []Bracket {
	var out []Bracket
	x.brackets.Walk(
		func(s RangeSummary) bool {
			if s.Count == 0 {
				return false
			}
			lo, hi := s.Resolve(snap)
			return lo < r.End && hi > r.Start
		},
		func(_ int, b Bracket) bool {
			out = append(out, b)
			return true
		},
	)
	return out
}
