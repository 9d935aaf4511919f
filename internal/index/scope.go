package index

import (
	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/syntax"
)

// ScopeKind classifies a lexical scope.
type ScopeKind uint8

// Scope kinds.
const (
	ScopeFunction ScopeKind = iota
	ScopeBlock
	ScopeIf
	ScopeElse
	ScopeMatch
	ScopeMatchArm
	ScopeFor
	ScopeWhile
	ScopeLoop
	ScopeClosure
	ScopeImpl
	ScopeTrait
)

var scopeKindNames = [...]string{
	ScopeFunction: "function",
	ScopeBlock:    "block",
	ScopeIf:       "if",
	ScopeElse:     "else",
	ScopeMatch:    "match",
	ScopeMatchArm: "match_arm",
	ScopeFor:      "for",
	ScopeWhile:    "while",
	ScopeLoop:     "loop",
	ScopeClosure:  "closure",
	ScopeImpl:     "impl",
	ScopeTrait:    "trait",
}

// String returns the kind name.
func (k ScopeKind) String() string {
	if int(k) < len(scopeKindNames) {
		return scopeKindNames[k]
	}
	return "unknown"
}

// Scope is one lexical scope.
type Scope struct {
	// Range covers the whole construct.
	Range buffer.AnchorRange
	// Body is the "body" field of the node, or Range when it has none.
	Body  buffer.AnchorRange
	Kind  ScopeKind
	Depth int
	// Parent is the start of the enclosing scope, valid if HasParent.
	Parent    buffer.Anchor
	HasParent bool
}

// Summary implements sumtree.Item.
func (s Scope) Summary(*buffer.Snapshot) scopeSummary {
	return scopeSummary{Range: rangeSummaryOf(s.Range), MinDepth: s.Depth, MaxDepth: s.Depth}
}

type scopeSummary struct {
	Range    RangeSummary
	MinDepth int
	MaxDepth int
}

func (s scopeSummary) Add(o scopeSummary, snap *buffer.Snapshot) scopeSummary {
	if s.Range.Count == 0 {
		return o
	}
	if o.Range.Count == 0 {
		return s
	}
	return scopeSummary{
		Range:    s.Range.Add(o.Range, snap),
		MinDepth: min(s.MinDepth, o.MinDepth),
		MaxDepth: max(s.MaxDepth, o.MaxDepth),
	}
}

func scopeRange(s scopeSummary) RangeSummary { return s.Range }

type scopeTree = sumtree.Tree[Scope, scopeSummary, *buffer.Snapshot]

// ScopeIndex is an immutable set of scopes ordered by start.
type ScopeIndex struct {
	lang   *Language
	scopes scopeTree
}

// BuildScopes extracts the scopes of tree. A nil tree gives an empty index;
// a nil lang selects Rust.
func BuildScopes(tree syntax.Tree, snap *buffer.Snapshot, lang *Language) *ScopeIndex {
	if lang == nil {
		lang = Rust
	}
	idx := &ScopeIndex{lang: lang}
	if tree == nil || tree.RootNode() == nil {
		return idx
	}

	var scopes []Scope
	var visit func(n syntax.Node, depth int, parent buffer.ByteOffset, hasParent bool)
	visit = func(n syntax.Node, depth int, parent buffer.ByteOffset, hasParent bool) {
		if kind, ok := lang.Scopes[n.Kind()]; ok {
			start, end := n.ByteRange()
			s := Scope{
				Range: buffer.AnchorRange{Start: snap.AnchorBefore(start), End: snap.AnchorAfter(end)},
				Kind:  kind,
				Depth: depth,
			}
			s.Body = s.Range
			if body := n.ChildByFieldName("body"); body != nil {
				bs, be := body.ByteRange()
				s.Body = buffer.AnchorRange{Start: snap.AnchorBefore(bs), End: snap.AnchorAfter(be)}
			}
			if hasParent {
				s.Parent = snap.AnchorBefore(parent)
				s.HasParent = true
			}
			scopes = append(scopes, s)
			depth, parent, hasParent = depth+1, start, true
		}

		c := n.Walk()
		if !c.GotoFirstChild() {
			return
		}
		for {
			visit(c.Node(), depth, parent, hasParent)
			if !c.GotoNextSibling() {
				return
			}
		}
	}
	visit(tree.RootNode(), 0, 0, false)

	idx.scopes = sumtree.FromItems[Scope, scopeSummary](scopes, snap)
	return idx
}

// Len returns the number of scopes.
func (x *ScopeIndex) Len() int {
	return x.scopes.Len()
}

// All returns every scope in start order.
func (x *ScopeIndex) All() []Scope {
	return x.scopes.Items()
}

// ScopeAtOffset returns the deepest scope with start <= off < end.
func (x *ScopeIndex) ScopeAtOffset(off buffer.ByteOffset, snap *buffer.Snapshot) (Scope, bool) {
	var best Scope
	found := false
	x.scopes.Walk(
		func(s scopeSummary) bool { return s.Range.mayContain(off, snap) },
		func(_ int, s Scope) bool {
			r := s.Range.ToRange(snap)
			if r.Start <= off && off < r.End && (!found || s.Depth > best.Depth) {
				best, found = s, true
			}
			return true
		},
	)
	return best, found
}

// ParentScope returns the scope enclosing s.
func (x *ScopeIndex) ParentScope(s Scope, snap *buffer.Snapshot) (Scope, bool) {
	if !s.HasParent {
		return Scope{}, false
	}
	off := snap.ToOffset(s.Parent)
	c := x.scopes.Cursor(snap)
	if !c.Seek(startsAfter(off, scopeRange), sumtree.Left) {
		return Scope{}, false
	}
	for {
		p, ok := c.Item()
		if !ok || snap.ToOffset(p.Range.Start) != off {
			return Scope{}, false
		}
		if p.Depth == s.Depth-1 {
			return p, true
		}
		if !c.Next() {
			return Scope{}, false
		}
	}
}

// ScopesInRange returns the scopes overlapping r, in start order.
func (x *ScopeIndex) ScopesInRange(r buffer.Range, snap *buffer.Snapshot) []Scope {
	var out []Scope
	x.scopes.Walk(
		func(s scopeSummary) bool { return s.Range.overlaps(r.Start, r.End, snap) },
		func(_ int, s Scope) bool {
			out = append(out, s)
			return true
		},
	)
	return out
}

// ScopesAtDepth returns the scopes of the given depth overlapping r.
func (x *ScopeIndex) ScopesAtDepth(depth int, r buffer.Range, snap *buffer.Snapshot) []Scope {
	var out []Scope
	x.scopes.Walk(
		func(s scopeSummary) bool {
			return s.MinDepth <= depth && depth <= s.MaxDepth && s.Range.overlaps(r.Start, r.End, snap)
		},
		func(_ int, s Scope) bool {
			out = append(out, s)
			return true
		},
	)
	return out
}
