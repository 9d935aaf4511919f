package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/stoat/internal/engine/buffer"
)

type scopeView struct {
	Kind       string
	Depth      int
	Start, End int64
}

func viewScopes(scopes []Scope, snap *buffer.Snapshot) []scopeView {
	out := make([]scopeView, len(scopes))
	for i, s := range scopes {
		r := s.Range.ToRange(snap)
		out[i] = scopeView{Kind: s.Kind.String(), Depth: s.Depth, Start: r.Start, End: r.End}
	}
	return out
}

const nestedSource = "fn hello() { if true { let x = 1; } }"

func TestBuildScopes(t *testing.T) {
	b, tree := parse(t, nestedSource)
	snap := b.Snapshot()
	idx := BuildScopes(tree, snap, nil)

	want := []scopeView{
		{"function", 0, 0, 37},
		{"block", 1, 11, 37},
		{"if", 2, 13, 35},
		{"block", 3, 21, 35},
	}
	if diff := cmp.Diff(want, viewScopes(idx.All(), snap)); diff != "" {
		t.Errorf("scopes mismatch (-want +got):\n%s", diff)
	}

	fn := idx.All()[0]
	if got := fn.Body.ToRange(snap); got != buffer.NewRange(11, 37) {
		t.Errorf("function body: expected [11, 37), got %v", got)
	}
	if fn.HasParent {
		t.Errorf("function: expected no parent")
	}
}

func TestScopeAtOffset(t *testing.T) {
	b, tree := parse(t, nestedSource)
	snap := b.Snapshot()
	idx := BuildScopes(tree, snap, nil)

	tests := []struct {
		off   int64
		kind  string
		depth int
		ok    bool
	}{
		{5, "function", 0, true},
		{12, "block", 1, true},
		{14, "if", 2, true},
		{25, "block", 3, true},
		{35, "block", 1, true},
		{36, "block", 1, true},
		{37, "", 0, false},
	}
	for _, tt := range tests {
		s, ok := idx.ScopeAtOffset(tt.off, snap)
		if ok != tt.ok {
			t.Errorf("ScopeAtOffset(%d): expected ok=%v, got %v", tt.off, tt.ok, ok)
			continue
		}
		if ok && (s.Kind.String() != tt.kind || s.Depth != tt.depth) {
			t.Errorf("ScopeAtOffset(%d): expected %s@%d, got %s@%d", tt.off, tt.kind, tt.depth, s.Kind, s.Depth)
		}
	}
}

func TestParentScope(t *testing.T) {
	b, tree := parse(t, nestedSource)
	snap := b.Snapshot()
	idx := BuildScopes(tree, snap, nil)

	s, ok := idx.ScopeAtOffset(25, snap)
	if !ok {
		t.Fatal("ScopeAtOffset(25): expected a scope")
	}
	var chain []string
	for {
		chain = append(chain, s.Kind.String())
		p, ok := idx.ParentScope(s, snap)
		if !ok {
			break
		}
		if p.Depth != s.Depth-1 {
			t.Errorf("ParentScope(%s): expected depth %d, got %d", s.Kind, s.Depth-1, p.Depth)
		}
		s = p
	}
	if diff := cmp.Diff([]string{"block", "if", "block", "function"}, chain); diff != "" {
		t.Errorf("parent chain mismatch (-want +got):\n%s", diff)
	}
}

func TestScopesInRangeAndDepth(t *testing.T) {
	source := "fn a() { if true {} }\nfn b() { if false {} }"
	b, tree := parse(t, source)
	snap := b.Snapshot()
	idx := BuildScopes(tree, snap, nil)

	top := idx.ScopesAtDepth(0, buffer.NewRange(0, 100), snap)
	if len(top) != 2 {
		t.Fatalf("ScopesAtDepth(0): expected 2 scopes, got %d", len(top))
	}
	for _, s := range top {
		if s.Kind != ScopeFunction {
			t.Errorf("ScopesAtDepth(0): expected function, got %s", s.Kind)
		}
	}

	// The second line starts at 22.
	second := idx.ScopesInRange(buffer.NewRange(22, 23), snap)
	if len(second) != 1 || second[0].Kind != ScopeFunction {
		t.Errorf("ScopesInRange([22, 23)): expected the second function, got %v", viewScopes(second, snap))
	}
	if got := idx.ScopesInRange(buffer.NewRange(21, 22), snap); len(got) != 0 {
		t.Errorf("ScopesInRange([21, 22)): expected none, got %v", viewScopes(got, snap))
	}
	ifs := idx.ScopesAtDepth(2, buffer.NewRange(0, 100), snap)
	if len(ifs) != 2 || ifs[0].Kind != ScopeIf || ifs[1].Kind != ScopeIf {
		t.Errorf("ScopesAtDepth(2): expected two ifs, got %v", viewScopes(ifs, snap))
	}
}

func TestScopesFollowEdits(t *testing.T) {
	b, tree := parse(t, nestedSource)
	idx := BuildScopes(tree, b.Snapshot(), nil)

	if _, err := b.Insert(0, "// c\n"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	snap := b.Snapshot()
	s, ok := idx.ScopeAtOffset(30, snap)
	if !ok || s.Depth != 3 {
		t.Fatalf("ScopeAtOffset(30): expected the inner block, got %v %v", s, ok)
	}
	if got := s.Range.ToRange(snap); got != buffer.NewRange(26, 40) {
		t.Errorf("inner block: expected [26, 40), got %v", got)
	}
	// The function starts at a Left anchor, so text inserted at its start
	// joins it.
	if s, ok := idx.ScopeAtOffset(2, snap); !ok || s.Kind != ScopeFunction {
		t.Errorf("ScopeAtOffset(2): expected the function, got %v %v", s, ok)
	}
}

func TestBuildScopesNilTree(t *testing.T) {
	idx := BuildScopes(nil, buffer.NewSnapshot(""), nil)
	if idx.Len() != 0 {
		t.Errorf("Len: expected 0, got %d", idx.Len())
	}
	if _, ok := idx.ScopeAtOffset(0, buffer.NewSnapshot("")); ok {
		t.Errorf("ScopeAtOffset: expected nothing")
	}
}
