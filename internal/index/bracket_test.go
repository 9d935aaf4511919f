package index

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/stoat/internal/engine/buffer"
)

type bracketView struct {
	Kind        string
	Open, Close int64
}

func viewBrackets(brackets []Bracket, snap *buffer.Snapshot) []bracketView {
	out := make([]bracketView, len(brackets))
	for i, b := range brackets {
		out[i] = bracketView{Kind: b.Kind.String(), Open: snap.ToOffset(b.Open), Close: snap.ToOffset(b.Close)}
	}
	return out
}

const bracketSource = "fn a() { let x = (1 + 2); }"

func TestBuildBrackets(t *testing.T) {
	b, tree := parse(t, bracketSource)
	snap := b.Snapshot()
	idx := BuildBrackets(tree, snap, nil)

	want := []bracketView{
		{"paren", 4, 5},
		{"brace", 7, 26},
		{"paren", 17, 23},
	}
	if diff := cmp.Diff(want, viewBrackets(idx.All(), snap)); diff != "" {
		t.Errorf("brackets mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildBracketsAngles(t *testing.T) {
	source := "fn f<T>(x: Vec<T>) -> bool { a < b && c > d }"
	b, tree := parse(t, source)
	snap := b.Snapshot()
	idx := BuildBrackets(tree, snap, nil)

	want := []bracketView{
		{"angle", 4, 6},
		{"paren", 7, 17},
		{"angle", 14, 16},
		{"brace", 27, 44},
	}
	if diff := cmp.Diff(want, viewBrackets(idx.All(), snap)); diff != "" {
		t.Errorf("brackets mismatch (-want +got):\n%s", diff)
	}
}

func TestMatchingBracket(t *testing.T) {
	b, tree := parse(t, bracketSource)
	snap := b.Snapshot()
	idx := BuildBrackets(tree, snap, nil)

	tests := []struct {
		off  int64
		want int64
		ok   bool
	}{
		{4, 5, true},   // on "("
		{5, 5, true},   // just past "(" wins over ")"
		{7, 26, true},  // on "{"
		{8, 26, true},  // just past "{"
		{26, 7, true},  // on "}"
		{25, 7, true},  // just before "}"
		{17, 23, true}, // on the inner "("
		{23, 17, true}, // on the inner ")"
		{12, 0, false},
	}
	for _, tt := range tests {
		a, ok := idx.MatchingBracket(tt.off, snap)
		if ok != tt.ok {
			t.Errorf("MatchingBracket(%d): expected ok=%v, got %v", tt.off, tt.ok, ok)
			continue
		}
		if ok && snap.ToOffset(a) != tt.want {
			t.Errorf("MatchingBracket(%d): expected %d, got %d", tt.off, tt.want, snap.ToOffset(a))
		}
	}
}

func TestInnermostBracketPair(t *testing.T) {
	b, tree := parse(t, bracketSource)
	snap := b.Snapshot()
	idx := BuildBrackets(tree, snap, nil)

	tests := []struct {
		off  int64
		want bracketView
		ok   bool
	}{
		{19, bracketView{"paren", 17, 23}, true},
		{17, bracketView{"paren", 17, 23}, true},
		{23, bracketView{"paren", 17, 23}, true},
		{12, bracketView{"brace", 7, 26}, true},
		{2, bracketView{}, false},
	}
	for _, tt := range tests {
		p, ok := idx.InnermostBracketPair(tt.off, snap)
		if ok != tt.ok {
			t.Errorf("InnermostBracketPair(%d): expected ok=%v, got %v", tt.off, tt.ok, ok)
			continue
		}
		if !ok {
			continue
		}
		if got := viewBrackets([]Bracket{p}, snap)[0]; got != tt.want {
			t.Errorf("InnermostBracketPair(%d): expected %v, got %v", tt.off, tt.want, got)
		}
	}
}

func TestBracketsInRange(t *testing.T) {
	b, tree := parse(t, bracketSource)
	snap := b.Snapshot()
	idx := BuildBrackets(tree, snap, nil)

	got := viewBrackets(idx.BracketsInRange(buffer.NewRange(18, 20), snap), snap)
	want := []bracketView{{"brace", 7, 26}, {"paren", 17, 23}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BracketsInRange mismatch (-want +got):\n%s", diff)
	}
}

func TestBracketsFollowEdits(t *testing.T) {
	b, tree := parse(t, bracketSource)
	idx := BuildBrackets(tree, b.Snapshot(), nil)

	if _, err := b.Delete(19, 23); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snap := b.Snapshot()
	if got := snap.Text(); got != "fn a() { let x = (1); }" {
		t.Fatalf("text: got %q", got)
	}
	a, ok := idx.MatchingBracket(17, snap)
	if !ok || snap.ToOffset(a) != 19 {
		t.Errorf("MatchingBracket(17): expected 19, got %d %v", snap.ToOffset(a), ok)
	}
	a, ok = idx.MatchingBracket(22, snap)
	if !ok || snap.ToOffset(a) != 7 {
		t.Errorf("MatchingBracket(22): expected 7, got %d %v", snap.ToOffset(a), ok)
	}
}
