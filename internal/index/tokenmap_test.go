package index

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/syntax"
)

type tokenView struct {
	Kind       string
	Start, End int64
}

func viewTokens(tokens []Token, snap *buffer.Snapshot) []tokenView {
	out := make([]tokenView, len(tokens))
	for i, t := range tokens {
		r := t.Resolve(snap)
		out[i] = tokenView{Kind: t.Kind.String(), Start: r.Start, End: r.End}
	}
	return out
}

func newSyncedMap(t *testing.T, text string, opts ...TokenMapOption) (*buffer.Buffer, *TokenMap) {
	t.Helper()
	b := buffer.NewBufferFromString(text)
	m := NewTokenMap(opts...)
	if err := m.Rebuild(b.Snapshot()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return b, m
}

func TestTokenMapRebuild(t *testing.T) {
	b, m := newSyncedMap(t, "let x = 42;")
	want := []tokenView{
		{"keyword", 0, 3},
		{"identifier", 4, 5},
		{"operator", 6, 7},
		{"number", 8, 10},
		{"semicolon", 10, 11},
	}
	if diff := cmp.Diff(want, viewTokens(m.All(), b.Snapshot())); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
	if m.Version() != b.Version() {
		t.Errorf("Version: expected %d, got %d", b.Version(), m.Version())
	}
}

func TestTokenAtOffset(t *testing.T) {
	b, m := newSyncedMap(t, "let x = 42;")
	snap := b.Snapshot()

	tests := []struct {
		off  int64
		kind string
		ok   bool
	}{
		{0, "keyword", true},
		{2, "keyword", true},
		{3, "", false},
		{4, "identifier", true},
		{9, "number", true},
		{10, "semicolon", true},
		{11, "", false},
	}
	for _, tt := range tests {
		tok, ok := m.TokenAtOffset(tt.off)
		if ok != tt.ok {
			t.Errorf("TokenAtOffset(%d): expected ok=%v, got %v", tt.off, tt.ok, ok)
			continue
		}
		if ok && tok.Kind.String() != tt.kind {
			t.Errorf("TokenAtOffset(%d): expected %s, got %s at %v", tt.off, tt.kind, tok.Kind, tok.Resolve(snap))
		}
	}
}

func TestTokensInRange(t *testing.T) {
	b, m := newSyncedMap(t, "let x = 42;")
	got := viewTokens(m.TokensInRange(buffer.NewRange(3, 9)), b.Snapshot())
	want := []tokenView{
		{"identifier", 4, 5},
		{"operator", 6, 7},
		{"number", 8, 10},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TokensInRange mismatch (-want +got):\n%s", diff)
	}
	if got := m.TokensInRange(buffer.NewRange(11, 20)); len(got) != 0 {
		t.Errorf("TokensInRange past end: expected none, got %d", len(got))
	}
}

func TestTokensOfKind(t *testing.T) {
	b, m := newSyncedMap(t, "fn f() { let s = `x`; // done\n}")
	snap := b.Snapshot()

	errs := viewTokens(m.ErrorTokens(), snap)
	want := []tokenView{{"unknown", 17, 18}, {"unknown", 19, 20}}
	if diff := cmp.Diff(want, errs); diff != "" {
		t.Errorf("ErrorTokens mismatch (-want +got):\n%s", diff)
	}

	braces := m.TokensOfKind(syntax.TokenOpenBrace, syntax.TokenCloseBrace)
	if len(braces) != 2 {
		t.Errorf("TokensOfKind(braces): expected 2, got %d", len(braces))
	}
	comments := viewTokens(m.TokensOfKind(syntax.TokenComment), snap)
	if diff := cmp.Diff([]tokenView{{"comment", 22, 29}}, comments); diff != "" {
		t.Errorf("TokensOfKind(comment) mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenMapSync(t *testing.T) {
	b, m := newSyncedMap(t, "let x = 42;\nlet y = x;")

	patches, err := b.ApplyEdits([]buffer.Edit{
		buffer.NewEdit(buffer.NewRange(16, 17), "yy"),
		buffer.NewInsert(9, "1"),
	})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	snap := b.Snapshot()
	if err := m.Sync(snap, patches); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	fresh := NewTokenMap()
	if err := fresh.Rebuild(snap); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if diff := cmp.Diff(viewTokens(fresh.All(), snap), viewTokens(m.All(), snap)); diff != "" {
		t.Errorf("synced tokens differ from a rebuild (-want +got):\n%s", diff)
	}
	if tok, ok := m.TokenAtOffset(8); !ok || tok.Resolve(snap) != buffer.NewRange(8, 11) {
		t.Errorf("TokenAtOffset(8): expected [8, 11), got %v %v", tok.Resolve(snap), ok)
	}
	if m.Version() != snap.Version() {
		t.Errorf("Version: expected %d, got %d", snap.Version(), m.Version())
	}
}

func TestTokenMapSyncJoinsTokens(t *testing.T) {
	b, m := newSyncedMap(t, "foo bar")
	p, err := b.Delete(3, 4)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	snap := b.Snapshot()
	if err := m.Sync(snap, []buffer.Patch{p}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	want := []tokenView{{"identifier", 0, 6}}
	if diff := cmp.Diff(want, viewTokens(m.All(), snap)); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenMapSyncIgnoresStale(t *testing.T) {
	b, m := newSyncedMap(t, "a b")
	old := b.Snapshot()
	p, err := b.Insert(3, " c")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Sync(b.Snapshot(), []buffer.Patch{p}); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if err := m.Sync(old, nil); err != nil {
		t.Fatalf("Sync(stale): %v", err)
	}
	if m.Len() != 3 || m.Version() != b.Version() {
		t.Errorf("stale sync changed the map: len %d, version %d", m.Len(), m.Version())
	}
}

func TestTokenMapSyncForeignSnapshot(t *testing.T) {
	_, m := newSyncedMap(t, "a")
	other := buffer.NewBufferFromString("b")
	if _, err := other.Insert(0, "c"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Sync(other.Snapshot(), nil); !errors.Is(err, ErrForeignSnapshot) {
		t.Errorf("Sync: expected ErrForeignSnapshot, got %v", err)
	}
}

type failingLexer struct {
	fail bool
}

var errLexer = errors.New("lexer exploded")

func (l *failingLexer) Name() string { return "failing" }

func (l *failingLexer) Tokenize(text string) ([]syntax.Token, error) {
	if l.fail {
		return nil, errLexer
	}
	return syntax.NewSimpleLexer().Tokenize(text)
}

func TestTokenMapLexerErrorKeepsTokens(t *testing.T) {
	lexer := &failingLexer{}
	b, m := newSyncedMap(t, "let x = 1;", WithLexer(lexer))
	before := viewTokens(m.All(), b.Snapshot())
	version := m.Version()

	lexer.fail = true
	p, err := b.Insert(4, "y")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	err = m.Sync(b.Snapshot(), []buffer.Patch{p})
	if !errors.Is(err, ErrTokenize) || !errors.Is(err, errLexer) {
		t.Fatalf("Sync: expected ErrTokenize wrapping the lexer error, got %v", err)
	}
	if m.Version() != version {
		t.Errorf("Version: expected %d, got %d", version, m.Version())
	}
	// The old tokens still resolve against the snapshot they were synced at.
	if diff := cmp.Diff(before, viewTokens(m.All(), m.Snapshot())); diff != "" {
		t.Errorf("tokens changed after a lexer error (-want +got):\n%s", diff)
	}
	if err := m.Rebuild(b.Snapshot()); err == nil {
		t.Errorf("Rebuild: expected an error")
	}
}

func TestTokenMapRandomEditsMatchRebuild(t *testing.T) {
	const alphabet = "ab c1;(){}\n+."
	rng := rand.New(rand.NewPCG(7, 11))
	b, m := newSyncedMap(t, "fn main() {\n  let a = b + 1;\n}\n")

	randomText := func(n int) string {
		out := make([]byte, n)
		for i := range out {
			out[i] = alphabet[rng.IntN(len(alphabet))]
		}
		return string(out)
	}

	for step := 0; step < 200; step++ {
		n := b.Len()
		start := rng.Int64N(n + 1)
		end := start + rng.Int64N(min(n-start, 4)+1)
		p, err := b.Replace(start, end, randomText(rng.IntN(4)))
		if err != nil {
			t.Fatalf("step %d: Replace: %v", step, err)
		}
		snap := b.Snapshot()
		if err := m.Sync(snap, []buffer.Patch{p}); err != nil {
			t.Fatalf("step %d: Sync: %v", step, err)
		}

		fresh := NewTokenMap()
		if err := fresh.Rebuild(snap); err != nil {
			t.Fatalf("step %d: Rebuild: %v", step, err)
		}
		if diff := cmp.Diff(viewTokens(fresh.All(), snap), viewTokens(m.All(), snap)); diff != "" {
			t.Fatalf("step %d: text %q: synced tokens differ (-want +got):\n%s", step, snap.Text(), diff)
		}
	}
}

func TestTokenMapLongHistory(t *testing.T) {
	var text strings.Builder
	for i := 0; i < 500; i++ {
		text.WriteString("let value = compute(1, 2);\n")
	}
	b, m := newSyncedMap(t, text.String())

	for i := 0; i < 3000; i++ {
		p, err := b.Insert(int64(i%50)*27, "y")
		if err != nil {
			t.Fatalf("step %d: Insert: %v", i, err)
		}
		if err := m.Sync(b.Snapshot(), []buffer.Patch{p}); err != nil {
			t.Fatalf("step %d: Sync: %v", i, err)
		}
	}

	snap := b.Snapshot()
	fresh := NewTokenMap()
	if err := fresh.Rebuild(snap); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if diff := cmp.Diff(viewTokens(fresh.All(), snap), viewTokens(m.All(), snap)); diff != "" {
		t.Fatalf("synced tokens differ (-want +got):\n%s", diff)
	}
	for _, off := range []int64{0, 5, snap.Len() / 2, snap.Len() - 2} {
		got, gotOK := m.TokenAtOffset(off)
		want, wantOK := fresh.TokenAtOffset(off)
		if gotOK != wantOK || (gotOK && got.Resolve(snap) != want.Resolve(snap)) {
			t.Errorf("TokenAtOffset(%d): expected %v, got %v", off, want.Resolve(snap), got.Resolve(snap))
		}
	}
}
