package tracking

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/stoat/internal/engine/buffer"
)

func applyDiff(t *testing.T, oldText, newText string, opts ...Option) []buffer.Edit {
	t.Helper()
	edits := Diff(oldText, newText, opts...)
	b := buffer.NewBufferFromString(oldText)
	if _, err := b.ApplyEdits(edits); err != nil {
		t.Fatalf("ApplyEdits(%v): %v", edits, err)
	}
	if got := b.Text(); got != newText {
		t.Errorf("Diff(%q, %q) applied: expected %q, got %q", oldText, newText, newText, got)
	}
	return edits
}

func TestDiffRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		old, new string
	}{
		{"identical", "hello", "hello"},
		{"insert", "hello world", "hello big world"},
		{"delete", "hello big world", "hello world"},
		{"replace", "let x = 1;", "let y = 2;"},
		{"from empty", "", "fn main() {}\n"},
		{"to empty", "fn main() {}\n", ""},
		{"multiline", "a\nb\nc\nd\n", "a\nB\nc\nd\ne\n"},
		{"unicode", "héllo wörld", "hello world 😀"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applyDiff(t, tt.old, tt.new)
			applyDiff(t, tt.old, tt.new, WithoutCleanup())
		})
	}
}

func TestDiffEditsDescending(t *testing.T) {
	edits := applyDiff(t, "one two three four", "ONE two THREE four!")
	if len(edits) < 2 {
		t.Fatalf("expected several edits, got %v", edits)
	}
	for i := 1; i < len(edits); i++ {
		if edits[i].Range.End > edits[i-1].Range.Start {
			t.Errorf("edit %d %s not below edit %d %s", i, edits[i], i-1, edits[i-1])
		}
	}
}

func TestDiffSingleInsertion(t *testing.T) {
	edits := Diff("fn main() {}", "fn main() { run(); }")
	want := []buffer.Edit{buffer.NewInsert(11, " run(); ")}
	if diff := cmp.Diff(want, edits); diff != "" {
		t.Errorf("edits mismatch (-want +got):\n%s", diff)
	}
}

func TestDiffLineMode(t *testing.T) {
	var oldText, newText strings.Builder
	for i := 0; i < 200; i++ {
		oldText.WriteString("line of text that stays put\n")
		if i == 100 {
			newText.WriteString("a new line\n")
		}
		newText.WriteString("line of text that stays put\n")
	}
	edits := applyDiff(t, oldText.String(), newText.String(), WithLineMode(0))
	if s := Summarize(edits); s.Inserted-s.Deleted != int64(len("a new line\n")) {
		t.Errorf("Summarize: expected net growth %d, got %+v", len("a new line\n"), s)
	}
}

func TestDiffPreservesAnchors(t *testing.T) {
	b := buffer.NewBufferFromString("alpha\nbeta\ngamma\n")
	snap := b.Snapshot()
	gamma := snap.AnchorBefore(11)

	if _, err := b.ApplyEdits(Diff(b.Text(), "alpha\nBETA!\ngamma\n")); err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	snap = b.Snapshot()
	if got := snap.TextRange(snap.ToOffset(gamma), snap.Len()); got != "gamma\n" {
		t.Errorf("anchor after reload: expected %q, got %q", "gamma\n", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]buffer.Edit{
		buffer.NewEdit(buffer.NewRange(10, 12), "abc"),
		buffer.NewDelete(0, 4),
	})
	want := Stats{Edits: 2, Inserted: 3, Deleted: 6}
	if s != want {
		t.Errorf("Summarize: expected %+v, got %+v", want, s)
	}
}
