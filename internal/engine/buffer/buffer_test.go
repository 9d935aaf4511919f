package buffer

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewBuffer(t *testing.T) {
	b := NewBuffer()
	if b.Len() != 0 || b.Text() != "" {
		t.Errorf("expected empty buffer, got %q", b.Text())
	}
	if b.Version() != 0 {
		t.Errorf("expected version 0, got %d", b.Version())
	}

	other := NewBuffer()
	if b.ID() == other.ID() {
		t.Errorf("expected distinct buffer ids")
	}
}

func TestBufferEdits(t *testing.T) {
	b := NewBufferFromString("Hello World")

	p, err := b.Insert(5, ",")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if want := (Patch{Old: Range{5, 5}, New: Range{5, 6}}); p != want {
		t.Errorf("Insert patch: expected %s, got %s", want, p)
	}

	if _, err := b.Delete(0, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Replace(0, 5, "Earth"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if got := b.Text(); got != "Earth" {
		t.Errorf("expected %q, got %q", "Earth", got)
	}
	if b.Version() != 3 {
		t.Errorf("expected version 3, got %d", b.Version())
	}
}

func TestBufferApplyEditsPatches(t *testing.T) {
	b := NewBufferFromString("aaa bbb ccc")

	// Highest offset first.
	patches, err := b.ApplyEdits([]Edit{
		NewEdit(NewRange(8, 11), "C"),
		NewInsert(4, "++"),
		NewDelete(0, 3),
	})
	if err != nil {
		t.Fatalf("ApplyEdits: %v", err)
	}
	if got := b.Text(); got != " ++bbb C" {
		t.Errorf("expected %q, got %q", " ++bbb C", got)
	}

	want := []Patch{
		{Old: Range{0, 3}, New: Range{0, 0}},
		{Old: Range{4, 4}, New: Range{1, 3}},
		{Old: Range{8, 11}, New: Range{7, 8}},
	}
	if diff := cmp.Diff(want, patches); diff != "" {
		t.Errorf("patches mismatch (-want +got):\n%s", diff)
	}
	if b.Version() != 3 {
		t.Errorf("expected version 3, got %d", b.Version())
	}
}

func TestBufferApplyEditsErrors(t *testing.T) {
	b := NewBufferFromString("Hello World")

	_, err := b.ApplyEdits([]Edit{NewDelete(0, 5), NewDelete(6, 11)})
	if !errors.Is(err, ErrEditsOverlap) {
		t.Errorf("ascending edits: expected ErrEditsOverlap, got %v", err)
	}

	_, err = b.ApplyEdits([]Edit{NewDelete(3, 20)})
	if !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("out of range edit: expected ErrRangeInvalid, got %v", err)
	}

	_, err = b.Insert(-1, "x")
	if !errors.Is(err, ErrRangeInvalid) {
		t.Errorf("negative insert: expected ErrRangeInvalid, got %v", err)
	}

	if b.Text() != "Hello World" || b.Version() != 0 {
		t.Errorf("failed edits must not change the buffer, got %q v%d", b.Text(), b.Version())
	}
}

func TestBufferLineEndingNormalization(t *testing.T) {
	b := NewBufferFromString("a\r\nb\rc\n")
	if got := b.Text(); got != "a\nb\nc\n" {
		t.Errorf("LF buffer: expected %q, got %q", "a\nb\nc\n", got)
	}

	crlf := NewBufferFromString("a\nb", WithLineEnding(LineEndingCRLF))
	if got := crlf.Text(); got != "a\r\nb" {
		t.Errorf("CRLF buffer: expected %q, got %q", "a\r\nb", got)
	}
	p, _ := crlf.Insert(crlf.Len(), "\nc")
	if p.New.Len() != 3 {
		t.Errorf("normalized insert: expected patch length 3, got %d", p.New.Len())
	}
}

func TestDetectLineEnding(t *testing.T) {
	tests := []struct {
		text     string
		expected LineEnding
	}{
		{"", LineEndingLF},
		{"a\nb\n", LineEndingLF},
		{"a\r\nb\r\n", LineEndingCRLF},
		{"a\rb\r", LineEndingCR},
		{"a\r\nb\nc\n", LineEndingLF},
	}
	for _, tt := range tests {
		if got := DetectLineEnding(tt.text); got != tt.expected {
			t.Errorf("DetectLineEnding(%q): expected %s, got %s", tt.text, tt.expected, got)
		}
	}
}

func TestSnapshotLines(t *testing.T) {
	s := NewSnapshot("line1\nline2\nline3")
	if s.LineCount() != 3 {
		t.Errorf("expected 3 lines, got %d", s.LineCount())
	}
	for i, want := range []string{"line1", "line2", "line3"} {
		if got := s.LineText(uint32(i)); got != want {
			t.Errorf("LineText(%d): expected %q, got %q", i, want, got)
		}
	}
	if got := s.OffsetToPoint(8); got != (Point{1, 2}) {
		t.Errorf("OffsetToPoint(8): expected (1:2), got %s", got)
	}
	if got := s.PointToOffset(Point{2, 99}); got != 17 {
		t.Errorf("PointToOffset past line end: expected 17, got %d", got)
	}
	if got := s.MaxPoint(); got != (Point{2, 5}) {
		t.Errorf("MaxPoint: expected (2:5), got %s", got)
	}
}

func TestSnapshotUTF16(t *testing.T) {
	s := NewSnapshot("a😀b\nx")
	tests := []struct {
		offset ByteOffset
		point  PointUTF16
	}{
		{0, PointUTF16{0, 0}},
		{1, PointUTF16{0, 1}},
		{5, PointUTF16{0, 3}},
		{6, PointUTF16{0, 4}},
		{7, PointUTF16{1, 0}},
	}
	for _, tt := range tests {
		if got := s.OffsetToPointUTF16(tt.offset); got != tt.point {
			t.Errorf("OffsetToPointUTF16(%d): expected %s, got %s", tt.offset, tt.point, got)
		}
		if got := s.PointUTF16ToOffset(tt.point); got != tt.offset {
			t.Errorf("PointUTF16ToOffset(%s): expected %d, got %d", tt.point, tt.offset, got)
		}
	}
	// Inside the surrogate pair resolves to the rune start.
	if got := s.PointUTF16ToOffset(PointUTF16{0, 2}); got != 1 {
		t.Errorf("PointUTF16ToOffset inside pair: expected 1, got %d", got)
	}
	if got := s.PointUTF16ToOffset(PointUTF16{9, 0}); got != s.Len() {
		t.Errorf("PointUTF16ToOffset past end: expected %d, got %d", s.Len(), got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	b := NewBufferFromString("Hello")
	snap := b.Snapshot()
	b.Insert(5, " World")

	if snap.Text() != "Hello" || snap.Version() != 0 {
		t.Errorf("snapshot changed after edit: %q v%d", snap.Text(), snap.Version())
	}
	if got := b.Snapshot().Text(); got != "Hello World" {
		t.Errorf("new snapshot: expected %q, got %q", "Hello World", got)
	}
}

func TestBufferConcurrentReadWrite(t *testing.T) {
	b := NewBufferFromString("Hello")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				b.Insert(0, "X")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				snap := b.Snapshot()
				a := snap.AnchorAfter(snap.Len())
				if snap.ToOffset(a) != snap.Len() {
					t.Errorf("anchor at end did not resolve to end")
				}
			}
		}()
	}
	wg.Wait()

	if n := strings.Count(b.Text(), "X"); n != 100 {
		t.Errorf("expected 100 X's, got %d", n)
	}
	if b.Version() != 100 {
		t.Errorf("expected version 100, got %d", b.Version())
	}
}
