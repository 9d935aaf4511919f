package rope

import (
	"strings"
	"testing"
	"testing/quick"
)

func TestEmptyRope(t *testing.T) {
	r := New()
	if r.Len() != 0 || !r.IsEmpty() || r.String() != "" {
		t.Errorf("New(): expected empty rope, got %q", r.String())
	}
	if r.LineCount() != 1 {
		t.Errorf("New(): expected 1 line, got %d", r.LineCount())
	}
	if p := r.OffsetToPoint(10); p != (Point{}) {
		t.Errorf("OffsetToPoint on empty rope: expected origin, got %+v", p)
	}
}

func TestReplaceTable(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		start    ByteOffset
		end      ByteOffset
		text     string
		expected string
	}{
		{"insert at start", "world", 0, 0, "hello ", "hello world"},
		{"insert at end", "hello", 5, 5, " world", "hello world"},
		{"insert into empty", "", 0, 0, "hello", "hello"},
		{"insert multibyte", "世界", 3, 3, "!", "世!界"},
		{"delete prefix", "hello world", 0, 6, "", "world"},
		{"delete beyond end", "hello", 2, 100, "", "he"},
		{"delete all", "hello", 0, 5, "", ""},
		{"replace shorter", "hello world", 0, 5, "hi", "hi world"},
		{"replace longer", "hi world", 0, 2, "hello", "hello world"},
		{"negative start clamps", "abc", -4, 1, "X", "Xbc"},
		{"no-op", "abc", 1, 1, "", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.initial).Replace(tt.start, tt.end, tt.text)
			if got := r.String(); got != tt.expected {
				t.Errorf("Replace(%d, %d, %q): expected %q, got %q", tt.start, tt.end, tt.text, tt.expected, got)
			}
			if r.Len() != ByteOffset(len(tt.expected)) {
				t.Errorf("Replace(%d, %d, %q): expected len %d, got %d", tt.start, tt.end, tt.text, len(tt.expected), r.Len())
			}
		})
	}
}

func TestEditsAcrossChunks(t *testing.T) {
	text := strings.Repeat("line of text number\n", 400)
	r := FromString(text)
	model := text
	if r.ChunkCount() < 2 {
		t.Fatalf("expected a multi-chunk rope, got %d chunks", r.ChunkCount())
	}

	x := uint32(7)
	rnd := func(n int) int {
		x = x*1103515245 + 12345
		return int(x>>4) % n
	}
	for step := 0; step < 300; step++ {
		start := rnd(len(model) + 1)
		end := start + rnd(min(600, len(model)-start)+1)
		ins := strings.Repeat("ab\n", rnd(4))
		r = r.Replace(ByteOffset(start), ByteOffset(end), ins)
		model = model[:start] + ins + model[end:]
		if r.Len() != ByteOffset(len(model)) {
			t.Fatalf("step %d: expected len %d, got %d", step, len(model), r.Len())
		}
	}
	if r.String() != model {
		t.Fatalf("content mismatch after random edits")
	}
	if got, want := r.LineCount(), uint32(strings.Count(model, "\n")+1); got != want {
		t.Errorf("LineCount: expected %d, got %d", want, got)
	}
	if got := r.Summary(); got != ComputeSummary(model) {
		t.Errorf("Summary: expected %+v, got %+v", ComputeSummary(model), got)
	}
}

func TestSplitConcat(t *testing.T) {
	for _, off := range []ByteOffset{0, 3, 5} {
		left, right := FromString("hello").Split(off)
		if left.String() != "hello"[:off] || right.String() != "hello"[off:] {
			t.Errorf("Split(%d): got %q | %q", off, left.String(), right.String())
		}
		if joined := left.Concat(right).String(); joined != "hello" {
			t.Errorf("Split(%d) then Concat: expected %q, got %q", off, "hello", joined)
		}
	}

	long := strings.Repeat("a", 1000) + strings.Repeat("b", 1000)
	if got := FromString(long[:1000]).Concat(FromString(long[1000:])).String(); got != long {
		t.Errorf("Concat of long ropes mismatch")
	}
}

func TestSlice(t *testing.T) {
	r := FromString("hello world")
	tests := []struct {
		start, end ByteOffset
		expected   string
	}{
		{0, 11, "hello world"},
		{3, 8, "lo wo"},
		{5, 5, ""},
		{6, 100, "world"},
		{8, 2, ""},
	}
	for _, tt := range tests {
		if got := r.Slice(tt.start, tt.end); got != tt.expected {
			t.Errorf("Slice(%d, %d): expected %q, got %q", tt.start, tt.end, tt.expected, got)
		}
	}

	big := strings.Repeat("0123456789", 200)
	rb := FromString(big)
	if got := rb.Slice(250, 1250); got != big[250:1250] {
		t.Errorf("Slice across chunks mismatch")
	}
}

func TestLines(t *testing.T) {
	r := FromString("hello\nworld\nfoo")
	tests := []struct {
		line  uint32
		start ByteOffset
		end   ByteOffset
		text  string
	}{
		{0, 0, 5, "hello"},
		{1, 6, 11, "world"},
		{2, 12, 15, "foo"},
		{3, 15, 15, ""},
	}
	for _, tt := range tests {
		if got := r.LineStartOffset(tt.line); got != tt.start {
			t.Errorf("LineStartOffset(%d): expected %d, got %d", tt.line, tt.start, got)
		}
		if got := r.LineEndOffset(tt.line); got != tt.end {
			t.Errorf("LineEndOffset(%d): expected %d, got %d", tt.line, tt.end, got)
		}
		if got := r.LineText(tt.line); got != tt.text {
			t.Errorf("LineText(%d): expected %q, got %q", tt.line, tt.text, got)
		}
	}
}

func TestPointConversion(t *testing.T) {
	r := FromString("hello\nworld\nfoo")
	tests := []struct {
		offset ByteOffset
		point  Point
	}{
		{0, Point{0, 0}},
		{5, Point{0, 5}},
		{6, Point{1, 0}},
		{11, Point{1, 5}},
		{12, Point{2, 0}},
		{15, Point{2, 3}},
	}
	for _, tt := range tests {
		if got := r.OffsetToPoint(tt.offset); got != tt.point {
			t.Errorf("OffsetToPoint(%d): expected %+v, got %+v", tt.offset, tt.point, got)
		}
		if got := r.PointToOffset(tt.point); got != tt.offset {
			t.Errorf("PointToOffset(%+v): expected %d, got %d", tt.point, tt.offset, got)
		}
	}
	if got := r.PointToOffset(Point{0, 99}); got != 5 {
		t.Errorf("PointToOffset past line end: expected 5, got %d", got)
	}
}

func TestPointConversionLarge(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString(strings.Repeat("x", i%37))
		sb.WriteByte('\n')
	}
	text := sb.String()
	r := FromString(text)

	line, col := uint32(0), uint32(0)
	for off := 0; off <= len(text); off++ {
		want := Point{line, col}
		if got := r.OffsetToPoint(ByteOffset(off)); got != want {
			t.Fatalf("OffsetToPoint(%d): expected %+v, got %+v", off, want, got)
		}
		if got := r.PointToOffset(want); got != ByteOffset(off) {
			t.Fatalf("PointToOffset(%+v): expected %d, got %d", want, off, got)
		}
		if off < len(text) && text[off] == '\n' {
			line, col = line+1, 0
		} else {
			col++
		}
	}
}

func TestByteAt(t *testing.T) {
	r := FromString("hello")
	tests := []struct {
		offset   ByteOffset
		expected byte
		ok       bool
	}{
		{0, 'h', true},
		{4, 'o', true},
		{5, 0, false},
		{-1, 0, false},
	}
	for _, tt := range tests {
		b, ok := r.ByteAt(tt.offset)
		if b != tt.expected || ok != tt.ok {
			t.Errorf("ByteAt(%d): expected (%c, %v), got (%c, %v)", tt.offset, tt.expected, tt.ok, b, ok)
		}
	}
}

func TestImmutability(t *testing.T) {
	original := FromString(strings.Repeat("hello ", 100))
	modified := original.Insert(5, " world").Delete(0, 3)

	if original.String() != strings.Repeat("hello ", 100) {
		t.Errorf("original was modified")
	}
	if !strings.HasPrefix(modified.String(), "lo world") {
		t.Errorf("modified is wrong: %q", modified.String()[:20])
	}
}

func TestInsertDeleteProperty(t *testing.T) {
	f := func(s string, offset uint16, insert string) bool {
		off := int(offset) % (len(s) + 1)
		r := FromString(s)
		r = r.Insert(ByteOffset(off), insert)
		r = r.Delete(ByteOffset(off), ByteOffset(off+len(insert)))
		return r.String() == s
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestSummaryAddProperty(t *testing.T) {
	f := func(a, b string) bool {
		sum := ComputeSummary(a).Add(ComputeSummary(b), none{})
		return sum == ComputeSummary(a+b)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestComputeSummary(t *testing.T) {
	tests := []struct {
		input   string
		bytes   ByteOffset
		utf16   int64
		lines   uint32
		longest uint32
		ascii   bool
	}{
		{"", 0, 0, 0, 0, true},
		{"hello", 5, 5, 0, 5, true},
		{"hello\n", 6, 6, 1, 5, true},
		{"ab\ncdef\ng", 9, 9, 2, 4, true},
		{"世界", 6, 2, 0, 6, false},
		{"a😀", 5, 3, 0, 5, false},
	}
	for _, tt := range tests {
		sum := ComputeSummary(tt.input)
		if sum.Bytes != tt.bytes || sum.UTF16Units != tt.utf16 || sum.Lines != tt.lines {
			t.Errorf("ComputeSummary(%q): expected bytes=%d utf16=%d lines=%d, got %+v", tt.input, tt.bytes, tt.utf16, tt.lines, sum)
		}
		if sum.LongestLine != tt.longest {
			t.Errorf("ComputeSummary(%q): expected longest line %d, got %d", tt.input, tt.longest, sum.LongestLine)
		}
		if sum.IsASCII() != tt.ascii {
			t.Errorf("ComputeSummary(%q): expected ascii %v, got %v", tt.input, tt.ascii, sum.IsASCII())
		}
	}
}
