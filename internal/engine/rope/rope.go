package rope

import (
	"cmp"
	"fmt"
	"io"
	"strings"

	"github.com/dshills/stoat/internal/engine/sumtree"
)

// chunkTree is the summary tree holding the rope's chunks.
type chunkTree = sumtree.Tree[Chunk, TextSummary, none]

// Rope is an immutable rope data structure for efficient text storage.
// Operations return new Rope values; the original is never modified.
// This enables cheap snapshots and thread-safe concurrent read access.
type Rope struct {
	tree chunkTree
}

// New creates an empty rope.
func New() Rope {
	return Rope{}
}

// FromString creates a rope from a string.
func FromString(s string) Rope {
	return Rope{tree: sumtree.FromItems[Chunk, TextSummary](splitIntoChunks(s), none{})}
}

// FromReader creates a rope from an io.Reader.
func FromReader(r io.Reader) (Rope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Rope{}, fmt.Errorf("read rope: %w", err)
	}
	return FromString(string(data)), nil
}

// Len returns the total byte length.
func (r Rope) Len() ByteOffset {
	return r.tree.Summary().Bytes
}

// LineCount returns the number of lines (newlines + 1).
func (r Rope) LineCount() uint32 {
	return r.tree.Summary().Lines + 1
}

// IsEmpty returns true if the rope contains no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// Summary returns the aggregated metrics for the entire rope.
func (r Rope) Summary() TextSummary {
	return r.tree.Summary()
}

// String returns the full text as a string.
// Use sparingly for large ropes.
func (r Rope) String() string {
	var sb strings.Builder
	sb.Grow(int(r.Len()))
	r.tree.Each(func(_ int, c Chunk) bool {
		sb.WriteString(c.data)
		return true
	})
	return sb.String()
}

// ChunkCount returns the total number of chunks in the rope.
func (r Rope) ChunkCount() int {
	return r.tree.Len()
}

// Height returns the height of the chunk tree.
func (r Rope) Height() int {
	return r.tree.Height()
}

// byteTarget seeks to a byte offset.
type byteTarget ByteOffset

func (t byteTarget) Compare(pos TextSummary, _ none) int {
	return cmp.Compare(ByteOffset(t), pos.Bytes)
}

// lineTarget seeks to the newline count preceding a line.
type lineTarget uint32

func (t lineTarget) Compare(pos TextSummary, _ none) int {
	return cmp.Compare(uint32(t), pos.Lines)
}

// locate returns the index, chunk and starting offset of the chunk holding
// offset. With Right bias a chunk boundary resolves to the following chunk,
// with Left bias to the preceding one. Offsets at the end resolve to the
// last chunk. The rope must not be empty.
func (r Rope) locate(offset ByteOffset, bias sumtree.Bias) (int, Chunk, ByteOffset) {
	c := r.tree.Cursor(none{})
	if c.Seek(byteTarget(offset), bias) {
		chunk, _ := c.Item()
		return c.Index(), chunk, c.Start().Bytes
	}
	last := r.tree.Len() - 1
	chunk, _ := r.tree.Get(last)
	return last, chunk, r.Len() - ByteOffset(chunk.Len())
}

func (r Rope) clamp(offset ByteOffset) ByteOffset {
	return max(0, min(offset, r.Len()))
}

// Slice returns the text in the byte range [start, end).
func (r Rope) Slice(start, end ByteOffset) string {
	start, end = r.clamp(start), r.clamp(end)
	if start >= end {
		return ""
	}

	var sb strings.Builder
	sb.Grow(int(end - start))
	c := r.tree.Cursor(none{})
	c.Seek(byteTarget(start), sumtree.Right)
	for ok := c.Valid(); ok; ok = c.Next() {
		chunk, _ := c.Item()
		chunkStart := c.Start().Bytes
		if chunkStart >= end {
			break
		}
		lo := max(0, start-chunkStart)
		hi := min(ByteOffset(chunk.Len()), end-chunkStart)
		sb.WriteString(chunk.data[lo:hi])
	}
	return sb.String()
}

// ByteAt returns the byte at the given offset.
// Returns 0 and false if offset is out of range.
func (r Rope) ByteAt(offset ByteOffset) (byte, bool) {
	if offset < 0 || offset >= r.Len() {
		return 0, false
	}
	_, chunk, start := r.locate(offset, sumtree.Right)
	return chunk.data[offset-start], true
}

// Insert inserts text at the given byte offset.
// Returns a new rope; original is unchanged.
func (r Rope) Insert(offset ByteOffset, text string) Rope {
	return r.Replace(offset, offset, text)
}

// Delete removes text in the byte range [start, end).
// Returns a new rope; original is unchanged.
func (r Rope) Delete(start, end ByteOffset) Rope {
	return r.Replace(start, end, "")
}

// Replace replaces text in the byte range [start, end) with new text.
// Offsets are clamped to the rope. Only the chunks touching the range are
// rebuilt, so the cost is O(log n + len(text)).
func (r Rope) Replace(start, end ByteOffset, text string) Rope {
	start = r.clamp(start)
	end = max(start, r.clamp(end))
	if start == end && text == "" {
		return r
	}
	if r.tree.IsEmpty() {
		return FromString(text)
	}

	first, firstChunk, firstStart := r.locate(start, sumtree.Right)
	last, lastChunk, lastStart := first, firstChunk, firstStart
	if end > start {
		last, lastChunk, lastStart = r.locate(end, sumtree.Left)
	}

	combined := firstChunk.data[:start-firstStart] + text + lastChunk.data[end-lastStart:]

	// Absorb the next chunk rather than leave a runt behind.
	if len(combined) < MinChunkSize && last+1 < r.tree.Len() {
		next, _ := r.tree.Get(last + 1)
		combined += next.data
		last++
	}

	return Rope{tree: r.tree.Replace(first, last+1, splitIntoChunks(combined), none{})}
}

// Split splits the rope at offset, returning two ropes.
// Left rope contains [0, offset), right contains [offset, end).
func (r Rope) Split(offset ByteOffset) (Rope, Rope) {
	offset = r.clamp(offset)
	return r.Delete(offset, r.Len()), r.Delete(0, offset)
}

// Concat concatenates two ropes.
// Returns a new rope; originals are unchanged.
func (r Rope) Concat(other Rope) Rope {
	return Rope{tree: r.tree.Append(other.tree, none{})}
}

// LineStartOffset returns the byte offset of the start of the given line.
// Lines are 0-indexed; lines past the end return Len.
func (r Rope) LineStartOffset(line uint32) ByteOffset {
	if line == 0 {
		return 0
	}
	if line > r.tree.Summary().Lines {
		return r.Len()
	}

	c := r.tree.Cursor(none{})
	c.Seek(lineTarget(line), sumtree.Left)
	chunk, _ := c.Item()
	prefix := c.Start()
	idx := FindNthNewline(chunk.data, line-prefix.Lines)
	return prefix.Bytes + ByteOffset(idx) + 1
}

// LineEndOffset returns the byte offset of the end of the given line
// (the position of its newline, or Len for the last line).
func (r Rope) LineEndOffset(line uint32) ByteOffset {
	if line >= r.tree.Summary().Lines {
		return r.Len()
	}
	return r.LineStartOffset(line+1) - 1
}

// LineLen returns the byte length of the given line, excluding its newline.
func (r Rope) LineLen(line uint32) uint32 {
	return uint32(r.LineEndOffset(line) - r.LineStartOffset(line))
}

// LineText returns the text of the given line (not including newline).
func (r Rope) LineText(line uint32) string {
	return r.Slice(r.LineStartOffset(line), r.LineEndOffset(line))
}

// OffsetToPoint converts a byte offset to a line/column position.
// The offset is clamped to the rope.
func (r Rope) OffsetToPoint(offset ByteOffset) Point {
	offset = r.clamp(offset)
	if offset == r.Len() {
		return r.tree.Summary().Point()
	}

	c := r.tree.Cursor(none{})
	c.Seek(byteTarget(offset), sumtree.Right)
	chunk, _ := c.Item()
	prefix := c.Start()

	local := offsetToPoint(chunk.data, int(offset-prefix.Bytes))
	if local.Line == 0 {
		return Point{Line: prefix.Lines, Column: prefix.LastLineLen + local.Column}
	}
	return Point{Line: prefix.Lines + local.Line, Column: local.Column}
}

// PointToOffset converts a line/column position to a byte offset.
// Columns past the end of the line clamp to the line end.
func (r Rope) PointToOffset(point Point) ByteOffset {
	start := r.LineStartOffset(point.Line)
	end := r.LineEndOffset(point.Line)
	return min(start+ByteOffset(point.Column), end)
}

// SummaryRange returns the metrics of the text in [start, end).
func (r Rope) SummaryRange(start, end ByteOffset) TextSummary {
	return ComputeSummary(r.Slice(start, end))
}

// Equals returns true if two ropes contain the same text.
func (r Rope) Equals(other Rope) bool {
	if r.Len() != other.Len() {
		return false
	}
	return r.String() == other.String()
}
