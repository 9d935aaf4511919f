package rope

// Chunk size constants control the granularity of text storage.
const (
	// MinChunkSize is the minimum bytes per chunk (except for the last chunk).
	MinChunkSize = 128

	// MaxChunkSize is the maximum bytes per chunk before splitting.
	MaxChunkSize = 256

	// TargetChunkSize is the preferred chunk size when building.
	TargetChunkSize = (MinChunkSize + MaxChunkSize) / 2
)

// Chunk is a bounded string stored as one item of the rope's tree.
// Chunks are immutable once created.
type Chunk struct {
	data    string
	summary TextSummary
}

// NewChunk creates a chunk from a string.
func NewChunk(s string) Chunk {
	return Chunk{data: s, summary: ComputeSummary(s)}
}

// String returns the chunk's text.
func (c Chunk) String() string {
	return c.data
}

// Summary returns the chunk's precomputed metrics.
func (c Chunk) Summary(none) TextSummary {
	return c.summary
}

// Len returns the byte length of the chunk.
func (c Chunk) Len() int {
	return len(c.data)
}

// splitIntoChunks splits a string into chunks of appropriate size.
func splitIntoChunks(s string) []Chunk {
	if len(s) == 0 {
		return nil
	}
	if len(s) <= MaxChunkSize {
		return []Chunk{NewChunk(s)}
	}

	chunks := make([]Chunk, 0, len(s)/TargetChunkSize+1)
	remaining := s
	for len(remaining) > MaxChunkSize {
		split := findUTF8Boundary(remaining, TargetChunkSize)
		chunks = append(chunks, NewChunk(remaining[:split]))
		remaining = remaining[split:]
	}
	return append(chunks, NewChunk(remaining))
}

// findUTF8Boundary finds a valid UTF-8 boundary near the target position.
// It prefers splitting after a newline if one exists nearby.
func findUTF8Boundary(s string, target int) int {
	if target >= len(s) {
		return len(s)
	}
	if target <= 0 {
		return 0
	}

	searchStart := max(0, target-MinChunkSize/4)
	searchEnd := min(len(s), target+MinChunkSize/4)

	for i := target; i < searchEnd; i++ {
		if s[i] == '\n' {
			return i + 1
		}
	}
	for i := target - 1; i >= searchStart; i-- {
		if s[i] == '\n' {
			return i + 1
		}
	}

	pos := target
	for pos < len(s) && !isUTF8Start(s[pos]) {
		pos++
	}
	if pos > target+4 || pos >= len(s) {
		pos = target
		for pos > 0 && !isUTF8Start(s[pos]) {
			pos--
		}
	}
	return pos
}

// isUTF8Start returns true if the byte is the start of a UTF-8 sequence.
func isUTF8Start(b byte) bool {
	return b&0xC0 != 0x80
}
