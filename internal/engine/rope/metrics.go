package rope

import "unicode/utf8"

// ByteOffset represents an absolute byte position in the rope.
type ByteOffset = int64

// Point represents a line/column position.
// Line and Column are both 0-indexed; Column counts bytes.
type Point struct {
	Line   uint32
	Column uint32
}

// none is the summary context of text chunks; text metrics need no context.
type none = struct{}

// TextSummary holds aggregated metrics for a text span.
// It is the summary type of the chunk tree.
type TextSummary struct {
	// Bytes is the UTF-8 byte count.
	Bytes ByteOffset

	// UTF16Units is the UTF-16 code unit count (for LSP compatibility).
	UTF16Units int64

	// Lines is the number of newline characters.
	Lines uint32

	// LongestLine is the byte length of the longest line.
	LongestLine uint32

	// FirstLineLen is the byte length of the first line (excluding newline).
	FirstLineLen uint32

	// LastLineLen is the byte length of the last line (excluding newline).
	LastLineLen uint32

	// LastLineUTF16 is the UTF-16 length of the last line.
	LastLineUTF16 uint32

	// Flags indicate text properties for fast paths.
	Flags TextFlags
}

// TextFlags indicate text properties for optimization fast paths.
type TextFlags uint8

const (
	// FlagNonASCII indicates some character is outside ASCII.
	FlagNonASCII TextFlags = 1 << iota

	// FlagHasNewlines indicates the text contains newline characters.
	FlagHasNewlines

	// FlagHasTabs indicates the text contains tab characters.
	FlagHasTabs
)

// Add combines two summaries. The zero summary is the identity.
func (s TextSummary) Add(other TextSummary, _ none) TextSummary {
	if s.Bytes == 0 {
		return other
	}
	if other.Bytes == 0 {
		return s
	}

	result := TextSummary{
		Bytes:      s.Bytes + other.Bytes,
		UTF16Units: s.UTF16Units + other.UTF16Units,
		Lines:      s.Lines + other.Lines,
		Flags:      s.Flags | other.Flags,
	}

	if other.Lines > 0 {
		// The last line of s joins the first line of other.
		joined := s.LastLineLen + other.FirstLineLen
		result.LongestLine = max(s.LongestLine, other.LongestLine, joined)
		result.FirstLineLen = s.FirstLineLen
		if s.Lines == 0 {
			result.FirstLineLen = joined
		}
		result.LastLineLen = other.LastLineLen
		result.LastLineUTF16 = other.LastLineUTF16
	} else {
		combined := s.LastLineLen + other.LastLineLen
		result.LongestLine = max(s.LongestLine, combined)
		result.FirstLineLen = s.FirstLineLen
		if s.Lines == 0 {
			result.FirstLineLen = combined
		}
		result.LastLineLen = combined
		result.LastLineUTF16 = s.LastLineUTF16 + other.LastLineUTF16
	}

	return result
}

// Point returns the position just past the summarized text.
func (s TextSummary) Point() Point {
	return Point{Line: s.Lines, Column: s.LastLineLen}
}

// IsASCII returns true if the text holds only ASCII characters.
func (s TextSummary) IsASCII() bool {
	return s.Flags&FlagNonASCII == 0
}

// ComputeSummary calculates metrics for a string.
func ComputeSummary(s string) TextSummary {
	var sum TextSummary
	if len(s) == 0 {
		return sum
	}
	sum.Bytes = ByteOffset(len(s))

	var lineLen, lineUTF16 uint32
	for i, r := range s {
		width := utf8.RuneLen(r)
		if r == utf8.RuneError {
			_, width = utf8.DecodeRuneInString(s[i:])
		}
		units := uint32(1)
		if r > 0xFFFF {
			units = 2 // surrogate pair
		}
		sum.UTF16Units += int64(units)

		if r > 127 {
			sum.Flags |= FlagNonASCII
		}

		if r == '\n' {
			sum.Lines++
			sum.LongestLine = max(sum.LongestLine, lineLen)
			if sum.Lines == 1 {
				sum.FirstLineLen = lineLen
			}
			lineLen, lineUTF16 = 0, 0
			sum.Flags |= FlagHasNewlines
			continue
		}
		lineLen += uint32(width)
		lineUTF16 += units
		if r == '\t' {
			sum.Flags |= FlagHasTabs
		}
	}

	sum.LastLineLen = lineLen
	sum.LastLineUTF16 = lineUTF16
	sum.LongestLine = max(sum.LongestLine, lineLen)
	if sum.Lines == 0 {
		sum.FirstLineLen = lineLen
	}
	return sum
}

// FindNthNewline finds the byte position of the nth newline (1-indexed).
// Returns -1 if not found.
func FindNthNewline(s string, n uint32) int {
	if n == 0 {
		return -1
	}
	var count uint32
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			count++
			if count == n {
				return i
			}
		}
	}
	return -1
}

// offsetToPoint converts a byte offset within s to a line/column position.
func offsetToPoint(s string, offset int) Point {
	offset = max(0, min(offset, len(s)))
	var line uint32
	lastNewline := -1
	for i := 0; i < offset; i++ {
		if s[i] == '\n' {
			line++
			lastNewline = i
		}
	}
	return Point{Line: line, Column: uint32(offset - lastNewline - 1)}
}
