package buffer

import "log/slog"

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithLineEnding sets the buffer's line ending style.
func WithLineEnding(le LineEnding) Option {
	return func(b *Buffer) {
		b.lineEnding = le
	}
}

// WithID sets the buffer's id instead of generating one.
func WithID(id BufferID) Option {
	return func(b *Buffer) {
		b.id = id
	}
}

// WithLogger sets the logger used for edit tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Buffer) {
		b.logger = logger
	}
}

// DetectLineEnding returns a LineEnding based on the most common line ending in the text.
// Returns LineEndingLF if no line endings are found.
func DetectLineEnding(text string) LineEnding {
	var lfCount, crlfCount, crCount int
	for i := 0; i < len(text); i++ {
		switch {
		case text[i] == '\r' && i+1 < len(text) && text[i+1] == '\n':
			crlfCount++
			i++
		case text[i] == '\r':
			crCount++
		case text[i] == '\n':
			lfCount++
		}
	}

	switch {
	case crlfCount > 0 && crlfCount >= lfCount && crlfCount >= crCount:
		return LineEndingCRLF
	case crCount > 0 && crCount >= lfCount:
		return LineEndingCR
	default:
		return LineEndingLF
	}
}

// WithDetectedLineEnding sets the buffer's line ending style based on content.
func WithDetectedLineEnding(text string) Option {
	return WithLineEnding(DetectLineEnding(text))
}
