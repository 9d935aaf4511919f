package tracking

import (
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/stoat/internal/engine/buffer"
)

// DefaultLineModeThreshold is the combined text size above which Diff
// compares lines before characters.
const DefaultLineModeThreshold = 64 * 1024

// DefaultTimeout bounds the time spent searching for a minimal diff.
const DefaultTimeout = time.Second

// Option configures Diff.
type Option func(*differ)

type differ struct {
	lineThreshold int
	timeout       time.Duration
	cleanup       bool
}

// WithLineMode sets the combined size above which texts are diffed line by
// line. A negative value disables line mode.
func WithLineMode(threshold int) Option {
	return func(d *differ) {
		d.lineThreshold = threshold
	}
}

// WithTimeout bounds the diff search. Zero means no limit.
func WithTimeout(timeout time.Duration) Option {
	return func(d *differ) {
		d.timeout = timeout
	}
}

// WithoutCleanup keeps the raw character diff instead of merging small
// equalities into neighbouring edits.
func WithoutCleanup() Option {
	return func(d *differ) {
		d.cleanup = false
	}
}

// Diff returns the edits that turn oldText into newText, highest offset
// first. Applying them to a buffer holding oldText yields newText.
func Diff(oldText, newText string, opts ...Option) []buffer.Edit {
	if oldText == newText {
		return nil
	}

	d := differ{
		lineThreshold: DefaultLineModeThreshold,
		timeout:       DefaultTimeout,
		cleanup:       true,
	}
	for _, opt := range opts {
		opt(&d)
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = d.timeout

	var diffs []diffmatchpatch.Diff
	if d.lineThreshold >= 0 && len(oldText)+len(newText) > d.lineThreshold {
		a, b, lines := dmp.DiffLinesToChars(oldText, newText)
		diffs = dmp.DiffMain(a, b, false)
		diffs = dmp.DiffCharsToLines(diffs, lines)
	} else {
		diffs = dmp.DiffMain(oldText, newText, false)
	}
	if d.cleanup {
		diffs = dmp.DiffCleanupEfficiency(diffs)
	}

	edits := toEdits(diffs)
	for i, j := 0, len(edits)-1; i < j; i, j = i+1, j-1 {
		edits[i], edits[j] = edits[j], edits[i]
	}
	return edits
}

// toEdits converts diffs to ascending edits in old-text coordinates. Runs of
// deletes and inserts between two equalities become one replacement.
func toEdits(diffs []diffmatchpatch.Diff) []buffer.Edit {
	var (
		edits   []buffer.Edit
		pos     buffer.ByteOffset
		start   buffer.ByteOffset
		deleted buffer.ByteOffset
		pending []byte
		open    bool
	)
	flush := func() {
		if open {
			edits = append(edits, buffer.NewEdit(buffer.NewRange(start, start+deleted), string(pending)))
		}
		open = false
		deleted = 0
		pending = pending[:0]
	}

	for _, df := range diffs {
		n := buffer.ByteOffset(len(df.Text))
		switch df.Type {
		case diffmatchpatch.DiffEqual:
			flush()
			pos += n
		case diffmatchpatch.DiffDelete:
			if !open {
				open, start = true, pos
			}
			deleted += n
			pos += n
		case diffmatchpatch.DiffInsert:
			if !open {
				open, start = true, pos
			}
			pending = append(pending, df.Text...)
		}
	}
	flush()
	return edits
}

// Stats summarises a list of edits.
type Stats struct {
	Edits    int
	Inserted int64
	Deleted  int64
}

// Summarize counts the bytes an edit list inserts and deletes.
func Summarize(edits []buffer.Edit) Stats {
	s := Stats{Edits: len(edits)}
	for _, e := range edits {
		s.Inserted += int64(len(e.NewText))
		s.Deleted += int64(e.Range.Len())
	}
	return s
}
