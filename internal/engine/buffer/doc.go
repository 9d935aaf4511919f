// Package buffer provides the editable text of a document, its immutable
// snapshots and the anchors that track positions across edits.
//
// A Buffer wraps a rope and an append-only edit history. Its version is the
// number of edits applied so far. Snapshot captures the rope together with
// the history prefix, so a snapshot is a complete, immutable picture of the text
// at one version and can be handed to other goroutines.
//
// # Anchors
//
// An Anchor records a byte offset, the buffer version it was taken at and a
// Bias. Resolving it through a later snapshot moves it across the edits
// since its version:
//
//   - offsets before an edit are unchanged, offsets after it shift
//   - offsets inside a replaced range clamp to the range start
//   - text inserted at the anchor's position lands after a Left anchor and
//     before a Right anchor
//
// Resolution is monotone, so anchors that were ordered stay ordered (distinct
// anchors may collapse onto one offset). AnchorMin and AnchorMax resolve to
// the ends of every snapshot. Anchors have no order of their own; compare
// them with Cmp and a snapshot.
//
// The history keeps composed offset maps over aligned power-of-two runs of
// edits, so resolving an anchor costs a bounded replay plus one binary
// search per run level, however old the anchor is.
//
// Basic usage:
//
//	buf := buffer.NewBufferFromString("let foo = bar;")
//	snap := buf.Snapshot()
//	a := snap.AnchorBefore(10) // start of "bar"
//
//	buf.Insert(0, "// c\n")
//	snap = buf.Snapshot()
//	snap.ToPoint(a) // (1:10)
//
// # Edits
//
// ApplyEdits takes edits in reverse order (highest offset first) in the
// coordinates of the current text and returns one Patch per edit with both
// the old range and the new range of the inserted text, so derived indices
// can resynchronize only the touched spans.
//
// Position Types:
//
//   - ByteOffset: raw byte position in the buffer
//   - Point: line and column position (0-indexed, column in bytes)
//   - PointUTF16: line and column with the column in UTF-16 code units
//     (for LSP compatibility)
//
// Thread Safety:
//
// All Buffer methods are thread-safe. Snapshots are immutable.
package buffer
