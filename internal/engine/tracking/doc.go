// Package tracking turns whole-text changes into buffer edits.
//
// When a file is reloaded from disk the engine only knows the old and the new
// content. Replacing the buffer wholesale would collapse every anchor to the
// start of the text; [Diff] instead computes a short list of edits so that
// anchors outside the changed regions keep their positions and derived
// indices only resynchronise what actually changed.
//
// Edits are returned highest offset first, ready for
// [buffer.Buffer.ApplyEdits]:
//
//	edits := tracking.Diff(buf.Text(), reloaded)
//	patches, err := buf.ApplyEdits(edits)
//
// Large texts are diffed line by line first; see [WithLineMode].
package tracking
