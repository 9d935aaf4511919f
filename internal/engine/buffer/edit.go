package buffer

import "fmt"

// Edit represents a text edit operation.
// It specifies a range to replace and the new text.
type Edit struct {
	Range   Range  // The range to replace
	NewText string // The replacement text
}

// NewEdit creates a new Edit.
func NewEdit(r Range, newText string) Edit {
	return Edit{Range: r, NewText: newText}
}

// NewInsert creates an Edit that inserts text at a position.
func NewInsert(offset ByteOffset, text string) Edit {
	return Edit{Range: Range{Start: offset, End: offset}, NewText: text}
}

// NewDelete creates an Edit that deletes a range of text.
func NewDelete(start, end ByteOffset) Edit {
	return Edit{Range: Range{Start: start, End: end}}
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	switch {
	case e.Range.IsEmpty():
		return fmt.Sprintf("Insert(%d, %q)", e.Range.Start, e.NewText)
	case e.NewText == "":
		return fmt.Sprintf("Delete%s", e.Range)
	default:
		return fmt.Sprintf("Replace%s with %q", e.Range, e.NewText)
	}
}

// IsNoOp returns true if this edit does nothing.
func (e Edit) IsNoOp() bool {
	return e.Range.IsEmpty() && e.NewText == ""
}

// Delta returns the change in buffer length caused by this edit.
func (e Edit) Delta() ByteOffset {
	return ByteOffset(len(e.NewText)) - e.Range.Len()
}

// Patch describes an applied edit in both coordinate systems.
// Old is the replaced range before the batch, New is the range of the
// inserted text after the batch.
type Patch struct {
	Old Range
	New Range
}

// Delta returns the change in length caused by the patch.
func (p Patch) Delta() ByteOffset {
	return p.New.Len() - p.Old.Len()
}

// String returns a human-readable representation of the patch.
func (p Patch) String() string {
	return fmt.Sprintf("%s -> %s", p.Old, p.New)
}

// editRecord is one entry of the buffer's append-only edit log.
// Offsets are in the coordinates of the version the edit was applied to.
type editRecord struct {
	start  ByteOffset
	end    ByteOffset
	newLen ByteOffset
}

// transform maps an offset across the edit.
// Offsets inside the replaced range clamp to its start; the inserted text
// then lies after Left-biased offsets and before Right-biased ones.
func (e editRecord) transform(off ByteOffset, bias Bias) ByteOffset {
	switch {
	case off < e.start:
		return off
	case off > e.end:
		return off + e.newLen - (e.end - e.start)
	case bias == Right:
		return e.start + e.newLen
	default:
		return e.start
	}
}
