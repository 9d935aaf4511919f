package syntax

import (
	"context"

	"github.com/dshills/stoat/internal/engine/buffer"
)

// Point is a row/byte-column position, as grammars report it.
type Point struct {
	Row    uint32
	Column uint32
}

// InputEdit describes one edit to a previously parsed text. Each edit is
// expressed in the coordinates left by the edits before it.
type InputEdit struct {
	StartByte   int64
	OldEndByte  int64
	NewEndByte  int64
	StartPoint  Point
	OldEndPoint Point
	NewEndPoint Point
}

// IncrementalParser reuses an old tree when reparsing an edited text.
type IncrementalParser interface {
	Parser
	Reparse(ctx context.Context, old Tree, edits []InputEdit, source string) (Tree, error)
}

// EditsFromPatches converts the ascending patches of one ApplyEdits call
// into sequential input edits. before and after are the snapshots on either
// side of the call.
func EditsFromPatches(before, after *buffer.Snapshot, patches []buffer.Patch) []InputEdit {
	edits := make([]InputEdit, 0, len(patches))
	var rowDelta int64
	for _, p := range patches {
		oldStart := before.OffsetToPoint(p.Old.Start)
		oldEnd := before.OffsetToPoint(p.Old.End)
		newStart := after.OffsetToPoint(p.New.Start)
		newEnd := after.OffsetToPoint(p.New.End)

		// Earlier patches shift rows uniformly; columns only move on the
		// line where this patch starts.
		oldEndPoint := Point{Row: uint32(int64(oldEnd.Line) + rowDelta), Column: oldEnd.Column}
		if oldEnd.Line == oldStart.Line {
			oldEndPoint.Column = newStart.Column + (oldEnd.Column - oldStart.Column)
		}

		edits = append(edits, InputEdit{
			StartByte:   p.New.Start,
			OldEndByte:  p.New.Start + p.Old.Len(),
			NewEndByte:  p.New.End,
			StartPoint:  Point{Row: newStart.Line, Column: newStart.Column},
			OldEndPoint: oldEndPoint,
			NewEndPoint: Point{Row: newEnd.Line, Column: newEnd.Column},
		})
		rowDelta = int64(newEnd.Line) - int64(oldEnd.Line)
	}
	return edits
}
