package batch

import (
	"fmt"
	"slices"

	"github.com/dshills/stoat/internal/engine/buffer"
)

// Batch is a set of edits applied to an AST as one unit. Edits address
// token indices of the AST the batch is applied to, not of intermediate
// results.
//
// Prepare orders the edits from the highest index down so each one
// applies to the previous result without adjusting the others.
type Batch struct {
	edits    []EditOp
	nextSeq  int
	prepared bool
}

// New creates a batch holding ops.
func New(ops ...EditOp) *Batch {
	b := &Batch{}
	for _, op := range ops {
		b.Add(op)
	}
	return b
}

// Add appends an edit.
func (b *Batch) Add(op EditOp) *Batch {
	op.seq = b.nextSeq
	b.nextSeq++
	b.edits = append(b.edits, op)
	b.prepared = false
	return b
}

// Insert appends an insert edit.
func (b *Batch) Insert(index int, tokens ...Token) *Batch {
	return b.Add(Insert(index, tokens...))
}

// Delete appends a delete edit.
func (b *Batch) Delete(start, end int) *Batch {
	return b.Add(Delete(start, end))
}

// Replace appends a replace edit.
func (b *Batch) Replace(start, end int, tokens ...Token) *Batch {
	return b.Add(Replace(start, end, tokens...))
}

// Len returns the number of edits.
func (b *Batch) Len() int {
	return len(b.edits)
}

// Edits returns the edits, in application order once prepared.
func (b *Batch) Edits() []EditOp {
	return slices.Clone(b.edits)
}

// Prepare checks the batch against ast and sorts it for application.
// Indices must lie within ast. Range edits must not share tokens with
// each other or surround an insert; inserts at one index never conflict
// and keep their order. On error the batch is unchanged.
func (b *Batch) Prepare(ast *AST) error {
	n := ast.Len()
	for _, e := range b.edits {
		if e.Start < 0 || e.Start > e.End || e.End > n {
			return fmt.Errorf("%s (len %d): %w", e, n, ErrIndexOutOfRange)
		}
	}

	sorted := slices.Clone(b.edits)
	slices.SortStableFunc(sorted, compareEdits)
	if err := checkOverlaps(sorted); err != nil {
		return err
	}

	slices.Reverse(sorted)
	b.edits = sorted
	b.prepared = true
	return nil
}

func compareEdits(a, b EditOp) int {
	switch {
	case positionLess(a, b):
		return -1
	case positionLess(b, a):
		return 1
	}
	return 0
}

// checkOverlaps sweeps edits in position order, tracking the furthest
// range end seen so far.
func checkOverlaps(sorted []EditOp) error {
	var reach EditOp
	maxEnd := -1
	for _, e := range sorted {
		if maxEnd > e.Start {
			return fmt.Errorf("%s and %s: %w", reach, e, ErrOverlappingEdits)
		}
		if e.Kind != OpInsert && e.End > maxEnd {
			reach, maxEnd = e, e.End
		}
	}
	return nil
}

// Optimize merges adjacent deletes and turns a delete followed by an
// insert at its end into a replace. The result keeps the order Prepare
// gave it.
func (b *Batch) Optimize() {
	if len(b.edits) < 2 {
		return
	}
	sorted := slices.Clone(b.edits)
	slices.SortStableFunc(sorted, compareEdits)

	optimized := make([]EditOp, 0, len(sorted))
	for i := 0; i < len(sorted); {
		merged := sorted[i]
		j := i + 1
		for ; j < len(sorted); j++ {
			next, ok := mergeEdits(merged, sorted[j])
			if !ok {
				break
			}
			merged = next
		}
		optimized = append(optimized, merged)
		i = j
	}

	if b.prepared {
		slices.Reverse(optimized)
	}
	b.edits = optimized
}

func mergeEdits(first, second EditOp) (EditOp, bool) {
	if first.Kind != OpDelete {
		return EditOp{}, false
	}
	switch {
	case second.Kind == OpDelete && first.End == second.Start:
		first.End = second.End
		return first, true
	case second.Kind == OpInsert && first.End == second.Start:
		first.Kind = OpReplace
		first.Tokens = second.Tokens
		return first, true
	}
	return EditOp{}, false
}

// Apply prepares the batch against ast and applies every edit, returning
// the new AST. ast itself is never modified. On error nothing is applied.
func (b *Batch) Apply(ast *AST) (*AST, error) {
	if err := b.Prepare(ast); err != nil {
		return nil, err
	}
	result := ast
	for _, e := range b.edits {
		result = e.apply(result)
	}
	return result, nil
}

// BufferEdits prepares the batch against ast and converts it into byte
// edits on the text of ast, highest offset first as buffer.ApplyEdits
// expects.
func (b *Batch) BufferEdits(ast *AST) ([]buffer.Edit, error) {
	if err := b.Prepare(ast); err != nil {
		return nil, err
	}
	edits := make([]buffer.Edit, 0, len(b.edits))
	for _, e := range b.edits {
		r := buffer.Range{Start: ast.Offset(e.Start), End: ast.Offset(e.End)}
		edits = append(edits, buffer.NewEdit(r, e.Text()))
	}
	return edits, nil
}
