package batch

import (
	"fmt"
	"strings"
)

// OpKind is the kind of an EditOp.
type OpKind uint8

const (
	// OpInsert inserts tokens before a token index.
	OpInsert OpKind = iota
	// OpDelete deletes a token range.
	OpDelete
	// OpReplace replaces a token range with tokens.
	OpReplace
)

var opKindNames = [...]string{
	OpInsert:  "insert",
	OpDelete:  "delete",
	OpReplace: "replace",
}

// String returns the kind name.
func (k OpKind) String() string {
	if int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// EditOp is one edit addressed by token index against the AST the batch
// is applied to. An insert has Start == End.
type EditOp struct {
	Kind   OpKind
	Start  int
	End    int
	Tokens []Token

	seq int // position in the batch, for ordering same-index inserts
}

// Insert returns an edit inserting tokens before token index.
func Insert(index int, tokens ...Token) EditOp {
	return EditOp{Kind: OpInsert, Start: index, End: index, Tokens: tokens}
}

// Delete returns an edit deleting tokens [start, end).
func Delete(start, end int) EditOp {
	return EditOp{Kind: OpDelete, Start: start, End: end}
}

// Replace returns an edit replacing tokens [start, end) with tokens.
func Replace(start, end int, tokens ...Token) EditOp {
	return EditOp{Kind: OpReplace, Start: start, End: end, Tokens: tokens}
}

// Text returns the concatenated text of the edit's tokens.
func (e EditOp) Text() string {
	var b strings.Builder
	for _, t := range e.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// String returns a short description of the edit.
func (e EditOp) String() string {
	switch e.Kind {
	case OpInsert:
		return fmt.Sprintf("insert %d tokens at %d", len(e.Tokens), e.Start)
	case OpDelete:
		return fmt.Sprintf("delete [%d, %d)", e.Start, e.End)
	}
	return fmt.Sprintf("replace [%d, %d) with %d tokens", e.Start, e.End, len(e.Tokens))
}

// apply performs e on ast.
func (e EditOp) apply(ast *AST) *AST {
	switch e.Kind {
	case OpInsert:
		if len(e.Tokens) == 0 {
			return ast
		}
		return ast.with(ast.tokens.Insert(e.Start, e.Tokens, none{}))
	case OpDelete:
		if e.Start == e.End {
			return ast
		}
		return ast.with(ast.tokens.Remove(e.Start, e.End, none{}))
	}
	return ast.with(ast.tokens.Replace(e.Start, e.End, e.Tokens, none{}))
}

// positionLess orders edits by start. At one index inserts come before
// range edits, and inserts keep their batch order.
func positionLess(a, b EditOp) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if ai, bi := a.Kind == OpInsert, b.Kind == OpInsert; ai != bi {
		return ai
	}
	return a.seq < b.seq
}
