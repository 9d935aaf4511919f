// Package batch applies sets of token edits to an immutable AST.
//
// An AST is a token sequence stored in a sumtree. A Batch collects
// Insert, Delete and Replace edits addressed by token index against one
// AST. Prepare rejects batches whose range edits share tokens with
// ErrOverlappingEdits and orders the rest from the highest index down, so
// every edit applies to the previous result without re-offsetting the
// others. Inserts at the same index are allowed and keep their order.
//
//	ast, _ := batch.Parse("let x = 1;", syntax.NewSimpleLexer())
//	b := batch.New(
//		batch.Replace(2, 3, batch.Token{Kind: syntax.TokenIdentifier, Text: "y"}),
//		batch.Delete(5, 7),
//	)
//	next, err := b.Apply(ast)
//
// Apply never modifies its input. History keeps the ASTs on both sides of
// each batch for undo and redo.
package batch
