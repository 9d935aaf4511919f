// Package index holds the anchor-based structures derived from a buffer:
// syntax tokens, lexical scopes, bracket pairs and symbols.
//
// Every entry stores its position as buffer anchors and lives in a
// summary tree ordered by start. Queries resolve anchors through the
// snapshot they are given, so an index built against an old snapshot still
// answers correctly for a newer one.
//
// TokenMap is patched incrementally from the patches of each edit.
// ScopeIndex, BracketIndex and SymbolIndex are rebuilt whole from a parsed
// tree:
//
//	tree, err := parser.Parse(ctx, snap.Text())
//	scopes := index.BuildScopes(tree, snap, index.Rust)
//	s, ok := scopes.ScopeAtOffset(off, snap)
package index
