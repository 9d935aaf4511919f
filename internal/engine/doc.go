// Package engine keeps a buffer and everything derived from it in step.
//
// An Engine owns one buffer.Buffer. Every edit goes through ApplyEdits (or
// its Insert, Delete, Replace, SetText and ApplyBatch shorthands), which
// applies the edit and then, under the same lock:
//
//   - syncs the token map over the edited regions
//   - reparses, incrementally when the parser supports it, and rebuilds
//     the scope, bracket and symbol indices
//   - syncs the display map, returning the display rows that changed
//   - hands the new snapshot to the diagnostic store
//
// Positions stored in any of these structures are anchors, so they follow
// the edit without being rewritten.
//
// # Basic Usage
//
//	e, err := engine.New(ctx, engine.WithContent("fn main() {}\n"))
//	if err != nil {
//		return err
//	}
//	u, err := e.Insert(ctx, 11, " run(); ")
//	if err != nil {
//		return err
//	}
//	view := e.View()
//	scope, ok := view.Scopes.ScopeAtOffset(12, view.Snapshot)
//
// # Diagnostics
//
// Diagnostics arrive asynchronously through Diagnostics().Publish. A
// publish carries the snapshot its server analysed; the store converts
// positions against that snapshot and anchors them, so diagnostics stay
// attached to their text while the user keeps typing.
//
// # Undo/Redo
//
// Each ApplyEdits call is one undo entry. Undo applies the inverse edits
// through the same path, so every index follows.
package engine
