// Package rope provides an immutable rope for text storage and editing.
//
// Text is split into chunks of 128 to 256 bytes that are stored as the items
// of a sumtree. Each chunk carries a TextSummary (bytes, UTF-16 units, line
// breaks, line lengths), so offsets and line numbers resolve by seeking the
// tree instead of scanning the text.
//
// Key features:
//   - O(log n) insertion, deletion and position lookups
//   - Immutable operations return new ropes; originals are never modified
//   - Unchanged chunks are shared between versions, so snapshots are cheap
//   - Safe for concurrent reads
//
// Basic usage:
//
//	r := rope.FromString("hello world")
//	r = r.Insert(5, ",")           // "hello, world"
//	r = r.Delete(0, 6)             // " world"
//	p := r.OffsetToPoint(3)        // {Line: 0, Column: 3}
package rope
