// Package sumtree provides a persistent B+ tree whose nodes cache an
// aggregate summary of their subtree.
//
// The tree stores an ordered sequence of items. Each item reports a summary,
// and summaries combine associatively through their Add method. Internal
// nodes keep the summary of every child, so any monotone quantity derived
// from the summaries (byte offsets, line counts, maximum anchor positions,
// kind bitmasks) can be used to seek in O(log n).
//
// # Persistence
//
// Trees are values. Every mutation (Push, Append, Insert, Remove, SplitAt)
// returns a new tree that shares all untouched nodes with the receiver, so
// older trees remain valid and may be read concurrently from any goroutine.
//
// # Context
//
// Summaries may need external context to combine. Anchor-based summaries,
// for example, can only be ordered against a buffer snapshot. The context is
// threaded through every operation as the C type parameter; trees whose
// summaries need no context use struct{}. Combining summaries with a context
// that does not match the items is undefined.
//
// # Seeking
//
// A Cursor walks items in order. Seek positions a cursor at the first item
// whose inclusive prefix summary reaches a SeekTarget; Walk visits items
// while pruning whole subtrees whose summary cannot contain a match.
//
// # Example
//
//	type count int
//	func (c count) Add(o count, _ struct{}) count { return c + o }
//
//	type word string
//	func (w word) Summary(struct{}) count { return 1 }
//
//	t := sumtree.FromItems[word, count]([]word{"a", "b"}, struct{}{})
//	t = t.Push("c", struct{}{})
//	_ = t.Len() // 3
package sumtree
