package lsp

import (
	"cmp"
	"slices"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/index"
)

// ServerID names the language server that produced a diagnostic.
type ServerID string

// Diagnostic is a diagnostic anchored in a buffer.
type Diagnostic struct {
	Range    buffer.AnchorRange
	Severity Severity
	ServerID ServerID
	Message  string
	Source   string
	Code     string

	// seq orders insertions; it is assigned by the set.
	seq uint64
}

// Resolve returns the diagnostic's byte range in snap.
func (d Diagnostic) Resolve(snap *buffer.Snapshot) buffer.Range {
	return d.Range.ToRange(snap)
}

// sameAs reports whether d and o carry the same payload over the same text.
func (d Diagnostic) sameAs(o Diagnostic, snap *buffer.Snapshot) bool {
	return d.Severity == o.Severity &&
		d.ServerID == o.ServerID &&
		d.Message == o.Message &&
		d.Source == o.Source &&
		d.Code == o.Code &&
		d.Resolve(snap) == o.Resolve(snap)
}

// Summary implements sumtree.Item.
func (d Diagnostic) Summary(*buffer.Snapshot) diagnosticSummary {
	return diagnosticSummary{
		Range:      index.RangeSummary{Start: d.Range.Start, End: d.Range.End, MaxStart: d.Range.Start, Count: 1},
		Severities: 1 << d.Severity,
	}
}

type diagnosticSummary struct {
	Range      index.RangeSummary
	Severities uint8
}

func (s diagnosticSummary) Add(o diagnosticSummary, snap *buffer.Snapshot) diagnosticSummary {
	return diagnosticSummary{Range: s.Range.Add(o.Range, snap), Severities: s.Severities | o.Severities}
}

// overlaps reports whether some diagnostic of the run may overlap the
// closed range [start, end].
func (s diagnosticSummary) overlaps(start, end buffer.ByteOffset, snap *buffer.Snapshot) bool {
	if s.Range.Count == 0 {
		return false
	}
	lo, hi := s.Range.Resolve(snap)
	return lo <= end && start <= hi
}

type diagnosticTree = sumtree.Tree[Diagnostic, diagnosticSummary, *buffer.Snapshot]

// DiagnosticSet holds the diagnostics of one buffer ordered by start.
// Diagnostics of several servers may overlap; MergeWith decides which
// survive. A DiagnosticSet is not safe for concurrent use; Store guards one.
type DiagnosticSet struct {
	tree diagnosticTree
	seq  uint64
	// snap is the newest snapshot the set has seen, used to rebuild
	// summaries when diagnostics are removed.
	snap *buffer.Snapshot
}

func (s *DiagnosticSet) observe(snap *buffer.Snapshot) {
	if s.snap == nil || snap.Version() > s.snap.Version() {
		s.snap = snap
	}
}

// NewDiagnosticSet creates an empty set.
func NewDiagnosticSet() *DiagnosticSet {
	return &DiagnosticSet{}
}

// NewDiagnosticSetFrom creates a set holding diagnostics.
func NewDiagnosticSetFrom(diagnostics []Diagnostic, snap *buffer.Snapshot) *DiagnosticSet {
	s := NewDiagnosticSet()
	s.observe(snap)
	sorted := slices.Clone(diagnostics)
	slices.SortStableFunc(sorted, func(a, b Diagnostic) int {
		return cmp.Compare(snap.ToOffset(a.Range.Start), snap.ToOffset(b.Range.Start))
	})
	for i := range sorted {
		s.seq++
		sorted[i].seq = s.seq
	}
	s.tree = sumtree.FromItems[Diagnostic, diagnosticSummary](sorted, snap)
	return s
}

// Len returns the number of diagnostics.
func (s *DiagnosticSet) Len() int {
	return s.tree.Len()
}

// All returns every diagnostic in start order.
func (s *DiagnosticSet) All() []Diagnostic {
	return s.tree.Items()
}

// Insert adds d after every diagnostic starting at or before it.
func (s *DiagnosticSet) Insert(d Diagnostic, snap *buffer.Snapshot) {
	s.observe(snap)
	s.seq++
	d.seq = s.seq
	at := s.insertionIndex(snap.ToOffset(d.Range.Start), snap)
	s.tree = s.tree.Insert(at, []Diagnostic{d}, snap)
}

func (s *DiagnosticSet) insertionIndex(off buffer.ByteOffset, snap *buffer.Snapshot) int {
	c := s.tree.Cursor(snap)
	c.Seek(sumtree.SeekFunc[diagnosticSummary, *buffer.Snapshot](func(pos diagnosticSummary, snap *buffer.Snapshot) int {
		if pos.Range.Count == 0 {
			return 1
		}
		return cmp.Compare(off, snap.ToOffset(pos.Range.MaxStart))
	}), sumtree.Right)
	return c.Index()
}

// RemoveByServer drops every diagnostic of server and returns how many
// were removed.
func (s *DiagnosticSet) RemoveByServer(server ServerID) int {
	items := s.tree.Items()
	kept := items[:0]
	for _, d := range items {
		if d.ServerID != server {
			kept = append(kept, d)
		}
	}
	removed := len(items) - len(kept)
	if removed > 0 {
		s.tree = sumtree.FromItems[Diagnostic, diagnosticSummary](kept, s.snap)
	}
	return removed
}

// DiagnosticsInRange returns the diagnostics overlapping the closed range
// [start, end]: those with d.start <= end and start <= d.end.
func (s *DiagnosticSet) DiagnosticsInRange(start, end buffer.ByteOffset, snap *buffer.Snapshot) []Diagnostic {
	var out []Diagnostic
	s.walkRange(start, end, snap, func(_ int, d Diagnostic) {
		out = append(out, d)
	})
	return out
}

// DiagnosticsForRow returns the diagnostics touching row.
func (s *DiagnosticSet) DiagnosticsForRow(row uint32, snap *buffer.Snapshot) []Diagnostic {
	if row >= snap.LineCount() {
		return nil
	}
	return s.DiagnosticsInRange(snap.LineStartOffset(row), snap.LineEndOffset(row), snap)
}

// DiagnosticsOfSeverity returns the diagnostics at least as severe as least.
func (s *DiagnosticSet) DiagnosticsOfSeverity(least Severity) []Diagnostic {
	var mask uint8
	for sev := SeverityError; sev <= least; sev++ {
		mask |= 1 << sev
	}
	var out []Diagnostic
	s.tree.Walk(
		func(sum diagnosticSummary) bool { return sum.Severities&mask != 0 },
		func(_ int, d Diagnostic) bool {
			out = append(out, d)
			return true
		},
	)
	return out
}

// Counts tallies the diagnostics by severity.
func (s *DiagnosticSet) Counts() SeverityCounts {
	var c SeverityCounts
	s.tree.Each(func(_ int, d Diagnostic) bool {
		c.Add(d.Severity)
		return true
	})
	return c
}

func (s *DiagnosticSet) walkRange(start, end buffer.ByteOffset, snap *buffer.Snapshot, fn func(int, Diagnostic)) {
	s.tree.Walk(
		func(sum diagnosticSummary) bool { return sum.overlaps(start, end, snap) },
		func(i int, d Diagnostic) bool {
			fn(i, d)
			return true
		},
	)
}

// MergeWith overlays the diagnostics of other onto s. For each incoming
// diagnostic, in order:
//
//  1. an identical diagnostic already in s leaves s unchanged;
//  2. overlapping diagnostics of the same server that predate the merge
//     are replaced;
//  3. if an overlapping diagnostic of another server is at least as
//     severe, it stays and the incoming one is dropped;
//  4. otherwise the overlapping diagnostics of other servers are removed
//     and the incoming one is inserted.
//
// Merging a set with itself changes nothing.
func (s *DiagnosticSet) MergeWith(other *DiagnosticSet, snap *buffer.Snapshot) {
	s.observe(snap)
	base := s.seq
	for _, in := range other.All() {
		r := in.Resolve(snap)

		var losers []int
		identical, beaten := false, false
		s.walkRange(r.Start, r.End, snap, func(i int, d Diagnostic) {
			switch {
			case d.sameAs(in, snap):
				identical = true
			case d.ServerID == in.ServerID:
				// Diagnostics added by this merge come from one publish
				// and may overlap freely.
				if d.seq <= base {
					losers = append(losers, i)
				}
			case !in.Severity.MoreSevere(d.Severity):
				beaten = true
			default:
				losers = append(losers, i)
			}
		})
		if identical || beaten {
			continue
		}

		for i := len(losers) - 1; i >= 0; i-- {
			s.tree = s.tree.Remove(losers[i], losers[i]+1, snap)
		}
		s.Insert(in, snap)
	}
}
