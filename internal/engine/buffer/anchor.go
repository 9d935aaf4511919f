package buffer

import (
	"bytes"
	"cmp"
	"fmt"

	"github.com/google/uuid"
)

// BufferID identifies a logical buffer across all of its versions.
type BufferID = uuid.UUID

// NewBufferID returns a fresh random buffer id.
func NewBufferID() BufferID {
	return uuid.New()
}

// Bias selects which side of an insertion at exactly an anchor's offset the
// anchor ends up on.
type Bias uint8

const (
	// Left keeps the anchor before text inserted at its offset.
	Left Bias = iota
	// Right moves the anchor after text inserted at its offset.
	Right
)

// String returns the bias name.
func (b Bias) String() string {
	if b == Right {
		return "right"
	}
	return "left"
}

// sentinel marks the anchors that name the buffer's ends.
type sentinel uint8

const (
	sentinelNone sentinel = iota
	sentinelMin
	sentinelMax
)

// Anchor is a position that survives edits. It records the offset at the
// buffer version it was created against; resolving it through a later
// snapshot replays the intervening edits.
// Anchors are never ordered on their own; use Cmp with a snapshot.
type Anchor struct {
	Buffer  BufferID
	Version uint64
	Offset  ByteOffset
	Bias    Bias

	sentinel sentinel
}

var (
	// AnchorMin resolves to the start of every snapshot and sorts first.
	AnchorMin = Anchor{sentinel: sentinelMin}
	// AnchorMax resolves to the end of every snapshot and sorts last.
	AnchorMax = Anchor{Bias: Right, sentinel: sentinelMax}
)

// IsMin returns true for AnchorMin.
func (a Anchor) IsMin() bool {
	return a.sentinel == sentinelMin
}

// IsMax returns true for AnchorMax.
func (a Anchor) IsMax() bool {
	return a.sentinel == sentinelMax
}

// String returns a human-readable representation of the anchor.
func (a Anchor) String() string {
	switch a.sentinel {
	case sentinelMin:
		return "Anchor(MIN)"
	case sentinelMax:
		return "Anchor(MAX)"
	}
	return fmt.Sprintf("Anchor(%d@v%d %s)", a.Offset, a.Version, a.Bias)
}

// Cmp orders two anchors through a snapshot: by resolved offset, then Left
// before Right. AnchorMin sorts first and AnchorMax last. Anchors of
// different buffers order by buffer id.
func (a Anchor) Cmp(b Anchor, snap *Snapshot) int {
	if a == b {
		return 0
	}
	if a.IsMax() || b.IsMin() {
		return 1
	}
	if a.IsMin() || b.IsMax() {
		return -1
	}
	if a.Buffer != b.Buffer {
		return bytes.Compare(a.Buffer[:], b.Buffer[:])
	}
	if c := cmp.Compare(snap.ToOffset(a), snap.ToOffset(b)); c != 0 {
		return c
	}
	return cmp.Compare(a.Bias, b.Bias)
}

// AnchorRange is a range delimited by two anchors.
type AnchorRange struct {
	Start Anchor
	End   Anchor
}

// ToRange resolves the range through a snapshot. A range whose ends have
// crossed collapses to its start.
func (r AnchorRange) ToRange(snap *Snapshot) Range {
	start, end := snap.ToOffset(r.Start), snap.ToOffset(r.End)
	return Range{Start: start, End: max(start, end)}
}

// ToPointRange resolves the range to line/column positions.
func (r AnchorRange) ToPointRange(snap *Snapshot) PointRange {
	rng := r.ToRange(snap)
	return PointRange{Start: snap.OffsetToPoint(rng.Start), End: snap.OffsetToPoint(rng.End)}
}
