package buffer

import "sort"

// runShift sets the smallest composed run to 1<<runShift edits.
const runShift = 5

// history is the append-only edit log together with composed offset maps
// over its aligned power-of-two runs. levels[k] holds the runs of
// 1<<(k+runShift) edits, in order. Moving an offset across any stretch of
// the log replays fewer than two runs' worth of records at its ends and one
// map lookup per level in between.
//
// Runs are immutable once built, so snapshots share them.
type history struct {
	edits  []editRecord
	levels [][]composedRun
}

// composedRun maps offsets across a whole run, one map per bias.
type composedRun struct {
	left  shiftMap
	right shiftMap
}

func (r composedRun) apply(off ByteOffset, bias Bias) ByteOffset {
	if bias == Right {
		return r.right.apply(off)
	}
	return r.left.apply(off)
}

// then returns the run that applies r and then next.
func (r composedRun) then(next composedRun) composedRun {
	return composedRun{left: compose(r.left, next.left), right: compose(r.right, next.right)}
}

// len returns the number of edits in the history.
func (h *history) len() uint64 {
	return uint64(len(h.edits))
}

// append records e and builds every run it completes.
func (h *history) append(e editRecord) {
	h.edits = append(h.edits, e)
	n := len(h.edits)
	for k := 0; n%(1<<(k+runShift)) == 0; k++ {
		var run composedRun
		if k == 0 {
			run = composeRecords(h.edits[n-1<<runShift:])
		} else {
			lower := h.levels[k-1]
			run = lower[len(lower)-2].then(lower[len(lower)-1])
		}
		if k == len(h.levels) {
			h.levels = append(h.levels, nil)
		}
		h.levels[k] = append(h.levels[k], run)
	}
}

// frozen returns a copy that later appends to h cannot change.
func (h *history) frozen() history {
	levels := make([][]composedRun, len(h.levels))
	for k, runs := range h.levels {
		levels[k] = runs[:len(runs):len(runs)]
	}
	return history{edits: h.edits[:len(h.edits):len(h.edits)], levels: levels}
}

// transform moves off from version from to the end of the history. It also
// returns the number of records and runs it stepped through.
func (h *history) transform(off ByteOffset, bias Bias, from uint64) (ByteOffset, int) {
	n := h.len()
	steps := 0
	for v := from; v < n; steps++ {
		k := h.runAt(v, n)
		if k < 0 {
			off = h.edits[v].transform(off, bias)
			v++
			continue
		}
		size := uint64(1) << (k + runShift)
		off = h.levels[k][v/size].apply(off, bias)
		v += size
	}
	return off, steps
}

// runAt returns the highest level with a run starting at v and ending by n,
// or -1 if there is none.
func (h *history) runAt(v, n uint64) int {
	level := -1
	for k := range h.levels {
		size := uint64(1) << (k + runShift)
		if v%size != 0 || v+size > n {
			break
		}
		level = k
	}
	return level
}

func composeRecords(edits []editRecord) composedRun {
	run := composedRun{left: edits[0].shiftMap(Left), right: edits[0].shiftMap(Right)}
	for _, e := range edits[1:] {
		run.left = compose(run.left, e.shiftMap(Left))
		run.right = compose(run.right, e.shiftMap(Right))
	}
	return run
}

// shiftMap is a monotone offset map made of pieces sorted by lo. A piece
// covers the offsets from its lo up to the next piece's lo. A fixed piece
// maps them all to value; any other adds value to them.
type shiftMap []shiftPiece

type shiftPiece struct {
	lo    ByteOffset
	value ByteOffset
	fixed bool
}

// shiftMap returns the edit's map for one bias.
func (e editRecord) shiftMap(bias Bias) shiftMap {
	at := e.start
	if bias == Right {
		at += e.newLen
	}
	m := shiftMap{
		{lo: 0},
		{lo: e.start, value: at, fixed: true},
		{lo: e.end + 1, value: e.newLen - (e.end - e.start)},
	}
	return m.normalize()
}

func (m shiftMap) find(off ByteOffset) int {
	i := sort.Search(len(m), func(i int) bool { return m[i].lo > off }) - 1
	return max(i, 0)
}

func (m shiftMap) apply(off ByteOffset) ByteOffset {
	p := m[m.find(off)]
	if p.fixed {
		return p.value
	}
	return off + p.value
}

// compose returns the map applying f and then g.
func compose(f, g shiftMap) shiftMap {
	out := make(shiftMap, 0, len(f)+len(g))
	for i, p := range f {
		if p.fixed {
			out = append(out, shiftPiece{lo: p.lo, value: g.apply(p.value), fixed: true})
			continue
		}
		j := g.find(p.lo + p.value)
		out = append(out, g[j].after(p.lo, p.value))
		for j++; j < len(g); j++ {
			lo := g[j].lo - p.value
			if i+1 < len(f) && lo >= f[i+1].lo {
				break
			}
			out = append(out, g[j].after(lo, p.value))
		}
	}
	return out.normalize()
}

// after returns the piece starting at lo that first adds shift and then
// applies p.
func (p shiftPiece) after(lo, shift ByteOffset) shiftPiece {
	if p.fixed {
		return shiftPiece{lo: lo, value: p.value, fixed: true}
	}
	return shiftPiece{lo: lo, value: shift + p.value}
}

// normalize drops empty pieces, turns single-offset fixed pieces into
// shifts and merges equal neighbours, in place.
func (m shiftMap) normalize() shiftMap {
	out := m[:0]
	for i, p := range m {
		if i+1 < len(m) && m[i+1].lo <= p.lo {
			continue
		}
		if p.fixed && i+1 < len(m) && m[i+1].lo == p.lo+1 {
			p = shiftPiece{lo: p.lo, value: p.value - p.lo}
		}
		if n := len(out); n > 0 && out[n-1].fixed == p.fixed && out[n-1].value == p.value {
			continue
		}
		out = append(out, p)
	}
	return out
}
