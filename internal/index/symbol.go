package index

import (
	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/syntax"
)

// SymbolKind classifies a declaration.
type SymbolKind uint8

// Symbol kinds.
const (
	SymbolFunction SymbolKind = iota
	SymbolMethod
	SymbolStruct
	SymbolEnum
	SymbolTrait
	SymbolImpl
	SymbolConst
	SymbolStatic
	SymbolTypeAlias
	SymbolModule
	SymbolMacro
)

var symbolKindNames = [...]string{
	SymbolFunction:  "function",
	SymbolMethod:    "method",
	SymbolStruct:    "struct",
	SymbolEnum:      "enum",
	SymbolTrait:     "trait",
	SymbolImpl:      "impl",
	SymbolConst:     "const",
	SymbolStatic:    "static",
	SymbolTypeAlias: "type",
	SymbolModule:    "module",
	SymbolMacro:     "macro",
}

// String returns the kind name.
func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return "unknown"
}

// ParseSymbolKind returns the kind with the given name.
func ParseSymbolKind(name string) (SymbolKind, bool) {
	for k, n := range symbolKindNames {
		if n == name {
			return SymbolKind(k), true
		}
	}
	return 0, false
}

// Symbol is one declaration.
type Symbol struct {
	Range buffer.AnchorRange
	// NameRange covers the name, or Range for anonymous declarations.
	NameRange buffer.AnchorRange
	Kind      SymbolKind
	Name      string
}

// Summary implements sumtree.Item.
func (s Symbol) Summary(*buffer.Snapshot) RangeSummary {
	return rangeSummaryOf(s.Range)
}

type symbolTree = sumtree.Tree[Symbol, RangeSummary, *buffer.Snapshot]

// SymbolIndex is an immutable set of symbols ordered by start.
type SymbolIndex struct {
	lang    *Language
	symbols symbolTree
}

// BuildSymbols extracts the declarations of tree. Names come from the
// "name" field; impl blocks are named after their "type" field.
func BuildSymbols(tree syntax.Tree, snap *buffer.Snapshot, lang *Language) *SymbolIndex {
	if lang == nil {
		lang = Rust
	}
	idx := &SymbolIndex{lang: lang}
	if tree == nil || tree.RootNode() == nil {
		return idx
	}

	var symbols []Symbol
	var visit func(n syntax.Node, inContainer bool)
	visit = func(n syntax.Node, inContainer bool) {
		if kind, ok := lang.Symbols[n.Kind()]; ok {
			symbols = append(symbols, newSymbol(n, kind, inContainer, snap, lang))
		}
		container := lang.MethodContainers[n.Kind()]
		c := n.Walk()
		if !c.GotoFirstChild() {
			return
		}
		for {
			visit(c.Node(), container)
			if !c.GotoNextSibling() {
				return
			}
		}
	}
	visit(tree.RootNode(), false)

	idx.symbols = sumtree.FromItems[Symbol, RangeSummary](symbols, snap)
	return idx
}

func newSymbol(n syntax.Node, kind SymbolKind, inContainer bool, snap *buffer.Snapshot, lang *Language) Symbol {
	start, end := n.ByteRange()
	s := Symbol{
		Range: buffer.AnchorRange{Start: snap.AnchorBefore(start), End: snap.AnchorAfter(end)},
		Kind:  kind,
	}
	s.NameRange = s.Range
	if inContainer && n.Kind() == lang.FunctionKind {
		s.Kind = SymbolMethod
	}

	name := n.ChildByFieldName("name")
	if name == nil && n.Kind() == lang.ImplKind {
		name = n.ChildByFieldName("type")
		if name == nil {
			s.Name = "impl"
		}
	}
	if name != nil {
		ns, ne := name.ByteRange()
		s.Name = snap.TextRange(ns, ne)
		s.NameRange = buffer.AnchorRange{Start: snap.AnchorBefore(ns), End: snap.AnchorAfter(ne)}
	}
	return s
}

// Len returns the number of symbols.
func (x *SymbolIndex) Len() int {
	return x.symbols.Len()
}

// All returns every symbol in start order.
func (x *SymbolIndex) All() []Symbol {
	return x.symbols.Items()
}

// SymbolsInRange returns the symbols overlapping r, in start order.
func (x *SymbolIndex) SymbolsInRange(r buffer.Range, snap *buffer.Snapshot) []Symbol {
	var out []Symbol
	x.symbols.Walk(
		func(s RangeSummary) bool { return s.overlaps(r.Start, r.End, snap) },
		func(_ int, s Symbol) bool {
			out = append(out, s)
			return true
		},
	)
	return out
}

// SymbolAtOffset returns the first symbol in start order with
// start <= off < end. For nested declarations that is the outermost one.
func (x *SymbolIndex) SymbolAtOffset(off buffer.ByteOffset, snap *buffer.Snapshot) (Symbol, bool) {
	var found Symbol
	ok := false
	x.symbols.Walk(
		func(s RangeSummary) bool { return s.mayContain(off, snap) },
		func(_ int, s Symbol) bool {
			found, ok = s, true
			return false
		},
	)
	return found, ok
}

// NextSymbol returns the first symbol starting after off.
func (x *SymbolIndex) NextSymbol(off buffer.ByteOffset, snap *buffer.Snapshot) (Symbol, bool) {
	return x.next(off, snap, func(Symbol) bool { return true })
}

// NextOfKind returns the first symbol of kind starting after off.
func (x *SymbolIndex) NextOfKind(off buffer.ByteOffset, kind SymbolKind, snap *buffer.Snapshot) (Symbol, bool) {
	return x.next(off, snap, func(s Symbol) bool { return s.Kind == kind })
}

// PrevSymbol returns the last symbol that ends at or before off.
func (x *SymbolIndex) PrevSymbol(off buffer.ByteOffset, snap *buffer.Snapshot) (Symbol, bool) {
	return x.prev(off, snap, func(Symbol) bool { return true })
}

// PrevOfKind returns the last symbol of kind that ends at or before off.
func (x *SymbolIndex) PrevOfKind(off buffer.ByteOffset, kind SymbolKind, snap *buffer.Snapshot) (Symbol, bool) {
	return x.prev(off, snap, func(s Symbol) bool { return s.Kind == kind })
}

func (x *SymbolIndex) next(off buffer.ByteOffset, snap *buffer.Snapshot, match func(Symbol) bool) (Symbol, bool) {
	c := x.symbols.Cursor(snap)
	if !c.Seek(startsAfter(off, identity), sumtree.Right) {
		return Symbol{}, false
	}
	for {
		s, ok := c.Item()
		if !ok {
			return Symbol{}, false
		}
		if match(s) {
			return s, true
		}
		c.Next()
	}
}

func (x *SymbolIndex) prev(off buffer.ByteOffset, snap *buffer.Snapshot, match func(Symbol) bool) (Symbol, bool) {
	var found Symbol
	ok := false
	x.symbols.Walk(
		func(s RangeSummary) bool {
			return s.Count > 0 && snap.ToOffset(s.Start) < off
		},
		func(_ int, s Symbol) bool {
			r := s.Range.ToRange(snap)
			if r.Start >= off {
				return false
			}
			if off >= r.End && match(s) {
				found, ok = s, true
			}
			return true
		},
	)
	return found, ok
}
