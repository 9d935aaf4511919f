// Package treesitter adapts tree-sitter grammars to the syntax interfaces.
//
// Trees hold C memory; they are released by finalizers, or eagerly with
// Tree.Close. A Parser is safe for concurrent use.
package treesitter

import (
	"context"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/dshills/stoat/internal/syntax"
)

// Parser parses with one tree-sitter language.
type Parser struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewParser returns a parser for lang.
func NewParser(lang *sitter.Language) *Parser {
	p := sitter.NewParser()
	p.SetLanguage(lang)
	return &Parser{parser: p}
}

// NewRustParser returns a parser for the Rust grammar.
func NewRustParser() *Parser {
	return NewParser(rust.GetLanguage())
}

// Parse parses source from scratch.
func (p *Parser) Parse(ctx context.Context, source string) (syntax.Tree, error) {
	return p.parse(ctx, nil, source)
}

// Reparse applies edits to old and parses source reusing its unchanged
// subtrees. old must have come from this package; any other tree falls back
// to a full parse.
func (p *Parser) Reparse(ctx context.Context, old syntax.Tree, edits []syntax.InputEdit, source string) (syntax.Tree, error) {
	prev, ok := old.(*Tree)
	if !ok || prev == nil {
		return p.parse(ctx, nil, source)
	}
	edited := prev.tree.Copy()
	for _, e := range edits {
		edited.Edit(sitter.EditInput{
			StartIndex:  uint32(e.StartByte),
			OldEndIndex: uint32(e.OldEndByte),
			NewEndIndex: uint32(e.NewEndByte),
			StartPoint:  toPoint(e.StartPoint),
			OldEndPoint: toPoint(e.OldEndPoint),
			NewEndPoint: toPoint(e.NewEndPoint),
		})
	}
	return p.parse(ctx, edited, source)
}

func (p *Parser) parse(ctx context.Context, old *sitter.Tree, source string) (syntax.Tree, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tree, err := p.parser.ParseCtx(ctx, old, []byte(source))
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter parse: %w", syntax.ErrParseCanceled)
	}
	return &Tree{tree: tree}, nil
}

func toPoint(p syntax.Point) sitter.Point {
	return sitter.Point{Row: p.Row, Column: p.Column}
}

// Tree wraps a tree-sitter tree.
type Tree struct {
	tree *sitter.Tree
}

// RootNode returns the root node.
func (t *Tree) RootNode() syntax.Node {
	return wrap(t.tree.RootNode())
}

// Close releases the tree's C memory.
func (t *Tree) Close() {
	t.tree.Close()
}

// wrap keeps nil nodes nil through the interface.
func wrap(n *sitter.Node) syntax.Node {
	if n == nil || n.IsNull() {
		return nil
	}
	return node{n: n}
}

type node struct {
	n *sitter.Node
}

func (n node) Kind() string {
	return n.n.Type()
}

func (n node) ByteRange() (int64, int64) {
	return int64(n.n.StartByte()), int64(n.n.EndByte())
}

func (n node) ChildCount() int {
	return int(n.n.ChildCount())
}

func (n node) Child(i int) syntax.Node {
	if i < 0 || i >= n.ChildCount() {
		return nil
	}
	return wrap(n.n.Child(i))
}

func (n node) ChildByFieldName(name string) syntax.Node {
	return wrap(n.n.ChildByFieldName(name))
}

func (n node) Walk() syntax.TreeCursor {
	return &cursor{c: sitter.NewTreeCursor(n.n)}
}

type cursor struct {
	c *sitter.TreeCursor
}

func (c *cursor) Node() syntax.Node {
	return wrap(c.c.CurrentNode())
}

func (c *cursor) GotoFirstChild() bool {
	return c.c.GoToFirstChild()
}

func (c *cursor) GotoNextSibling() bool {
	return c.c.GoToNextSibling()
}

func (c *cursor) GotoParent() bool {
	return c.c.GoToParent()
}

var (
	_ syntax.IncrementalParser = (*Parser)(nil)
	_ syntax.Tree              = (*Tree)(nil)
)
