package syntax

import (
	"context"
	"fmt"
	"strings"
)

// Node is a node of a concrete syntax tree. Kind names follow tree-sitter
// conventions: named nodes use grammar names ("function_item"), anonymous
// tokens use their text ("{").
type Node interface {
	Kind() string
	ByteRange() (start, end int64)
	ChildCount() int
	// Child returns the i-th child or nil.
	Child(i int) Node
	// ChildByFieldName returns the child stored under a grammar field or nil.
	ChildByFieldName(name string) Node
	// Walk returns a cursor positioned at this node.
	Walk() TreeCursor
}

// TreeCursor walks a tree depth first without allocating child slices.
type TreeCursor interface {
	Node() Node
	GotoFirstChild() bool
	GotoNextSibling() bool
	GotoParent() bool
}

// Tree is a parsed document.
type Tree interface {
	RootNode() Node
}

// Parser produces a tree for a whole source text.
type Parser interface {
	Parse(ctx context.Context, source string) (Tree, error)
}

// Visit calls fn for every node below and including root in document
// order. Returning false from fn skips the node's children.
func Visit(root Node, fn func(n Node, depth int) bool) {
	if root == nil {
		return
	}
	c := root.Walk()
	depth := 0
	for {
		if fn(c.Node(), depth) && c.GotoFirstChild() {
			depth++
			continue
		}
		for !c.GotoNextSibling() {
			if depth == 0 || !c.GotoParent() {
				return
			}
			depth--
		}
	}
}

// Sexp renders a node and its named descendants as an s-expression.
// Anonymous nodes are left out, as tree-sitter does.
func Sexp(n Node) string {
	var b strings.Builder
	writeSexp(&b, n)
	return b.String()
}

func writeSexp(b *strings.Builder, n Node) {
	fmt.Fprintf(b, "(%s", n.Kind())
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if !isNamedKind(child.Kind()) {
			continue
		}
		b.WriteByte(' ')
		writeSexp(b, child)
	}
	b.WriteByte(')')
}

func isNamedKind(kind string) bool {
	if kind == "" {
		return false
	}
	for _, r := range kind {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return !keywordKinds[kind]
}

var keywordKinds = func() map[string]bool {
	m := make(map[string]bool, len(RustKeywords))
	for _, kw := range RustKeywords {
		m[kw] = true
	}
	return m
}()

// BasicNode is an in-memory Node for trees built by hand.
type BasicNode struct {
	kind     string
	start    int64
	end      int64
	children []*BasicNode
	fields   map[string]int
}

// NewNode returns a node spanning [start, end) with the given children.
func NewNode(kind string, start, end int64, children ...*BasicNode) *BasicNode {
	return &BasicNode{kind: kind, start: start, end: end, children: children}
}

// WithField names the child at index i.
func (n *BasicNode) WithField(name string, i int) *BasicNode {
	if n.fields == nil {
		n.fields = make(map[string]int)
	}
	n.fields[name] = i
	return n
}

// Kind returns the node kind.
func (n *BasicNode) Kind() string { return n.kind }

// ByteRange returns the node's span.
func (n *BasicNode) ByteRange() (int64, int64) { return n.start, n.end }

// ChildCount returns the number of children.
func (n *BasicNode) ChildCount() int { return len(n.children) }

// Child returns the i-th child or nil.
func (n *BasicNode) Child(i int) Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildByFieldName returns the named child or nil.
func (n *BasicNode) ChildByFieldName(name string) Node {
	i, ok := n.fields[name]
	if !ok {
		return nil
	}
	return n.Child(i)
}

// Walk returns a cursor at n.
func (n *BasicNode) Walk() TreeCursor {
	return &basicCursor{stack: []basicFrame{{node: n}}}
}

// String returns the s-expression of n.
func (n *BasicNode) String() string {
	return Sexp(n)
}

type basicFrame struct {
	node  *BasicNode
	index int
}

type basicCursor struct {
	stack []basicFrame
}

func (c *basicCursor) Node() Node {
	return c.stack[len(c.stack)-1].node
}

func (c *basicCursor) GotoFirstChild() bool {
	top := c.stack[len(c.stack)-1].node
	if len(top.children) == 0 {
		return false
	}
	c.stack = append(c.stack, basicFrame{node: top.children[0]})
	return true
}

func (c *basicCursor) GotoNextSibling() bool {
	if len(c.stack) < 2 {
		return false
	}
	parent := c.stack[len(c.stack)-2].node
	top := &c.stack[len(c.stack)-1]
	if top.index+1 >= len(parent.children) {
		return false
	}
	top.index++
	top.node = parent.children[top.index]
	return true
}

func (c *basicCursor) GotoParent() bool {
	if len(c.stack) < 2 {
		return false
	}
	c.stack = c.stack[:len(c.stack)-1]
	return true
}

// BasicTree is a Tree over BasicNodes.
type BasicTree struct {
	root *BasicNode
}

// NewTree wraps root.
func NewTree(root *BasicNode) *BasicTree {
	return &BasicTree{root: root}
}

// RootNode returns the root.
func (t *BasicTree) RootNode() Node {
	return t.root
}
