package batch

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/dshills/stoat/internal/engine/sumtree"
	"github.com/dshills/stoat/internal/syntax"
)

// Token is one entry of an AST. Trivia tokens hold the whitespace between
// lexed tokens so the AST text matches its source.
type Token struct {
	Kind   syntax.TokenKind
	Text   string
	Trivia bool
}

// Summary implements sumtree.Item.
func (t Token) Summary(none) astSummary {
	s := astSummary{Count: 1, Bytes: int64(len(t.Text))}
	if t.Trivia {
		s.Trivia = 1
	}
	return s
}

// String returns the kind and text of t.
func (t Token) String() string {
	if t.Trivia {
		return fmt.Sprintf("trivia(%q)", t.Text)
	}
	return fmt.Sprintf("%s(%q)", t.Kind, t.Text)
}

type none = struct{}

type astSummary struct {
	Count  int
	Bytes  int64
	Trivia int
}

// Add implements sumtree.Summary.
func (s astSummary) Add(o astSummary, _ none) astSummary {
	return astSummary{Count: s.Count + o.Count, Bytes: s.Bytes + o.Bytes, Trivia: s.Trivia + o.Trivia}
}

type tokenTree = sumtree.Tree[Token, astSummary, none]

// AST is an immutable token sequence addressed by token index. Edits
// return a new AST and share structure with the old one.
type AST struct {
	tokens tokenTree
}

// NewAST builds an AST from tokens.
func NewAST(tokens ...Token) *AST {
	return &AST{tokens: sumtree.FromItems[Token, astSummary](tokens, none{})}
}

// Parse lexes text into an AST. Gaps between lexed tokens become trivia.
func Parse(text string, lexer syntax.Lexer) (*AST, error) {
	lexed, err := lexer.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", lexer.Name(), err)
	}
	tokens := make([]Token, 0, 2*len(lexed)+1)
	var off int64
	for _, t := range lexed {
		if t.Start > off {
			tokens = append(tokens, Token{Text: text[off:t.Start], Trivia: true})
		}
		tokens = append(tokens, Token{Kind: t.Kind, Text: text[t.Start:t.End]})
		off = t.End
	}
	if off < int64(len(text)) {
		tokens = append(tokens, Token{Text: text[off:], Trivia: true})
	}
	return NewAST(tokens...), nil
}

// Len returns the number of tokens.
func (a *AST) Len() int {
	return a.tokens.Len()
}

// ByteLen returns the length of the AST text.
func (a *AST) ByteLen() int64 {
	return a.tokens.Summary().Bytes
}

// TriviaCount returns the number of trivia tokens.
func (a *AST) TriviaCount() int {
	return a.tokens.Summary().Trivia
}

// Token returns the token at index i.
func (a *AST) Token(i int) (Token, bool) {
	return a.tokens.Get(i)
}

// Tokens returns every token in order.
func (a *AST) Tokens() []Token {
	return a.tokens.Items()
}

// Text returns the concatenated token text.
func (a *AST) Text() string {
	var b strings.Builder
	b.Grow(int(a.ByteLen()))
	a.tokens.Each(func(_ int, t Token) bool {
		b.WriteString(t.Text)
		return true
	})
	return b.String()
}

// Offset returns the byte offset where token i starts. Indices past the
// end clamp to the text length.
func (a *AST) Offset(i int) int64 {
	if i <= 0 {
		return 0
	}
	if i >= a.Len() {
		return a.ByteLen()
	}
	c := a.tokens.Cursor(none{})
	c.Seek(sumtree.SeekFunc[astSummary, none](func(pos astSummary, _ none) int {
		return cmp.Compare(i+1, pos.Count)
	}), sumtree.Left)
	return c.Start().Bytes
}

// IndexAt returns the index of the token covering byte offset off, or
// Len() past the end.
func (a *AST) IndexAt(off int64) int {
	c := a.tokens.Cursor(none{})
	if !c.Seek(sumtree.SeekFunc[astSummary, none](func(pos astSummary, _ none) int {
		return cmp.Compare(off, pos.Bytes)
	}), sumtree.Right) {
		return a.Len()
	}
	return c.Index()
}

func (a *AST) with(tokens tokenTree) *AST {
	return &AST{tokens: tokens}
}
