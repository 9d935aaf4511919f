package syntax

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// ChromaLexer adapts a chroma lexer to the Lexer interface. Chroma token
// types are folded into the TokenKind set; whitespace is dropped.
type ChromaLexer struct {
	name  string
	lexer chroma.Lexer
}

// NewChromaLexer returns a lexer for the named language, e.g. "rust".
func NewChromaLexer(language string) (*ChromaLexer, error) {
	l := lexers.Get(language)
	if l == nil {
		return nil, fmt.Errorf("chroma %q: %w", language, ErrUnknownLanguage)
	}
	return &ChromaLexer{name: strings.ToLower(l.Config().Name), lexer: l}, nil
}

// NewChromaLexerForFile picks a chroma lexer from a filename.
func NewChromaLexerForFile(filename string) (*ChromaLexer, error) {
	l := lexers.Match(filename)
	if l == nil {
		return nil, fmt.Errorf("chroma %q: %w", filename, ErrUnknownLanguage)
	}
	return &ChromaLexer{name: strings.ToLower(l.Config().Name), lexer: l}, nil
}

// Name returns "chroma:<language>".
func (l *ChromaLexer) Name() string {
	return "chroma:" + l.name
}

// Tokenize lexes text with chroma.
func (l *ChromaLexer) Tokenize(text string) ([]Token, error) {
	it, err := l.lexer.Tokenise(nil, text)
	if err != nil {
		return nil, fmt.Errorf("chroma tokenise: %w", err)
	}

	var tokens []Token
	var off int64
	limit := int64(len(text))
	for t := it(); t != chroma.EOF; t = it() {
		start := off
		off += int64(len(t.Value))
		if start >= limit {
			// EnsureNL lexers append a trailing newline.
			break
		}
		end := min(off, limit)

		kind, ok := chromaKind(t.Type, t.Value)
		if !ok {
			continue
		}
		// Strip surrounding whitespace so tokens never cover it.
		value := text[start:end]
		trimmedStart := start + int64(len(value)-len(strings.TrimLeft(value, " \t\r\n")))
		trimmedEnd := start + int64(len(strings.TrimRight(value, " \t\r\n")))
		if trimmedStart >= trimmedEnd {
			continue
		}
		if t.Type.InCategory(chroma.Punctuation) && trimmedEnd-trimmedStart > 1 {
			tokens = appendPunctuation(tokens, text, trimmedStart, trimmedEnd)
			continue
		}
		tokens = append(tokens, Token{Kind: kind, Start: trimmedStart, End: trimmedEnd})
	}
	return tokens, nil
}

// chromaKind maps a chroma token type to a kind. Whitespace reports false.
func chromaKind(t chroma.TokenType, value string) (TokenKind, bool) {
	switch {
	case t == chroma.Error:
		return TokenUnknown, true
	case t.InCategory(chroma.Keyword):
		return TokenKeyword, true
	case t.InCategory(chroma.Name):
		return TokenIdentifier, true
	case t.InSubCategory(chroma.LiteralString):
		return TokenString, true
	case t.InSubCategory(chroma.LiteralNumber):
		return TokenNumber, true
	case t.InCategory(chroma.Literal):
		return TokenString, true
	case t.InCategory(chroma.Comment):
		return TokenComment, true
	case t.InCategory(chroma.Operator):
		return TokenOperator, true
	case t.InCategory(chroma.Punctuation):
		return punctuationKind(strings.TrimSpace(value)), true
	case t.InCategory(chroma.Text):
		if strings.TrimSpace(value) == "" {
			return TokenUnknown, false
		}
		return TokenIdentifier, true
	}
	return TokenUnknown, true
}

// appendPunctuation splits a run of punctuation into single-byte tokens so
// brackets keep their own kinds.
func appendPunctuation(tokens []Token, text string, start, end int64) []Token {
	for i := start; i < end; i++ {
		c := text[i]
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			continue
		}
		tokens = append(tokens, Token{Kind: punctuationKind(string(c)), Start: i, End: i + 1})
	}
	return tokens
}

func punctuationKind(p string) TokenKind {
	switch p {
	case "(":
		return TokenOpenParen
	case ")":
		return TokenCloseParen
	case "[":
		return TokenOpenBracket
	case "]":
		return TokenCloseBracket
	case "{":
		return TokenOpenBrace
	case "}":
		return TokenCloseBrace
	case ".":
		return TokenDot
	case ",":
		return TokenComma
	case ":":
		return TokenColon
	case ";":
		return TokenSemicolon
	}
	return TokenOperator
}
