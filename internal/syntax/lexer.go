package syntax

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer splits text into tokens. Tokens are returned in order, do not
// overlap and never cover whitespace.
type Lexer interface {
	// Name identifies the lexer, e.g. "simple" or "chroma:rust".
	Name() string

	// Tokenize lexes text. On error the returned tokens are meaningless.
	Tokenize(text string) ([]Token, error)
}

// RustKeywords are the reserved words of the default language.
var RustKeywords = []string{
	"as", "async", "await", "break", "const", "continue", "crate", "dyn",
	"else", "enum", "extern", "false", "fn", "for", "if", "impl", "in",
	"let", "loop", "match", "mod", "move", "mut", "pub", "ref", "return",
	"self", "Self", "static", "struct", "super", "trait", "true", "type",
	"unsafe", "use", "where", "while",
}

// multiOperators are matched before single-character operators. Shift
// operators are left out so nested generic arguments close one at a time.
var multiOperators = []string{
	"...", "..=", "->", "=>", "::", "==", "!=", "<=", ">=", "&&", "||",
	"+=", "-=", "*=", "/=", "%=", "^=", "&=", "|=", "..",
}

const singleOperators = "+-*/%=<>!&|^~?@#$"

// SimpleLexer is a hand-written lexer for C-family syntax with Rust
// defaults. It never fails: text it cannot classify becomes
// TokenUnknown.
type SimpleLexer struct {
	keywords     map[string]bool
	lineComment  string
	blockComment [2]string
}

// NewSimpleLexer creates a lexer with the Rust keyword set.
func NewSimpleLexer() *SimpleLexer {
	l := &SimpleLexer{
		keywords:     make(map[string]bool, len(RustKeywords)),
		lineComment:  "//",
		blockComment: [2]string{"/*", "*/"},
	}
	return l.AddKeywords(RustKeywords...)
}

// AddKeywords adds reserved words.
func (l *SimpleLexer) AddKeywords(keywords ...string) *SimpleLexer {
	for _, kw := range keywords {
		l.keywords[kw] = true
	}
	return l
}

// SetComments changes the comment delimiters. An empty line marker
// disables line comments.
func (l *SimpleLexer) SetComments(line, blockStart, blockEnd string) *SimpleLexer {
	l.lineComment = line
	l.blockComment = [2]string{blockStart, blockEnd}
	return l
}

// Name returns "simple".
func (l *SimpleLexer) Name() string {
	return "simple"
}

// Tokenize lexes text.
func (l *SimpleLexer) Tokenize(text string) ([]Token, error) {
	tokens := make([]Token, 0, len(text)/4)
	i := 0
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) {
			i += size
			continue
		}

		start := i
		kind, end := l.scan(text, i, r, size)
		tokens = append(tokens, Token{Kind: kind, Start: int64(start), End: int64(end)})
		i = end
	}
	return tokens, nil
}

// scan lexes the token starting at i and returns its kind and end.
func (l *SimpleLexer) scan(text string, i int, r rune, size int) (TokenKind, int) {
	rest := text[i:]

	switch {
	case l.blockComment[0] != "" && strings.HasPrefix(rest, l.blockComment[0]):
		body := rest[len(l.blockComment[0]):]
		if end := strings.Index(body, l.blockComment[1]); end >= 0 {
			return TokenComment, i + len(l.blockComment[0]) + end + len(l.blockComment[1])
		}
		return TokenComment, len(text)

	case l.lineComment != "" && strings.HasPrefix(rest, l.lineComment):
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			return TokenComment, i + nl
		}
		return TokenComment, len(text)

	case r == '_' || unicode.IsLetter(r):
		end := scanWord(text, i+size)
		if l.keywords[text[i:end]] {
			return TokenKeyword, end
		}
		return TokenIdentifier, end

	case r >= '0' && r <= '9':
		return TokenNumber, scanNumber(text, i+size)

	case r == '"':
		return scanString(text, i+size, '"')

	case r == '\'':
		return scanQuote(text, i, size)
	}

	for _, op := range multiOperators {
		if strings.HasPrefix(rest, op) {
			return TokenOperator, i + len(op)
		}
	}

	switch r {
	case '(':
		return TokenOpenParen, i + 1
	case ')':
		return TokenCloseParen, i + 1
	case '[':
		return TokenOpenBracket, i + 1
	case ']':
		return TokenCloseBracket, i + 1
	case '{':
		return TokenOpenBrace, i + 1
	case '}':
		return TokenCloseBrace, i + 1
	case '.':
		return TokenDot, i + 1
	case ',':
		return TokenComma, i + 1
	case ':':
		return TokenColon, i + 1
	case ';':
		return TokenSemicolon, i + 1
	}
	if strings.ContainsRune(singleOperators, r) {
		return TokenOperator, i + size
	}
	return TokenUnknown, i + size
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func scanWord(text string, i int) int {
	for i < len(text) {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !isWordRune(r) {
			break
		}
		i += size
	}
	return i
}

// scanNumber accepts digits, suffixes, underscores and one fractional part.
func scanNumber(text string, i int) int {
	for i < len(text) {
		c := text[i]
		switch {
		case c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			i++
		case c == '.' && i+1 < len(text) && text[i+1] >= '0' && text[i+1] <= '9':
			i++
		default:
			return i
		}
	}
	return i
}

// scanString scans to the closing quote. An unterminated string is an
// error token running to the end of the text.
func scanString(text string, i int, quote byte) (TokenKind, int) {
	for i < len(text) {
		switch text[i] {
		case '\\':
			i += 2
			continue
		case quote:
			return TokenString, i + 1
		}
		i++
	}
	return TokenUnknown, len(text)
}

// scanQuote tells character literals from lifetimes.
func scanQuote(text string, i, size int) (TokenKind, int) {
	j := i + size
	if j+1 < len(text) && text[j] == '\\' {
		if end := strings.IndexByte(text[j+2:], '\''); end >= 0 && end <= 8 {
			return TokenString, j + 2 + end + 1
		}
		return TokenUnknown, j + 2
	}
	if j < len(text) {
		_, n := utf8.DecodeRuneInString(text[j:])
		if j+n < len(text) && text[j+n] == '\'' {
			return TokenString, j + n + 1
		}
	}
	end := scanWord(text, j)
	if end == j {
		return TokenUnknown, j
	}
	return TokenIdentifier, end
}
