package syntax

import "strings"

// TokenKind classifies a lexed token.
type TokenKind uint8

// Token kinds produced by lexers.
const (
	// TokenUnknown marks text no rule matched, including unterminated
	// literals. These are the error tokens.
	TokenUnknown TokenKind = iota

	TokenIdentifier
	TokenKeyword
	TokenNumber
	TokenString
	TokenComment

	// Brackets
	TokenOpenParen
	TokenCloseParen
	TokenOpenBracket
	TokenCloseBracket
	TokenOpenBrace
	TokenCloseBrace

	// Punctuation
	TokenOperator
	TokenDot
	TokenComma
	TokenColon
	TokenSemicolon

	tokenKindCount
)

var tokenKindNames = [...]string{
	TokenUnknown:      "unknown",
	TokenIdentifier:   "identifier",
	TokenKeyword:      "keyword",
	TokenNumber:       "number",
	TokenString:       "string",
	TokenComment:      "comment",
	TokenOpenParen:    "open_paren",
	TokenCloseParen:   "close_paren",
	TokenOpenBracket:  "open_bracket",
	TokenCloseBracket: "close_bracket",
	TokenOpenBrace:    "open_brace",
	TokenCloseBrace:   "close_brace",
	TokenOperator:     "operator",
	TokenDot:          "dot",
	TokenComma:        "comma",
	TokenColon:        "colon",
	TokenSemicolon:    "semicolon",
}

// String returns the kind name.
func (k TokenKind) String() string {
	if k < tokenKindCount {
		return tokenKindNames[k]
	}
	return "invalid"
}

// IsBracket returns true for the six bracket kinds.
func (k TokenKind) IsBracket() bool {
	return k >= TokenOpenParen && k <= TokenCloseBrace
}

// IsOpen returns true for opening brackets.
func (k TokenKind) IsOpen() bool {
	return k == TokenOpenParen || k == TokenOpenBracket || k == TokenOpenBrace
}

// ParseTokenKind returns the kind with the given name.
func ParseTokenKind(name string) (TokenKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range tokenKindNames {
		if n == name {
			return TokenKind(k), true
		}
	}
	return TokenUnknown, false
}

// KindSet is a bitmask of token kinds.
type KindSet uint32

// KindSetOf returns the set containing kinds.
func KindSetOf(kinds ...TokenKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		s = s.With(k)
	}
	return s
}

// With returns s with k added.
func (s KindSet) With(k TokenKind) KindSet {
	return s | 1<<k
}

// Has returns true if k is in s.
func (s KindSet) Has(k TokenKind) bool {
	return s&(1<<k) != 0
}

// Token is a lexed span. Offsets are relative to the start of the text
// given to the lexer.
type Token struct {
	Kind  TokenKind
	Start int64
	End   int64
}

// Len returns the token length in bytes.
func (t Token) Len() int64 {
	return t.End - t.Start
}

// Contains returns true if offset is within the token.
func (t Token) Contains(offset int64) bool {
	return offset >= t.Start && offset < t.End
}
