package syntax

import "errors"

// Errors returned by lexers and parsers.
var (
	// ErrUnknownLanguage indicates no lexer or grammar exists for a language.
	ErrUnknownLanguage = errors.New("unknown language")

	// ErrParseCanceled indicates parsing stopped because its context ended.
	ErrParseCanceled = errors.New("parse canceled")
)
