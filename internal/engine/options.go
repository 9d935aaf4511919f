package engine

import (
	"log/slog"

	"github.com/dshills/stoat/internal/display"
	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/index"
	"github.com/dshills/stoat/internal/lsp"
	"github.com/dshills/stoat/internal/syntax"
)

// DefaultMaxUndoEntries bounds the undo stack.
const DefaultMaxUndoEntries = 1000

// Option configures an Engine during creation.
type Option func(*Engine)

// WithContent sets the initial content of the engine.
func WithContent(content string) Option {
	return func(e *Engine) {
		e.initContent = content
	}
}

// WithLineEnding sets the line ending the buffer normalizes to.
func WithLineEnding(ending buffer.LineEnding) Option {
	return func(e *Engine) {
		e.bufOpts = append(e.bufOpts, buffer.WithLineEnding(ending))
	}
}

// WithLexer sets the lexer behind the token map. The default is
// syntax.NewSimpleLexer.
func WithLexer(l syntax.Lexer) Option {
	return func(e *Engine) {
		e.lexer = l
	}
}

// WithParser sets the parser the scope, bracket and symbol indices are
// built from. An IncrementalParser reuses the previous tree. The default
// is the tree-sitter Rust parser.
func WithParser(p syntax.Parser) Option {
	return func(e *Engine) {
		e.parser = p
	}
}

// WithLanguage sets the node-kind tables for the indices.
func WithLanguage(lang *index.Language) Option {
	return func(e *Engine) {
		e.lang = lang
	}
}

// WithDisplayOptions configures the display map.
func WithDisplayOptions(opts ...display.Option) Option {
	return func(e *Engine) {
		e.displayOpts = append(e.displayOpts, opts...)
	}
}

// WithStoreOptions configures the diagnostic store.
func WithStoreOptions(opts ...lsp.StoreOption) Option {
	return func(e *Engine) {
		e.storeOpts = append(e.storeOpts, opts...)
	}
}

// WithMaxUndoEntries sets the maximum number of undo entries.
func WithMaxUndoEntries(max int) Option {
	return func(e *Engine) {
		if max > 0 {
			e.maxUndo = max
		}
	}
}

// WithReadOnly creates a read-only engine.
// Write operations will return ErrReadOnly.
func WithReadOnly() Option {
	return func(e *Engine) {
		e.readOnly = true
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}
