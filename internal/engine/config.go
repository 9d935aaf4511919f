package engine

import (
	"fmt"
	"strings"

	"github.com/dshills/stoat/internal/config"
	"github.com/dshills/stoat/internal/display"
	"github.com/dshills/stoat/internal/lsp"
	"github.com/dshills/stoat/internal/syntax"
	"github.com/dshills/stoat/internal/syntax/treesitter"
)

// ConfigOptions translates settings into engine options. filename picks
// the chroma lexer when the setting names no language.
func ConfigOptions(cfg *config.Config, filename string) ([]Option, error) {
	lexer, err := NewLexer(cfg.Syntax.Lexer, filename)
	if err != nil {
		return nil, err
	}
	parser, err := NewParser(cfg.Syntax.Parser)
	if err != nil {
		return nil, err
	}

	storeOpts := []lsp.StoreOption{
		lsp.WithMinSeverity(cfg.MinSeverity()),
		lsp.WithMaxPerServer(cfg.Diagnostics.MaxPerServer),
	}
	if len(cfg.Diagnostics.Sources) > 0 {
		storeOpts = append(storeOpts, lsp.WithEnabledSources(cfg.Diagnostics.Sources))
	}

	return []Option{
		WithLexer(lexer),
		WithParser(parser),
		WithDisplayOptions(
			display.WithTabWidth(uint32(cfg.Display.TabWidth)),
			display.WithWrapWidth(uint32(cfg.Display.WrapWidth)),
			display.WithFoldPlaceholder(cfg.Display.FoldPlaceholder),
		),
		WithStoreOptions(storeOpts...),
	}, nil
}

// NewLexer returns the lexer a setting names: "simple", "chroma" or
// "chroma:<language>".
func NewLexer(name, filename string) (syntax.Lexer, error) {
	kind, lang, _ := strings.Cut(name, ":")
	var (
		l   *syntax.ChromaLexer
		err error
	)
	switch {
	case kind == "simple":
		return syntax.NewSimpleLexer(), nil
	case kind == "chroma" && lang != "":
		l, err = syntax.NewChromaLexer(lang)
	case kind == "chroma":
		l, err = syntax.NewChromaLexerForFile(filename)
	default:
		return nil, fmt.Errorf("lexer %q: %w", name, syntax.ErrUnknownLanguage)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// NewParser returns the parser a setting names. Only "treesitter" is
// built in.
func NewParser(name string) (syntax.Parser, error) {
	if name != "treesitter" {
		return nil, fmt.Errorf("parser %q: %w", name, syntax.ErrUnknownLanguage)
	}
	return treesitter.NewRustParser(), nil
}
