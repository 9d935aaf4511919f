package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/index"
	"github.com/dshills/stoat/internal/syntax"
)

var (
	posColor  = color.New(color.FgHiBlack)
	kindColor = color.New(color.FgCyan)
	nameColor = color.New(color.FgYellow, color.Bold)
)

// position formats off as 1-based line:column.
func position(snap *buffer.Snapshot, off buffer.ByteOffset) string {
	p := snap.OffsetToPoint(off)
	return fmt.Sprintf("%d:%d", p.Line+1, p.Column+1)
}

func span(snap *buffer.Snapshot, r buffer.Range) string {
	return posColor.Sprintf("%-7s %-7s", position(snap, r.Start), position(snap, r.End))
}

// excerpt returns the text of r on one line, shortened to limit bytes.
func excerpt(snap *buffer.Snapshot, r buffer.Range, limit int) string {
	text := strings.ReplaceAll(snap.TextForRange(r), "\n", `\n`)
	if len(text) > limit {
		text = text[:limit] + "…"
	}
	return text
}

type tokenJSON struct {
	Kind  string `json:"kind"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
	Text  string `json:"text"`
}

func (c *cli) tokensCmd() *cobra.Command {
	var kinds []string
	var format string
	cmd := &cobra.Command{
		Use:   "tokens FILE",
		Short: "List the tokens of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tokens := e.Tokens().All()
			if len(kinds) > 0 {
				set := make([]syntax.TokenKind, 0, len(kinds))
				for _, name := range kinds {
					k, ok := syntax.ParseTokenKind(name)
					if !ok {
						return fmt.Errorf("unknown token kind %q", name)
					}
					set = append(set, k)
				}
				tokens = e.Tokens().TokensOfKind(set...)
			}
			snap := e.Snapshot()

			switch format {
			case "pretty":
				return writeTokens(cmd.OutOrStdout(), snap, tokens)
			case "json":
				out := make([]tokenJSON, len(tokens))
				for i, t := range tokens {
					r := t.Resolve(snap)
					out[i] = tokenJSON{Kind: t.Kind.String(), Start: r.Start, End: r.End, Text: snap.TextForRange(r)}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return fmt.Errorf("unknown format: %s", format)
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "only list tokens of these kinds")
	cmd.Flags().StringVar(&format, "format", "pretty", "output format (pretty|json)")
	return cmd
}

func writeTokens(w io.Writer, snap *buffer.Snapshot, tokens []index.Token) error {
	for _, t := range tokens {
		r := t.Resolve(snap)
		if _, err := fmt.Fprintf(w, "%s %s %s\n", span(snap, r), kindColor.Sprintf("%-13s", t.Kind), excerpt(snap, r, 40)); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) scopesCmd() *cobra.Command {
	var offset int64
	cmd := &cobra.Command{
		Use:   "scopes FILE",
		Short: "List lexical scopes, or the scopes enclosing an offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v := e.View()
			w := cmd.OutOrStdout()

			scopes := v.Scopes.All()
			if cmd.Flags().Changed("offset") {
				scopes = nil
				s, ok := v.Scopes.ScopeAtOffset(offset, v.Snapshot)
				for ok {
					scopes = append(scopes, s)
					s, ok = v.Scopes.ParentScope(s, v.Snapshot)
				}
				if len(scopes) == 0 {
					fmt.Fprintf(w, "no scope at offset %d\n", offset)
					return nil
				}
			}
			for _, s := range scopes {
				r := s.Range.ToRange(v.Snapshot)
				fmt.Fprintf(w, "%s %s%s\n", span(v.Snapshot, r), strings.Repeat("  ", s.Depth), kindColor.Sprint(s.Kind))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "show the scope chain at this byte offset")
	return cmd
}

func (c *cli) bracketsCmd() *cobra.Command {
	var offset int64
	cmd := &cobra.Command{
		Use:   "brackets FILE",
		Short: "List bracket pairs, or the bracket matching an offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v := e.View()
			w := cmd.OutOrStdout()

			if cmd.Flags().Changed("offset") {
				if a, ok := v.Brackets.MatchingBracket(offset, v.Snapshot); ok {
					off := v.Snapshot.ToOffset(a)
					fmt.Fprintf(w, "match %d %s\n", off, posColor.Sprint(position(v.Snapshot, off)))
				} else {
					fmt.Fprintf(w, "no bracket at offset %d\n", offset)
				}
				if b, ok := v.Brackets.InnermostBracketPair(offset, v.Snapshot); ok {
					fmt.Fprintf(w, "innermost %s %s\n", span(v.Snapshot, b.Span(v.Snapshot)), kindColor.Sprint(b.Kind))
				}
				return nil
			}
			for _, b := range v.Brackets.All() {
				fmt.Fprintf(w, "%s %s\n", span(v.Snapshot, b.Span(v.Snapshot)), kindColor.Sprint(b.Kind))
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&offset, "offset", 0, "show the match and innermost pair at this byte offset")
	return cmd
}

func (c *cli) symbolsCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "symbols FILE",
		Short: "List declared symbols",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var want index.SymbolKind
			if kind != "" {
				k, ok := index.ParseSymbolKind(kind)
				if !ok {
					return fmt.Errorf("unknown symbol kind %q", kind)
				}
				want = k
			}
			e, err := c.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			v := e.View()
			for _, s := range v.Symbols.All() {
				if kind != "" && s.Kind != want {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
					span(v.Snapshot, s.Range.ToRange(v.Snapshot)), kindColor.Sprintf("%-9s", s.Kind), nameColor.Sprint(s.Name))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only list symbols of this kind")
	return cmd
}
