package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/stoat/internal/display"
	"github.com/dshills/stoat/internal/engine/buffer"
)

var (
	rowColor   = color.New(color.FgHiBlack)
	blockColor = color.New(color.FgMagenta, color.Italic)
)

// foldFlag is a --fold value, START:END in byte offsets.
type foldFlag struct {
	Start, End buffer.ByteOffset
}

func parseFoldFlag(s string) (foldFlag, error) {
	a, b, ok := strings.Cut(s, ":")
	if !ok {
		return foldFlag{}, fmt.Errorf("fold %q: expected START:END", s)
	}
	start, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return foldFlag{}, fmt.Errorf("fold %q: %w", s, err)
	}
	end, err := strconv.ParseInt(b, 10, 64)
	if err != nil {
		return foldFlag{}, fmt.Errorf("fold %q: %w", s, err)
	}
	if end < start {
		return foldFlag{}, fmt.Errorf("fold %q: end before start", s)
	}
	return foldFlag{Start: start, End: end}, nil
}

// textFlag is an --inlay or --block value, OFFSET:TEXT. The text may
// contain colons.
type textFlag struct {
	Offset buffer.ByteOffset
	Text   string
}

func parseTextFlag(s string) (textFlag, error) {
	a, text, ok := strings.Cut(s, ":")
	if !ok {
		return textFlag{}, fmt.Errorf("%q: expected OFFSET:TEXT", s)
	}
	off, err := strconv.ParseInt(a, 10, 64)
	if err != nil {
		return textFlag{}, fmt.Errorf("%q: %w", s, err)
	}
	return textFlag{Offset: off, Text: text}, nil
}

func (c *cli) displayCmd() *cobra.Command {
	var (
		tabWidth, wrapWidth int
		folds, inlays       []string
		blocks, blocksBelow []string
	)
	cmd := &cobra.Command{
		Use:   "display FILE",
		Short: "Print the display rows of a file",
		Long: `display runs the file through the inlay, fold, tab, wrap and block
layers and prints the resulting rows. Offsets are byte offsets into the
file.`,
		Example: `  stoat display main.rs --wrap 40 --fold 10:120 --inlay '14:: i32'
  stoat display main.rs --block '0:generated file' --tab-width 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("tab-width") {
				c.cfg.Display.TabWidth = tabWidth
			}
			if cmd.Flags().Changed("wrap") {
				c.cfg.Display.WrapWidth = wrapWidth
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			e, err := c.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			dm := e.Display()

			for _, s := range inlays {
				v, err := parseTextFlag(s)
				if err != nil {
					return fmt.Errorf("--inlay %w", err)
				}
				dm.InsertInlay(v.Offset, v.Text, buffer.Left)
			}
			for _, s := range folds {
				v, err := parseFoldFlag(s)
				if err != nil {
					return fmt.Errorf("--fold: %w", err)
				}
				if _, _, err := dm.Fold(v.Start, v.End, ""); err != nil {
					return fmt.Errorf("--fold %s: %w", s, err)
				}
			}
			placed := []struct {
				placement display.Placement
				values    []string
			}{{display.Above, blocks}, {display.Below, blocksBelow}}
			for _, p := range placed {
				for _, s := range p.values {
					v, err := parseTextFlag(s)
					if err != nil {
						return fmt.Errorf("--block %w", err)
					}
					dm.InsertBlock(v.Offset, p.placement, uint32(strings.Count(v.Text, `\n`)+1), strings.ReplaceAll(v.Text, `\n`, "\n"))
				}
			}
			return writeRows(cmd.OutOrStdout(), dm)
		},
	}
	cmd.Flags().IntVar(&tabWidth, "tab-width", 0, "override display.tabWidth")
	cmd.Flags().IntVar(&wrapWidth, "wrap", 0, "override display.wrapWidth (0 disables wrapping)")
	cmd.Flags().StringArrayVar(&folds, "fold", nil, "fold START:END (repeatable)")
	cmd.Flags().StringArrayVar(&inlays, "inlay", nil, "insert inlay OFFSET:TEXT (repeatable)")
	cmd.Flags().StringArrayVar(&blocks, "block", nil, `insert a block above the line of OFFSET:TEXT; \n separates rows (repeatable)`)
	cmd.Flags().StringArrayVar(&blocksBelow, "block-below", nil, "like --block, placed below the line")
	return cmd
}

func writeRows(w io.Writer, dm *display.DisplayMap) error {
	rows := dm.RowCount()
	width := len(strconv.Itoa(int(rows)))
	for row := uint32(0); row < rows; row++ {
		line := dm.LineText(row)
		if dm.IsBlockRow(row) {
			line = blockColor.Sprint(line)
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", rowColor.Sprintf("%*d", width, row), line); err != nil {
			return err
		}
	}
	return nil
}
