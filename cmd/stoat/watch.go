package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/stoat/internal/engine"
	"github.com/dshills/stoat/internal/engine/tracking"
	"github.com/dshills/stoat/internal/watch"
)

var versionColor = color.New(color.FgGreen, color.Bold)

func (c *cli) watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Follow a file and report how each save moves the indices",
		Long: `watch keeps FILE loaded and, whenever it changes on disk, applies only
the difference to the buffer. Each update prints the new version, the
patches applied and the display rows they replaced. Interrupt to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]
			e, err := c.open(ctx, path)
			if err != nil {
				return err
			}
			w, err := watch.New(watch.WithDebounce(debounce), watch.WithLogger(c.logger))
			if err != nil {
				return err
			}
			defer w.Close()
			if err := w.Add(path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			writeState(out, e)
			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-w.Errors():
					c.logger.Warn("watch error", "error", err)
				case ev := <-w.Events():
					c.logger.Debug("file changed", "path", ev.Path, "op", ev.Op)
					if err := reload(ctx, e, ev.Path, out); err != nil {
						if errors.Is(err, fs.ErrNotExist) {
							fmt.Fprintf(out, "%s removed, waiting\n", ev.Path)
							continue
						}
						return err
					}
				}
			}
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "coalesce changes arriving within this window")
	return cmd
}

// reload applies the difference between e's text and the file to e and
// reports the update.
func reload(ctx context.Context, e *engine.Engine, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	edits := tracking.Diff(e.Text(), string(data))
	if len(edits) == 0 {
		return nil
	}
	u, err := e.ApplyEdits(ctx, edits)
	if err != nil {
		return err
	}
	stats := tracking.Summarize(edits)
	fmt.Fprintf(out, "%s +%d -%d bytes, %d patches",
		versionColor.Sprintf("v%d", u.Version), stats.Inserted, stats.Deleted, len(u.Patches))
	for _, p := range u.Patches {
		fmt.Fprintf(out, " %s->%s", p.Old, p.New)
	}
	fmt.Fprintf(out, ", rows %s\n", u.Rows)
	if u.Err != nil {
		fmt.Fprintf(out, "  stale: %v\n", u.Err)
	}
	writeState(out, e)
	return nil
}

func writeState(out io.Writer, e *engine.Engine) {
	v := e.View()
	fmt.Fprintf(out, "  %d tokens, %d scopes, %d brackets, %d symbols, %d rows\n",
		e.Tokens().Len(), v.Scopes.Len(), v.Brackets.Len(), v.Symbols.Len(), e.Display().RowCount())
}
