package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.lsp.dev/protocol"

	"github.com/dshills/stoat/internal/engine/buffer"
	"github.com/dshills/stoat/internal/lsp"
)

var severityColors = map[lsp.Severity]*color.Color{
	lsp.SeverityError:       color.New(color.FgRed, color.Bold),
	lsp.SeverityWarning:     color.New(color.FgYellow),
	lsp.SeverityInformation: color.New(color.FgBlue),
	lsp.SeverityHint:        color.New(color.FgHiBlack),
}

// readPublish decodes a textDocument/publishDiagnostics params file. The
// server is named after the file.
func readPublish(path string, snap *buffer.Snapshot, seq int) (lsp.Publish, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return lsp.Publish{}, err
	}
	var params protocol.PublishDiagnosticsParams
	if err := json.Unmarshal(data, &params); err != nil {
		return lsp.Publish{}, fmt.Errorf("%s: %w", path, err)
	}
	version := uint64(params.Version)
	if version == 0 {
		version = uint64(seq)
	}
	server := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return lsp.Publish{
		ServerID:    lsp.ServerID(server),
		Version:     version,
		Snapshot:    snap,
		Diagnostics: params.Diagnostics,
	}, nil
}

func (c *cli) diagnosticsCmd() *cobra.Command {
	var (
		publishes []string
		noCache   bool
	)
	cmd := &cobra.Command{
		Use:   "diagnostics FILE",
		Short: "Anchor published diagnostics in a file and list them",
		Long: `diagnostics reads publishDiagnostics params (as JSON) from one or more
files, anchors them in FILE and prints them in buffer order. Each params
file stands for one server, named after the file.

When diagnostics.cacheDir is set, the result is cached by file content and
restored when FILE is run again without --publish.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := c.open(ctx, args[0])
			if err != nil {
				return err
			}
			store := e.Diagnostics()
			snap := e.Snapshot()

			var cache *lsp.Cache
			if dir := c.cfg.CacheDir(); dir != "" && !noCache {
				if cache, err = lsp.OpenCache(dir); err != nil {
					return err
				}
			}

			if len(publishes) == 0 {
				if cache == nil {
					return fmt.Errorf("nothing to show: pass --publish or set diagnostics.cacheDir")
				}
				ok, err := store.LoadCache(cache, snap)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "no cached diagnostics for this content")
					return nil
				}
			} else {
				pubs := make([]lsp.Publish, 0, len(publishes))
				for i, path := range publishes {
					p, err := readPublish(path, snap, i+1)
					if err != nil {
						return err
					}
					pubs = append(pubs, p)
				}
				applied, err := store.PublishAll(ctx, pubs...)
				if err != nil {
					return err
				}
				c.logger.Debug("published diagnostics", "applied", applied, "publishes", len(pubs))
				if cache != nil {
					if err := store.SaveCache(cache); err != nil {
						c.logger.Warn("could not cache diagnostics", "dir", cache.Dir(), "error", err)
					}
				}
			}
			return writeDiagnostics(cmd.OutOrStdout(), snap, store)
		},
	}
	cmd.Flags().StringArrayVarP(&publishes, "publish", "p", nil, "publishDiagnostics params JSON file (repeatable)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "neither read nor write the diagnostics cache")
	return cmd
}

func writeDiagnostics(w io.Writer, snap *buffer.Snapshot, store *lsp.Store) error {
	for _, d := range store.All() {
		r := d.Resolve(snap)
		sev := fmt.Sprintf("%-8s", d.Severity)
		if c, ok := severityColors[d.Severity]; ok {
			sev = c.Sprint(sev)
		}
		source := d.Source
		if d.Code != "" {
			source += "(" + d.Code + ")"
		}
		if _, err := fmt.Fprintf(w, "%s %s %-10s %s %s\n",
			posColor.Sprint(position(snap, r.Start)), sev, d.ServerID, source, d.Message); err != nil {
			return err
		}
	}
	s := store.Summary()
	_, err := fmt.Fprintf(w, "%d errors, %d warnings, %d info, %d hints\n",
		s.Counts.Errors, s.Counts.Warnings, s.Counts.Infos, s.Counts.Hints)
	return err
}
