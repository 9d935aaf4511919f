package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/stoat/internal/config/loader"
)

func (c *cli) configCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `config prints the settings after merging defaults, config files and
STOAT_ environment variables. The files that contributed are listed on
stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var f loader.Format
			switch format {
			case "toml":
				f = loader.FormatTOML
			case "yaml", "yml":
				f = loader.FormatYAML
			default:
				return fmt.Errorf("unknown format: %s", format)
			}
			for _, src := range c.cfg.Sources {
				fmt.Fprintf(cmd.ErrOrStderr(), "# from %s\n", src)
			}
			return c.cfg.Write(cmd.OutOrStdout(), f)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "toml", "output format (toml|yaml)")
	return cmd
}
