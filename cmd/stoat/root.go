package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/stoat/internal/config"
	"github.com/dshills/stoat/internal/engine"
)

// cli is the state shared by every command once flags are parsed.
type cli struct {
	configPath string
	verbose    bool
	colorMode  string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "stoat",
		Short: "Inspect anchors, indices and display rows of a source file",
		Long: `stoat loads a file into the editing core and prints what its
indices and display pipeline make of it.`,
		Version:           fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a TOML or YAML config file")
	root.PersistentFlags().BoolVar(&c.verbose, "verbose", false, "log at debug level to stderr")
	root.PersistentFlags().StringVar(&c.colorMode, "color", "auto", "colorize output (auto|on|off)")

	root.AddCommand(
		c.tokensCmd(),
		c.scopesCmd(),
		c.bracketsCmd(),
		c.symbolsCmd(),
		c.displayCmd(),
		c.diagnosticsCmd(),
		c.watchCmd(),
		c.configCmd(),
	)
	return root
}

// setup loads the config and configures logging and colour.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	opts := []config.Option{}
	if c.configPath != "" {
		opts = append(opts, config.WithFile(c.configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg

	level := cfg.LogLevel()
	if c.verbose {
		level = slog.LevelDebug
	}
	c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)

	switch c.colorMode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto":
		// fatih/color already checked whether stdout is a terminal.
	default:
		return fmt.Errorf("invalid --color %q (must be auto, on or off)", c.colorMode)
	}
	c.logger.Debug("config loaded", "sources", cfg.Sources)
	return nil
}

// open reads path into a new engine built from the loaded settings.
func (c *cli) open(ctx context.Context, path string, extra ...engine.Option) (*engine.Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts, err := engine.ConfigOptions(c.cfg, path)
	if err != nil {
		return nil, err
	}
	opts = append(opts, engine.WithContent(string(data)), engine.WithLogger(c.logger))
	return engine.New(ctx, append(opts, extra...)...)
}
