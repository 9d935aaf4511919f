package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/stoat/internal/config/loader"
	"github.com/dshills/stoat/internal/display"
	"github.com/dshills/stoat/internal/lsp"
)

// Config holds every stoat setting.
type Config struct {
	Display     DisplayConfig     `toml:"display" yaml:"display"`
	Syntax      SyntaxConfig      `toml:"syntax" yaml:"syntax"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics" yaml:"diagnostics"`
	Log         LogConfig         `toml:"log" yaml:"log"`

	// Sources lists the files that contributed, lowest precedence first.
	Sources []string `toml:"-" yaml:"-"`
}

// DisplayConfig configures the display pipeline.
type DisplayConfig struct {
	TabWidth        int    `toml:"tabWidth" yaml:"tabWidth"`
	WrapWidth       int    `toml:"wrapWidth" yaml:"wrapWidth"`
	FoldPlaceholder string `toml:"foldPlaceholder" yaml:"foldPlaceholder"`
}

// SyntaxConfig selects the lexer and parser.
type SyntaxConfig struct {
	// Lexer is "simple", "chroma" (language from the file name) or
	// "chroma:<language>".
	Lexer string `toml:"lexer" yaml:"lexer"`
	// Parser is "treesitter".
	Parser string `toml:"parser" yaml:"parser"`
}

// DiagnosticsConfig configures the diagnostic store.
type DiagnosticsConfig struct {
	MinSeverity  string   `toml:"minSeverity" yaml:"minSeverity"`
	Sources      []string `toml:"sources,omitempty" yaml:"sources,omitempty"`
	MaxPerServer int      `toml:"maxPerServer" yaml:"maxPerServer"`
	CacheDir     string   `toml:"cacheDir" yaml:"cacheDir"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Display: DisplayConfig{
			TabWidth:        display.DefaultTabWidth,
			FoldPlaceholder: display.DefaultPlaceholder,
		},
		Syntax: SyntaxConfig{
			Lexer:  "simple",
			Parser: "treesitter",
		},
		Diagnostics: DiagnosticsConfig{
			MinSeverity: "hint",
		},
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Option configures Load.
type Option func(*loadOptions)

type loadOptions struct {
	fs        loader.FileSystem
	search    []string
	file      string
	envPrefix string
	useEnv    bool
}

// WithFS reads files through fs instead of the OS.
func WithFS(fs loader.FileSystem) Option {
	return func(o *loadOptions) {
		o.fs = fs
	}
}

// WithSearchPaths replaces the default search paths. Missing files are
// skipped.
func WithSearchPaths(paths ...string) Option {
	return func(o *loadOptions) {
		o.search = paths
	}
}

// WithFile loads path after the search paths. The file must exist.
func WithFile(path string) Option {
	return func(o *loadOptions) {
		o.file = path
	}
}

// WithEnvPrefix changes the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// WithoutEnv ignores the environment.
func WithoutEnv() Option {
	return func(o *loadOptions) {
		o.useEnv = false
	}
}

// DefaultSearchPaths returns the user config files followed by the
// project config files.
func DefaultSearchPaths() []string {
	var paths []string
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths,
			filepath.Join(dir, "stoat", "config.toml"),
			filepath.Join(dir, "stoat", "config.yaml"))
	}
	return append(paths, ".stoat.toml", ".stoat.yaml")
}

// Load merges every source over the defaults and validates the result.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{
		fs:        loader.DefaultFS(),
		search:    DefaultSearchPaths(),
		envPrefix: loader.DefaultEnvPrefix,
		useEnv:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var merged map[string]any
	var sources []string
	load := func(path string, required bool) error {
		l, err := loader.NewFileLoader(o.fs, path)
		if err != nil {
			return err
		}
		m, err := l.Load()
		if err != nil {
			return err
		}
		if m == nil {
			if required {
				return fmt.Errorf("%s: %w", path, ErrFileNotFound)
			}
			return nil
		}
		merged = loader.DeepMerge(merged, m)
		sources = append(sources, path)
		return nil
	}

	for _, path := range o.search {
		if err := load(path, false); err != nil {
			return nil, err
		}
	}
	if o.file != "" {
		if err := load(o.file, true); err != nil {
			return nil, err
		}
	}
	if o.useEnv {
		env, err := loader.NewEnvLoader(o.envPrefix).Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, env)
	}

	cfg := Default()
	if err := cfg.apply(merged); err != nil {
		return nil, err
	}
	cfg.Sources = sources
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply decodes a merged settings map over c. The map is re-encoded as
// TOML so one strict decoder checks both file formats.
func (c *Config) apply(m map[string]any) error {
	if len(m) == 0 {
		return nil
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, strings.Join(unknownKeys(strict), ", "))
		}
		return fmt.Errorf("decoding settings: %w", err)
	}
	return nil
}

func unknownKeys(err *toml.StrictMissingError) []string {
	keys := make([]string, 0, len(err.Errors))
	for _, e := range err.Errors {
		keys = append(keys, strings.Join(e.Key(), "."))
	}
	return keys
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSetting}, args...)...))
	}

	if c.Display.TabWidth < 1 || c.Display.TabWidth > 16 {
		invalid("display.tabWidth must be between 1 and 16, got %d", c.Display.TabWidth)
	}
	if c.Display.WrapWidth < 0 {
		invalid("display.wrapWidth must not be negative, got %d", c.Display.WrapWidth)
	}
	if c.Display.FoldPlaceholder == "" || strings.Contains(c.Display.FoldPlaceholder, "\n") {
		invalid("display.foldPlaceholder must be a non-empty single line")
	}

	switch lexer, lang, _ := strings.Cut(c.Syntax.Lexer, ":"); {
	case lexer == "simple" && lang == "":
	case lexer == "chroma":
	default:
		invalid("syntax.lexer %q is not simple, chroma or chroma:<language>", c.Syntax.Lexer)
	}
	if c.Syntax.Parser != "treesitter" {
		invalid("syntax.parser %q is not treesitter", c.Syntax.Parser)
	}

	if _, ok := lsp.ParseSeverity(c.Diagnostics.MinSeverity); !ok {
		invalid("diagnostics.minSeverity %q is not a severity", c.Diagnostics.MinSeverity)
	}
	if c.Diagnostics.MaxPerServer < 0 {
		invalid("diagnostics.maxPerServer must not be negative, got %d", c.Diagnostics.MaxPerServer)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		invalid("log.level %q is not a level", c.Log.Level)
	}

	return errors.Join(errs...)
}

// MinSeverity returns the parsed diagnostics threshold.
func (c *Config) MinSeverity() lsp.Severity {
	s, ok := lsp.ParseSeverity(c.Diagnostics.MinSeverity)
	if !ok {
		return lsp.SeverityHint
	}
	return s
}

// LogLevel returns the parsed log level.
func (c *Config) LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelWarn
	}
	return level
}

// CacheDir returns the diagnostics cache directory with a leading ~
// expanded. Empty means caching is off.
func (c *Config) CacheDir() string {
	dir := c.Diagnostics.CacheDir
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, dir[1:])
		}
	}
	return dir
}

// Write encodes the settings in the given format.
func (c *Config) Write(w io.Writer, format loader.Format) error {
	switch format {
	case loader.FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(c)
	case loader.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(c); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%s: %w", format, loader.ErrUnsupportedFormat)
}
