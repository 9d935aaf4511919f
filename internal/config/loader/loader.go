// Package loader reads configuration sources into nested maps.
//
// File loaders parse TOML or YAML; the environment loader maps prefixed
// variables onto the same dotted paths. Callers merge the maps in
// precedence order with DeepMerge and decode the result once.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Loader is the interface for configuration loaders.
type Loader interface {
	// Load reads configuration from the source and returns a map.
	// Returns nil, nil if the source doesn't exist (not an error).
	Load() (map[string]any, error)
}

// FileSystem abstracts file reads so tests can use an in-memory tree.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// Format is a configuration file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatForPath picks a format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
}

// FileLoader reads one configuration file.
type FileLoader struct {
	fs     FileSystem
	path   string
	format Format
}

// NewFileLoader returns a loader for path, choosing the parser from the
// extension. A nil fs uses the OS.
func NewFileLoader(fs FileSystem, path string) (*FileLoader, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	if fs == nil {
		fs = DefaultFS()
	}
	return &FileLoader{fs: fs, path: path, format: format}, nil
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string {
	return l.path
}

// Format returns the file syntax.
func (l *FileLoader) Format() Format {
	return l.format
}

// Load reads and parses the file. A missing file yields nil, nil.
func (l *FileLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}
	return Parse(l.format, l.path, data)
}

// LoadFromReader parses r in the given format.
func LoadFromReader(format Format, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(format, "<reader>", data)
}

// Parse decodes data. source names the input in errors.
func Parse(format Format, source string, data []byte) (map[string]any, error) {
	switch format {
	case FormatTOML:
		return parseTOML(source, data)
	case FormatYAML:
		return parseYAML(source, data)
	}
	return nil, fmt.Errorf("%s: %w", source, ErrUnsupportedFormat)
}

// ParseError represents an error while parsing a configuration file.
type ParseError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
