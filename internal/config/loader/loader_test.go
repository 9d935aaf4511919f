package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

const tomlConfig = `
[display]
tabWidth = 8
wrapWidth = 80
foldPlaceholder = "..."

[diagnostics]
minSeverity = "warning"
sources = ["rustc", "clippy"]
`

const yamlConfig = `
display:
  tabWidth: 8
  wrapWidth: 80
  foldPlaceholder: "..."
diagnostics:
  minSeverity: warning
  sources: [rustc, clippy]
`

func TestFileLoader_Load(t *testing.T) {
	want := map[string]any{
		"display": map[string]any{
			"tabWidth":        int64(8),
			"wrapWidth":       int64(80),
			"foldPlaceholder": "...",
		},
		"diagnostics": map[string]any{
			"minSeverity": "warning",
			"sources":     []any{"rustc", "clippy"},
		},
	}

	memfs := NewMemFS()
	memfs.AddFile("/stoat.toml", tomlConfig)
	memfs.AddFile("/stoat.yaml", yamlConfig)
	memfs.AddFile("/stoat.yml", yamlConfig)

	for _, path := range []string{"/stoat.toml", "/stoat.yaml", "/stoat.yml"} {
		l, err := NewFileLoader(memfs, path)
		if err != nil {
			t.Fatalf("NewFileLoader(%s): %v", path, err)
		}
		got, err := l.Load()
		if err != nil {
			t.Fatalf("Load(%s): %v", path, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Load(%s) mismatch (-want +got):\n%s", path, diff)
		}
	}
}

func TestFileLoader_LoadNonExistent(t *testing.T) {
	l, err := NewFileLoader(NewMemFS(), "/missing.toml")
	if err != nil {
		t.Fatal(err)
	}
	config, err := l.Load()
	if err != nil {
		t.Fatalf("expected no error for non-existent file, got: %v", err)
	}
	if config != nil {
		t.Error("expected nil config for non-existent file")
	}
}

func TestFormatForPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
		err  bool
	}{
		{"a.toml", FormatTOML, false},
		{"a.TOML", FormatTOML, false},
		{"dir/a.yaml", FormatYAML, false},
		{"a.yml", FormatYAML, false},
		{"a.json", 0, true},
		{"stoat", 0, true},
	}
	for _, tt := range tests {
		got, err := FormatForPath(tt.path)
		if tt.err {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("FormatForPath(%q): expected ErrUnsupportedFormat, got %v", tt.path, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("FormatForPath(%q): expected %v, got %v (%v)", tt.path, tt.want, got, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		line   int // -1 accepts any reported line
	}{
		{"toml", FormatTOML, "[display]\ntabWidth = = 4\n", 2},
		{"yaml", FormatYAML, "display:\n\ttabWidth: 4\n", -1},
	}
	for _, tt := range tests {
		_, err := Parse(tt.format, "/bad", []byte(tt.data))
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("%s: expected *ParseError, got %T (%v)", tt.name, err, err)
		}
		if perr.Path != "/bad" {
			t.Errorf("%s: Path = %q, want /bad", tt.name, perr.Path)
		}
		if tt.line < 0 && perr.Line <= 0 || tt.line >= 0 && perr.Line != tt.line {
			t.Errorf("%s: Line = %d, want %d (%v)", tt.name, perr.Line, tt.line, err)
		}
		if perr.Unwrap() == nil {
			t.Errorf("%s: expected wrapped error", tt.name)
		}
	}
}

func TestLoadFromReader(t *testing.T) {
	got, err := LoadFromReader(FormatTOML, strings.NewReader("[log]\nlevel = \"debug\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"log": map[string]any{"level": "debug"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadFromReader mismatch (-want +got):\n%s", diff)
	}
}

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		err  ParseError
		want string
	}{
		{ParseError{Path: "a", Message: "m"}, "parse error in a: m"},
		{ParseError{Path: "a", Line: 2, Message: "m"}, "parse error in a at line 2: m"},
		{ParseError{Path: "a", Line: 2, Column: 3, Message: "m"}, "parse error in a at line 2, column 3: m"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error(): expected %q, got %q", tt.want, got)
		}
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"display": map[string]any{"tabWidth": int64(4), "wrapWidth": int64(0)},
		"log":     map[string]any{"level": "info"},
	}
	src := map[string]any{
		"display": map[string]any{"wrapWidth": int64(100)},
		"syntax":  map[string]any{"lexer": "chroma"},
		"log":     "off",
	}
	want := map[string]any{
		"display": map[string]any{"tabWidth": int64(4), "wrapWidth": int64(100)},
		"syntax":  map[string]any{"lexer": "chroma"},
		"log":     "off",
	}
	got := DeepMerge(dst, src)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DeepMerge mismatch (-want +got):\n%s", diff)
	}

	// Merged maps are copies of src.
	src["syntax"].(map[string]any)["lexer"] = "simple"
	if got["syntax"].(map[string]any)["lexer"] != "chroma" {
		t.Error("DeepMerge aliased a source map")
	}
}

func TestClone(t *testing.T) {
	src := map[string]any{
		"a": map[string]any{"b": []any{int64(1), map[string]any{"c": "d"}}},
	}
	got := Clone(src)
	if diff := cmp.Diff(src, got); diff != "" {
		t.Errorf("Clone mismatch (-want +got):\n%s", diff)
	}
	got["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"] = "x"
	if src["a"].(map[string]any)["b"].([]any)[1].(map[string]any)["c"] != "d" {
		t.Error("Clone shares nested values")
	}
	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}
