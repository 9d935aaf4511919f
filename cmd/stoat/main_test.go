package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// isolate keeps user and project config files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	for _, key := range []string{"STOAT_LOG_LEVEL", "STOAT_TAB_WIDTH", "STOAT_WRAP_WIDTH", "STOAT_LEXER", "STOAT_PARSER", "STOAT_CACHE_DIR"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	isolate(t)
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--color", "off"}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseFoldFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    foldFlag
		wantErr bool
	}{
		{"10:28", foldFlag{Start: 10, End: 28}, false},
		{"0:0", foldFlag{}, false},
		{"28:10", foldFlag{}, true},
		{"10", foldFlag{}, true},
		{"a:3", foldFlag{}, true},
		{"3:b", foldFlag{}, true},
	}
	for _, tt := range tests {
		got, err := parseFoldFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseFoldFlag(%q): expected error %v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseFoldFlag(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
	}
}

func TestParseTextFlag(t *testing.T) {
	tests := []struct {
		in      string
		want    textFlag
		wantErr bool
	}{
		{"14:: i32", textFlag{Offset: 14, Text: ": i32"}, false},
		{"0:", textFlag{Offset: 0}, false},
		{"note", textFlag{}, true},
		{"x:note", textFlag{}, true},
	}
	for _, tt := range tests {
		got, err := parseTextFlag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTextFlag(%q): expected error %v, got %v", tt.in, tt.wantErr, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("parseTextFlag(%q): expected %+v, got %+v", tt.in, tt.want, got)
		}
	}
}

func TestTokensJSON(t *testing.T) {
	path := writeFile(t, "main.rs", "fn main() {}\n")
	out, err := execute(t, "tokens", path, "--kind", "keyword,identifier", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got []tokenJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	want := []tokenJSON{
		{Kind: "keyword", Start: 0, End: 2, Text: "fn"},
		{Kind: "identifier", Start: 3, End: 7, Text: "main"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tokens mismatch (-want +got):\n%s", diff)
	}
}

func TestTokensUnknownKind(t *testing.T) {
	path := writeFile(t, "main.rs", "fn main() {}\n")
	if _, err := execute(t, "tokens", path, "--kind", "sparkle"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestBracketsAtOffset(t *testing.T) {
	path := writeFile(t, "main.rs", "fn main() {\n    f(1);\n}\n")
	out, err := execute(t, "brackets", path, "--offset", "10")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "match 22 3:1") {
		t.Errorf("brackets: expected match at 22, got:\n%s", out)
	}
}

func TestSymbols(t *testing.T) {
	path := writeFile(t, "main.rs", "struct Point {}\nfn main() {}\n")
	out, err := execute(t, "symbols", path, "--kind", "function")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "main") || strings.Contains(out, "Point") {
		t.Errorf("symbols --kind function: got:\n%s", out)
	}
}

func TestDisplayRows(t *testing.T) {
	path := writeFile(t, "main.rs", "a\tb")
	out, err := execute(t, "display", path, "--tab-width", "4", "--block", "0:note")
	if err != nil {
		t.Fatal(err)
	}
	want := "0 note\n1 a   b\n"
	if out != want {
		t.Errorf("display: expected %q, got %q", want, out)
	}
}

func TestDisplayRejectsBadTabWidth(t *testing.T) {
	path := writeFile(t, "main.rs", "a")
	if _, err := execute(t, "display", path, "--tab-width", "0"); err == nil {
		t.Error("expected error for tab width 0")
	}
}

func TestDiagnosticsPublish(t *testing.T) {
	path := writeFile(t, "main.rs", "fn main() {}\n")
	params := writeFile(t, "rustc.json", `{
  "uri": "file:///main.rs",
  "version": 1,
  "diagnostics": [
    {
      "range": {"start": {"line": 0, "character": 3}, "end": {"line": 0, "character": 7}},
      "severity": 1,
      "source": "rustc",
      "message": "unused function"
    }
  ]
}`)
	out, err := execute(t, "diagnostics", path, "--publish", params)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"1:4", "error", "rustc", "unused function", "1 errors, 0 warnings"} {
		if !strings.Contains(out, want) {
			t.Errorf("diagnostics: expected %q in:\n%s", want, out)
		}
	}
}

func TestDiagnosticsCache(t *testing.T) {
	path := writeFile(t, "main.rs", "fn main() {}\n")
	params := writeFile(t, "clippy.json", `{"uri": "file:///main.rs", "diagnostics": [
  {"range": {"start": {"line": 0, "character": 0}, "end": {"line": 0, "character": 2}}, "severity": 2, "message": "style"}
]}`)
	cfg := writeFile(t, "stoat.toml", "[diagnostics]\ncacheDir = \""+filepath.ToSlash(t.TempDir())+"\"\n")

	if _, err := execute(t, "-c", cfg, "diagnostics", path, "--publish", params); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "-c", cfg, "diagnostics", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "style") || !strings.Contains(out, "1 warnings") {
		t.Errorf("cached diagnostics: got:\n%s", out)
	}
}

func TestConfigCommand(t *testing.T) {
	out, err := execute(t, "config", "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "tabWidth: 4") {
		t.Errorf("config: expected tabWidth: 4 in:\n%s", out)
	}
	if _, err := execute(t, "config", "--format", "ini"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestInvalidColorMode(t *testing.T) {
	isolate(t)
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--color", "sometimes", "config"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for invalid --color")
	}
}
