package watch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newWatcher(t *testing.T, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(opts...)
	if err != nil {
		t.Fatalf("New error = %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case err := <-w.Errors():
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{0, "none"},
		{OpWrite, "write"},
		{OpCreate | OpWrite, "create|write"},
		{OpRemove | OpRename | OpChmod, "remove|rename|chmod"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String(): expected %q, got %q", tt.op, tt.want, got)
		}
	}
}

func TestAddRemove(t *testing.T) {
	w := newWatcher(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.rs")
	b := filepath.Join(dir, "b.rs")
	writeFile(t, a, "")
	writeFile(t, b, "")

	if err := w.Add(a); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := w.Add(b); err != nil {
		t.Fatalf("Add error = %v", err)
	}
	if err := w.Add(a); !errors.Is(err, ErrAlreadyWatching) {
		t.Errorf("Add again: expected ErrAlreadyWatching, got %v", err)
	}
	if err := w.Add(dir); !errors.Is(err, ErrIsDirectory) {
		t.Errorf("Add dir: expected ErrIsDirectory, got %v", err)
	}
	if err := w.Add(filepath.Join(dir, "missing.rs")); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("Add missing: expected ErrPathNotExist, got %v", err)
	}
	if got := len(w.Files()); got != 2 {
		t.Errorf("Files(): expected 2, got %d", got)
	}
	if w.dirs[dir] != 2 {
		t.Errorf("dirs[%s]: expected 2, got %d", dir, w.dirs[dir])
	}

	if err := w.Remove(a); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	if err := w.Remove(a); !errors.Is(err, ErrNotWatching) {
		t.Errorf("Remove again: expected ErrNotWatching, got %v", err)
	}
	if err := w.Remove(b); err != nil {
		t.Fatalf("Remove error = %v", err)
	}
	if _, ok := w.dirs[dir]; ok {
		t.Error("directory still watched after its last file was removed")
	}
}

func TestWriteEvent(t *testing.T) {
	w := newWatcher(t, WithDebounce(0))
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rs")
	writeFile(t, path, "fn main() {}\n")
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	// A sibling file is in the watched directory but not watched.
	writeFile(t, filepath.Join(dir, "other.rs"), "x")
	writeFile(t, path, "fn main() { run(); }\n")

	ev := waitEvent(t, w)
	if ev.Path != path {
		t.Errorf("Path: expected %s, got %s", path, ev.Path)
	}
	if !ev.Op.Has(OpWrite) {
		t.Errorf("Op: expected write, got %v", ev.Op)
	}
}

func TestDebounceCoalesces(t *testing.T) {
	w := newWatcher(t, WithDebounce(200*time.Millisecond))
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.rs")
	writeFile(t, path, "")
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		writeFile(t, path, string(rune('a'+i)))
	}

	ev := waitEvent(t, w)
	if ev.Path != path || !ev.Op.Has(OpWrite) {
		t.Errorf("expected write on %s, got %v on %s", path, ev.Op, ev.Path)
	}
	select {
	case ev := <-w.Events():
		t.Errorf("expected one coalesced event, got another: %v", ev)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestRenameOverFile(t *testing.T) {
	w := newWatcher(t, WithDebounce(50*time.Millisecond))
	dir := t.TempDir()
	path := filepath.Join(dir, "main.rs")
	writeFile(t, path, "old")
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}

	tmp := filepath.Join(dir, ".main.rs.swp")
	writeFile(t, tmp, "new")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, w)
	if ev.Path != path || !ev.Op.Has(OpCreate) {
		t.Errorf("expected create on %s, got %v on %s", path, ev.Op, ev.Path)
	}
}

func TestClose(t *testing.T) {
	w, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close error = %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel open after Close")
	}
	path := filepath.Join(t.TempDir(), "f")
	writeFile(t, path, "")
	if err := w.Add(path); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Add after Close: expected ErrWatcherClosed, got %v", err)
	}
}
