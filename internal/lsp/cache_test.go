package lsp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"
	"go.lsp.dev/protocol"

	"github.com/dshills/stoat/internal/engine/buffer"
)

func TestCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}

	const text = "let foo = bar;\nlet baz = qux;"
	store := NewStore()
	_, err = store.PublishAll(ctx,
		publish("a", 3, buffer.NewSnapshot(text)),
	)
	if err != nil {
		t.Fatalf("PublishAll: %v", err)
	}
	snap := store.Snapshot()
	if _, err := store.Publish(ctx, publish("b", 7, snap,
		pd(0, 10, 0, 13, protocol.DiagnosticSeverityError, "bar"),
		pd(1, 4, 1, 7, protocol.DiagnosticSeverityWarning, "baz"),
	)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := store.SaveCache(cache); err != nil {
		t.Fatalf("SaveCache: %v", err)
	}

	// Same text in a fresh buffer.
	restored := NewStore()
	ok, err := restored.LoadCache(cache, buffer.NewSnapshot(text))
	if err != nil || !ok {
		t.Fatalf("LoadCache: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(views(store.All(), snap), views(restored.All(), restored.Snapshot())); diff != "" {
		t.Errorf("restored mismatch (-want +got):\n%s", diff)
	}
	for server, want := range map[ServerID]uint64{"a": 3, "b": 7} {
		if v, _ := restored.Version(server); v != want {
			t.Errorf("Version(%s): expected %d, got %d", server, want, v)
		}
	}

	// The restored gate still drops older publishes.
	applied, err := restored.Publish(ctx, publish("b", 6, restored.Snapshot()))
	if err != nil || applied {
		t.Errorf("Publish(v6): expected stale, got applied=%v err=%v", applied, err)
	}
}

func TestCacheMiss(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	store := NewStore()
	ok, err := store.LoadCache(cache, buffer.NewSnapshot("never saved"))
	if err != nil || ok {
		t.Errorf("LoadCache: expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.SaveCache(cache); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("SaveCache without snapshot: expected ErrNoSnapshot, got %v", err)
	}
}

func TestCacheSchemaMismatch(t *testing.T) {
	dir := t.TempDir()
	cache, err := OpenCache(dir)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	snap := buffer.NewSnapshot("text")
	hash := contentHash(snap)
	data, err := msgpack.Marshal(&cachePayload{Schema: cacheSchemaVersion + 1, ContentHash: hash})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(cache.pathFor(hash), data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, _, _, err := cache.Get(snap); !errors.Is(err, ErrCacheSchema) {
		t.Errorf("Get: expected ErrCacheSchema, got %v", err)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ := filepath.Glob(filepath.Join(dir, "*.mp"))
	if len(entries) != 0 {
		t.Errorf("Clear: expected no entries, got %v", entries)
	}
}
