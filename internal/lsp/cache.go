package lsp

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/dshills/stoat/internal/engine/buffer"
)

// cacheSchemaVersion changes whenever cachePayload changes shape.
const cacheSchemaVersion uint16 = 1

// Cache persists the diagnostics of a text between runs. Entries are keyed
// by the SHA-256 of the text, so a cached entry only ever applies to
// identical content. Safe for concurrent use.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

type cachePayload struct {
	Schema      uint16
	ContentHash [sha256.Size]byte
	Versions    map[string]uint64
	Diagnostics []cachedDiagnostic
}

// cachedDiagnostic stores offsets; anchors are only meaningful within one
// buffer's lifetime.
type cachedDiagnostic struct {
	Start    int64
	End      int64
	Severity uint8
	Server   string
	Message  string
	Source   string
	Code     string
}

// OpenCache returns a cache rooted at dir, creating it if needed. An
// empty dir selects the user cache directory.
func OpenCache(dir string) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("locate cache dir: %w", err)
		}
		dir = filepath.Join(base, "stoat", "diagnostics")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

func contentHash(snap *buffer.Snapshot) [sha256.Size]byte {
	return sha256.Sum256([]byte(snap.Text()))
}

func (c *Cache) pathFor(hash [sha256.Size]byte) string {
	return filepath.Join(c.dir, hex.EncodeToString(hash[:])+".mp")
}

// Put stores diags, resolved against snap, with the per-server versions.
func (c *Cache) Put(snap *buffer.Snapshot, diags []Diagnostic, versions map[ServerID]uint64) (err error) {
	if c == nil {
		return nil
	}
	payload := cachePayload{
		Schema:      cacheSchemaVersion,
		ContentHash: contentHash(snap),
		Versions:    make(map[string]uint64, len(versions)),
		Diagnostics: make([]cachedDiagnostic, 0, len(diags)),
	}
	for server, v := range versions {
		payload.Versions[string(server)] = v
	}
	for _, d := range diags {
		r := d.Resolve(snap)
		payload.Diagnostics = append(payload.Diagnostics, cachedDiagnostic{
			Start:    r.Start,
			End:      r.End,
			Severity: uint8(d.Severity),
			Server:   string(d.ServerID),
			Message:  d.Message,
			Source:   d.Source,
			Code:     d.Code,
		})
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(&payload); err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	if err = os.Rename(f.Name(), c.pathFor(payload.ContentHash)); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}

// Get loads the diagnostics cached for snap's text. It reports false when
// nothing is cached. A file from another schema returns ErrCacheSchema.
func (c *Cache) Get(snap *buffer.Snapshot) ([]Diagnostic, map[ServerID]uint64, bool, error) {
	if c == nil {
		return nil, nil, false, nil
	}
	hash := contentHash(snap)

	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(hash))
	c.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, false, nil
		}
		return nil, nil, false, fmt.Errorf("read cache: %w", err)
	}

	var payload cachePayload
	if err := msgpack.Unmarshal(data, &payload); err != nil {
		return nil, nil, false, fmt.Errorf("decode cache: %w", err)
	}
	if payload.Schema != cacheSchemaVersion {
		return nil, nil, false, fmt.Errorf("schema %d, want %d: %w", payload.Schema, cacheSchemaVersion, ErrCacheSchema)
	}
	if payload.ContentHash != hash {
		return nil, nil, false, nil
	}

	versions := make(map[ServerID]uint64, len(payload.Versions))
	for server, v := range payload.Versions {
		versions[ServerID(server)] = v
	}
	limit := snap.Len()
	diags := make([]Diagnostic, 0, len(payload.Diagnostics))
	for _, cd := range payload.Diagnostics {
		start, end := min(cd.Start, limit), min(cd.End, limit)
		if end < start {
			return nil, nil, false, fmt.Errorf("cached diagnostic %d-%d: %w", cd.Start, cd.End, ErrInvalidRange)
		}
		diags = append(diags, Diagnostic{
			Range:    buffer.AnchorRange{Start: snap.AnchorBefore(start), End: snap.AnchorAfter(end)},
			Severity: Severity(cd.Severity),
			ServerID: ServerID(cd.Server),
			Message:  cd.Message,
			Source:   cd.Source,
			Code:     cd.Code,
		})
	}
	return diags, versions, true, nil
}

// Clear removes every cached entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("list cache: %w", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".mp" {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			return fmt.Errorf("remove cache entry: %w", err)
		}
	}
	return nil
}
