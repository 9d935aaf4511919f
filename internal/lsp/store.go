package lsp

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"go.lsp.dev/protocol"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/stoat/internal/engine/buffer"
)

// Publish is one diagnostics notification from a server. Snapshot is the
// buffer state the server computed the diagnostics for; Version increases
// with every publish of that server.
type Publish struct {
	ServerID    ServerID
	Version     uint64
	Snapshot    *buffer.Snapshot
	Diagnostics []protocol.Diagnostic
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMinSeverity drops diagnostics less severe than severity.
func WithMinSeverity(severity Severity) StoreOption {
	return func(s *Store) {
		s.minSeverity = severity
	}
}

// WithEnabledSources keeps only diagnostics from the given sources.
// Diagnostics without a source are always kept.
func WithEnabledSources(sources []string) StoreOption {
	return func(s *Store) {
		s.enabledSources = make(map[string]bool, len(sources))
		for _, src := range sources {
			s.enabledSources[src] = true
		}
	}
}

// WithMaxPerServer limits how many diagnostics one publish may keep. The
// most severe diagnostics win, then the earliest.
func WithMaxPerServer(n int) StoreOption {
	return func(s *Store) {
		s.maxPerServer = n
	}
}

// WithChangeHandler sets a callback run after a publish was applied. It
// runs outside the store lock.
func WithChangeHandler(handler func(server ServerID)) StoreOption {
	return func(s *Store) {
		s.onChange = handler
	}
}

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store reconciles asynchronous publishes from several servers into one
// DiagnosticSet. Each server's publishes are gated by version: a publish
// older than the last applied one for its server is dropped.
//
// Conversion from protocol positions happens outside the lock against the
// snapshot captured with the publish; only the version check and the merge
// hold it.
type Store struct {
	mu       sync.RWMutex
	set      *DiagnosticSet
	snap     *buffer.Snapshot
	versions map[ServerID]uint64
	stale    int

	minSeverity    Severity
	enabledSources map[string]bool // nil means all enabled
	maxPerServer   int
	onChange       func(server ServerID)
	logger         *slog.Logger
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		set:         NewDiagnosticSet(),
		versions:    make(map[ServerID]uint64),
		minSeverity: SeverityHint,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Sync records the newest buffer snapshot. Queries resolve against it.
func (s *Store) Sync(snap *buffer.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observe(snap)
}

func (s *Store) observe(snap *buffer.Snapshot) {
	if s.snap == nil || snap.Version() > s.snap.Version() {
		s.snap = snap
	}
}

// Snapshot returns the newest snapshot seen, or nil.
func (s *Store) Snapshot() *buffer.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Publish converts and applies one publish. It reports whether the publish
// was applied; a stale publish is not an error.
func (s *Store) Publish(ctx context.Context, p Publish) (bool, error) {
	diags, err := s.convert(ctx, p)
	if err != nil {
		return false, err
	}
	return s.apply(ctx, p, diags)
}

// PublishAll converts publishes concurrently, then applies them one by one
// in argument order. It returns how many were applied. On a conversion
// error nothing is applied.
func (s *Store) PublishAll(ctx context.Context, pubs ...Publish) (int, error) {
	converted := make([][]Diagnostic, len(pubs))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range pubs {
		g.Go(func() error {
			diags, err := s.convert(gctx, p)
			if err != nil {
				return err
			}
			converted[i] = diags
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	applied := 0
	for i, p := range pubs {
		ok, err := s.apply(ctx, p, converted[i])
		if err != nil {
			return applied, err
		}
		if ok {
			applied++
		}
	}
	return applied, nil
}

// convert anchors and filters a publish. It does not touch store state
// beyond the read-only configuration.
func (s *Store) convert(ctx context.Context, p Publish) ([]Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.Snapshot == nil {
		return nil, fmt.Errorf("publish from %s: %w", p.ServerID, ErrNoSnapshot)
	}
	diags, err := FromProtocol(p.Snapshot, p.ServerID, p.Diagnostics)
	if err != nil {
		return nil, fmt.Errorf("publish from %s v%d: %w", p.ServerID, p.Version, err)
	}
	return s.filter(diags), nil
}

// filter applies the severity, source and count limits.
func (s *Store) filter(diags []Diagnostic) []Diagnostic {
	kept := diags[:0]
	for _, d := range diags {
		// Lower number = higher severity.
		if d.Severity > s.minSeverity {
			continue
		}
		if s.enabledSources != nil && d.Source != "" && !s.enabledSources[d.Source] {
			continue
		}
		kept = append(kept, d)
	}
	if s.maxPerServer > 0 && len(kept) > s.maxPerServer {
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].Severity < kept[j].Severity
		})
		kept = kept[:s.maxPerServer]
	}
	return kept
}

func (s *Store) apply(ctx context.Context, p Publish, diags []Diagnostic) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.snap != nil && s.snap.ID() != p.Snapshot.ID() {
		s.mu.Unlock()
		return false, fmt.Errorf("publish from %s: %w", p.ServerID, ErrForeignSnapshot)
	}
	if last, ok := s.versions[p.ServerID]; ok && p.Version < last {
		s.stale++
		s.mu.Unlock()
		s.logger.Debug("dropped stale diagnostics publish",
			"server", p.ServerID, "version", p.Version, "applied", last)
		return false, nil
	}

	s.observe(p.Snapshot)
	s.versions[p.ServerID] = p.Version
	s.set.RemoveByServer(p.ServerID)
	s.set.MergeWith(NewDiagnosticSetFrom(diags, p.Snapshot), s.snap)
	total := s.set.Len()
	handler := s.onChange
	s.mu.Unlock()

	s.logger.Debug("applied diagnostics publish",
		"server", p.ServerID, "version", p.Version, "diagnostics", len(diags), "total", total)
	if handler != nil {
		handler(p.ServerID)
	}
	return true, nil
}

// Clear removes the diagnostics of server. Its version gate is kept.
func (s *Store) Clear(server ServerID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.RemoveByServer(server)
}

// Version returns the last applied version of server.
func (s *Store) Version(server ServerID) (uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[server]
	return v, ok
}

// Stale returns how many publishes were dropped by the version gate.
func (s *Store) Stale() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// All returns every diagnostic in start order.
func (s *Store) All() []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.All()
}

// DiagnosticsForRow returns the diagnostics touching row of the newest
// snapshot.
func (s *Store) DiagnosticsForRow(row uint32) []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil
	}
	return s.set.DiagnosticsForRow(row, s.snap)
}

// DiagnosticsInRange returns the diagnostics overlapping [start, end] of
// the newest snapshot.
func (s *Store) DiagnosticsInRange(start, end buffer.ByteOffset) []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil
	}
	return s.set.DiagnosticsInRange(start, end, s.snap)
}

// StoreSummary provides an overview of the store.
type StoreSummary struct {
	Counts   SeverityCounts
	ByServer map[ServerID]SeverityCounts
	Stale    int
}

// Summary returns counts overall and per server.
func (s *Store) Summary() StoreSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := StoreSummary{
		ByServer: make(map[ServerID]SeverityCounts, len(s.versions)),
		Stale:    s.stale,
	}
	for server := range s.versions {
		summary.ByServer[server] = SeverityCounts{}
	}
	for _, d := range s.set.All() {
		summary.Counts.Add(d.Severity)
		c := summary.ByServer[d.ServerID]
		c.Add(d.Severity)
		summary.ByServer[d.ServerID] = c
	}
	return summary
}

// SaveCache writes the store contents for the newest snapshot.
func (s *Store) SaveCache(c *Cache) error {
	s.mu.RLock()
	snap := s.snap
	diags := s.set.All()
	versions := make(map[ServerID]uint64, len(s.versions))
	for server, v := range s.versions {
		versions[server] = v
	}
	s.mu.RUnlock()

	if snap == nil {
		return ErrNoSnapshot
	}
	return c.Put(snap, diags, versions)
}

// LoadCache replaces the store contents with the entry cached for snap's
// text. It reports whether an entry was found. Server versions from the
// cache seed the version gate.
func (s *Store) LoadCache(c *Cache, snap *buffer.Snapshot) (bool, error) {
	diags, versions, ok, err := c.Get(snap)
	if err != nil || !ok {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil && s.snap.ID() != snap.ID() {
		return false, ErrForeignSnapshot
	}
	s.observe(snap)
	s.set = NewDiagnosticSetFrom(diags, snap)
	s.versions = versions
	s.logger.Debug("restored cached diagnostics", "diagnostics", len(diags), "servers", len(versions))
	return true, nil
}
