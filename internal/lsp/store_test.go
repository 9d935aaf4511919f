package lsp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.lsp.dev/protocol"

	"github.com/dshills/stoat/internal/engine/buffer"
)

func publish(server ServerID, version uint64, snap *buffer.Snapshot, diags ...protocol.Diagnostic) Publish {
	return Publish{ServerID: server, Version: version, Snapshot: snap, Diagnostics: diags}
}

func pd(l1, c1, l2, c2 uint32, sev protocol.DiagnosticSeverity, msg string) protocol.Diagnostic {
	return protocol.Diagnostic{Range: protoRange(l1, c1, l2, c2), Severity: sev, Message: msg}
}

func messages(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}

func TestStorePublishFollowsEdits(t *testing.T) {
	ctx := context.Background()
	b := buffer.NewBufferFromString("let foo = bar;")
	store := NewStore()

	applied, err := store.Publish(ctx, publish("rust-analyzer", 1, b.Snapshot(),
		pd(0, 10, 0, 13, protocol.DiagnosticSeverityError, "cannot find value `bar`")))
	if err != nil || !applied {
		t.Fatalf("Publish: applied=%v err=%v", applied, err)
	}

	if _, err := b.Insert(0, "// c\n"); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	snap := b.Snapshot()
	store.Sync(snap)

	if got := store.DiagnosticsForRow(0); len(got) != 0 {
		t.Errorf("DiagnosticsForRow(0): expected none, got %v", messages(got))
	}
	got := store.DiagnosticsForRow(1)
	if len(got) != 1 {
		t.Fatalf("DiagnosticsForRow(1): expected 1 diagnostic, got %d", len(got))
	}
	r := ToProtocol(got[0], snap).Range
	if r != protoRange(1, 10, 1, 13) {
		t.Errorf("range: expected 1:10-1:13, got %s", formatProtocolRange(r))
	}
}

func TestStoreVersionGate(t *testing.T) {
	ctx := context.Background()
	snap := buffer.NewSnapshot("let foo = bar;")
	store := NewStore()

	steps := []struct {
		version uint64
		msg     string
		applied bool
		want    string
	}{
		{2, "v2", true, "v2"},
		{1, "v1", false, "v2"},
		{2, "v2 again", true, "v2 again"},
		{5, "v5", true, "v5"},
		{3, "v3", false, "v5"},
	}
	for _, st := range steps {
		applied, err := store.Publish(ctx, publish("s", st.version, snap,
			pd(0, 0, 0, 3, protocol.DiagnosticSeverityError, st.msg)))
		if err != nil {
			t.Fatalf("Publish(v%d): %v", st.version, err)
		}
		if applied != st.applied {
			t.Errorf("Publish(v%d): expected applied=%v, got %v", st.version, st.applied, applied)
		}
		all := store.All()
		if len(all) != 1 || all[0].Message != st.want {
			t.Errorf("after v%d: expected [%s], got %v", st.version, st.want, messages(all))
		}
	}

	if got := store.Stale(); got != 2 {
		t.Errorf("Stale: expected 2, got %d", got)
	}
	if v, ok := store.Version("s"); !ok || v != 5 {
		t.Errorf("Version(s): expected 5, got %d (%v)", v, ok)
	}
}

func TestStoreServersMerge(t *testing.T) {
	ctx := context.Background()
	snap := buffer.NewSnapshot("let foo = bar;")
	store := NewStore()

	n, err := store.PublishAll(ctx,
		publish("server0", 1, snap, pd(0, 4, 0, 7, protocol.DiagnosticSeverityWarning, "unused")),
		publish("server1", 1, snap, pd(0, 4, 0, 7, protocol.DiagnosticSeverityError, "undefined")),
	)
	if err != nil {
		t.Fatalf("PublishAll: %v", err)
	}
	if n != 2 {
		t.Errorf("PublishAll: expected 2 applied, got %d", n)
	}

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("All: expected 1 diagnostic, got %v", messages(all))
	}
	if all[0].Severity != SeverityError || all[0].ServerID != "server1" {
		t.Errorf("survivor: expected error from server1, got %s from %s", all[0].Severity, all[0].ServerID)
	}

	summary := store.Summary()
	if summary.Counts.Errors != 1 || summary.Counts.Total() != 1 {
		t.Errorf("Summary.Counts: expected 1 error, got %+v", summary.Counts)
	}
	if _, ok := summary.ByServer["server0"]; !ok {
		t.Errorf("Summary.ByServer: expected an entry for server0")
	}

	// A new publish from server1 clears its old diagnostics.
	if _, err := store.Publish(ctx, publish("server1", 2, snap)); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := store.All(); len(got) != 0 {
		t.Errorf("after empty publish: expected none, got %v", messages(got))
	}
}

func TestStoreFilters(t *testing.T) {
	ctx := context.Background()
	snap := buffer.NewSnapshot("fn main() { let x = 1; }")

	diags := []protocol.Diagnostic{
		{Range: protoRange(0, 0, 0, 2), Severity: protocol.DiagnosticSeverityHint, Message: "hint", Source: "clippy"},
		{Range: protoRange(0, 3, 0, 7), Severity: protocol.DiagnosticSeverityWarning, Message: "warning", Source: "rustc"},
		{Range: protoRange(0, 16, 0, 17), Severity: protocol.DiagnosticSeverityError, Message: "error", Source: "clippy"},
		{Range: protoRange(0, 20, 0, 21), Severity: protocol.DiagnosticSeverityError, Message: "sourceless"},
	}

	tests := []struct {
		name string
		opts []StoreOption
		want []string
	}{
		{"none", nil, []string{"hint", "warning", "error", "sourceless"}},
		{"min severity", []StoreOption{WithMinSeverity(SeverityWarning)}, []string{"warning", "error", "sourceless"}},
		{"sources", []StoreOption{WithEnabledSources([]string{"rustc"})}, []string{"warning", "sourceless"}},
		{"max per server", []StoreOption{WithMaxPerServer(2)}, []string{"error", "sourceless"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore(tt.opts...)
			if _, err := store.Publish(ctx, publish("s", 1, snap, diags...)); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			got := messages(store.All())
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("All: expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestStoreErrors(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	store.Sync(buffer.NewSnapshot("one"))

	if _, err := store.Publish(ctx, publish("s", 1, nil)); !errors.Is(err, ErrNoSnapshot) {
		t.Errorf("nil snapshot: expected ErrNoSnapshot, got %v", err)
	}
	if _, err := store.Publish(ctx, publish("s", 1, buffer.NewSnapshot("two"))); !errors.Is(err, ErrForeignSnapshot) {
		t.Errorf("other buffer: expected ErrForeignSnapshot, got %v", err)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := store.Publish(cancelled, publish("s", 1, store.Snapshot())); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled: expected context.Canceled, got %v", err)
	}

	bad := pd(0, 2, 0, 1, protocol.DiagnosticSeverityError, "reversed")
	if _, err := store.PublishAll(ctx, publish("s", 1, store.Snapshot(), bad)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("reversed range: expected ErrInvalidRange, got %v", err)
	}
}

func TestStoreConcurrentPublish(t *testing.T) {
	ctx := context.Background()
	snap := buffer.NewSnapshot("let foo = bar;\nlet baz = qux;")
	var changes int
	var mu sync.Mutex
	store := NewStore(WithChangeHandler(func(ServerID) {
		mu.Lock()
		changes++
		mu.Unlock()
	}))

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				version := uint64(i*workers + w)
				p := publish("s", version, snap,
					pd(uint32(version%2), 0, uint32(version%2), 3, protocol.DiagnosticSeverityError, fmt.Sprintf("v%d", version)))
				if _, err := store.Publish(ctx, p); err != nil {
					t.Errorf("Publish(v%d): %v", version, err)
				}
			}
		}(w)
	}
	wg.Wait()

	last := uint64(workers*perWorker - 1)
	if v, _ := store.Version("s"); v != last {
		t.Errorf("Version: expected %d, got %d", last, v)
	}
	all := store.All()
	if len(all) != 1 || all[0].Message != fmt.Sprintf("v%d", last) {
		t.Errorf("All: expected [v%d], got %v", last, messages(all))
	}
	mu.Lock()
	defer mu.Unlock()
	if changes+store.Stale() != workers*perWorker {
		t.Errorf("applied+stale: expected %d, got %d+%d", workers*perWorker, changes, store.Stale())
	}
}
