// Package lsp holds language-server diagnostics for one buffer.
//
// Diagnostics arrive as protocol publishes positioned in line and UTF-16
// columns against the text a server last saw. FromProtocol anchors them in
// that snapshot, so later edits move them with the text they describe.
//
// # Components
//
//   - DiagnosticSet: diagnostics ordered by start in a sum tree, with row,
//     range and severity queries and a merge that reconciles servers
//   - Store: a concurrency-safe front for the set that drops publishes
//     older than a server's last applied version
//   - Cache: msgpack snapshots of a store keyed by content hash
//
// # Merging
//
// When two servers report overlapping diagnostics, the more severe one is
// kept. On a tie the diagnostic already present wins. A publish replaces
// everything its server reported before.
//
// # Usage
//
//	store := lsp.NewStore(lsp.WithMinSeverity(lsp.SeverityWarning))
//	store.Sync(buf.Snapshot())
//
//	applied, err := store.Publish(ctx, lsp.Publish{
//	    ServerID:    "rust-analyzer",
//	    Version:     3,
//	    Snapshot:    snapAtRequest,
//	    Diagnostics: params.Diagnostics,
//	})
//
//	for _, d := range store.DiagnosticsForRow(12) {
//	    fmt.Println(d.Severity, d.Message)
//	}
package lsp
