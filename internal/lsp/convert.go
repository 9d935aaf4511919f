package lsp

import (
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/dshills/stoat/internal/engine/buffer"
)

// FromProtocol anchors protocol diagnostics in snap. Positions are
// line/UTF-16 column pairs as the protocol defines them; positions past the
// end of a line or of the text clamp. A range whose end precedes its start
// is rejected with ErrInvalidRange.
//
// The start anchor stays before text inserted at it and the end anchor
// moves past text inserted at it, so the range grows with edits at its
// edges.
func FromProtocol(snap *buffer.Snapshot, server ServerID, diagnostics []protocol.Diagnostic) ([]Diagnostic, error) {
	out := make([]Diagnostic, 0, len(diagnostics))
	for i, pd := range diagnostics {
		start := snap.PointUTF16ToOffset(pointFromProtocol(pd.Range.Start))
		end := snap.PointUTF16ToOffset(pointFromProtocol(pd.Range.End))
		if end < start {
			return nil, fmt.Errorf("diagnostic %d (%s): %w", i, formatProtocolRange(pd.Range), ErrInvalidRange)
		}
		out = append(out, Diagnostic{
			Range:    buffer.AnchorRange{Start: snap.AnchorBefore(start), End: snap.AnchorAfter(end)},
			Severity: severityFromProtocol(pd.Severity),
			ServerID: server,
			Message:  pd.Message,
			Source:   pd.Source,
			Code:     codeString(pd.Code),
		})
	}
	return out, nil
}

// ToProtocol converts d back to a protocol diagnostic against snap.
func ToProtocol(d Diagnostic, snap *buffer.Snapshot) protocol.Diagnostic {
	r := d.Resolve(snap)
	pd := protocol.Diagnostic{
		Range: protocol.Range{
			Start: pointToProtocol(snap.OffsetToPointUTF16(r.Start)),
			End:   pointToProtocol(snap.OffsetToPointUTF16(r.End)),
		},
		Severity: d.Severity.ToProtocol(),
		Source:   d.Source,
		Message:  d.Message,
	}
	if d.Code != "" {
		pd.Code = d.Code
	}
	return pd
}

func pointFromProtocol(p protocol.Position) buffer.PointUTF16 {
	return buffer.PointUTF16{Line: p.Line, Column: p.Character}
}

func pointToProtocol(p buffer.PointUTF16) protocol.Position {
	return protocol.Position{Line: p.Line, Character: p.Column}
}

func formatProtocolRange(r protocol.Range) string {
	return fmt.Sprintf("%d:%d-%d:%d", r.Start.Line, r.Start.Character, r.End.Line, r.End.Character)
}

// codeString flattens the protocol's string-or-number code.
func codeString(code interface{}) string {
	switch c := code.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return fmt.Sprintf("%g", c)
	default:
		return fmt.Sprint(c)
	}
}
