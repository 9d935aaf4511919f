// Package display maps buffer positions to screen positions.
//
// A DisplayMap chains five layers, each with its own point type:
//
//	buffer.Point -> InlayPoint -> FoldPoint -> TabPoint -> WrapPoint -> BlockPoint (DisplayPoint)
//
// InlayMap inserts visual-only text such as type hints. FoldMap collapses
// folded ranges to a placeholder. TabMap expands tabs and measures runes
// in terminal cells. WrapMap soft wraps long rows. BlockMap inserts
// decoration rows that correspond to no buffer text.
//
// Every layer maps both ways. Positions inside synthetic text (an inlay,
// a placeholder, a tab's expansion or a block) map back to the start of
// that region.
//
// Edits travel through the layers as row ranges. Each layer rewrites the
// rows an Edit names, translates it into its own rows and hands it to the
// next layer, so cached rows outside an edit survive.
//
// # Usage
//
//	dm := display.NewDisplayMap(buf.Snapshot(), display.WithTabWidth(4))
//	patches, _ := buf.ApplyEdits(edits)
//	if _, err := dm.Sync(buf.Snapshot(), patches); err != nil {
//		return err
//	}
//	p := dm.ToDisplayPoint(buffer.Point{Line: 3, Column: 2})
package display
