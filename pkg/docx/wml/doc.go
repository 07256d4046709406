// Package wml provides typed WordprocessingML structures for building new
// paragraph content.
//
// The structures in this package are write-side only: they marshal to
// WordprocessingML elements carrying the conventional w: prefix, and the
// docx package grafts the result into a loaded document tree. Existing
// content is never decoded into these types, so anything the package does
// not model survives a load/save cycle untouched.
//
// # Structure Organization
//
//   - types.go: shared value types (Color, Size) and Marshal
//   - paragraph.go: ParagraphProperties, Spacing, Indentation,
//     ParagraphBorders and Border
//   - run.go: Run, RunProperties and Text
//   - units.go: point conversions to twips, half points and eighth points
//
// # Element Order
//
// Word rejects property containers whose children are out of schema order.
// Every MarshalXML in this package writes children in the order defined by
// ECMA-376 Part 1 (CT_PPr, CT_RPr), not in struct field order.
//
// # Example
//
//	props := wml.ParagraphProperties{
//	    Indentation: &wml.Indentation{Left: wml.Twips(24)},
//	    Spacing:     &wml.Spacing{After: wml.Int(wml.Twips(2))},
//	}
//	out, err := wml.Marshal(props)
package wml
