// Package section rewrites an anchored section of a DOCX document.
//
// A section starts at the first paragraph whose text contains a start
// marker and ends before the first later paragraph containing an end
// marker, or at the end of the document. Rewriting deletes every paragraph
// strictly between the two, then inserts after the header a dotted
// separator and one bullet paragraph per item, in item order.
//
// # Quick Start
//
//	out, res, err := section.RewriteBytes(data, section.Request{
//	    StartMarker: "Connaissances Métier",
//	    EndMarker:   "COMPETENCES Projet",
//	    Items:       []string{"SQL", "Python"},
//	})
//	if err != nil {
//	    var anchor *section.AnchorError
//	    if errors.As(err, &anchor) {
//	        // the header is missing from the document
//	    }
//	    return err
//	}
//	fmt.Println(res.Removed, len(res.Bullets))
//
// # Pipeline
//
// A Rewriter moves through fixed stages:
//
//	loaded -> bounds found -> interior cleared -> separator inserted
//	       -> bullets inserted -> finalized
//
// Items and preset are checked before the document is touched. Any later
// failure returns a *RewriteError naming the stage that was not reached;
// the document is then in an unspecified state and must be discarded.
//
// # Anchors
//
// Boundaries are Matchers. Contains gives the text substring match; XPath
// matches on markup, for example a bookmark:
//
//	start, _ := section.XPath(".//w:bookmarkStart[@w:name='skills']")
//	rw := section.NewRewriter(section.WithMatchers(start, section.Contains("Projects")))
//
// # Presets
//
// Formatting comes from a Preset: indent, glyph, glyph color and size, text
// size, line spacing, interior and last-item spacing, and the separator
// rule. Built-in presets are classic, compact, airy and corporate; a
// Registry adds presets from YAML files and can reload them on change:
//
//	name: wide
//	base: corporate
//	left_indent: 48
//	last_item_space_after: 6
//
// # Re-running
//
// Rewriting an already rewritten document replaces the previous separator
// and bullets, since they lie between the same markers.
package section
