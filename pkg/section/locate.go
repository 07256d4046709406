package section

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx"
	"github.com/benjaminschreck/go-docsection/pkg/docx/wml"
)

// Matcher reports whether a paragraph is a section boundary.
type Matcher func(p *docx.Paragraph) bool

// Contains matches paragraphs whose text contains marker. The match is a
// case-sensitive substring test.
func Contains(marker string) Matcher {
	return func(p *docx.Paragraph) bool {
		return strings.Contains(p.Text(), marker)
	}
}

// XPath matches paragraphs for which expr, evaluated with the paragraph as
// context node, selects at least one node. The w prefix is bound to the
// WordprocessingML namespace, e.g. .//w:bookmarkStart[@w:name='skills'].
func XPath(expr string) (Matcher, error) {
	compiled, err := xpath.CompileWithNS(expr, map[string]string{"w": wml.Namespace})
	if err != nil {
		return nil, errors.Errorf("invalid xpath expression %q: %w", expr, err)
	}
	return func(p *docx.Paragraph) bool {
		return xmlquery.QuerySelector(p.Node(), compiled) != nil
	}, nil
}

// Anchor is a paragraph that matched a boundary.
type Anchor struct {
	Index     int
	Text      string
	Paragraph *docx.Paragraph
}

// Bounds delimits a section. Start is the index of the header paragraph.
// End is exclusive: the index of the terminator paragraph, or the number of
// paragraphs when the section runs to the end of the document.
type Bounds struct {
	Start      int
	End        int
	Header     *docx.Paragraph
	Terminator *docx.Paragraph
}

// Interior returns the number of paragraphs strictly between the header and
// the terminator.
func (b Bounds) Interior() int {
	return b.End - b.Start - 1
}

// RunsToEnd reports whether no terminator was found.
func (b Bounds) RunsToEnd() bool {
	return b.Terminator == nil
}

// FindAnchor returns the first paragraph at or after from that m matches.
func FindAnchor(paras []*docx.Paragraph, m Matcher, from int) (Anchor, bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(paras); i++ {
		if m(paras[i]) {
			return Anchor{Index: i, Text: paras[i].Text(), Paragraph: paras[i]}, true
		}
	}
	return Anchor{}, false
}

// FindSectionBounds scans paras in order. The header is the first paragraph
// matched by start; the terminator is the first paragraph after it matched
// by end. A nil end, or no match, runs the section to the last paragraph.
// paras is only read, so repeated calls over an unchanged document return
// the same bounds.
func FindSectionBounds(paras []*docx.Paragraph, start, end Matcher) (Bounds, error) {
	if start == nil {
		return Bounds{}, errors.Errorf("no start matcher: %w", ErrInvalidBounds)
	}

	header, ok := FindAnchor(paras, start, 0)
	if !ok {
		return Bounds{}, errors.WithStack(&AnchorError{})
	}

	bounds := Bounds{
		Start:  header.Index,
		End:    len(paras),
		Header: header.Paragraph,
	}
	if end != nil {
		if terminator, ok := FindAnchor(paras, end, header.Index+1); ok {
			bounds.End = terminator.Index
			bounds.Terminator = terminator.Paragraph
		}
	}
	return bounds, nil
}

// FindSectionBoundsText locates a section by text markers. An empty
// endMarker runs the section to the end of the document.
func FindSectionBoundsText(doc *docx.Document, startMarker, endMarker string) (Bounds, error) {
	return findByText(doc.Paragraphs(), startMarker, endMarker)
}

func findByText(paras []*docx.Paragraph, startMarker, endMarker string) (Bounds, error) {
	if startMarker == "" {
		return Bounds{}, errors.Errorf("empty start marker: %w", ErrInvalidBounds)
	}
	var end Matcher
	if endMarker != "" {
		end = Contains(endMarker)
	}
	bounds, err := FindSectionBounds(paras, Contains(startMarker), end)
	if IsAnchorNotFound(err) {
		return Bounds{}, errors.WithStack(&AnchorError{Marker: startMarker})
	}
	return bounds, err
}
