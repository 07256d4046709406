package docx

import (
	"bytes"
	"io"

	"github.com/antchfx/xmlquery"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx/wml"
)

// Document is the parsed main document part. It owns its node tree for its
// whole lifetime and must not be shared between concurrent callers.
type Document struct {
	root *xmlquery.Node
	body *Body

	// namespace URI -> prefix, gathered from every xmlns declaration in the part
	prefixes map[string]string
	// declared is true when the source bytes carry their own XML declaration
	declared bool
}

// Body is the w:body container that paragraphs are attached to.
type Body struct {
	node *xmlquery.Node
}

// Parse parses a main document part.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Errorf("failed to parse document XML: %w", err)
	}

	doc := &Document{
		root:     root,
		prefixes: make(map[string]string),
		declared: hasDeclaration(data),
	}
	collectPrefixes(root, doc.prefixes)

	documentElement := firstElement(root)
	if documentElement == nil || documentElement.Data != "document" {
		return nil, errors.WithStack(ErrNoBody)
	}
	body := childElement(documentElement, "body")
	if body == nil {
		return nil, errors.WithStack(ErrNoBody)
	}
	doc.body = &Body{node: body}

	return doc, nil
}

// hasDeclaration reports whether data starts with an XML declaration, after
// an optional byte order mark and leading whitespace.
func hasDeclaration(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(data, []byte("<?xml"))
}

// Body returns the document body.
func (d *Document) Body() *Body {
	return d.body
}

// Paragraphs returns a snapshot of the body-level paragraphs in order.
// The slice is not updated by later mutations.
func (d *Document) Paragraphs() []*Paragraph {
	return d.body.Paragraphs()
}

// ParagraphTexts returns the text of every body-level paragraph in order.
func (d *Document) ParagraphTexts() []string {
	paras := d.Paragraphs()
	texts := make([]string, len(paras))
	for i, p := range paras {
		texts[i] = p.Text()
	}
	return texts
}

// WriteTo serializes the document part to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	xw := &xmlWriter{buf: &buf, prefixes: d.prefixes, declared: d.declared}
	xw.writeDocument(d.root)
	return buf.WriteTo(w)
}

// Bytes returns the serialized document part.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.Bytes()
}

// Paragraphs returns a snapshot of the direct w:p children of the body.
func (b *Body) Paragraphs() []*Paragraph {
	var paras []*Paragraph
	for n := b.node.FirstChild; n != nil; n = n.NextSibling {
		if isW(n, "p") {
			paras = append(paras, &Paragraph{node: n})
		}
	}
	return paras
}

// Node returns the underlying w:body node.
func (b *Body) Node() *xmlquery.Node {
	return b.node
}

// Is reports whether b and other refer to the same body element.
func (b *Body) Is(other *Body) bool {
	return b != nil && other != nil && b.node == other.node
}

func collectPrefixes(n *xmlquery.Node, prefixes map[string]string) {
	for ; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			for _, attr := range n.Attr {
				switch {
				case attr.Name.Space == "xmlns":
					if _, seen := prefixes[attr.Value]; !seen {
						prefixes[attr.Value] = attr.Name.Local
					}
				case attr.Name.Space == "" && attr.Name.Local == "xmlns":
					if _, seen := prefixes[attr.Value]; !seen {
						prefixes[attr.Value] = ""
					}
				}
			}
		}
		if n.FirstChild != nil {
			collectPrefixes(n.FirstChild, prefixes)
		}
	}
}

// isW reports whether n is the WordprocessingML element named local.
func isW(n *xmlquery.Node, local string) bool {
	if n == nil || n.Type != xmlquery.ElementNode || n.Data != local {
		return false
	}
	return n.NamespaceURI == wml.Namespace || (n.NamespaceURI == "" && n.Prefix == "w")
}

func firstElement(n *xmlquery.Node) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			return c
		}
	}
	return nil
}

func childElement(n *xmlquery.Node, local string) *xmlquery.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isW(c, local) {
			return c
		}
	}
	return nil
}
