package docx

import (
	"io"

	"github.com/antchfx/xmlquery"

	"github.com/benjaminschreck/go-docsection/pkg/docx/wml"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`

type stringWriter interface {
	io.Writer
	io.StringWriter
	io.ByteWriter
}

// xmlWriter serializes an xmlquery tree without reformatting it: no
// indentation is added and attribute order is kept, so parts that Word
// reads positionally survive a load and save unchanged.
type xmlWriter struct {
	buf      stringWriter
	prefixes map[string]string
	// declared keeps the source declaration; otherwise xmlHeader is written
	// in place of the bare one the parser synthesizes.
	declared bool
}

func (w *xmlWriter) writeDocument(root *xmlquery.Node) {
	if !w.declared {
		w.buf.WriteString(xmlHeader)
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if !w.declared && c.Type == xmlquery.DeclarationNode {
			continue
		}
		w.writeNode(c)
	}
}

func (w *xmlWriter) writeNode(n *xmlquery.Node) {
	switch n.Type {
	case xmlquery.DocumentNode:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.writeNode(c)
		}
	case xmlquery.DeclarationNode:
		w.buf.WriteString("<?")
		w.buf.WriteString(n.Data)
		for _, attr := range n.Attr {
			w.buf.WriteByte(' ')
			w.buf.WriteString(attr.Name.Local)
			w.buf.WriteString(`="`)
			w.escapeAttr(attr.Value)
			w.buf.WriteByte('"')
		}
		w.buf.WriteString("?>")
	case xmlquery.TextNode:
		w.escapeText(n.Data)
	case xmlquery.CharDataNode:
		w.buf.WriteString("<![CDATA[")
		w.buf.WriteString(n.Data)
		w.buf.WriteString("]]>")
	case xmlquery.CommentNode:
		w.buf.WriteString("<!--")
		w.buf.WriteString(n.Data)
		w.buf.WriteString("-->")
	case xmlquery.ElementNode:
		name := w.elementName(n)
		w.buf.WriteByte('<')
		w.buf.WriteString(name)
		for _, attr := range n.Attr {
			w.buf.WriteByte(' ')
			w.buf.WriteString(w.attrName(attr))
			w.buf.WriteString(`="`)
			w.escapeAttr(attr.Value)
			w.buf.WriteByte('"')
		}
		if n.FirstChild == nil {
			w.buf.WriteString("/>")
			return
		}
		w.buf.WriteByte('>')
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			w.writeNode(c)
		}
		w.buf.WriteString("</")
		w.buf.WriteString(name)
		w.buf.WriteByte('>')
	}
}

func (w *xmlWriter) elementName(n *xmlquery.Node) string {
	prefix := n.Prefix
	if prefix == "" && n.NamespaceURI != "" {
		if p, ok := w.prefixes[n.NamespaceURI]; ok {
			prefix = p
		} else if n.NamespaceURI == wml.Namespace {
			prefix = "w"
		}
	}
	if prefix == "" {
		return n.Data
	}
	return prefix + ":" + n.Data
}

func (w *xmlWriter) attrName(attr xmlquery.Attr) string {
	space, local := attr.Name.Space, attr.Name.Local
	switch {
	case space == "":
		return local
	case space == "xmlns":
		return "xmlns:" + local
	case space == "xml" || space == wml.XMLNamespace:
		return "xml:" + local
	}
	if p, ok := w.prefixes[space]; ok && p != "" {
		return p + ":" + local
	}
	if space == wml.Namespace {
		return "w:" + local
	}
	return space + ":" + local
}

func (w *xmlWriter) escapeText(s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		case '\r':
			esc = "&#xD;"
		default:
			continue
		}
		w.buf.WriteString(s[last:i])
		w.buf.WriteString(esc)
		last = i + 1
	}
	w.buf.WriteString(s[last:])
}

func (w *xmlWriter) escapeAttr(s string) {
	last := 0
	for i := 0; i < len(s); i++ {
		var esc string
		switch s[i] {
		case '&':
			esc = "&amp;"
		case '<':
			esc = "&lt;"
		case '>':
			esc = "&gt;"
		case '"':
			esc = "&quot;"
		case '\n':
			esc = "&#xA;"
		case '\r':
			esc = "&#xD;"
		case '\t':
			esc = "&#x9;"
		default:
			continue
		}
		w.buf.WriteString(s[last:i])
		w.buf.WriteString(esc)
		last = i + 1
	}
	w.buf.WriteString(s[last:])
}
