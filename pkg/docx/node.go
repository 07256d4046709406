package docx

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx/wml"
)

// Paragraph is a handle on a w:p element. Two handles are the same paragraph
// when they wrap the same node; see Is.
type Paragraph struct {
	node *xmlquery.Node
	// fresh is set by NewParagraph and cleared on the first attach.
	fresh bool
}

// NewParagraph returns an empty paragraph that is not attached to any body.
// It is the only kind of paragraph InsertAfter will attach.
func NewParagraph() *Paragraph {
	return &Paragraph{node: newElement("w", "p"), fresh: true}
}

// Node returns the underlying w:p node.
func (p *Paragraph) Node() *xmlquery.Node {
	return p.node
}

// Is reports whether p and other are handles on the same paragraph.
func (p *Paragraph) Is(other *Paragraph) bool {
	return p != nil && other != nil && p.node == other.node
}

// Parent returns the body p is attached to, or nil when p is detached.
// The body is a navigation handle; it does not keep p alive.
func (p *Paragraph) Parent() *Body {
	if p.node.Parent == nil {
		return nil
	}
	return &Body{node: p.node.Parent}
}

// Attached reports whether p is currently a child of a container.
func (p *Paragraph) Attached() bool {
	return p.node.Parent != nil
}

// InsertAfter attaches p as the immediate next sibling of ref. Siblings that
// followed ref keep their relative order after p. p must come from
// NewParagraph; a paragraph that was removed cannot be attached again.
func InsertAfter(ref, p *Paragraph) error {
	if ref == nil || ref.node.Parent == nil {
		return errors.WithStack(ErrDetachedReference)
	}
	if p == nil {
		return errors.New("paragraph is nil")
	}
	if p.node.Parent != nil {
		return errors.WithStack(ErrAttached)
	}
	if !p.fresh {
		return errors.WithStack(ErrDetachedReference)
	}
	adoptPrefix(p.node, ref.node.Prefix)
	linkAfter(ref.node, p.node)
	p.fresh = false
	return nil
}

// Remove detaches p from its parent. The parent and sibling links of p are
// cleared, so a removed paragraph can serve neither as an insertion
// reference nor as a paragraph to insert.
func Remove(p *Paragraph) error {
	if p == nil || p.node.Parent == nil {
		return errors.WithStack(ErrDetachedReference)
	}
	xmlquery.RemoveFromTree(p.node)
	p.node.Parent = nil
	p.node.PrevSibling = nil
	p.node.NextSibling = nil
	return nil
}

// Text returns the visible text of the paragraph: the concatenation of its
// w:t descendants, with w:tab as "\t" and w:br/w:cr as "\n". Drawings and
// text boxes are skipped.
func (p *Paragraph) Text() string {
	var b strings.Builder
	collectText(p.node, &b)
	return b.String()
}

func collectText(n *xmlquery.Node, b *strings.Builder) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != xmlquery.ElementNode {
			continue
		}
		switch c.Data {
		case "t":
			if isW(c, "t") {
				b.WriteString(c.InnerText())
			}
		case "tab":
			b.WriteByte('\t')
		case "br", "cr":
			b.WriteByte('\n')
		case "pPr", "rPr", "drawing", "pict", "object", "txbxContent", "AlternateContent":
			// no visible paragraph text
		default:
			collectText(c, b)
		}
	}
}

// RunTexts returns the text of each direct w:r child in order.
func (p *Paragraph) RunTexts() []string {
	var texts []string
	for _, r := range p.Runs() {
		var b strings.Builder
		collectText(r, &b)
		texts = append(texts, b.String())
	}
	return texts
}

// Runs returns the direct w:r children of the paragraph.
func (p *Paragraph) Runs() []*xmlquery.Node {
	var runs []*xmlquery.Node
	for c := p.node.FirstChild; c != nil; c = c.NextSibling {
		if isW(c, "r") {
			runs = append(runs, c)
		}
	}
	return runs
}

// Properties returns the w:pPr element, or nil.
func (p *Paragraph) Properties() *xmlquery.Node {
	return childElement(p.node, "pPr")
}

// SetProperties replaces the paragraph properties with props.
func (p *Paragraph) SetProperties(props wml.ParagraphProperties) error {
	data, err := wml.Marshal(props)
	if err != nil {
		return err
	}
	nodes, err := parseFragment(data)
	if err != nil {
		return err
	}
	if len(nodes) != 1 {
		return errors.Errorf("expected one pPr element, got %d", len(nodes))
	}
	pPr := nodes[0]
	adoptPrefix(pPr, p.node.Prefix)

	if existing := p.Properties(); existing != nil {
		xmlquery.RemoveFromTree(existing)
	}
	prependChild(p.node, pPr)
	return nil
}

// AppendRun appends r as the last child of the paragraph.
func (p *Paragraph) AppendRun(r wml.Run) error {
	data, err := wml.Marshal(r)
	if err != nil {
		return err
	}
	nodes, err := parseFragment(data)
	if err != nil {
		return err
	}
	for _, n := range nodes {
		adoptPrefix(n, p.node.Prefix)
		xmlquery.AddChild(p.node, n)
	}
	return nil
}

// spacingSuccessors are the CT_PPr children that must follow w:spacing.
var spacingSuccessors = map[string]bool{
	"ind": true, "contextualSpacing": true, "mirrorIndents": true,
	"suppressOverlap": true, "jc": true, "textDirection": true,
	"textAlignment": true, "textboxTightWrap": true, "outlineLvl": true,
	"divId": true, "cnfStyle": true, "rPr": true, "sectPr": true,
	"pPrChange": true,
}

// SetSpacingAfter sets w:pPr/w:spacing/@w:after, creating the elements when
// missing and leaving every other property untouched.
func (p *Paragraph) SetSpacingAfter(twips int) {
	prefix := p.node.Prefix
	pPr := p.Properties()
	if pPr == nil {
		pPr = newElement(prefix, "pPr")
		prependChild(p.node, pPr)
	}

	spacing := childElement(pPr, "spacing")
	if spacing == nil {
		spacing = newElement(prefix, "spacing")
		var successor *xmlquery.Node
		for c := pPr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && spacingSuccessors[c.Data] {
				successor = c
				break
			}
		}
		if successor != nil {
			linkBefore(successor, spacing)
		} else {
			xmlquery.AddChild(pPr, spacing)
		}
	}

	// afterAutospacing and afterLines both take precedence over after in Word.
	removeAttr(spacing, "afterAutospacing")
	removeAttr(spacing, "afterLines")
	setAttr(spacing, prefix, "after", strconv.Itoa(twips))
}

// SpacingAfter returns w:pPr/w:spacing/@w:after when it is set.
func (p *Paragraph) SpacingAfter() (int, bool) {
	pPr := p.Properties()
	if pPr == nil {
		return 0, false
	}
	spacing := childElement(pPr, "spacing")
	if spacing == nil {
		return 0, false
	}
	v, ok := attrValue(spacing, "after")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// XML returns the serialized paragraph element.
func (p *Paragraph) XML() string {
	var buf strings.Builder
	xw := &xmlWriter{buf: &buf}
	xw.writeNode(p.node)
	return buf.String()
}

func newElement(prefix, local string) *xmlquery.Node {
	return &xmlquery.Node{
		Type:         xmlquery.ElementNode,
		Data:         local,
		Prefix:       prefix,
		NamespaceURI: wml.Namespace,
	}
}

func linkAfter(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.PrevSibling = ref
	n.NextSibling = ref.NextSibling
	if ref.NextSibling != nil {
		ref.NextSibling.PrevSibling = n
	} else {
		ref.Parent.LastChild = n
	}
	ref.NextSibling = n
}

func linkBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.NextSibling = ref
	n.PrevSibling = ref.PrevSibling
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}

func prependChild(parent, n *xmlquery.Node) {
	if parent.FirstChild == nil {
		xmlquery.AddChild(parent, n)
		return
	}
	linkBefore(parent.FirstChild, n)
}

// adoptPrefix rewrites WordprocessingML element and attribute prefixes in
// the subtree rooted at n to prefix.
func adoptPrefix(n *xmlquery.Node, prefix string) {
	if prefix == "" || n.Prefix == prefix {
		return
	}
	var walk func(*xmlquery.Node)
	walk = func(n *xmlquery.Node) {
		if n.Type == xmlquery.ElementNode && n.NamespaceURI == wml.Namespace {
			n.Prefix = prefix
			for i := range n.Attr {
				if n.Attr[i].NamespaceURI == wml.Namespace || n.Attr[i].Name.Space == "w" {
					n.Attr[i].Name.Space = prefix
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
}

func attrValue(n *xmlquery.Node, local string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Name.Local == local {
			return attr.Value, true
		}
	}
	return "", false
}

func setAttr(n *xmlquery.Node, prefix, local, value string) {
	for i := range n.Attr {
		if n.Attr[i].Name.Local == local {
			n.Attr[i].Value = value
			return
		}
	}
	attr := xmlquery.Attr{Value: value, NamespaceURI: wml.Namespace}
	attr.Name.Space = prefix
	attr.Name.Local = local
	n.Attr = append(n.Attr, attr)
}

func removeAttr(n *xmlquery.Node, local string) {
	attrs := n.Attr[:0]
	for _, attr := range n.Attr {
		if attr.Name.Local != local {
			attrs = append(attrs, attr)
		}
	}
	n.Attr = attrs
}
