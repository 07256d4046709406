package wml

import (
	"encoding/xml"
	"strconv"
)

// ParagraphProperties is the w:pPr of a generated paragraph.
type ParagraphProperties struct {
	Borders     *ParagraphBorders
	Spacing     *Spacing
	Indentation *Indentation
}

// MarshalXML writes children in CT_PPr order: pBdr, spacing, ind.
func (p ParagraphProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("pPr")
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if err := encodeOptional(e, p.Borders != nil, p.Borders, "pBdr"); err != nil {
		return err
	}
	if err := encodeOptional(e, p.Spacing != nil, p.Spacing, "spacing"); err != nil {
		return err
	}
	if err := encodeOptional(e, p.Indentation != nil, p.Indentation, "ind"); err != nil {
		return err
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Indentation is the left indent of a paragraph in twips.
type Indentation struct {
	Left int
}

func (i Indentation) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("ind")
	start.Attr = []xml.Attr{{Name: wName("left"), Value: strconv.Itoa(i.Left)}}
	return e.EncodeElement(struct{}{}, start)
}

// Spacing represents paragraph spacing in twips. Before and After are
// pointers so that an explicit zero is written rather than inherited.
type Spacing struct {
	Before   *int
	After    *int
	Line     int
	LineRule string
}

func (s Spacing) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("spacing")
	start.Attr = []xml.Attr{}

	if s.Before != nil {
		start.Attr = append(start.Attr, xml.Attr{Name: wName("before"), Value: strconv.Itoa(*s.Before)})
	}
	if s.After != nil {
		start.Attr = append(start.Attr, xml.Attr{Name: wName("after"), Value: strconv.Itoa(*s.After)})
	}
	if s.Line != 0 {
		start.Attr = append(start.Attr, xml.Attr{Name: wName("line"), Value: strconv.Itoa(s.Line)})
	}
	if s.LineRule != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: wName("lineRule"), Value: s.LineRule})
	}
	return e.EncodeElement(struct{}{}, start)
}

// ParagraphBorders is the w:pBdr container. Only the bottom rule is drawn.
type ParagraphBorders struct {
	Bottom *Border
}

func (b ParagraphBorders) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("pBdr")
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := encodeOptional(e, b.Bottom != nil, b.Bottom, "bottom"); err != nil {
		return err
	}
	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Border represents a single paragraph border line
type Border struct {
	Val   string // line style, e.g. "single", "dotted"
	Size  int    // width in eighths of a point
	Space int    // distance from text in points
	Color string // hex color without '#'
}

// MarshalXML implements custom XML marshaling for Border. The element name
// is supplied by the containing ParagraphBorders.
func (b Border) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = []xml.Attr{
		val(b.Val),
		{Name: wName("sz"), Value: strconv.Itoa(b.Size)},
		{Name: wName("space"), Value: strconv.Itoa(b.Space)},
	}
	if b.Color != "" {
		start.Attr = append(start.Attr, xml.Attr{Name: wName("color"), Value: NormalizeColor(b.Color)})
	}
	return e.EncodeElement(struct{}{}, start)
}
