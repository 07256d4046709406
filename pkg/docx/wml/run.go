package wml

import (
	"encoding/xml"
	"unicode"
	"unicode/utf8"
)

// Run represents a run of text with common properties
type Run struct {
	Properties *RunProperties
	Text       *Text
}

// MarshalXML implements custom XML marshaling for Run to ensure proper namespacing
func (r Run) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("r")
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if r.Properties != nil {
		if err := e.EncodeElement(r.Properties, xml.StartElement{Name: wName("rPr")}); err != nil {
			return err
		}
	}

	if r.Text != nil {
		if err := e.EncodeElement(r.Text, xml.StartElement{Name: wName("t")}); err != nil {
			return err
		}
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// TextRun builds a run carrying s, marking the text as space-preserving
// when it has leading or trailing whitespace.
func TextRun(s string, props *RunProperties) Run {
	return Run{Properties: props, Text: NewText(s)}
}

// RunProperties are the glyph color and font sizes of a generated run.
type RunProperties struct {
	Color  *Color
	Size   *Size
	SizeCs *Size // Complex script size
}

// MarshalXML implements custom XML marshaling for RunProperties.
// Children follow CT_RPr order: color, sz, szCs.
func (p RunProperties) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("rPr")
	start.Attr = nil
	if err := e.EncodeToken(start); err != nil {
		return err
	}

	if err := encodeOptional(e, p.Color != nil, p.Color, "color"); err != nil {
		return err
	}
	if err := encodeOptional(e, p.Size != nil, p.Size, "sz"); err != nil {
		return err
	}
	if err := encodeOptional(e, p.SizeCs != nil, p.SizeCs, "szCs"); err != nil {
		return err
	}

	return e.EncodeToken(xml.EndElement{Name: start.Name})
}

// Text represents text content
type Text struct {
	Space   string
	Content string
}

// NewText returns a Text for s with xml:space="preserve" set when Word would
// otherwise collapse leading or trailing whitespace.
func NewText(s string) *Text {
	t := &Text{Content: s}
	if s == "" {
		return t
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		t.Space = "preserve"
	}
	return t
}

// MarshalXML implements custom XML marshaling for Text to ensure proper namespacing
func (t Text) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("t")
	start.Attr = nil
	if t.Space == "preserve" {
		// Use the predefined XML namespace
		start.Attr = append(start.Attr, xml.Attr{
			Name:  xml.Name{Space: XMLNamespace, Local: "space"},
			Value: "preserve",
		})
	}
	return e.EncodeElement(t.Content, start)
}
