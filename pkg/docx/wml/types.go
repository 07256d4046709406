package wml

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// Namespace is the WordprocessingML main namespace.
const Namespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// XMLNamespace is the predefined namespace bound to the xml prefix.
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Color represents text color as a six digit hex value without '#'
type Color struct {
	Val string
}

// MarshalXML implements custom XML marshaling for Color
func (c Color) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name = wName("color")
	start.Attr = []xml.Attr{val(NormalizeColor(c.Val))}
	return e.EncodeElement(struct{}{}, start)
}

// Size represents a font size in half points
type Size struct {
	Val int
}

// MarshalXML implements custom XML marshaling for Size
func (s Size) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	// Ensure the element has the w: prefix if it doesn't already
	if !strings.HasPrefix(start.Name.Local, "w:") {
		start.Name.Local = "w:" + start.Name.Local
	}
	start.Attr = []xml.Attr{val(fmt.Sprintf("%d", s.Val))}
	return e.EncodeElement(struct{}{}, start)
}

// Marshal encodes v as WordprocessingML without an XML declaration.
func Marshal(v interface{}) ([]byte, error) {
	out, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %T: %w", v, err)
	}
	return out, nil
}

// NormalizeColor strips a leading '#' and upper-cases a hex color.
func NormalizeColor(c string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(c), "#"))
}

// Int returns a pointer to v. Spacing uses pointers so an explicit zero
// can be written.
func Int(v int) *int {
	return &v
}

func wName(local string) xml.Name {
	return xml.Name{Local: "w:" + local}
}

func val(v string) xml.Attr {
	return xml.Attr{Name: wName("val"), Value: v}
}

// encodeOptional encodes v under name when present is true.
func encodeOptional(e *xml.Encoder, present bool, v interface{}, name string) error {
	if !present {
		return nil
	}
	return e.EncodeElement(v, xml.StartElement{Name: wName(name)})
}
