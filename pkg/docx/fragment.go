package docx

import (
	"bytes"

	"github.com/antchfx/xmlquery"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx/wml"
)

// parseFragment parses marshalled WordprocessingML elements and returns them
// detached, in document order. The fragment is wrapped in a root element that
// declares the w namespace so that prefixed names resolve.
func parseFragment(data []byte) ([]*xmlquery.Node, error) {
	var buf bytes.Buffer
	buf.WriteString(`<w:fragment xmlns:w="`)
	buf.WriteString(wml.Namespace)
	buf.WriteString(`">`)
	buf.Write(data)
	buf.WriteString(`</w:fragment>`)

	root, err := xmlquery.Parse(&buf)
	if err != nil {
		return nil, errors.Errorf("failed to parse fragment: %w", err)
	}
	wrapper := firstElement(root)
	if wrapper == nil {
		return nil, errors.New("fragment has no root element")
	}

	var nodes []*xmlquery.Node
	for c := wrapper.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == xmlquery.ElementNode {
			xmlquery.RemoveFromTree(c)
			nodes = append(nodes, c)
		}
		c = next
	}
	return nodes, nil
}
