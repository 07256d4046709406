package section

import (
	"github.com/benjaminschreck/go-docsection/pkg/docx"
)

// InsertAfter creates an empty paragraph, attaches it as the immediate next
// sibling of ref and returns it. It fails with ErrDetachedReference when ref
// is not attached to a body.
func InsertAfter(ref *docx.Paragraph) (*docx.Paragraph, error) {
	p := docx.NewParagraph()
	if err := docx.InsertAfter(ref, p); err != nil {
		return nil, err
	}
	return p, nil
}
