package section

import (
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx"
)

// DeleteInterior removes every paragraph strictly between paras[start] and
// paras[end]; both boundary paragraphs stay. end may equal len(paras) when
// the section runs to the end of the document.
//
// The paragraphs to remove are recorded before the first removal, so the
// result does not depend on how the live body shifts while removing.
// It returns the number of paragraphs removed.
func DeleteInterior(paras []*docx.Paragraph, start, end int) (int, error) {
	if start < 0 || end > len(paras) || end <= start {
		return 0, errors.Errorf("range (%d, %d) over %d paragraphs: %w", start, end, len(paras), ErrInvalidBounds)
	}

	doomed := make([]*docx.Paragraph, end-start-1)
	copy(doomed, paras[start+1:end])

	for i, p := range doomed {
		if err := docx.Remove(p); err != nil {
			return i, errors.Errorf("removing paragraph %d: %w", start+1+i, err)
		}
	}
	return len(doomed), nil
}

// DeleteBounds removes the interior of b.
func DeleteBounds(paras []*docx.Paragraph, b Bounds) (int, error) {
	return DeleteInterior(paras, b.Start, b.End)
}
