package section

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx"
	"github.com/benjaminschreck/go-docsection/pkg/docx/docxtest"
)

var scenario = []string{"Title", "Connaissances Métier", "old line 1", "old line 2", "COMPETENCES Projet", "Footer"}

// isSeparator reports whether p carries a bottom border and no runs.
func isSeparator(p *docx.Paragraph) bool {
	return len(p.Runs()) == 0 && strings.Contains(p.XML(), `<w:bottom w:val="dotted"`)
}

func countSeparators(doc *docx.Document) int {
	n := 0
	for _, p := range doc.Paragraphs() {
		if isSeparator(p) {
			n++
		}
	}
	return n
}

// bulletTexts returns the item text of every paragraph with three runs.
func bulletTexts(doc *docx.Document) []string {
	var items []string
	for _, p := range doc.Paragraphs() {
		if runs := p.RunTexts(); len(runs) == 3 {
			items = append(items, runs[2])
		}
	}
	return items
}

func TestRewriteScenario(t *testing.T) {
	_, doc, err := docx.Load(docxtest.Document(scenario...))
	require.NoError(t, err)

	res, err := Rewrite(doc, Request{
		StartMarker: "Connaissances Métier",
		EndMarker:   "COMPETENCES Projet",
		Items:       []string{"SQL", "Python"},
	})
	require.NoError(t, err)

	assert.Equal(t, StageFinalized, res.Stage)
	assert.Equal(t, "classic", res.Preset)
	assert.Equal(t, 2, res.Removed)
	require.Len(t, res.Bullets, 2)

	paras := doc.Paragraphs()
	require.Len(t, paras, 7)
	assert.Equal(t, "Title", paras[0].Text())
	assert.Equal(t, "Connaissances Métier", paras[1].Text())
	assert.True(t, isSeparator(paras[2]))
	assert.True(t, paras[2].Is(res.Separator))
	assert.Equal(t, []string{"■", "      ", "SQL"}, paras[3].RunTexts())
	assert.Equal(t, []string{"■", "      ", "Python"}, paras[4].RunTexts())
	assert.Equal(t, "COMPETENCES Projet", paras[5].Text())
	assert.Equal(t, "Footer", paras[6].Text())

	for _, text := range doc.ParagraphTexts() {
		assert.NotContains(t, text, "old line")
	}

	// header tightened, interior and last spacing from the preset
	after, _ := paras[1].SpacingAfter()
	assert.Equal(t, 0, after)
	after, _ = paras[3].SpacingAfter()
	assert.Equal(t, 40, after)
	after, _ = paras[4].SpacingAfter()
	assert.Equal(t, 180, after)

	for _, p := range paras {
		assert.True(t, p.Parent().Is(doc.Body()))
	}
}

func TestRewriteOrderPreservation(t *testing.T) {
	_, doc, err := docx.Load(docxtest.Document(scenario...))
	require.NoError(t, err)

	items := []string{"a", "b", "c", "d", "e"}
	res, err := Rewrite(doc, Request{Items: items})
	require.NoError(t, err)

	assert.Equal(t, items, bulletTexts(doc))
	prev := res.Separator
	for _, bullet := range res.Bullets {
		assert.Equal(t, prev.Node(), bullet.Node().PrevSibling)
		prev = bullet
	}
	assert.Equal(t, res.Bounds.Terminator.Node(), prev.Node().NextSibling)
}

func TestRewriteTwiceReplacesPreviousList(t *testing.T) {
	pkg, doc, err := docx.Load(docxtest.Document(scenario...))
	require.NoError(t, err)

	_, err = Rewrite(doc, Request{Items: []string{"SQL", "Python"}})
	require.NoError(t, err)
	first, err := pkg.Save(doc)
	require.NoError(t, err)

	pkg, doc, err = docx.Load(first)
	require.NoError(t, err)
	res, err := Rewrite(doc, Request{Items: []string{"SQL", "Python"}})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Removed)
	assert.Equal(t, 1, countSeparators(doc))
	assert.Equal(t, []string{"SQL", "Python"}, bulletTexts(doc))
	assert.Len(t, doc.Paragraphs(), 7)

	second, err := pkg.Save(doc)
	require.NoError(t, err)
	_, reloaded, err := docx.Load(second)
	require.NoError(t, err)

	_, once, err := docx.Load(first)
	require.NoError(t, err)
	assert.Equal(t, once.ParagraphTexts(), reloaded.ParagraphTexts())

	// a different list replaces the old one
	_, err = Rewrite(reloaded, Request{Items: []string{"Go"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, bulletTexts(reloaded))
	assert.Equal(t, 1, countSeparators(reloaded))
}

func TestRewriteRunsToEnd(t *testing.T) {
	_, doc, err := docx.Load(docxtest.Document("Title", "Connaissances Métier", "x", "y"))
	require.NoError(t, err)

	res, err := Rewrite(doc, Request{Items: []string{"SQL"}})
	require.NoError(t, err)
	assert.True(t, res.Bounds.RunsToEnd())
	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, []string{"Title", "Connaissances Métier", "", "■      SQL"}, doc.ParagraphTexts())
}

func TestRewriteRejected(t *testing.T) {
	tests := []struct {
		name   string
		texts  []string
		req    Request
		opts   []Option
		stage  Stage
		target error
	}{
		{
			name:   "anchor not found",
			texts:  []string{"Title", "old", "COMPETENCES Projet"},
			req:    Request{Items: []string{"SQL"}},
			stage:  StageBoundsFound,
			target: ErrAnchorNotFound,
		},
		{
			name:   "empty item list",
			texts:  scenario,
			req:    Request{},
			stage:  StageLoaded,
			target: ErrEmptyItemList,
		},
		{
			name:   "unknown preset",
			texts:  scenario,
			req:    Request{Items: []string{"SQL"}, Preset: "baroque"},
			stage:  StageLoaded,
			target: ErrUnknownPreset,
		},
		{
			name:   "matcher without start",
			texts:  scenario,
			req:    Request{Items: []string{"SQL"}},
			opts:   []Option{WithMatchers(Contains("nowhere"), nil)},
			stage:  StageBoundsFound,
			target: ErrAnchorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, doc, err := docx.Load(docxtest.Document(tt.texts...))
			require.NoError(t, err)
			before := doc.Bytes()

			res, err := NewRewriter(tt.opts...).Rewrite(doc, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), err.Error())
			assert.True(t, IsInputError(err))
			assert.Equal(t, StageRejected, res.Stage)

			var rewriteErr *RewriteError
			require.True(t, errors.As(err, &rewriteErr))
			assert.Equal(t, tt.stage, rewriteErr.Stage)

			// nothing was mutated
			assert.Equal(t, before, doc.Bytes())
		})
	}
}

func TestRewriteAnchorMessage(t *testing.T) {
	_, _, err := RewriteBytes(docxtest.Document("Title"), Request{
		StartMarker: "Connaissances Métier",
		Items:       []string{"SQL"},
	})
	require.Error(t, err)

	var anchorErr *AnchorError
	require.True(t, errors.As(err, &anchorErr))
	assert.Equal(t, "'Connaissances Métier' not found", anchorErr.Error())
}

func TestRewriteAllowEmpty(t *testing.T) {
	_, doc, err := docx.Load(docxtest.Document(scenario...))
	require.NoError(t, err)

	res, err := NewRewriter(WithAllowEmpty(true)).Rewrite(doc, Request{})
	require.NoError(t, err)
	assert.Empty(t, res.Bullets)
	assert.Equal(t, []string{"Title", "Connaissances Métier", "", "COMPETENCES Projet", "Footer"}, doc.ParagraphTexts())
	assert.Equal(t, 1, countSeparators(doc))
}

func TestRewriteWithPresetAndMarkers(t *testing.T) {
	_, doc, err := docx.Load(docxtest.Document("Skills", "old", "Projects"))
	require.NoError(t, err)

	rw := NewRewriter(WithPreset("corporate"), WithMarkers("Skills", "Projects"))
	res, err := rw.Rewrite(doc, Request{Items: []string{"Go"}})
	require.NoError(t, err)

	assert.Equal(t, "corporate", res.Preset)
	assert.Equal(t, []string{"•", "   ", "Go"}, res.Bullets[0].RunTexts())
	after, _ := res.Bullets[0].SpacingAfter()
	assert.Equal(t, 60, after)
}

func TestRewriteWithoutHeaderTightening(t *testing.T) {
	registry := NewRegistry()
	loose := Classic
	loose.Name = "loose"
	loose.TightenHeader = false
	require.NoError(t, registry.Register(loose))

	_, doc, err := docx.Load(docxtest.Document(scenario...))
	require.NoError(t, err)

	res, err := NewRewriter(WithPresets(registry)).Rewrite(doc, Request{Items: []string{"SQL"}, Preset: "loose"})
	require.NoError(t, err)

	_, ok := res.Bounds.Header.SpacingAfter()
	assert.False(t, ok)
}

func TestRewriteLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	_, doc, err := docx.Load(docxtest.Document(scenario...))
	require.NoError(t, err)

	_, err = NewRewriter(WithLogger(logger)).Rewrite(doc, Request{Items: []string{"SQL"}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"message":"Section located"`)
	assert.Contains(t, out, `"message":"Section rewritten"`)
	assert.Contains(t, out, `"removed":2`)
}

func TestRewriteBytesRoundTrip(t *testing.T) {
	data := docxtest.Document(scenario...)

	out, res, err := RewriteBytes(data, Request{Items: []string{"SQL", "Python"}})
	require.NoError(t, err)
	assert.Equal(t, StageFinalized, res.Stage)

	_, doc, err := docx.Load(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL", "Python"}, bulletTexts(doc))
	assert.Equal(t, 1, countSeparators(doc))

	// other parts are untouched
	assert.Equal(t, docxtest.ReadPart(data, docxtest.StylesPart), docxtest.ReadPart(out, docxtest.StylesPart))
	assert.Equal(t, docxtest.ReadPart(data, docxtest.ContentTypesPart), docxtest.ReadPart(out, docxtest.ContentTypesPart))
}

func TestRewriteBytesInvalidDocument(t *testing.T) {
	_, res, err := RewriteBytes([]byte("not a docx"), Request{Items: []string{"SQL"}})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, docx.IsDocumentError(err))
	assert.False(t, IsInputError(err))
}

func TestRewriteFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cv.docx")
	out := filepath.Join(dir, "out.docx")
	require.NoError(t, os.WriteFile(in, docxtest.Document(scenario...), 0o644))

	res, err := RewriteFile(in, out, Request{Items: []string{"SQL"}})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Removed)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	_, doc, err := docx.Load(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL"}, bulletTexts(doc))

	// failures leave no output behind
	failed := filepath.Join(dir, "failed.docx")
	_, err = RewriteFile(in, failed, Request{})
	assert.True(t, IsEmptyItemList(err))
	assert.NoFileExists(t, failed)

	_, err = RewriteFile(filepath.Join(dir, "absent.docx"), failed, Request{Items: []string{"SQL"}})
	require.Error(t, err)
	assert.True(t, docx.IsDocumentError(err))
	assert.NoFileExists(t, failed)
}
