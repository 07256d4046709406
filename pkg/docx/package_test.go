package docx

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx/docxtest"
)

func TestOpenBytes(t *testing.T) {
	data := docxtest.Document("Hello", "World")

	pkg, err := OpenBytes(data)
	require.NoError(t, err)

	assert.Equal(t, MainDocumentPart, pkg.MainPart())
	assert.Equal(t, []string{
		docxtest.ContentTypesPart,
		docxtest.RelationshipsPart,
		docxtest.DocumentPart,
		docxtest.DocumentRelsPart,
		docxtest.StylesPart,
	}, pkg.ListParts())

	rels, err := pkg.Relationships(MainDocumentPart)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "styles.xml", rels[0].Target)
}

func TestOpenResolvesMainPartFromRelationships(t *testing.T) {
	data := docxtest.Build(map[string]string{
		docxtest.RelationshipsPart: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="/word/document2.xml"/>
</Relationships>`,
		"word/document2.xml": docxtest.DocumentXML(docxtest.Paragraphs("Relocated")),
	})

	pkg, doc, err := Load(data)
	require.NoError(t, err)
	assert.Equal(t, "word/document2.xml", pkg.MainPart())
	assert.Equal(t, []string{"Relocated"}, doc.ParagraphTexts())
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{
			name: "not a zip",
			data: []byte("plain text"),
		},
		{
			name: "zip without main part",
			data: func() []byte {
				var buf bytes.Buffer
				w := zip.NewWriter(&buf)
				f, _ := w.Create("hello.txt")
				_, _ = f.Write([]byte("hi"))
				_ = w.Close()
				return buf.Bytes()
			}(),
			target: ErrNotDocx,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenBytes(tt.data)
			require.Error(t, err)
			assert.True(t, IsDocumentError(err))
			if tt.target != nil {
				assert.True(t, errors.Is(err, tt.target))
			}
		})
	}
}

func TestDocumentWithoutBody(t *testing.T) {
	data := docxtest.Build(map[string]string{
		docxtest.DocumentPart: `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"></w:document>`,
	})

	_, _, err := Load(data)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoBody))
}

func TestPartNotFound(t *testing.T) {
	pkg, err := OpenBytes(docxtest.Document("x"))
	require.NoError(t, err)

	_, err = pkg.Part("word/missing.xml")
	assert.True(t, errors.Is(err, ErrPartNotFound))
}

func TestSaveRoundTrip(t *testing.T) {
	texts := []string{"Title", "Connaissances Métier", "old line 1", "  indented  ", "R&D <team>", "Footer"}
	data := docxtest.Document(texts...)

	pkg, doc, err := Load(data)
	require.NoError(t, err)

	out, err := pkg.Save(doc)
	require.NoError(t, err)

	_, reloaded, err := Load(out)
	require.NoError(t, err)
	assert.Equal(t, texts, reloaded.ParagraphTexts())

	// parts that are not rewritten are copied unchanged
	for _, part := range []string{docxtest.ContentTypesPart, docxtest.RelationshipsPart, docxtest.DocumentRelsPart, docxtest.StylesPart} {
		assert.Equal(t, docxtest.ReadPart(data, part), docxtest.ReadPart(out, part), part)
	}

	outPkg, err := OpenBytes(out)
	require.NoError(t, err)
	assert.Equal(t, pkg.ListParts(), outPkg.ListParts())
}

func TestSaveNilDocumentCopiesPackage(t *testing.T) {
	data := docxtest.Document("unchanged")
	pkg, err := OpenBytes(data)
	require.NoError(t, err)

	out, err := pkg.Save(nil)
	require.NoError(t, err)
	assert.Equal(t, docxtest.ReadPart(data, docxtest.DocumentPart), docxtest.ReadPart(out, docxtest.DocumentPart))
}
