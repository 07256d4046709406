// Package docxtest builds small DOCX packages in memory for tests.
// These should not be used in production code.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"sort"
	"strings"
)

const (
	ContentTypesPart  = "[Content_Types].xml"
	RelationshipsPart = "_rels/.rels"
	DocumentPart      = "word/document.xml"
	DocumentRelsPart  = "word/_rels/document.xml.rels"
	StylesPart        = "word/styles.xml"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
  <Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

// Styles is the styles part written by Build unless overridden.
const Styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/></w:style>
</w:styles>`

// Paragraph returns a body-level paragraph with a single run carrying text.
func Paragraph(text string) string {
	var b strings.Builder
	b.WriteString("<w:p><w:r><w:t")
	if strings.TrimSpace(text) != text {
		b.WriteString(` xml:space="preserve"`)
	}
	b.WriteString(">")
	_ = xml.EscapeText(&b, []byte(text))
	b.WriteString("</w:t></w:r></w:p>")
	return b.String()
}

// Paragraphs returns one Paragraph per text, concatenated.
func Paragraphs(texts ...string) string {
	var b strings.Builder
	for _, t := range texts {
		b.WriteString(Paragraph(t))
	}
	return b.String()
}

// DocumentXML wraps body content in a main document part.
func DocumentXML(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <w:body>` + body + `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body>
</w:document>`
}

// Document returns a DOCX package whose body holds one paragraph per text.
func Document(texts ...string) []byte {
	return Build(map[string]string{DocumentPart: DocumentXML(Paragraphs(texts...))})
}

// Build returns a DOCX package with the standard parts, replaced or extended
// by files. Parts are written in a fixed order so output is deterministic.
func Build(files map[string]string) []byte {
	parts := map[string]string{
		ContentTypesPart:  contentTypes,
		RelationshipsPart: packageRels,
		DocumentPart:      DocumentXML(""),
		DocumentRelsPart:  documentRels,
		StylesPart:        Styles,
	}
	for name, content := range files {
		parts[name] = content
	}

	order := []string{ContentTypesPart, RelationshipsPart, DocumentPart, DocumentRelsPart, StylesPart}
	var extra []string
	for name := range parts {
		switch name {
		case ContentTypesPart, RelationshipsPart, DocumentPart, DocumentRelsPart, StylesPart:
		default:
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range order {
		f, _ := w.Create(name)
		_, _ = io.WriteString(f, parts[name])
	}
	_ = w.Close()
	return buf.Bytes()
}

// ReadPart returns the named part of a DOCX package, or "" when absent.
func ReadPart(docx []byte, name string) string {
	r, err := zip.NewReader(bytes.NewReader(docx), int64(len(docx)))
	if err != nil {
		return ""
	}
	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return ""
		}
		defer rc.Close()
		content, _ := io.ReadAll(rc)
		return string(content)
	}
	return ""
}
