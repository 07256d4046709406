package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path"
	"strings"

	"gitlab.com/tozd/go/errors"
)

const (
	// MainDocumentPart is the conventional location of the main document.
	MainDocumentPart = "word/document.xml"

	rootRelationshipsPart = "_rels/.rels"
	relTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
)

// Package is an opened DOCX container. Parts are read lazily from the
// underlying zip; only the main document part is ever rewritten on save.
type Package struct {
	reader   *zip.Reader
	Parts    map[string]*zip.File
	mainPart string
}

// Relationship represents a relationship in the DOCX package
type Relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// Relationships represents the collection of relationships
type Relationships struct {
	XMLName      xml.Name       `xml:"Relationships"`
	Namespace    string         `xml:"xmlns,attr"`
	Relationship []Relationship `xml:"Relationship"`
}

// Open reads a DOCX package from r.
func Open(r io.ReaderAt, size int64) (*Package, error) {
	zipReader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, NewDocumentError("open", "", errors.Errorf("failed to read zip file: %w", err))
	}

	pkg := &Package{
		reader: zipReader,
		Parts:  make(map[string]*zip.File),
	}

	// Index all parts by name
	for _, file := range zipReader.File {
		pkg.Parts[file.Name] = file
	}

	pkg.mainPart = pkg.resolveMainPart()
	if _, ok := pkg.Parts[pkg.mainPart]; !ok {
		return nil, NewDocumentError("open", pkg.mainPart, ErrNotDocx)
	}

	return pkg, nil
}

// OpenBytes opens a DOCX package held in memory.
func OpenBytes(data []byte) (*Package, error) {
	return Open(bytes.NewReader(data), int64(len(data)))
}

// OpenFile opens a DOCX package from a file path.
func OpenFile(path string) (*Package, error) {
	// The whole file is held in memory; the zip reader needs random access
	// for the lifetime of the package.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, NewDocumentError("read", path, err)
	}
	return OpenBytes(content)
}

// Load opens data as a DOCX package and parses its main document.
func Load(data []byte) (*Package, *Document, error) {
	pkg, err := OpenBytes(data)
	if err != nil {
		return nil, nil, err
	}
	doc, err := pkg.Document()
	if err != nil {
		return nil, nil, err
	}
	return pkg, doc, nil
}

// resolveMainPart follows the package-level officeDocument relationship,
// falling back to word/document.xml.
func (p *Package) resolveMainPart() string {
	rels, err := p.Relationships("")
	if err != nil {
		return MainDocumentPart
	}
	for _, rel := range rels {
		if rel.Type == relTypeOfficeDocument && rel.Target != "" {
			return strings.TrimPrefix(path.Clean("/"+rel.Target), "/")
		}
	}
	return MainDocumentPart
}

// MainPart returns the name of the main document part.
func (p *Package) MainPart() string {
	return p.mainPart
}

// Part retrieves the content of a specific part
func (p *Package) Part(partName string) ([]byte, error) {
	file, ok := p.Parts[partName]
	if !ok {
		return nil, NewDocumentError("read", partName, ErrPartNotFound)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, NewDocumentError("open", partName, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, NewDocumentError("read", partName, err)
	}

	return content, nil
}

// ListParts returns the part names in archive order
func (p *Package) ListParts() []string {
	parts := make([]string, 0, len(p.reader.File))
	for _, file := range p.reader.File {
		parts = append(parts, file.Name)
	}
	return parts
}

// Relationships retrieves relationships for a given part. An empty part
// name returns the package-level relationships.
func (p *Package) Relationships(partName string) ([]Relationship, error) {
	// e.g., "word/document.xml" -> "word/_rels/document.xml.rels"
	relPath := rootRelationshipsPart
	if partName != "" {
		dir, base := path.Split(partName)
		relPath = dir + "_rels/" + base + ".rels"
	}

	file, ok := p.Parts[relPath]
	if !ok {
		// Missing relationships file is not an error, just return empty
		return []Relationship{}, nil
	}

	content, err := p.Part(file.Name)
	if err != nil {
		return nil, err
	}

	var rels Relationships
	if err := xml.Unmarshal(content, &rels); err != nil {
		return nil, NewDocumentError("parse", relPath, err)
	}

	return rels.Relationship, nil
}

// Document parses the main document part into a mutable tree. Each call
// returns an independent tree.
func (p *Package) Document() (*Document, error) {
	content, err := p.Part(p.mainPart)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(content)
	if err != nil {
		return nil, NewDocumentError("parse", p.mainPart, err)
	}
	return doc, nil
}

// Save serializes the package with doc as its main document part. A nil
// doc writes the package unchanged.
func (p *Package) Save(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.WriteTo(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the package to w, copying every part other than the main
// document without recompressing it.
func (p *Package) WriteTo(w io.Writer, doc *Document) error {
	zw := zip.NewWriter(w)

	for _, file := range p.reader.File {
		if file.Name != p.mainPart || doc == nil {
			if err := zw.Copy(file); err != nil {
				return NewDocumentError("write", file.Name, err)
			}
			continue
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return NewDocumentError("write", file.Name, err)
		}
		if _, err := doc.WriteTo(fw); err != nil {
			return NewDocumentError("write", file.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return NewDocumentError("write", "", errors.Errorf("failed to close zip writer: %w", err))
	}
	return nil
}
