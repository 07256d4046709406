package section

import (
	"os"

	"gitlab.com/tozd/go/errors"

	"github.com/benjaminschreck/go-docsection/pkg/docx"
)

var defaultRewriter = NewRewriter()

// Rewrite rewrites the section of doc described by req using the built-in
// presets and the default markers.
func Rewrite(doc *docx.Document, req Request) (*Result, error) {
	return defaultRewriter.Rewrite(doc, req)
}

// RewriteBytes loads a DOCX package from data, rewrites it and returns the
// saved package.
func RewriteBytes(data []byte, req Request) ([]byte, *Result, error) {
	return defaultRewriter.RewriteBytes(data, req)
}

// RewriteFile rewrites the DOCX file at in and writes the result to out.
// Nothing is written when the rewrite fails.
func (r *Rewriter) RewriteFile(in, out string, req Request) (*Result, error) {
	pkg, err := docx.OpenFile(in)
	if err != nil {
		return nil, err
	}

	output, res, err := r.rewritePackage(pkg, req)
	if err != nil {
		return res, err
	}

	if err := os.WriteFile(out, output, 0o644); err != nil {
		return res, docx.NewDocumentError("write", out, errors.WithStack(err))
	}
	return res, nil
}

// RewriteFile rewrites the DOCX file at in into out with the default
// rewriter.
func RewriteFile(in, out string, req Request) (*Result, error) {
	return defaultRewriter.RewriteFile(in, out, req)
}
