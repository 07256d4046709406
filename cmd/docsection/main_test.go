package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjaminschreck/go-docsection/pkg/docx"
	"github.com/benjaminschreck/go-docsection/pkg/docx/docxtest"
	"github.com/benjaminschreck/go-docsection/pkg/section"
)

var scenario = []string{"Title", "Connaissances Métier", "old line 1", "old line 2", "COMPETENCES Projet", "Footer"}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "off"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeDocx(t *testing.T, path string, texts ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, docxtest.Document(texts...), 0o644))
}

func readTexts(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	_, doc, err := docx.Load(data)
	require.NoError(t, err)
	return doc.ParagraphTexts()
}

func TestRewriteCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cv.docx")
	out := filepath.Join(dir, "cv-new.docx")
	writeDocx(t, in, scenario...)

	itemsFile := filepath.Join(dir, "skills.txt")
	require.NoError(t, os.WriteFile(itemsFile, []byte("Python\r\n\n  Docker  \n"), 0o644))

	stdout, err := run(t, "rewrite", "-i", in, "-o", out, "--item", "SQL", "--items-file", itemsFile)
	require.NoError(t, err)
	assert.Contains(t, stdout, out)
	assert.Contains(t, stdout, "classic, 2 removed, 3 inserted")

	assert.Equal(t, []string{
		"Title", "Connaissances Métier", "",
		"■      SQL", "■      Python", "■        Docker  ",
		"COMPETENCES Projet", "Footer",
	}, readTexts(t, out))

	// the input is untouched
	assert.Equal(t, scenario, readTexts(t, in))
}

func TestRewriteCommandMarkersAndPreset(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cv.docx")
	writeDocx(t, in, "Skills", "old", "Projects", "tail")

	_, err := run(t, "rewrite", "-i", in, "--item", "Go", "--start", "Skills", "--end=", "--preset", "corporate")
	require.NoError(t, err)

	// an empty end marker runs to the end of the document
	assert.Equal(t, []string{"Skills", "", "•   Go"}, readTexts(t, in))
}

func TestRewriteCommandErrors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "cv.docx")
	out := filepath.Join(dir, "out.docx")
	writeDocx(t, in, "Title", "Body")

	_, err := run(t, "rewrite", "-i", in, "-o", out, "--item", "SQL")
	require.Error(t, err)
	assert.True(t, section.IsAnchorNotFound(err))
	assert.Contains(t, err.Error(), "'Connaissances Métier' not found")
	assert.NoFileExists(t, out)

	_, err = run(t, "rewrite", "-i", in, "-o", out)
	assert.True(t, section.IsEmptyItemList(err))

	_, err = run(t, "rewrite", "-i", in, "--item", "SQL", "--preset", "baroque")
	assert.Error(t, err)

	_, err = run(t, "rewrite", "--item", "SQL")
	assert.Error(t, err)
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cvs")
	writeDocx(t, filepath.Join(src, "alice.docx"), scenario...)
	writeDocx(t, filepath.Join(src, "team", "bob.docx"), scenario...)
	writeDocx(t, filepath.Join(src, "team", "carol.docx"), "No anchors here")
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip"), 0o644))

	outDir := filepath.Join(dir, "out")
	stdout, err := run(t, "batch", "--glob", filepath.ToSlash(src)+"/**/*.docx", "--out", outDir, "--item", "SQL", "-j", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 documents failed")
	assert.Contains(t, stdout, "2 rewritten, 1 failed")
	assert.Contains(t, stdout, "carol.docx")

	for _, rel := range []string{"alice.docx", filepath.Join("team", "bob.docx")} {
		texts := readTexts(t, filepath.Join(outDir, rel))
		assert.Contains(t, texts, "■      SQL", rel)
	}
	assert.NoFileExists(t, filepath.Join(outDir, "team", "carol.docx"))
}

func TestBatchCommandNoMatches(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "batch", "--glob", filepath.ToSlash(dir)+"/**/*.docx", "--out", dir, "--item", "SQL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files match")
}

func TestOutputPath(t *testing.T) {
	got, err := outputPath("cvs/**/*.docx", filepath.Join("cvs", "team", "bob.docx"), "out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "team", "bob.docx"), got)

	got, err = outputPath("*.docx", "cv.docx", "out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "cv.docx"), got)
}

func TestReadItems(t *testing.T) {
	items, err := readItems(strings.NewReader("SQL\n\n Python \r\n\t\nGo"))
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL", " Python ", "Go"}, items)
}

func TestPresetsCommand(t *testing.T) {
	stdout, err := run(t, "presets")
	require.NoError(t, err)
	for _, name := range section.BuiltinPresetNames() {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "classic*")

	stdout, err = run(t, "presets", "show", "corporate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: corporate")
	assert.Contains(t, stdout, "bullet_glyph: •")

	// the printed YAML loads back as a preset
	p, err := section.ParsePreset([]byte(stdout))
	require.NoError(t, err)
	assert.Equal(t, "corporate", p.Name)

	_, err = run(t, "presets", "show", "baroque")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baroque")
}

func TestPresetsCommandWithDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "wide.yaml"), []byte("name: wide\ndescription: Wide indent\nleft_indent: 48\n"), 0o644))

	stdout, err := run(t, "--preset-dir", dir, "presets")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wide")
	assert.Contains(t, stdout, "Wide indent")
}

func TestConfigFileFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "docsection.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("preset: compact\n"), 0o644))

	in := filepath.Join(dir, "cv.docx")
	writeDocx(t, in, scenario...)

	stdout, err := run(t, "--config", cfgPath, "rewrite", "-i", in, "--item", "SQL")
	require.NoError(t, err)
	assert.Contains(t, stdout, "compact")

	_, err = run(t, "--config", filepath.Join(dir, "absent.yaml"), "presets")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	stdout, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "docsection version "+version)
}
