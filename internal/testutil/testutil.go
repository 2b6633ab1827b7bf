// Package testutil provides synthetic document fixtures for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// DOCXParts holds the XML parts of a synthetic DOCX archive. StylesXML
// may be empty to omit the styles part.
type DOCXParts struct {
	DocumentXML string
	StylesXML   string
}

// WriteDOCX writes a minimal DOCX archive to dir and returns its path.
func WriteDOCX(t *testing.T, dir string, parts DOCXParts) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	doc, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(parts.DocumentXML))
	require.NoError(t, err)

	if parts.StylesXML != "" {
		styles, err := w.Create("word/styles.xml")
		require.NoError(t, err)
		_, err = styles.Write([]byte(parts.StylesXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	path := filepath.Join(dir, "fixture.docx")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

// WrapBody wraps body XML in the document envelope with the
// wordprocessingml namespace.
func WrapBody(body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + body + `</w:body></w:document>`
}

// HeadingStylesXML declares the built-in heading style names used by
// paragraph style resolution.
func HeadingStylesXML() string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/></w:style>` +
		`<w:style w:type="paragraph" w:styleId="ListParagraph"><w:name w:val="List Paragraph"/></w:style>` +
		`</w:styles>`
}

// Paragraph builds a body paragraph with an optional style id and list
// nesting level (0 for none).
func Paragraph(text, styleID string, ilvl int) string {
	props := ""
	if styleID != "" || ilvl > 0 {
		props = "<w:pPr>"
		if styleID != "" {
			props += `<w:pStyle w:val="` + styleID + `"/>`
		}
		if ilvl > 0 {
			props += `<w:numPr><w:ilvl w:val="` + strconv.Itoa(ilvl-1) + `"/><w:numId w:val="1"/></w:numPr>`
		}
		props += "</w:pPr>"
	}
	return "<w:p>" + props + "<w:r><w:t>" + text + "</w:t></w:r></w:p>"
}

// Table builds a body table from row-major cell texts.
func Table(rows [][]string) string {
	out := "<w:tbl>"
	for _, row := range rows {
		out += "<w:tr>"
		for _, cell := range row {
			out += "<w:tc>" + Paragraph(cell, "", 0) + "</w:tc>"
		}
		out += "</w:tr>"
	}
	return out + "</w:tbl>"
}

// WritePNG writes a solid white PNG of the given size to dir and returns
// its path.
func WritePNG(t *testing.T, dir string, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	path := filepath.Join(dir, "fixture.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}
