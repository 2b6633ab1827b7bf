package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tarjim/tarjim/internal/document"
	"github.com/tarjim/tarjim/internal/segment"
)

// DOCX body markup, matched by local name so the wordprocessingml
// namespace prefix does not matter.
type xmlVal struct {
	Val string `xml:"val,attr"`
}

type xmlParaProps struct {
	Style *xmlVal `xml:"pStyle"`
	NumPr *struct {
		Ilvl *xmlVal `xml:"ilvl"`
	} `xml:"numPr"`
}

type xmlRun struct {
	Texts []string `xml:"t"`
}

type xmlPara struct {
	Props xmlParaProps `xml:"pPr"`
	Runs  []xmlRun     `xml:"r"`
}

type xmlCell struct {
	Paras []xmlPara `xml:"p"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"tc"`
}

type xmlTable struct {
	Rows []xmlRow `xml:"tr"`
}

type xmlStyle struct {
	ID   string  `xml:"styleId,attr"`
	Name *xmlVal `xml:"name"`
}

type xmlStyles struct {
	Styles []xmlStyle `xml:"style"`
}

// extractDOCX walks the document body in order, emitting paragraph and
// list-item blocks for top-level paragraphs and table-cell blocks in
// row-major order for tables. The whole body maps to a single page.
func (e *Extractor) extractDOCX(path string) ([]document.Page, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &Error{Path: path, Message: "open docx archive", Err: err}
	}
	defer func() { _ = r.Close() }()

	styles, err := loadStyleNames(&r.Reader)
	if err != nil {
		return nil, &Error{Path: path, Message: "read styles", Err: err}
	}

	body, err := openZipEntry(&r.Reader, "word/document.xml")
	if err != nil {
		return nil, &Error{Path: path, Message: "read document body", Err: err}
	}
	defer func() { _ = body.Close() }()

	blocks, err := walkBody(body, styles)
	if err != nil {
		return nil, &Error{Path: path, Message: "parse document body", Err: err}
	}

	return []document.Page{{Index: 0, Blocks: blocks}}, nil
}

// walkBody streams the body XML, keeping paragraph and table order.
// Decoding a table element consumes its subtree, so nested paragraphs
// are never double-counted.
func walkBody(body io.Reader, styles map[string]string) ([]document.Block, error) {
	dec := xml.NewDecoder(body)
	var blocks []document.Block
	counter := 0
	tables := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch se.Name.Local {
		case "p":
			var para xmlPara
			if err := dec.DecodeElement(&para, &se); err != nil {
				return nil, err
			}
			text := paraText(para)
			if text == "" {
				continue
			}
			blocks = append(blocks, segment.ParagraphBlock(0, counter, text, paraStyle(para, styles), paraListLevel(para)))
			counter++

		case "tbl":
			tables++
			var tbl xmlTable
			if err := dec.DecodeElement(&tbl, &se); err != nil {
				return nil, err
			}
			tableID := fmt.Sprintf("table-%d", tables)
			for ri, row := range tbl.Rows {
				for ci, cell := range row.Cells {
					blocks = append(blocks, segment.TableCellBlock(0, counter, cellText(cell), tableID, ri, ci))
					counter++
				}
			}
		}
	}
	return blocks, nil
}

func paraText(p xmlPara) string {
	var sb strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Texts {
			sb.WriteString(t)
		}
	}
	return strings.TrimSpace(sb.String())
}

// paraStyle resolves the paragraph's style id to its display name, falling
// back to the raw id for styles missing from styles.xml.
func paraStyle(p xmlPara, styles map[string]string) string {
	if p.Props.Style == nil {
		return ""
	}
	id := p.Props.Style.Val
	if name, ok := styles[id]; ok {
		return name
	}
	return id
}

// paraListLevel returns 1-based nesting for numbered paragraphs, 0 for
// plain ones. The ilvl attribute is 0-based in the markup.
func paraListLevel(p xmlPara) int {
	if p.Props.NumPr == nil {
		return 0
	}
	if p.Props.NumPr.Ilvl == nil {
		return 1
	}
	ilvl, err := strconv.Atoi(p.Props.NumPr.Ilvl.Val)
	if err != nil || ilvl < 0 {
		return 1
	}
	return ilvl + 1
}

// cellText joins the cell's paragraphs with single spaces.
func cellText(c xmlCell) string {
	var parts []string
	for _, p := range c.Paras {
		if t := paraText(p); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// loadStyleNames maps style ids to display names ("Heading1" -> "heading 1").
// A missing styles part is not an error; documents may omit it.
func loadStyleNames(r *zip.Reader) (map[string]string, error) {
	rc, err := openZipEntry(r, "word/styles.xml")
	if err != nil {
		return map[string]string{}, nil
	}
	defer func() { _ = rc.Close() }()

	var parsed xmlStyles
	if err := xml.NewDecoder(rc).Decode(&parsed); err != nil {
		return nil, err
	}

	styles := make(map[string]string, len(parsed.Styles))
	for _, s := range parsed.Styles {
		if s.ID != "" && s.Name != nil {
			styles[s.ID] = s.Name.Val
		}
	}
	return styles, nil
}

func openZipEntry(r *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range r.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("archive entry %s not found", name)
}
