package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dslipak/pdf"

	"github.com/tarjim/tarjim/internal/document"
	"github.com/tarjim/tarjim/internal/segment"
)

// Default page dimensions in points (US letter). The pdf package does
// not expose the MediaBox, so coordinate flips use these.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// extractPDF walks every page, preferring positioned vector text. Pages
// whose vector text is under the minimal length threshold are rasterized
// and handed to the OCR callback instead.
func (e *Extractor) extractPDF(ctx context.Context, path string) ([]document.Page, bool, error) {
	reader, err := pdf.Open(path)
	if err != nil {
		return nil, false, &Error{Path: path, Message: "open pdf", Err: err}
	}

	totalPages := reader.NumPage()
	pages := make([]document.Page, 0, totalPages)
	usedOCR := false

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, usedOCR, err
		}
		pageIndex := pageNum - 1
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, document.Page{Index: pageIndex})
			continue
		}

		frags, err := e.pageFragments(page)
		if err != nil {
			return nil, usedOCR, &Error{Path: path, Message: fmt.Sprintf("page %d", pageNum), Err: err}
		}

		if fragmentTextLen(frags) < e.cfg.MinVectorTextLen && e.ocr != nil {
			blocks, ocrErr := e.ocrPDFPage(ctx, path, pageNum, pageIndex)
			if ocrErr != nil {
				if ctx.Err() != nil {
					return nil, usedOCR, ctx.Err()
				}
				slog.Warn("Page OCR failed, keeping vector text", "page", pageNum, "error", ocrErr)
			} else if len(blocks) > 0 {
				pages = append(pages, document.Page{Index: pageIndex, Blocks: blocks})
				usedOCR = true
				continue
			}
		}

		blocks := segment.GroupFragments(frags, pageIndex, 0, e.cfg.PDFGapThreshold, e.cfg)
		pages = append(pages, document.Page{Index: pageIndex, Blocks: blocks})
	}

	return pages, usedOCR, nil
}

// pageFragments extracts positioned text runs. The row-based strategy is
// preferred; on failure the plain-text strategy is tried once before the
// error propagates.
func (e *Extractor) pageFragments(page pdf.Page) ([]segment.Fragment, error) {
	frags, rowErr := rowFragments(page)
	if rowErr == nil {
		return frags, nil
	}
	slog.Debug("Row-based extraction failed, falling back to plain text", "error", rowErr)

	frag, plainErr := plainFragment(page)
	if plainErr != nil {
		return nil, fmt.Errorf("row extraction (%v) and plain extraction (%w) both failed", rowErr, plainErr)
	}
	if frag == nil {
		return nil, nil
	}
	return []segment.Fragment{*frag}, nil
}

// rowFragments builds one fragment per text row. The pdf package panics
// on malformed content streams, so this converts panics to errors.
func rowFragments(page pdf.Page) (frags []segment.Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frags = nil
			err = fmt.Errorf("text rows: %v", r)
		}
	}()

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		if len(row.Content) == 0 {
			continue
		}
		var sb strings.Builder
		var maxFont, minX, maxX float64
		minX = row.Content[0].X
		prevEnd := minX
		for i, t := range row.Content {
			// Insert a word break when the horizontal gap between runs
			// exceeds a third of the font size.
			if i > 0 && t.X-prevEnd > t.FontSize/3 {
				sb.WriteString(" ")
			}
			sb.WriteString(t.S)
			prevEnd = t.X + t.W
			if t.FontSize > maxFont {
				maxFont = t.FontSize
			}
			if t.X < minX {
				minX = t.X
			}
			if t.X+t.W > maxX {
				maxX = t.X + t.W
			}
		}
		text := strings.TrimSpace(sb.String())
		if text == "" {
			continue
		}
		if maxFont == 0 {
			maxFont = 12
		}
		// PDF Y grows upward; flip so the top of the page sorts first.
		yTop := defaultPageHeight - float64(row.Position)
		frags = append(frags, segment.Fragment{
			Text:     text,
			BBox:     document.BBox{X1: minX, Y1: yTop, X2: maxX, Y2: yTop + maxFont},
			FontSize: maxFont,
		})
	}
	return frags, nil
}

// plainFragment is the simpler format-native strategy: the page's plain
// text as a single unpositioned fragment.
func plainFragment(page pdf.Page) (frag *segment.Fragment, err error) {
	defer func() {
		if r := recover(); r != nil {
			frag = nil
			err = fmt.Errorf("plain text: %v", r)
		}
	}()

	fonts := make(map[string]*pdf.Font)
	text, err := page.GetPlainText(fonts)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return &segment.Fragment{
		Text:     text,
		BBox:     document.BBox{X1: 0, Y1: 0, X2: defaultPageWidth, Y2: defaultPageHeight},
		FontSize: 12,
	}, nil
}

func fragmentTextLen(frags []segment.Fragment) int {
	n := 0
	for _, f := range frags {
		n += utf8.RuneCountInString(f.Text)
	}
	return n
}
