// Package segment converts raw positioned text fragments into ordered
// blocks using spatial-proximity grouping.
package segment

import (
	"sort"
	"strings"

	"github.com/tarjim/tarjim/internal/document"
)

// Fragment is one positioned piece of raw text: an OCR hit, a PDF text
// run, or a DOCX paragraph with style hints.
type Fragment struct {
	Text       string
	BBox       document.BBox
	Confidence float64 // 0.0-1.0, OCR-derived fragments only
	FontSize   float64 // vector-PDF fragments only
}

// Config holds segmentation thresholds.
type Config struct {
	// OCRGapThreshold is the maximum vertical gap in pixels between an
	// OCR fragment and the open block for them to merge.
	OCRGapThreshold float64 `mapstructure:"ocr_gap_threshold" yaml:"ocr_gap_threshold" json:"ocr_gap_threshold"`
	// PDFGapThreshold is the equivalent threshold in points for
	// vector-PDF text runs.
	PDFGapThreshold float64 `mapstructure:"pdf_gap_threshold" yaml:"pdf_gap_threshold" json:"pdf_gap_threshold"`
	// MinVectorTextLen is the minimum amount of extracted page text below
	// which the page is rasterized and handed to OCR instead.
	MinVectorTextLen int `mapstructure:"min_vector_text_len" yaml:"min_vector_text_len" json:"min_vector_text_len"`
	// UpscaleFactor is applied when rendering a page for OCR.
	UpscaleFactor int `mapstructure:"upscale_factor" yaml:"upscale_factor" json:"upscale_factor"`
	// HeadingFontCutoff is the font size at or above which a block is
	// classified as a heading.
	HeadingFontCutoff float64 `mapstructure:"heading_font_cutoff" yaml:"heading_font_cutoff" json:"heading_font_cutoff"`
	// TopBandHeight is the top-of-page band (in source units) within
	// which a block is classified as a heading regardless of font size.
	// Zero disables the positional rule.
	TopBandHeight float64 `mapstructure:"top_band_height" yaml:"top_band_height" json:"top_band_height"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		OCRGapThreshold:   30,
		PDFGapThreshold:   10,
		MinVectorTextLen:  10,
		UpscaleFactor:     2,
		HeadingFontCutoff: 16,
		TopBandHeight:     0,
	}
}

// GroupFragments merges fragments into blocks by vertical proximity.
// Fragments are sorted by top edge ascending; a fragment joins the open
// block when the gap between its top edge and the block's bottom edge is
// below gapThreshold, otherwise the open block is emitted and a new one
// starts. Block text is the space-joined fragment text in processing
// order; block confidence is the mean fragment confidence. Block ids are
// derived from pageIndex and a counter starting at firstBlock. Closed
// blocks are structurally classified per cfg.
func GroupFragments(frags []Fragment, pageIndex, firstBlock int, gapThreshold float64, cfg Config) []document.Block {
	if len(frags) == 0 {
		return nil
	}

	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Y1 < sorted[j].BBox.Y1
	})

	var blocks []document.Block
	var texts []string
	var confSum, maxFont float64
	var bbox document.BBox
	open := false
	counter := firstBlock

	flush := func() {
		if !open {
			return
		}
		box := bbox
		b := document.Block{
			ID:   document.BlockID(pageIndex, counter),
			Type: document.BlockParagraph,
			Metadata: document.BlockMetadata{
				BBox:       &box,
				Confidence: confSum / float64(len(texts)),
			},
			Text: strings.Join(texts, " "),
		}
		classify(&b, maxFont, cfg)
		blocks = append(blocks, b)
		counter++
		texts = nil
		confSum = 0
		maxFont = 0
		open = false
	}

	for _, f := range sorted {
		if open && f.BBox.Y1-bbox.Y2 >= gapThreshold {
			flush()
		}
		if !open {
			bbox = f.BBox
			open = true
		} else {
			bbox = bbox.Union(f.BBox)
		}
		texts = append(texts, f.Text)
		confSum += f.Confidence
		if f.FontSize > maxFont {
			maxFont = f.FontSize
		}
	}
	flush()

	return blocks
}
