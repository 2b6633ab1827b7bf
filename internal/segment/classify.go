package segment

import (
	"strconv"
	"strings"

	"github.com/tarjim/tarjim/internal/document"
)

// classify assigns the structural type of a freshly closed block. A block
// becomes a heading when its dominant font size reaches the cutoff, or
// when its top edge falls within the top-of-page band.
func classify(b *document.Block, maxFont float64, cfg Config) {
	if cfg.HeadingFontCutoff > 0 && maxFont >= cfg.HeadingFontCutoff {
		markHeading(b, headingLevelForSize(maxFont, cfg.HeadingFontCutoff))
		return
	}
	if cfg.TopBandHeight > 0 && b.Metadata.BBox != nil && b.Metadata.BBox.Y1 <= cfg.TopBandHeight {
		markHeading(b, 1)
	}
}

// headingLevelForSize maps font size to a heading level: sizes at or
// above 1.5x the cutoff are top-level, everything else is second tier.
func headingLevelForSize(size, cutoff float64) int {
	if size >= cutoff*1.5 {
		return 1
	}
	return 2
}

func markHeading(b *document.Block, level int) {
	b.Type = document.BlockHeading
	b.Metadata.IsHeading = true
	b.Metadata.HeadingLevel = level
}

const headingStylePrefix = "Heading"

// ParagraphBlock builds a block for a styled paragraph, as extracted from
// a DOCX body. A style name with the "Heading" prefix yields a heading
// whose level is the trailing integer of the style name, defaulting to 1
// when unparsable. A list nesting level > 0 yields a list item.
func ParagraphBlock(pageIndex, counter int, text, styleName string, listLevel int) document.Block {
	b := document.Block{
		ID:   document.BlockID(pageIndex, counter),
		Type: document.BlockParagraph,
		Text: text,
	}
	if strings.HasPrefix(strings.ToLower(styleName), strings.ToLower(headingStylePrefix)) {
		level := 1
		rest := strings.TrimSpace(styleName[len(headingStylePrefix):])
		if n, err := strconv.Atoi(rest); err == nil && n > 0 {
			level = n
		}
		markHeading(&b, level)
		return b
	}
	if listLevel > 0 {
		b.Type = document.BlockListItem
		b.Metadata.ListLevel = listLevel
	}
	return b
}

// TableCellBlock builds a table cell block annotated with its row,
// column and table id.
func TableCellBlock(pageIndex, counter int, text, tableID string, row, col int) document.Block {
	return document.Block{
		ID:   document.BlockID(pageIndex, counter),
		Type: document.BlockTableCell,
		Metadata: document.BlockMetadata{
			Table: &document.TableMetadata{Row: row, Col: col, TableID: tableID},
		},
		Text: text,
	}
}
