package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BlockType identifies the structural role of a block within a page.
type BlockType string

const (
	BlockParagraph BlockType = "paragraph"
	BlockHeading   BlockType = "heading"
	BlockTableCell BlockType = "table_cell"
	BlockListItem  BlockType = "list_item"
)

// BBox is an axis-aligned bounding box in source pixel/point coordinates.
type BBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Union expands the box to cover b as well.
func (b BBox) Union(o BBox) BBox {
	if o.X1 < b.X1 {
		b.X1 = o.X1
	}
	if o.Y1 < b.Y1 {
		b.Y1 = o.Y1
	}
	if o.X2 > b.X2 {
		b.X2 = o.X2
	}
	if o.Y2 > b.Y2 {
		b.Y2 = o.Y2
	}
	return b
}

// TableMetadata locates a table cell within its table.
type TableMetadata struct {
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	TableID string `json:"table_id"`
}

// BlockMetadata carries layout and provenance information for a block.
// Confidence is only meaningful for OCR-produced blocks (0.0-1.0).
type BlockMetadata struct {
	BBox         *BBox          `json:"bbox,omitempty"`
	IsHeading    bool           `json:"is_heading,omitempty"`
	HeadingLevel int            `json:"heading_level,omitempty"`
	ListLevel    int            `json:"list_level,omitempty"`
	Table        *TableMetadata `json:"table,omitempty"`
	Confidence   float64        `json:"confidence,omitempty"`
}

// Block is the smallest structural text unit within a page.
type Block struct {
	ID       string        `json:"block_id"`
	Type     BlockType     `json:"type"`
	Metadata BlockMetadata `json:"metadata"`
	Text     string        `json:"text"`
}

// BlockID derives a block id from the page index and a per-page counter.
func BlockID(pageIndex, counter int) string {
	return fmt.Sprintf("%d-%d", pageIndex, counter)
}

// Page holds blocks in reading order as produced by segmentation.
// Order is significant and is never re-sorted after segmentation.
type Page struct {
	Index  int     `json:"page_index"`
	Blocks []Block `json:"blocks"`
}

// Metadata is document-level provenance information.
type Metadata struct {
	SourceFilename      string    `json:"source_filename"`
	TotalPages          int       `json:"total_pages"`
	ExtractionTimestamp time.Time `json:"extraction_timestamp"`
	OCREngine           string    `json:"ocr_engine,omitempty"`
	ProcessingNs        int64     `json:"processing_ns,omitempty"`
}

// Document is the structured representation shared by every pipeline stage.
type Document struct {
	ID       string   `json:"document_id"`
	Language string   `json:"language"`
	Pages    []Page   `json:"pages"`
	Metadata Metadata `json:"metadata"`
}

// New creates an empty document for the given source file and language.
// ocrEngine may be empty when no OCR was involved.
func New(sourceFilename, language, ocrEngine string) *Document {
	return &Document{
		ID:       uuid.NewString(),
		Language: language,
		Pages:    nil,
		Metadata: Metadata{
			SourceFilename:      sourceFilename,
			TotalPages:          0,
			ExtractionTimestamp: time.Now().UTC(),
			OCREngine:           ocrEngine,
		},
	}
}

// SetPages attaches pages and keeps the total page count consistent.
func (d *Document) SetPages(pages []Page) {
	d.Pages = pages
	d.Metadata.TotalPages = len(pages)
}

// Clone returns a deep copy sharing no mutable state with the receiver.
func (d *Document) Clone() *Document {
	out := *d
	out.Pages = make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		blocks := make([]Block, len(p.Blocks))
		for j, b := range p.Blocks {
			nb := b
			if b.Metadata.BBox != nil {
				box := *b.Metadata.BBox
				nb.Metadata.BBox = &box
			}
			if b.Metadata.Table != nil {
				tbl := *b.Metadata.Table
				nb.Metadata.Table = &tbl
			}
			blocks[j] = nb
		}
		out.Pages[i] = Page{Index: p.Index, Blocks: blocks}
	}
	return &out
}

// Validate performs consistency checks on the document structure.
func (d *Document) Validate() error {
	if d.Metadata.TotalPages != len(d.Pages) {
		return fmt.Errorf("total_pages %d does not match page count %d",
			d.Metadata.TotalPages, len(d.Pages))
	}
	for _, p := range d.Pages {
		for _, b := range p.Blocks {
			switch b.Type {
			case BlockParagraph, BlockHeading, BlockTableCell, BlockListItem:
			default:
				return fmt.Errorf("page %d block %s has unknown type %q", p.Index, b.ID, b.Type)
			}
			if b.Type == BlockTableCell && b.Metadata.Table == nil {
				return fmt.Errorf("page %d block %s is a table cell without table metadata", p.Index, b.ID)
			}
			if b.Metadata.Confidence < 0 || b.Metadata.Confidence > 1 {
				return fmt.Errorf("page %d block %s confidence out of range", p.Index, b.ID)
			}
		}
	}
	return nil
}
