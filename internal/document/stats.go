package document

import "unicode/utf8"

// Stats summarizes a document's size.
type Stats struct {
	TotalPages      int `json:"total_pages"`
	TotalBlocks     int `json:"total_blocks"`
	TotalCharacters int `json:"total_characters"`
}

// CalculateStats computes page, block and character totals for a document.
// Character counts are rune counts, matching how block text lengths are
// reported to callers regardless of UTF-8 encoding width.
func CalculateStats(d *Document) Stats {
	s := Stats{TotalPages: len(d.Pages)}
	for _, p := range d.Pages {
		s.TotalBlocks += len(p.Blocks)
		for _, b := range p.Blocks {
			s.TotalCharacters += utf8.RuneCountInString(b.Text)
		}
	}
	return s
}
