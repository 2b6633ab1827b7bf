// Package textnorm provides script-aware text cleanup applied between
// extraction and translation. Normalization is pure and idempotent.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Characters stripped outright: the tatweel elongation mark and
// zero-width/invisible formatting characters.
var stripped = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0640, Hi: 0x0640, Stride: 1}, // tatweel
		{Lo: 0x200B, Hi: 0x200D, Stride: 1}, // zero-width space/non-joiner/joiner
		{Lo: 0xFEFF, Hi: 0xFEFF, Stride: 1}, // zero-width no-break space
	},
}

// foldLetter canonicalizes Arabic letter variants to their base form.
// Alef with madda (U+0622) and alef with hamza above/below (U+0623, U+0625)
// all fold to bare alef (U+0627).
func foldLetter(r rune) rune {
	switch r {
	case 0x0622, 0x0623, 0x0625:
		return 0x0627
	default:
		return r
	}
}

var normalizer = transform.Chain(
	runes.Remove(runes.In(stripped)),
	runes.Map(foldLetter),
)

// Normalize cleans extracted or OCR'd text before translation: elongation
// marks and invisible formatting characters are stripped, letter variants
// fold to their base form, and whitespace runs collapse to a single space
// with leading/trailing whitespace trimmed. Punctuation and characters of
// other scripts pass through unchanged.
func Normalize(text string) string {
	if text == "" {
		return text
	}
	out, _, err := transform.String(normalizer, text)
	if err != nil {
		// The chain cannot fail on valid input; keep the original on the
		// off chance of malformed UTF-8.
		out = text
	}
	return strings.Join(strings.Fields(out), " ")
}
