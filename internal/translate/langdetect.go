package translate

import (
	"unicode"

	"github.com/tarjim/tarjim/internal/textnorm"
)

// Detector is the full statistical language detector used when the quick
// script check is inconclusive. Implementations return a short language
// code ("ar", "en", ...) or "" when unknown.
type Detector interface {
	Detect(text string) string
}

// HeuristicDetector is a lightweight letter-frequency detector. It is
// intended as a routing hint, not for model selection.
type HeuristicDetector struct{}

// Detect counts script membership over letters: predominantly Arabic
// letters yield "ar", predominantly ASCII letters yield "en".
func (HeuristicDetector) Detect(text string) string {
	var letters, arabic, ascii int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		case (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z'):
			ascii++
		}
	}
	if letters == 0 {
		return ""
	}
	if arabic*100/letters > 50 {
		return "ar"
	}
	if ascii*100/letters > 80 {
		return "en"
	}
	return ""
}

// languageOf routes text through the quick script check first and only
// falls back to the statistical detector when the check is inconclusive
// (no Arabic codepoints found). Texts under 3 runes, and texts neither
// check can classify, yield "": unclassifiable text is never treated as
// any particular language.
func languageOf(text string, d Detector) string {
	if len([]rune(text)) < 3 {
		return ""
	}
	if textnorm.DetectScript(text) == textnorm.ScriptArabic {
		return "ar"
	}
	if d != nil {
		return d.Detect(text)
	}
	return ""
}

// ShortLang reduces an NLLB-style tag like "eng_Latn" or "ara_Arab" to a
// short code ("en", "ar"). Already-short tags pass through.
func ShortLang(tag string) string {
	switch {
	case len(tag) >= 3 && tag[:3] == "eng":
		return "en"
	case len(tag) >= 3 && tag[:3] == "ara":
		return "ar"
	case len(tag) > 2:
		return tag[:2]
	default:
		return tag
	}
}
