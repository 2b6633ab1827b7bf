package textnorm

import "unicode"

// Script is the result of the quick range-based script check.
type Script int

const (
	// ScriptOther means no Arabic codepoint was found.
	ScriptOther Script = iota
	// ScriptArabic means at least one codepoint falls in the Arabic block.
	ScriptArabic
)

// Arabic Unicode block U+0600-U+06FF.
var arabicBlock = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0600, Hi: 0x06FF, Stride: 1}},
}

// DetectScript classifies text by the presence of any Arabic codepoint.
// It is a cheap pre-filter used for language routing before invoking a
// full statistical detector.
func DetectScript(text string) Script {
	for _, r := range text {
		if unicode.Is(arabicBlock, r) {
			return ScriptArabic
		}
	}
	return ScriptOther
}

// QuickLanguage maps the script check to a short language code:
// "ar" when Arabic codepoints are present, "en" otherwise. Empty input
// yields "".
func QuickLanguage(text string) string {
	if text == "" {
		return ""
	}
	if DetectScript(text) == ScriptArabic {
		return "ar"
	}
	return "en"
}
