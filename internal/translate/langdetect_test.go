package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicDetector(t *testing.T) {
	d := HeuristicDetector{}

	assert.Equal(t, "ar", d.Detect("مرحبا بالعالم"))
	assert.Equal(t, "en", d.Detect("plain english words"))
	assert.Equal(t, "", d.Detect("1234 5678"))
	assert.Equal(t, "", d.Detect(""))
}

func TestLanguageOf(t *testing.T) {
	d := HeuristicDetector{}

	// Under 3 runes is unclassifiable.
	assert.Equal(t, "", languageOf("ok", d))
	assert.Equal(t, "", languageOf("", d))

	// Any Arabic codepoint wins before the statistical detector runs.
	assert.Equal(t, "ar", languageOf("نصوص", HeuristicDetector{}))
	assert.Equal(t, "ar", languageOf("some نص mixed", d))

	assert.Equal(t, "en", languageOf("hello there", d))

	// Inconclusive detection stays unclassified so the caller never
	// mistakes unknown text for the target language.
	assert.Equal(t, "", languageOf("12345 67890", d))
	assert.Equal(t, "", languageOf("12345 67890", nil))
	assert.Equal(t, "", languageOf("привет мир", d))
}

func TestShortLang(t *testing.T) {
	assert.Equal(t, "en", ShortLang("eng_Latn"))
	assert.Equal(t, "ar", ShortLang("ara_Arab"))
	assert.Equal(t, "fr", ShortLang("fra_Latn"))
	assert.Equal(t, "en", ShortLang("en"))
	assert.Equal(t, "", ShortLang(""))
}
