package document

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderDoc() *Document {
	doc := New("out.pdf", "en", "")
	doc.SetPages([]Page{
		{Index: 0, Blocks: []Block{
			{ID: "0-0", Type: BlockHeading, Text: "Title"},
			{ID: "0-1", Type: BlockParagraph, Text: "First paragraph."},
		}},
		{Index: 1, Blocks: []Block{
			{ID: "1-0", Type: BlockParagraph, Text: "Second page."},
		}},
	})
	return doc
}

func TestToJSON(t *testing.T) {
	out, err := ToJSON(renderDoc())
	require.NoError(t, err)

	var decoded Document
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 2, decoded.Metadata.TotalPages)
	assert.Equal(t, "Title", decoded.Pages[0].Blocks[0].Text)
}

func TestToYAML(t *testing.T) {
	out, err := ToYAML(renderDoc())
	require.NoError(t, err)
	assert.Contains(t, out, "language: en")
	assert.Contains(t, out, "Second page.")
}

func TestToPlainText(t *testing.T) {
	out, err := ToPlainText(renderDoc())
	require.NoError(t, err)
	assert.Equal(t, "Title\nFirst paragraph.\n\nSecond page.\n", out)
}

func TestToCSV(t *testing.T) {
	out, err := ToCSV(renderDoc())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "page,block_id,type,confidence,text", lines[0])
	assert.Contains(t, lines[1], "heading")
}

func TestRender_NilDocument(t *testing.T) {
	for _, f := range []func(*Document) (string, error){ToJSON, ToYAML, ToPlainText, ToCSV} {
		_, err := f(nil)
		assert.Error(t, err)
	}
}
