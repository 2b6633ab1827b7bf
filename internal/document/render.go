package document

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ToJSON serializes a document to pretty JSON.
func ToJSON(d *Document) (string, error) {
	if d == nil {
		return "", errors.New("nil document")
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToYAML serializes a document to YAML.
func ToYAML(d *Document) (string, error) {
	if d == nil {
		return "", errors.New("nil document")
	}
	b, err := yaml.Marshal(d)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText renders block text in reading order, one block per line,
// with a blank line between pages.
func ToPlainText(d *Document) (string, error) {
	if d == nil {
		return "", errors.New("nil document")
	}
	var sb strings.Builder
	for i, p := range d.Pages {
		if i > 0 {
			sb.WriteString("\n")
		}
		for _, b := range p.Blocks {
			t := strings.TrimSpace(b.Text)
			if t == "" {
				continue
			}
			sb.WriteString(t)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// ToCSV exports per-block structured data as CSV with header.
func ToCSV(d *Document) (string, error) {
	if d == nil {
		return "", errors.New("nil document")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"page", "block_id", "type", "confidence", "text"})
	for _, p := range d.Pages {
		for _, b := range p.Blocks {
			row := []string{
				strconv.Itoa(p.Index),
				b.ID,
				string(b.Type),
				fmt.Sprintf("%.3f", b.Metadata.Confidence),
				b.Text,
			}
			_ = w.Write(row)
		}
	}
	w.Flush()
	return buf.String(), nil
}
