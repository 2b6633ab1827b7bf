package ocr

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/tarjim/tarjim/internal/document"
)

// EngineTesseract is the registry name of the local Tesseract engine.
const EngineTesseract = "tesseract"

// TesseractBackend wraps a Tesseract client. It is the fallback engine
// used when the primary engine is unavailable or yields nothing.
type TesseractBackend struct {
	mu       sync.Mutex
	client   *gosseract.Client
	language string
}

// NewTesseractBackend initializes a Tesseract client for the given
// language (e.g. "ara").
func NewTesseractBackend(language string) (*TesseractBackend, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			_ = client.Close()
			return nil, &Error{Engine: EngineTesseract, Message: "set language", Err: err}
		}
	}
	return &TesseractBackend{client: client, language: language}, nil
}

func (t *TesseractBackend) Name() string { return EngineTesseract }

// Recognize runs Tesseract at text-line granularity and converts its
// percentage confidences to the 0.0-1.0 range.
func (t *TesseractBackend) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &Error{Engine: EngineTesseract, Message: "encode image", Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, &Error{Engine: EngineTesseract, Message: "set image", Err: err}
	}
	boxes, err := t.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, &Error{Engine: EngineTesseract, Message: "recognize", Err: err}
	}

	results := make([]Result, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" || b.Confidence <= 0 {
			continue
		}
		results = append(results, Result{
			Text:       text,
			Confidence: b.Confidence / 100.0,
			BBox: document.BBox{
				X1: float64(b.Box.Min.X),
				Y1: float64(b.Box.Min.Y),
				X2: float64(b.Box.Max.X),
				Y2: float64(b.Box.Max.Y),
			},
		})
	}
	return results, nil
}

// Close releases the underlying Tesseract client.
func (t *TesseractBackend) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client.Close()
}
