// Package ocr defines the OCR backend contract, engine-selection policy
// and result fusion for image-typed pages.
package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/tarjim/tarjim/internal/document"
)

// Result is one recognized text region.
type Result struct {
	Text       string        `json:"text"`
	Confidence float64       `json:"confidence"` // 0.0-1.0
	BBox       document.BBox `json:"bbox"`
}

// Backend recognizes text regions in an image. Implementations wrap a
// concrete OCR engine; recognition accuracy is the engine's concern.
type Backend interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) ([]Result, error)
}

// Error indicates an OCR backend problem. Backend failures are absorbed
// by the fusion layer and never abort a job.
type Error struct {
	Engine  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ocr engine %s: %s", e.Engine, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
