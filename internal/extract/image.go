package extract

import (
	"context"
	"image"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/tarjim/tarjim/internal/document"
)

// extractImage decodes the file and runs the OCR callback over it. Image
// sources always produce exactly one page.
func (e *Extractor) extractImage(ctx context.Context, path string) ([]document.Page, bool, error) {
	if e.ocr == nil {
		return nil, false, &Error{Path: path, Message: "no OCR backend configured for image input"}
	}

	file, err := os.Open(path) //nolint:gosec // G304: reading user-provided image path is expected
	if err != nil {
		return nil, false, &Error{Path: path, Message: "open image", Err: err}
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, false, &Error{Path: path, Message: "decode image", Err: err}
	}

	blocks, err := e.ocr(ctx, img, 0, 0)
	if err != nil {
		return nil, false, &Error{Path: path, Message: "recognize image", Err: err}
	}

	return []document.Page{{Index: 0, Blocks: blocks}}, true, nil
}
