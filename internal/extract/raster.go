package extract

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/tarjim/tarjim/internal/document"
	"github.com/tarjim/tarjim/internal/ocr"
)

// ocrPDFPage rasterizes a single page's embedded images and runs the OCR
// callback over each, upscaled for recognition quality. Blocks from all
// images of the page share one id counter.
func (e *Extractor) ocrPDFPage(ctx context.Context, path string, pageNum, pageIndex int) ([]document.Block, error) {
	images, err := extractPageImages(path, pageNum)
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, nil
	}

	var blocks []document.Block
	for _, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		upscaled := ocr.Upscale(img, e.cfg.UpscaleFactor)
		got, err := e.ocr(ctx, upscaled, pageIndex, len(blocks))
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, got...)
	}
	return blocks, nil
}

// extractPageImages pulls a page's embedded images out to a temp
// directory and decodes them in filename order.
func extractPageImages(path string, pageNum int) ([]image.Image, error) {
	tempDir, err := os.MkdirTemp("", "tarjim-raster-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	if err := api.ExtractImagesFile(path, tempDir, []string{strconv.Itoa(pageNum)}, nil); err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	return collectPageImages(tempDir, pageNum)
}

// collectPageImages loads extracted files named page_<num>_image_<idx>.<ext>
// for the requested page, skipping anything unparsable or undecodable.
func collectPageImages(dir string, pageNum int) ([]image.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []image.Image
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		got, err := parsePageFromFilename(entry.Name())
		if err != nil || got != pageNum {
			continue
		}
		img, err := loadImageFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

func loadImageFile(path string) (image.Image, error) {
	file, err := os.Open(path) //nolint:gosec // G304: reading files we just extracted
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	return img, err
}

// parsePageFromFilename extracts the page number from an extracted image
// filename like page_1_image_1.png.
func parsePageFromFilename(filename string) (int, error) {
	if !strings.HasPrefix(filename, "page_") {
		return 0, errors.New("not a page file")
	}

	parts := strings.Split(filename, "_")
	if len(parts) < 2 {
		return 0, errors.New("invalid filename format")
	}

	pageNum, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, errors.New("invalid page number")
	}

	return pageNum, nil
}
