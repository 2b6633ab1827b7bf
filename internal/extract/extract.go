// Package extract turns source files into structured pages, delegating
// image-typed content to an OCR callback.
package extract

import (
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/tarjim/tarjim/internal/document"
	"github.com/tarjim/tarjim/internal/segment"
)

// FileType identifies the extraction strategy for a source file.
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeDOCX    FileType = "docx"
	FileTypeImage   FileType = "image"
	FileTypeUnknown FileType = "unknown"
)

// DetectFileType maps a filename extension to its file type.
func DetectFileType(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FileTypePDF
	case ".docx":
		return FileTypeDOCX
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp":
		return FileTypeImage
	default:
		return FileTypeUnknown
	}
}

// Error indicates an unreadable or unsupported source file. Extraction
// errors are fatal for the job once both strategies have failed.
type Error struct {
	Path    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("extraction of %s: %s", e.Path, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// OCRFunc recognizes an image and returns grouped blocks for the given
// page, with block ids starting at firstBlock.
type OCRFunc func(ctx context.Context, img image.Image, pageIndex, firstBlock int) ([]document.Block, error)

// Extractor produces structured pages from PDF, DOCX and image files.
type Extractor struct {
	cfg segment.Config
	ocr OCRFunc
}

// New creates an extractor. ocr may be nil, in which case image-typed
// content fails with an extraction error.
func New(cfg segment.Config, ocr OCRFunc) *Extractor {
	return &Extractor{cfg: cfg, ocr: ocr}
}

// Extract dispatches on file type and returns pages in document order.
// usedOCR reports whether any page content came from OCR.
func (e *Extractor) Extract(ctx context.Context, path string, fileType FileType) (pages []document.Page, usedOCR bool, err error) {
	switch fileType {
	case FileTypePDF:
		return e.extractPDF(ctx, path)
	case FileTypeDOCX:
		p, err := e.extractDOCX(path)
		return p, false, err
	case FileTypeImage:
		return e.extractImage(ctx, path)
	default:
		return nil, false, &Error{Path: path, Message: fmt.Sprintf("unsupported file type %q", fileType)}
	}
}
