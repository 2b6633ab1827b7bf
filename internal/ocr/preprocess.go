package ocr

import (
	"image"
	"log/slog"

	"github.com/disintegration/imaging"
)

// Preprocess prepares an image for recognition: single-channel intensity
// conversion followed by light denoising. This is best-effort; on any
// problem the raw image is returned unmodified.
func Preprocess(img image.Image) image.Image {
	if img == nil {
		return img
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		slog.Warn("Image preprocessing skipped, empty bounds")
		return img
	}
	gray := imaging.Grayscale(img)
	return imaging.Blur(gray, 0.8)
}

// Upscale resizes an image by an integer factor using Lanczos resampling.
// Factors below 2 return the image unchanged.
func Upscale(img image.Image, factor int) image.Image {
	if img == nil || factor < 2 {
		return img
	}
	bounds := img.Bounds()
	return imaging.Resize(img, bounds.Dx()*factor, bounds.Dy()*factor, imaging.Lanczos)
}
