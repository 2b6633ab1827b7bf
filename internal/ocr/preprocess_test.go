package ocr

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocess(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	out := Preprocess(img)
	require.NotNil(t, out)
	assert.Equal(t, 40, out.Bounds().Dx())
	assert.Equal(t, 30, out.Bounds().Dy())
}

func TestPreprocess_NilAndEmpty(t *testing.T) {
	assert.Nil(t, Preprocess(nil))

	empty := image.NewRGBA(image.Rect(0, 0, 0, 0))
	assert.Equal(t, image.Image(empty), Preprocess(empty))
}

func TestUpscale(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))

	doubled := Upscale(img, 2)
	assert.Equal(t, 40, doubled.Bounds().Dx())
	assert.Equal(t, 20, doubled.Bounds().Dy())

	// Factors below 2 pass through unchanged.
	assert.Equal(t, image.Image(img), Upscale(img, 1))
	assert.Equal(t, image.Image(img), Upscale(img, 0))
}
