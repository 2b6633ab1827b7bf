package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarjim/tarjim/internal/document"
)

// fakeBackend returns canned results or a canned error.
type fakeBackend struct {
	name    string
	results []Result
	err     error
	calls   int
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	f.calls++
	return f.results, f.err
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 32, 32))
}

func registryWith(t *testing.T, backends ...*fakeBackend) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, b := range backends {
		backend := b
		r.Register(backend.name, func() (Backend, error) { return backend, nil })
	}
	return r
}

func TestMergeByBBox_TieBreakLongerText(t *testing.T) {
	box := document.BBox{X1: 0, Y1: 0, X2: 100, Y2: 20}
	a := []Result{{Text: "Hi", Confidence: 0.9, BBox: box}}
	b := []Result{{Text: "Hello", Confidence: 0.7, BBox: box}}

	merged := MergeByBBox(a, b)
	require.Len(t, merged, 1)
	assert.Equal(t, "Hello", merged[0].Text)
}

func TestMergeByBBox_DistinctBoxesRetained(t *testing.T) {
	a := []Result{{Text: "one", BBox: document.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}}}
	b := []Result{{Text: "two", BBox: document.BBox{X1: 0, Y1: 20, X2: 10, Y2: 30}}}

	merged := MergeByBBox(a, b)
	require.Len(t, merged, 2)
	assert.Equal(t, "one", merged[0].Text)
	assert.Equal(t, "two", merged[1].Text)
}

func TestMergeByBBox_ShorterSecondDoesNotReplace(t *testing.T) {
	box := document.BBox{X1: 5, Y1: 5, X2: 50, Y2: 25}
	a := []Result{{Text: "longer text", BBox: box}}
	b := []Result{{Text: "short", BBox: box}}

	merged := MergeByBBox(a, b)
	require.Len(t, merged, 1)
	assert.Equal(t, "longer text", merged[0].Text)
}

func TestFusion_EnsembleMode(t *testing.T) {
	box := document.BBox{X1: 0, Y1: 0, X2: 100, Y2: 20}
	primary := &fakeBackend{name: "paddle", results: []Result{{Text: "Hi", BBox: box}}}
	fallback := &fakeBackend{name: "tesseract", results: []Result{{Text: "Hello", BBox: box}}}

	cfg := DefaultConfig()
	cfg.Engine = EngineEnsemble
	f := NewFusion(registryWith(t, primary, fallback), cfg)

	results, err := f.Recognize(context.Background(), testImage())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hello", results[0].Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFusion_SingleEngineFallbackOnEmpty(t *testing.T) {
	primary := &fakeBackend{name: "paddle"}
	fallback := &fakeBackend{name: "tesseract", results: []Result{
		{Text: "found", BBox: document.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}},
	}}

	cfg := DefaultConfig()
	f := NewFusion(registryWith(t, primary, fallback), cfg)

	results, err := f.Recognize(context.Background(), testImage())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "found", results[0].Text)
}

func TestFusion_SingleEngineNoFallbackWhenDisabled(t *testing.T) {
	primary := &fakeBackend{name: "paddle"}
	fallback := &fakeBackend{name: "tesseract", results: []Result{
		{Text: "found", BBox: document.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}},
	}}

	cfg := DefaultConfig()
	cfg.FallbackEnabled = false
	f := NewFusion(registryWith(t, primary, fallback), cfg)

	results, err := f.Recognize(context.Background(), testImage())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, fallback.calls)
}

func TestFusion_BackendErrorAbsorbed(t *testing.T) {
	primary := &fakeBackend{name: "paddle", err: errors.New("engine down")}
	fallback := &fakeBackend{name: "tesseract", results: []Result{
		{Text: "rescued", BBox: document.BBox{X1: 0, Y1: 0, X2: 10, Y2: 10}},
	}}

	cfg := DefaultConfig()
	f := NewFusion(registryWith(t, primary, fallback), cfg)

	results, err := f.Recognize(context.Background(), testImage())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "rescued", results[0].Text)
}

func TestFusion_AllEnginesDownYieldsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	f := NewFusion(NewRegistry(), cfg)

	results, err := f.Recognize(context.Background(), testImage())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFusion_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFusion(NewRegistry(), DefaultConfig())
	_, err := f.Recognize(ctx, testImage())
	assert.ErrorIs(t, err, context.Canceled)
}
