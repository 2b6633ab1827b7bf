package ocr

import (
	"context"
	"image"
	"log/slog"
)

// EngineEnsemble selects ensemble mode: run the primary and fallback
// engines and merge their results.
const EngineEnsemble = "ensemble"

// Config holds the engine-selection policy for a job.
type Config struct {
	// Engine is the engine to run: a registry name or "ensemble".
	Engine string `mapstructure:"engine" yaml:"engine" json:"engine"`
	// FallbackEnabled runs the fallback engine when the selected engine
	// fails or yields zero results.
	FallbackEnabled bool `mapstructure:"fallback_enabled" yaml:"fallback_enabled" json:"fallback_enabled"`
	// PrimaryEngine and FallbackEngine name the two engines used by
	// ensemble mode and the fallback path.
	PrimaryEngine  string `mapstructure:"primary_engine" yaml:"primary_engine" json:"primary_engine"`
	FallbackEngine string `mapstructure:"fallback_engine" yaml:"fallback_engine" json:"fallback_engine"`
	// Language is the recognition language hint (e.g. "ara").
	Language string `mapstructure:"language" yaml:"language" json:"language"`
	// RemoteEndpoint is the HTTP inference endpoint for the primary engine.
	RemoteEndpoint string `mapstructure:"remote_endpoint" yaml:"remote_endpoint" json:"remote_endpoint"`
}

// DefaultConfig returns the default engine-selection policy.
func DefaultConfig() Config {
	return Config{
		Engine:          EnginePaddle,
		FallbackEnabled: true,
		PrimaryEngine:   EnginePaddle,
		FallbackEngine:  EngineTesseract,
		Language:        "ara",
	}
}

// Fusion runs one or more OCR engines over an image and merges their
// outputs into a single result set. Backend failures are absorbed here:
// they downgrade to the fallback engine or an empty result, never an
// aborted job.
type Fusion struct {
	registry *Registry
	cfg      Config
}

// NewFusion creates a fusion layer over the given registry.
func NewFusion(registry *Registry, cfg Config) *Fusion {
	if cfg.PrimaryEngine == "" {
		cfg.PrimaryEngine = EnginePaddle
	}
	if cfg.FallbackEngine == "" {
		cfg.FallbackEngine = EngineTesseract
	}
	return &Fusion{registry: registry, cfg: cfg}
}

// Recognize applies preprocessing, runs the configured engine(s) and
// returns merged results. The returned error is only ever a context
// error; engine trouble degrades to fewer (possibly zero) results.
func (f *Fusion) Recognize(ctx context.Context, img image.Image) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img = Preprocess(img)

	if f.cfg.Engine == EngineEnsemble {
		primary := f.run(ctx, f.cfg.PrimaryEngine, img)
		secondary := f.run(ctx, f.cfg.FallbackEngine, img)
		return MergeByBBox(primary, secondary), ctx.Err()
	}

	results := f.run(ctx, f.cfg.Engine, img)
	if len(results) == 0 && f.cfg.FallbackEnabled && f.cfg.Engine != f.cfg.FallbackEngine {
		slog.Warn("Primary OCR yielded no results, trying fallback",
			"engine", f.cfg.Engine, "fallback", f.cfg.FallbackEngine)
		results = f.run(ctx, f.cfg.FallbackEngine, img)
	}
	return results, ctx.Err()
}

// run executes a single engine, absorbing initialization and recognition
// failures into an empty result set.
func (f *Fusion) run(ctx context.Context, engine string, img image.Image) []Result {
	backend, err := f.registry.Get(engine)
	if err != nil {
		slog.Warn("OCR engine unavailable", "engine", engine, "error", err)
		return nil
	}
	results, err := backend.Recognize(ctx, img)
	if err != nil {
		slog.Warn("OCR recognition failed", "engine", engine, "error", err)
		return nil
	}
	slog.Debug("OCR recognition completed", "engine", engine, "regions_found", len(results))
	return results
}

// MergeByBBox merges two result sets by exact bounding box: when both
// engines report the same box, the longer recognized text wins as a
// proxy for completeness. Results with distinct boxes are all retained,
// in first-seen order.
func MergeByBBox(a, b []Result) []Result {
	merged := make([]Result, 0, len(a)+len(b))
	index := make(map[[4]float64]int, len(a)+len(b))

	add := func(r Result) {
		key := [4]float64{r.BBox.X1, r.BBox.Y1, r.BBox.X2, r.BBox.Y2}
		if i, ok := index[key]; ok {
			if len(r.Text) > len(merged[i].Text) {
				merged[i] = r
			}
			return
		}
		index[key] = len(merged)
		merged = append(merged, r)
	}

	for _, r := range a {
		add(r)
	}
	for _, r := range b {
		add(r)
	}
	return merged
}
