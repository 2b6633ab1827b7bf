package translate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tarjim/tarjim/internal/document"
)

// Config holds translation pipeline settings.
type Config struct {
	// SourceLang and TargetLang are backend language tags (NLLB format,
	// e.g. "ara_Arab" / "eng_Latn").
	SourceLang string `mapstructure:"source_lang" yaml:"source_lang" json:"source_lang"`
	TargetLang string `mapstructure:"target_lang" yaml:"target_lang" json:"target_lang"`
	// BatchSize is the number of texts per backend call.
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size" json:"batch_size"`
	// SkipTargetLanguage passes text through untranslated when it is
	// already in the target language.
	SkipTargetLanguage bool `mapstructure:"skip_target_language" yaml:"skip_target_language" json:"skip_target_language"`
	// MaxWorkers bounds the worker pool for independent batch calls.
	// Values <= 1 process batches sequentially.
	MaxWorkers int `mapstructure:"max_workers" yaml:"max_workers" json:"max_workers"`
	// Progress receives batch completion events.
	Progress ProgressCallback `mapstructure:"-" yaml:"-" json:"-"`
}

// DefaultConfig returns the default translation settings.
func DefaultConfig() Config {
	return Config{
		SourceLang:         "ara_Arab",
		TargetLang:         "eng_Latn",
		BatchSize:          32,
		SkipTargetLanguage: true,
		MaxWorkers:         1,
	}
}

// Pipeline translates a structured document while preserving structure.
type Pipeline struct {
	registry *Registry
	detector Detector
	cfg      Config
}

// NewPipeline creates a translation pipeline over a backend registry.
func NewPipeline(registry *Registry, detector Detector, cfg Config) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Progress == nil {
		cfg.Progress = NoOpProgressCallback{}
	}
	return &Pipeline{registry: registry, detector: detector, cfg: cfg}
}

// workItem ties a flattened text to its origin so reassembly is keyed by
// (page, block) position, not batch submission order.
type workItem struct {
	page  int
	block int
	text  string
}

// TranslateDocument produces a new document whose page and block
// cardinality, order, ids, types and metadata exactly mirror src; only
// block text is replaced. src is never mutated. Per-item translation
// failure falls back to the original text rather than aborting.
func (p *Pipeline) TranslateDocument(ctx context.Context, src *document.Document) (*document.Document, error) {
	// Flatten non-empty blocks into one ordered work list. The index
	// mapping is threaded here and reused during reassembly.
	var items []workItem
	for pi, page := range src.Pages {
		for bi, block := range page.Blocks {
			if strings.TrimSpace(block.Text) == "" {
				continue
			}
			items = append(items, workItem{page: pi, block: bi, text: block.Text})
		}
	}

	slog.Info("Translating document",
		"pages", len(src.Pages), "blocks", len(items),
		"source", p.cfg.SourceLang, "target", p.cfg.TargetLang)

	translated := make([]string, len(items))
	p.cfg.Progress.OnStart(len(items))

	if err := p.translateAll(ctx, items, translated); err != nil {
		return nil, err
	}
	p.cfg.Progress.OnComplete()

	// Reassemble: identical structure, only text replaced.
	out := src.Clone()
	out.Language = ShortLang(p.cfg.TargetLang)
	for i, item := range items {
		out.Pages[item.page].Blocks[item.block].Text = translated[i]
	}
	return out, nil
}

// translateAll partitions items into fixed-size batches and runs them,
// optionally across a bounded worker pool. Batches are independent and
// results are written by flattened index, so completion order does not
// affect the output.
func (p *Pipeline) translateAll(ctx context.Context, items []workItem, translated []string) error {
	type batchRange struct{ start, end int }

	var batches []batchRange
	for start := 0; start < len(items); start += p.cfg.BatchSize {
		end := min(start+p.cfg.BatchSize, len(items))
		batches = append(batches, batchRange{start, end})
	}

	workers := p.cfg.MaxWorkers
	if workers <= 1 || len(batches) <= 1 {
		done := 0
		for _, b := range batches {
			if err := ctx.Err(); err != nil {
				return err
			}
			p.translateBatch(ctx, items[b.start:b.end], translated[b.start:b.end])
			done += b.end - b.start
			p.cfg.Progress.OnProgress(done, len(items))
		}
		return ctx.Err()
	}

	if workers > len(batches) {
		workers = len(batches)
	}

	jobs := make(chan batchRange, len(batches))
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	done := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				if ctx.Err() != nil {
					return
				}
				p.translateBatch(ctx, items[b.start:b.end], translated[b.start:b.end])
				progressMu.Lock()
				done += b.end - b.start
				p.cfg.Progress.OnProgress(done, len(items))
				progressMu.Unlock()
			}
		}()
	}
	for _, b := range batches {
		jobs <- b
	}
	close(jobs)
	wg.Wait()

	return ctx.Err()
}

// translateBatch fills out[i] for every item: skipped items pass through
// unchanged, batch failures degrade to per-item calls, and per-item
// failures fall back to the original text.
func (p *Pipeline) translateBatch(ctx context.Context, batch []workItem, out []string) {
	targetShort := ShortLang(p.cfg.TargetLang)

	// Skip-if-already-target-language pre-filter.
	var retained []int
	for i, item := range batch {
		if p.cfg.SkipTargetLanguage && languageOf(item.text, p.detector) == targetShort {
			slog.Debug("Skipping block already in target language", "page", item.page, "block", item.block)
			out[i] = item.text
			continue
		}
		retained = append(retained, i)
	}
	if len(retained) == 0 {
		return
	}

	texts := make([]string, len(retained))
	for j, i := range retained {
		texts[j] = batch[i].text
	}

	backend, err := p.registry.Get()
	if err != nil {
		slog.Warn("Translation backend unavailable, passing text through", "error", err)
		for j, i := range retained {
			out[i] = texts[j]
		}
		return
	}

	results, err := backend.TranslateBatch(ctx, texts, p.cfg.SourceLang, p.cfg.TargetLang)
	if err == nil && len(results) == len(texts) {
		for j, i := range retained {
			out[i] = strings.TrimSpace(results[j])
		}
		return
	}
	slog.Warn("Batch translation failed, falling back to individual items",
		"batch_size", len(texts), "error", err)

	// Per-item degradation: a failing item keeps its original text.
	for j, i := range retained {
		single, err := backend.TranslateBatch(ctx, texts[j:j+1], p.cfg.SourceLang, p.cfg.TargetLang)
		if err != nil || len(single) != 1 {
			slog.Warn("Item translation failed, keeping original text",
				"page", batch[i].page, "block", batch[i].block, "error", err)
			out[i] = texts[j]
			continue
		}
		out[i] = strings.TrimSpace(single[0])
	}
}
