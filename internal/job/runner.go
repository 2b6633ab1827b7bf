package job

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/tarjim/tarjim/internal/document"
	"github.com/tarjim/tarjim/internal/extract"
	"github.com/tarjim/tarjim/internal/ocr"
	"github.com/tarjim/tarjim/internal/segment"
	"github.com/tarjim/tarjim/internal/textnorm"
	"github.com/tarjim/tarjim/internal/translate"
)

// DefaultTimeout is the hard wall-clock budget for one job.
const DefaultTimeout = 30 * time.Minute

// TimeoutError indicates a job exceeded its wall-clock budget. There is
// no partial-result salvage; a timed-out job carries no outputs.
type TimeoutError struct {
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("job exceeded its %s processing budget", e.Budget)
}

// Runner executes one claimed job at a time through the pipeline:
// extraction (with OCR fallback), normalization, translation, stats.
// Heavy backends are shared across jobs via the registries.
type Runner struct {
	store    Store
	ocrReg   *ocr.Registry
	trReg    *translate.Registry
	detector translate.Detector
	segCfg   segment.Config
	ocrCfg   ocr.Config
	trCfg    translate.Config
	timeout  time.Duration
}

// NewRunner wires a runner over a store and the shared backend
// registries. A zero timeout selects DefaultTimeout.
func NewRunner(store Store, ocrReg *ocr.Registry, trReg *translate.Registry, detector translate.Detector,
	segCfg segment.Config, ocrCfg ocr.Config, trCfg translate.Config, timeout time.Duration,
) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		store:    store,
		ocrReg:   ocrReg,
		trReg:    trReg,
		detector: detector,
		segCfg:   segCfg,
		ocrCfg:   ocrCfg,
		trCfg:    trCfg,
		timeout:  timeout,
	}
}

// Execute drives a claimed job to a terminal state. Every stage
// boundary is committed to the store before the next stage begins. The
// returned error reports the terminal failure, which is already
// recorded on the job.
func (r *Runner) Execute(ctx context.Context, j *Job) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	slog.Info("Processing job", "job_id", j.ID, "file", j.SourceFile, "type", j.FileType)

	srcDoc, usedOCR, err := r.runExtraction(ctx, j)
	if err != nil {
		return r.failJob(ctx, j, StageExtraction, err)
	}
	j.SetStage(StageExtraction, StageCompleted)

	// OCR runs inside extraction when a page needs it; the stage record
	// tracks whether it was exercised.
	if usedOCR {
		j.SetStage(StageOCR, StageInProgress)
	}
	j.SetStage(StageOCR, StageCompleted)
	if err := r.store.Update(ctx, j); err != nil {
		return r.failJob(ctx, j, StageOCR, err)
	}

	j.SetStage(StageTranslation, StageInProgress)
	if err := r.store.Update(ctx, j); err != nil {
		return r.failJob(ctx, j, StageTranslation, err)
	}

	trStart := time.Now()
	translated, err := r.runTranslation(ctx, srcDoc, j.Config)
	if err != nil {
		return r.failJob(ctx, j, StageTranslation, err)
	}
	stageDuration.WithLabelValues(string(StageTranslation)).Observe(time.Since(trStart).Seconds())

	srcStats := document.CalculateStats(srcDoc)
	stats := &Stats{
		Source:     srcStats,
		Translated: document.CalculateStats(translated),
	}

	srcDoc.Metadata.ProcessingNs = time.Since(start).Nanoseconds()
	j.SetStage(StageTranslation, StageCompleted)
	j.Complete(srcDoc, translated, stats)
	if err := r.store.Update(ctx, j); err != nil {
		return r.failJob(ctx, j, StageTranslation, err)
	}

	jobsProcessedTotal.WithLabelValues(string(StatusCompleted)).Inc()
	jobDuration.Observe(time.Since(start).Seconds())
	blocksProcessed.Observe(float64(srcStats.TotalBlocks))
	charactersTranslatedTotal.Add(float64(srcStats.TotalCharacters))

	slog.Info("Job completed", "job_id", j.ID,
		"pages", srcStats.TotalPages, "blocks", srcStats.TotalBlocks,
		"duration", time.Since(start))
	return nil
}

// runExtraction builds the per-job extractor, extracts pages and
// normalizes every block's text once, producing the source document.
func (r *Runner) runExtraction(ctx context.Context, j *Job) (*document.Document, bool, error) {
	stageStart := time.Now()

	j.SetStage(StageExtraction, StageInProgress)
	if err := r.store.Update(ctx, j); err != nil {
		return nil, false, err
	}

	ocrCfg := r.ocrCfg
	if j.Config.OCREngine != "" {
		ocrCfg.Engine = j.Config.OCREngine
	}
	fusion := ocr.NewFusion(r.ocrReg, ocrCfg)

	ocrFn := func(ctx context.Context, img image.Image, pageIndex, firstBlock int) ([]document.Block, error) {
		results, err := fusion.Recognize(ctx, img)
		if err != nil {
			return nil, err
		}
		frags := make([]segment.Fragment, len(results))
		for i, res := range results {
			frags[i] = segment.Fragment{Text: res.Text, BBox: res.BBox, Confidence: res.Confidence}
		}
		return segment.GroupFragments(frags, pageIndex, firstBlock, r.segCfg.OCRGapThreshold, r.segCfg), nil
	}

	fileType := extract.FileType(j.FileType)
	if fileType == "" || fileType == extract.FileTypeUnknown {
		fileType = extract.DetectFileType(j.SourceFile)
	}

	extractor := extract.New(r.segCfg, ocrFn)
	pages, usedOCR, err := extractor.Extract(ctx, j.SourceFile, fileType)
	if err != nil {
		return nil, false, err
	}

	engineName := ""
	if usedOCR {
		engineName = ocrCfg.Engine
	}
	doc := document.New(filepath.Base(j.SourceFile), translate.ShortLang(j.Config.SourceLang), engineName)
	doc.SetPages(pages)

	// Normalization runs exactly once, after segmentation and before
	// translation.
	for pi := range doc.Pages {
		for bi := range doc.Pages[pi].Blocks {
			doc.Pages[pi].Blocks[bi].Text = textnorm.Normalize(doc.Pages[pi].Blocks[bi].Text)
		}
	}

	stageDuration.WithLabelValues(string(StageExtraction)).Observe(time.Since(stageStart).Seconds())
	return doc, usedOCR, nil
}

// runTranslation builds the per-job pipeline from the configuration
// snapshot and produces the translated document.
func (r *Runner) runTranslation(ctx context.Context, src *document.Document, cfg Config) (*document.Document, error) {
	trCfg := r.trCfg
	if cfg.SourceLang != "" {
		trCfg.SourceLang = cfg.SourceLang
	}
	if cfg.TargetLang != "" {
		trCfg.TargetLang = cfg.TargetLang
	}
	if cfg.BatchSize > 0 {
		trCfg.BatchSize = cfg.BatchSize
	}

	pipeline := translate.NewPipeline(r.trReg, r.detector, trCfg)
	return pipeline.TranslateDocument(ctx, src)
}

// failJob records a terminal failure on the job and commits it. The
// store write uses a detached context so a timed-out job still persists
// its terminal state.
func (r *Runner) failJob(ctx context.Context, j *Job, stage Stage, cause error) error {
	if errors.Is(cause, context.DeadlineExceeded) {
		cause = &TimeoutError{Budget: r.timeout}
	}

	j.SetStage(stage, StageFailed)
	j.Fail(cause.Error(), fmt.Sprintf("stage=%s detail=%+v", stage, cause))

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.store.Update(writeCtx, j); err != nil {
		slog.Error("Failed to persist job failure", "job_id", j.ID, "error", err)
	}

	jobsProcessedTotal.WithLabelValues(string(StatusFailed)).Inc()
	slog.Error("Job failed", "job_id", j.ID, "stage", stage, "error", cause)
	return cause
}
