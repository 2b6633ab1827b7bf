package cmd

import (
	"fmt"

	"github.com/tarjim/tarjim/internal/config"
	"github.com/tarjim/tarjim/internal/job"
	"github.com/tarjim/tarjim/internal/ocr"
	"github.com/tarjim/tarjim/internal/translate"
)

// openStore opens the configured job store.
func openStore(cfg *config.Config) (job.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return job.NewMemStore(), nil
	case "sqlite", "":
		return job.OpenSQLStore(cfg.Store.Path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// buildOCRRegistry registers the engine factories. Engines are heavy, so
// construction is deferred to first use and shared across jobs.
func buildOCRRegistry(cfg *config.Config) *ocr.Registry {
	registry := ocr.NewRegistry()

	language := cfg.OCR.Language
	registry.Register(ocr.EngineTesseract, func() (ocr.Backend, error) {
		return ocr.NewTesseractBackend(language)
	})

	endpoint := cfg.OCR.RemoteEndpoint
	registry.Register(ocr.EnginePaddle, func() (ocr.Backend, error) {
		if endpoint == "" {
			return nil, fmt.Errorf("ocr.remote_endpoint is not configured")
		}
		return ocr.NewRemoteBackend(ocr.EnginePaddle, endpoint, language), nil
	})

	return registry
}

// buildTranslateRegistry wraps the HTTP translation backend in the lazy
// process-wide registry.
func buildTranslateRegistry(cfg *config.Config) *translate.Registry {
	endpoint := cfg.Translation.Endpoint
	model := cfg.Translation.Model
	return translate.NewRegistry(func() (translate.Translator, error) {
		if endpoint == "" {
			return nil, fmt.Errorf("translation_backend.endpoint is not configured")
		}
		return translate.NewHTTPTranslator(endpoint, model), nil
	})
}

// buildRunner wires the job runner with its shared registries.
func buildRunner(cfg *config.Config, store job.Store, trCfg translate.Config) (*job.Runner, *ocr.Registry) {
	ocrReg := buildOCRRegistry(cfg)
	trReg := buildTranslateRegistry(cfg)
	runner := job.NewRunner(store, ocrReg, trReg, translate.HeuristicDetector{},
		cfg.Segment, cfg.OCR, trCfg, cfg.Worker.JobTimeout)
	return runner, ocrReg
}

// jobConfig builds the configuration snapshot stored on a submitted job.
func jobConfig(cfg *config.Config, engine, sourceLang, targetLang string, batchSize int) job.Config {
	snapshot := job.Config{
		OCREngine:  cfg.OCR.Engine,
		SourceLang: cfg.Translate.SourceLang,
		TargetLang: cfg.Translate.TargetLang,
		Model:      cfg.Translation.Model,
		BatchSize:  cfg.Translate.BatchSize,
	}
	if engine != "" {
		snapshot.OCREngine = engine
	}
	if sourceLang != "" {
		snapshot.SourceLang = sourceLang
	}
	if targetLang != "" {
		snapshot.TargetLang = targetLang
	}
	if batchSize > 0 {
		snapshot.BatchSize = batchSize
	}
	return snapshot
}
