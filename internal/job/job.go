// Package job owns the processing job record, its status state machine
// and the worker that drives a job through the pipeline stages.
package job

import (
	"time"

	"github.com/google/uuid"

	"github.com/tarjim/tarjim/internal/document"
)

// Status is the overall job status.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusProcessing  Status = "processing"
	StatusExtracting  Status = "extracting"
	StatusOCR         Status = "ocr"
	StatusTranslating Status = "translating"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StageStatus is the per-stage sub-status.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageInProgress StageStatus = "in_progress"
	StageCompleted  StageStatus = "completed"
	StageFailed     StageStatus = "failed"
)

// Stage names the three pipeline stages tracked on a job.
type Stage string

const (
	StageExtraction  Stage = "extraction"
	StageOCR         Stage = "ocr"
	StageTranslation Stage = "translation"
)

// Stages holds the three independent sub-statuses.
type Stages struct {
	Extraction  StageStatus `json:"extraction"`
	OCR         StageStatus `json:"ocr"`
	Translation StageStatus `json:"translation"`
}

// NewStages returns all stages pending.
func NewStages() Stages {
	return Stages{Extraction: StagePending, OCR: StagePending, Translation: StagePending}
}

// Get returns the sub-status for a stage.
func (s Stages) Get(stage Stage) StageStatus {
	switch stage {
	case StageOCR:
		return s.OCR
	case StageTranslation:
		return s.Translation
	default:
		return s.Extraction
	}
}

// Set updates the sub-status for a stage.
func (s *Stages) Set(stage Stage, status StageStatus) {
	switch stage {
	case StageOCR:
		s.OCR = status
	case StageTranslation:
		s.Translation = status
	default:
		s.Extraction = status
	}
}

// DeriveStatus maps the per-stage sub-statuses to the overall job status.
// started reports whether a worker has claimed the job. The overall status
// mirrors the active stage, becomes completed only once translation
// completes, and becomes failed the moment any stage fails.
func DeriveStatus(started bool, stages Stages) Status {
	switch {
	case stages.Extraction == StageFailed,
		stages.OCR == StageFailed,
		stages.Translation == StageFailed:
		return StatusFailed
	case stages.Translation == StageCompleted:
		return StatusCompleted
	case stages.Translation == StageInProgress:
		return StatusTranslating
	case stages.OCR == StageInProgress:
		return StatusOCR
	case stages.Extraction == StageInProgress:
		return StatusExtracting
	case started:
		return StatusProcessing
	default:
		return StatusQueued
	}
}

// Config is the configuration snapshot stored on the job at submission;
// processing reads the snapshot, never live configuration.
type Config struct {
	OCREngine  string `json:"ocr_engine"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	Model      string `json:"model,omitempty"`
	BatchSize  int    `json:"batch_size"`
}

// Stats combines the source and translated document statistics.
type Stats struct {
	Source     document.Stats `json:"source"`
	Translated document.Stats `json:"translated"`
}

// Job is the persisted processing record. Stage sub-statuses are
// monotonic within a run and the overall Status is always the value of
// DeriveStatus over them.
type Job struct {
	ID         string `json:"id"`
	SourceFile string `json:"source_file"`
	FileType   string `json:"file_type"`

	Status Status `json:"status"`
	Stages Stages `json:"stages"`
	Config Config `json:"config"`

	SourceDoc     *document.Document `json:"source_doc,omitempty"`
	TranslatedDoc *document.Document `json:"translated_doc,omitempty"`
	Stats         *Stats             `json:"stats,omitempty"`

	Error       string `json:"error,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// New creates a queued job for a source file.
func New(sourceFile, fileType string, cfg Config) *Job {
	now := time.Now().UTC()
	return &Job{
		ID:         uuid.NewString(),
		SourceFile: sourceFile,
		FileType:   fileType,
		Status:     StatusQueued,
		Stages:     NewStages(),
		Config:     cfg,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// SetStage advances one stage sub-status and re-derives the overall
// status. It refuses regressions so a completed stage can never return
// to pending within the same run.
func (j *Job) SetStage(stage Stage, status StageStatus) {
	if stageRank(status) < stageRank(j.Stages.Get(stage)) {
		return
	}
	j.Stages.Set(stage, status)
	j.Status = DeriveStatus(true, j.Stages)
	j.UpdatedAt = time.Now().UTC()
}

func stageRank(s StageStatus) int {
	switch s {
	case StageInProgress:
		return 1
	case StageCompleted:
		return 2
	case StageFailed:
		return 3
	default:
		return 0
	}
}

// Complete marks the job terminal with its outputs attached.
func (j *Job) Complete(source, translated *document.Document, stats *Stats) {
	j.SourceDoc = source
	j.TranslatedDoc = translated
	j.Stats = stats
	j.Status = StatusCompleted
	now := time.Now().UTC()
	j.UpdatedAt = now
	j.CompletedAt = &now
}

// Fail marks the job terminal with an error. Stage sub-statuses keep
// their last values so callers can see which stage failed.
func (j *Job) Fail(message, detail string) {
	j.Status = StatusFailed
	j.Error = message
	j.ErrorDetail = detail
	j.UpdatedAt = time.Now().UTC()
}
