package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		started bool
		stages  Stages
		want    Status
	}{
		{
			name:   "all pending unclaimed",
			stages: NewStages(),
			want:   StatusQueued,
		},
		{
			name:    "all pending claimed",
			started: true,
			stages:  NewStages(),
			want:    StatusProcessing,
		},
		{
			name:    "extraction running",
			started: true,
			stages:  Stages{Extraction: StageInProgress, OCR: StagePending, Translation: StagePending},
			want:    StatusExtracting,
		},
		{
			name:    "ocr running",
			started: true,
			stages:  Stages{Extraction: StageCompleted, OCR: StageInProgress, Translation: StagePending},
			want:    StatusOCR,
		},
		{
			name:    "translation running",
			started: true,
			stages:  Stages{Extraction: StageCompleted, OCR: StageCompleted, Translation: StageInProgress},
			want:    StatusTranslating,
		},
		{
			name:    "translation completed",
			started: true,
			stages:  Stages{Extraction: StageCompleted, OCR: StageCompleted, Translation: StageCompleted},
			want:    StatusCompleted,
		},
		{
			name:    "any stage failed wins",
			started: true,
			stages:  Stages{Extraction: StageFailed, OCR: StagePending, Translation: StagePending},
			want:    StatusFailed,
		},
		{
			name:    "late failure beats earlier completion",
			started: true,
			stages:  Stages{Extraction: StageCompleted, OCR: StageCompleted, Translation: StageFailed},
			want:    StatusFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(tt.started, tt.stages))
		})
	}
}

func TestCompletedImpliesAllStagesCompleted(t *testing.T) {
	statuses := []StageStatus{StagePending, StageInProgress, StageCompleted, StageFailed}
	for _, e := range statuses {
		for _, o := range statuses {
			for _, tr := range statuses {
				stages := Stages{Extraction: e, OCR: o, Translation: tr}
				if DeriveStatus(true, stages) != StatusCompleted {
					continue
				}
				assert.Equal(t, StageCompleted, e)
				assert.Equal(t, StageCompleted, o)
				assert.Equal(t, StageCompleted, tr)
			}
		}
	}
}

func TestNew(t *testing.T) {
	j := New("/tmp/scan.pdf", "pdf", Config{OCREngine: "paddle", SourceLang: "ara_Arab", TargetLang: "eng_Latn", BatchSize: 32})

	assert.NotEmpty(t, j.ID)
	assert.Equal(t, StatusQueued, j.Status)
	assert.Equal(t, NewStages(), j.Stages)
	assert.Equal(t, "paddle", j.Config.OCREngine)
	assert.False(t, j.CreatedAt.IsZero())
	assert.Nil(t, j.CompletedAt)
}

func TestSetStage_Monotonic(t *testing.T) {
	j := New("f.pdf", "pdf", Config{})

	j.SetStage(StageExtraction, StageInProgress)
	assert.Equal(t, StatusExtracting, j.Status)

	j.SetStage(StageExtraction, StageCompleted)
	assert.Equal(t, StageCompleted, j.Stages.Extraction)

	// A completed stage never regresses within a run.
	j.SetStage(StageExtraction, StagePending)
	assert.Equal(t, StageCompleted, j.Stages.Extraction)
	j.SetStage(StageExtraction, StageInProgress)
	assert.Equal(t, StageCompleted, j.Stages.Extraction)
}

func TestSetStage_DrivesOverallStatus(t *testing.T) {
	j := New("f.pdf", "pdf", Config{})

	j.SetStage(StageExtraction, StageInProgress)
	assert.Equal(t, StatusExtracting, j.Status)
	j.SetStage(StageExtraction, StageCompleted)
	j.SetStage(StageOCR, StageInProgress)
	assert.Equal(t, StatusOCR, j.Status)
	j.SetStage(StageOCR, StageCompleted)
	j.SetStage(StageTranslation, StageInProgress)
	assert.Equal(t, StatusTranslating, j.Status)
	j.SetStage(StageTranslation, StageCompleted)
	assert.Equal(t, StatusCompleted, j.Status)
}

func TestFail_KeepsStageVisibility(t *testing.T) {
	j := New("f.pdf", "pdf", Config{})
	j.SetStage(StageExtraction, StageCompleted)
	j.SetStage(StageOCR, StageCompleted)
	j.SetStage(StageTranslation, StageFailed)
	j.Fail("backend unavailable", "stage=translation detail=...")

	assert.Equal(t, StatusFailed, j.Status)
	assert.Equal(t, "backend unavailable", j.Error)
	// Earlier stage statuses are left as-is so the failed stage is visible.
	assert.Equal(t, StageCompleted, j.Stages.Extraction)
	assert.Equal(t, StageCompleted, j.Stages.OCR)
	assert.Equal(t, StageFailed, j.Stages.Translation)
	assert.True(t, j.Status.Terminal())
}

func TestComplete(t *testing.T) {
	j := New("f.pdf", "pdf", Config{})
	j.SetStage(StageExtraction, StageCompleted)
	j.SetStage(StageOCR, StageCompleted)
	j.SetStage(StageTranslation, StageCompleted)

	stats := &Stats{}
	j.Complete(nil, nil, stats)

	assert.Equal(t, StatusCompleted, j.Status)
	require.NotNil(t, j.CompletedAt)
	assert.Same(t, stats, j.Stats)
	assert.True(t, j.Status.Terminal())
}

func TestResults(t *testing.T) {
	j := New("f.pdf", "pdf", Config{})

	_, err := Results(j)
	assert.ErrorIs(t, err, ErrInvalidState)

	j.SetStage(StageExtraction, StageCompleted)
	j.SetStage(StageOCR, StageCompleted)
	j.SetStage(StageTranslation, StageCompleted)
	j.Complete(nil, nil, &Stats{})

	stats, err := Results(j)
	require.NoError(t, err)
	assert.NotNil(t, stats)
}
