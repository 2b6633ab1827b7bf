package job

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarjim/tarjim/internal/ocr"
	"github.com/tarjim/tarjim/internal/segment"
	"github.com/tarjim/tarjim/internal/testutil"
	"github.com/tarjim/tarjim/internal/translate"
)

// echoTranslator marks each text so translation is observable.
type echoTranslator struct{}

func (echoTranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = "[" + targetLang + "] " + s
	}
	return out, nil
}

func newTestRunner(store Store, tr translate.Translator, timeout time.Duration) *Runner {
	trReg := translate.NewRegistry(func() (translate.Translator, error) {
		if tr == nil {
			return nil, errors.New("no backend")
		}
		return tr, nil
	})
	return NewRunner(store, ocr.NewRegistry(), trReg, translate.HeuristicDetector{},
		segment.DefaultConfig(), ocr.DefaultConfig(), translate.DefaultConfig(), timeout)
}

func docxJob(t *testing.T, store Store) *Job {
	t.Helper()
	path := testutil.WriteDOCX(t, t.TempDir(), testutil.DOCXParts{
		DocumentXML: testutil.WrapBody(
			testutil.Paragraph("العنوان الرئيسي", "Heading1", 0) +
				testutil.Paragraph("الفقرة  الاولى", "", 0),
		),
		StylesXML: testutil.HeadingStylesXML(),
	})

	j := New(path, "docx", Config{SourceLang: "ara_Arab", TargetLang: "eng_Latn", BatchSize: 32})
	require.NoError(t, store.Create(context.Background(), j))
	return j
}

func TestRunner_ExecuteCompletesJob(t *testing.T) {
	store := NewMemStore()
	runner := newTestRunner(store, echoTranslator{}, time.Minute)
	ctx := context.Background()

	created := docxJob(t, store)
	claimed, err := store.Claim(ctx)
	require.NoError(t, err)

	require.NoError(t, runner.Execute(ctx, claimed))

	finished, err := store.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, finished.Status)
	assert.Equal(t, StageCompleted, finished.Stages.Extraction)
	assert.Equal(t, StageCompleted, finished.Stages.OCR)
	assert.Equal(t, StageCompleted, finished.Stages.Translation)
	require.NotNil(t, finished.CompletedAt)

	require.NotNil(t, finished.SourceDoc)
	require.NotNil(t, finished.TranslatedDoc)
	require.Len(t, finished.SourceDoc.Pages, 1)
	require.Len(t, finished.SourceDoc.Pages[0].Blocks, 2)

	// Normalization collapsed the double space before translation.
	assert.Equal(t, "الفقرة الاولى", finished.SourceDoc.Pages[0].Blocks[1].Text)
	assert.Equal(t, "[eng_Latn] الفقرة الاولى", finished.TranslatedDoc.Pages[0].Blocks[1].Text)
	assert.Equal(t, "en", finished.TranslatedDoc.Language)

	// Structure mirrors the source.
	for bi, sb := range finished.SourceDoc.Pages[0].Blocks {
		tb := finished.TranslatedDoc.Pages[0].Blocks[bi]
		assert.Equal(t, sb.ID, tb.ID)
		assert.Equal(t, sb.Type, tb.Type)
	}

	require.NotNil(t, finished.Stats)
	assert.Equal(t, 1, finished.Stats.Source.TotalPages)
	assert.Equal(t, 2, finished.Stats.Source.TotalBlocks)
	assert.Greater(t, finished.Stats.Translated.TotalCharacters, finished.Stats.Source.TotalCharacters)
}

func TestRunner_ExtractionFailureFailsJob(t *testing.T) {
	store := NewMemStore()
	runner := newTestRunner(store, echoTranslator{}, time.Minute)
	ctx := context.Background()

	j := New("/nonexistent/missing.docx", "docx", Config{})
	require.NoError(t, store.Create(ctx, j))
	claimed, err := store.Claim(ctx)
	require.NoError(t, err)

	require.Error(t, runner.Execute(ctx, claimed))

	failed, err := store.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, StageFailed, failed.Stages.Extraction)
	assert.Equal(t, StagePending, failed.Stages.Translation)
	assert.NotEmpty(t, failed.Error)
	assert.Contains(t, failed.ErrorDetail, "stage=extraction")
	assert.Nil(t, failed.TranslatedDoc)
}

func TestRunner_TranslationBackendDownStillCompletes(t *testing.T) {
	// Backend init failure degrades to pass-through text, not a failed job.
	store := NewMemStore()
	runner := newTestRunner(store, nil, time.Minute)
	ctx := context.Background()

	created := docxJob(t, store)
	claimed, err := store.Claim(ctx)
	require.NoError(t, err)

	require.NoError(t, runner.Execute(ctx, claimed))

	finished, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, finished.Status)
	for bi, sb := range finished.SourceDoc.Pages[0].Blocks {
		assert.Equal(t, sb.Text, finished.TranslatedDoc.Pages[0].Blocks[bi].Text)
	}
}

func TestRunner_TimeoutMarksJobFailed(t *testing.T) {
	store := NewMemStore()
	runner := newTestRunner(store, echoTranslator{}, time.Nanosecond)
	ctx := context.Background()

	created := docxJob(t, store)
	claimed, err := store.Claim(ctx)
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	err = runner.Execute(ctx, claimed)
	require.Error(t, err)

	var timeoutErr *TimeoutError
	assert.ErrorAs(t, err, &timeoutErr)

	failed, getErr := store.Get(ctx, created.ID)
	require.NoError(t, getErr)
	assert.Equal(t, StatusFailed, failed.Status)
	assert.True(t, strings.Contains(failed.Error, "budget"))
	// No partial-result salvage on timeout.
	assert.Nil(t, failed.TranslatedDoc)
}
