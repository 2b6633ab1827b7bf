package translate

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarjim/tarjim/internal/document"
)

// upperTranslator "translates" deterministically by uppercasing.
type upperTranslator struct {
	batchCalls int
}

func (u *upperTranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	u.batchCalls++
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = strings.ToUpper(s)
	}
	return out, nil
}

// flakyTranslator fails multi-item batches but serves single items,
// except texts containing "poison" which always fail.
type flakyTranslator struct{}

func (flakyTranslator) TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error) {
	if len(texts) > 1 {
		return nil, &Error{Message: "batch too large for this backend"}
	}
	if strings.Contains(texts[0], "poison") {
		return nil, &Error{Message: "untranslatable"}
	}
	return []string{strings.ToUpper(texts[0])}, nil
}

func registryFor(tr Translator) *Registry {
	return NewRegistry(func() (Translator, error) { return tr, nil })
}

func sampleDoc() *document.Document {
	doc := document.New("sample.pdf", "ar", "")
	doc.SetPages([]document.Page{
		{Index: 0, Blocks: []document.Block{
			{ID: "0-0", Type: document.BlockHeading, Text: "مرحبا",
				Metadata: document.BlockMetadata{IsHeading: true, HeadingLevel: 1}},
			{ID: "0-1", Type: document.BlockParagraph, Text: "النص الاول"},
		}},
		{Index: 1, Blocks: []document.Block{
			{ID: "1-0", Type: document.BlockTableCell, Text: "خلية",
				Metadata: document.BlockMetadata{Table: &document.TableMetadata{Row: 0, Col: 0, TableID: "table-1"}}},
		}},
	})
	return doc
}

func newTestPipeline(tr Translator, cfg Config) *Pipeline {
	return NewPipeline(registryFor(tr), HeuristicDetector{}, cfg)
}

func TestTranslateDocument_PreservesStructure(t *testing.T) {
	src := sampleDoc()
	cfg := DefaultConfig()
	p := newTestPipeline(&upperTranslator{}, cfg)

	out, err := p.TranslateDocument(context.Background(), src)
	require.NoError(t, err)
	require.NotSame(t, src, out)

	require.Len(t, out.Pages, len(src.Pages))
	for pi := range src.Pages {
		require.Len(t, out.Pages[pi].Blocks, len(src.Pages[pi].Blocks))
		for bi := range src.Pages[pi].Blocks {
			sb := src.Pages[pi].Blocks[bi]
			ob := out.Pages[pi].Blocks[bi]
			assert.Equal(t, sb.ID, ob.ID)
			assert.Equal(t, sb.Type, ob.Type)
			assert.Equal(t, sb.Metadata, ob.Metadata)
		}
	}
	assert.Equal(t, "en", out.Language)
}

func TestTranslateDocument_DoesNotMutateSource(t *testing.T) {
	src := sampleDoc()
	original := src.Clone()
	p := newTestPipeline(&upperTranslator{}, DefaultConfig())

	_, err := p.TranslateDocument(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, original, src)
}

func TestTranslateDocument_EmptyBlocksPassThrough(t *testing.T) {
	doc := document.New("empty.pdf", "ar", "")
	doc.SetPages([]document.Page{
		{Index: 0, Blocks: []document.Block{
			{ID: "0-0", Type: document.BlockParagraph, Text: ""},
			{ID: "0-1", Type: document.BlockParagraph, Text: "   "},
		}},
	})

	tr := &upperTranslator{}
	p := newTestPipeline(tr, DefaultConfig())

	out, err := p.TranslateDocument(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, "", out.Pages[0].Blocks[0].Text)
	assert.Equal(t, "   ", out.Pages[0].Blocks[1].Text)
	assert.Equal(t, 0, tr.batchCalls)
}

func TestTranslateDocument_SkipAlreadyTargetLanguage(t *testing.T) {
	doc := document.New("mixed.pdf", "ar", "")
	doc.SetPages([]document.Page{
		{Index: 0, Blocks: []document.Block{
			{ID: "0-0", Type: document.BlockParagraph, Text: "already english text"},
			{ID: "0-1", Type: document.BlockParagraph, Text: "نص عربي"},
		}},
	})

	p := newTestPipeline(&upperTranslator{}, DefaultConfig())
	out, err := p.TranslateDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "already english text", out.Pages[0].Blocks[0].Text)
	assert.Equal(t, "نص عربي", out.Pages[0].Blocks[1].Text) // uppercasing leaves Arabic as-is
}

func TestTranslateDocument_UnclassifiableTextIsStillTranslated(t *testing.T) {
	// Neither Arabic nor ASCII letters: the detector cannot classify
	// this, and the skip filter must not treat unknown as target.
	doc := document.New("cyrillic.pdf", "ar", "")
	doc.SetPages([]document.Page{
		{Index: 0, Blocks: []document.Block{
			{ID: "0-0", Type: document.BlockParagraph, Text: "привет мир как дела"},
		}},
	})

	tr := &upperTranslator{}
	p := newTestPipeline(tr, DefaultConfig())
	out, err := p.TranslateDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, 1, tr.batchCalls)
	assert.Equal(t, "ПРИВЕТ МИР КАК ДЕЛА", out.Pages[0].Blocks[0].Text)
}

func TestTranslateDocument_BatchFailureFallsBackPerItem(t *testing.T) {
	doc := document.New("big.pdf", "ar", "")
	blocks := make([]document.Block, 4)
	for i := range blocks {
		blocks[i] = document.Block{
			ID:   document.BlockID(0, i),
			Type: document.BlockParagraph,
			Text: fmt.Sprintf("نص %d", i),
		}
	}
	blocks[2].Text = "نص poison"
	doc.SetPages([]document.Page{{Index: 0, Blocks: blocks}})

	cfg := DefaultConfig()
	cfg.BatchSize = 4
	p := newTestPipeline(flakyTranslator{}, cfg)

	out, err := p.TranslateDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "نص 0", out.Pages[0].Blocks[0].Text)
	assert.Equal(t, "نص 1", out.Pages[0].Blocks[1].Text)
	// The poisoned item keeps its original text rather than failing the job.
	assert.Equal(t, "نص poison", out.Pages[0].Blocks[2].Text)
	assert.Equal(t, "نص 3", out.Pages[0].Blocks[3].Text)
}

func TestTranslateDocument_BackendUnavailablePassesThrough(t *testing.T) {
	doc := sampleDoc()
	registry := NewRegistry(func() (Translator, error) {
		return nil, errors.New("model weights missing")
	})
	p := NewPipeline(registry, HeuristicDetector{}, DefaultConfig())

	out, err := p.TranslateDocument(context.Background(), doc)
	require.NoError(t, err)
	for pi := range doc.Pages {
		for bi := range doc.Pages[pi].Blocks {
			assert.Equal(t, doc.Pages[pi].Blocks[bi].Text, out.Pages[pi].Blocks[bi].Text)
		}
	}
}

func TestTranslateDocument_BatchSizeIndependence(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("batch size does not change output", prop.ForAll(
		func(texts []string, k1, k2 int) bool {
			doc := document.New("prop.pdf", "ar", "")
			blocks := make([]document.Block, len(texts))
			for i, s := range texts {
				blocks[i] = document.Block{
					ID:   document.BlockID(0, i),
					Type: document.BlockParagraph,
					Text: s,
				}
			}
			doc.SetPages([]document.Page{{Index: 0, Blocks: blocks}})

			cfgA := DefaultConfig()
			cfgA.BatchSize = k1
			cfgB := DefaultConfig()
			cfgB.BatchSize = k2

			outA, errA := newTestPipeline(&upperTranslator{}, cfgA).TranslateDocument(context.Background(), doc)
			outB, errB := newTestPipeline(&upperTranslator{}, cfgB).TranslateDocument(context.Background(), doc)
			if errA != nil || errB != nil {
				return false
			}
			return reflect.DeepEqual(outA.Pages, outB.Pages)
		},
		gen.SliceOf(gen.AlphaString()),
		gen.IntRange(1, 7),
		gen.IntRange(1, 7),
	))

	properties.TestingRun(t)
}

func TestTranslateDocument_ParallelBatchesMatchSequential(t *testing.T) {
	doc := document.New("par.pdf", "ar", "")
	blocks := make([]document.Block, 23)
	for i := range blocks {
		blocks[i] = document.Block{
			ID:   document.BlockID(0, i),
			Type: document.BlockParagraph,
			Text: fmt.Sprintf("قطعة رقم %d", i),
		}
	}
	doc.SetPages([]document.Page{{Index: 0, Blocks: blocks}})

	seqCfg := DefaultConfig()
	seqCfg.BatchSize = 4
	parCfg := seqCfg
	parCfg.MaxWorkers = 4

	seq, err := newTestPipeline(&upperTranslator{}, seqCfg).TranslateDocument(context.Background(), doc)
	require.NoError(t, err)
	par, err := newTestPipeline(&upperTranslator{}, parCfg).TranslateDocument(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, seq.Pages, par.Pages)
}
