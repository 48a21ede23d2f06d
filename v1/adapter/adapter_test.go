package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aleph-Alpha/vecstore/v1/embedding"
	"github.com/Aleph-Alpha/vecstore/v1/record"
)

// fakeProvider embeds each text as a one-dimensional vector carrying its
// word count, which makes output order and content easy to assert.
type fakeProvider struct {
	calls int
	fail  bool
}

func (p *fakeProvider) Embed(_ context.Context, _ string, texts ...string) ([][]float32, error) {
	p.calls++
	if p.fail {
		return nil, errors.New("provider unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(strings.Fields(t)))}
	}
	return out, nil
}

func TestNewRequiresSteps(t *testing.T) {
	_, err := New()
	require.ErrorIs(t, err, ErrNoSteps)
}

func TestNoOpPassesThrough(t *testing.T) {
	step := NewNoOp(3)

	dim, ok := step.ExportedDimension()
	require.True(t, ok)
	assert.Equal(t, 3, dim)

	in := record.FromSlice([]record.Record{record.New("a", []float32{1, 2, 3}, nil)})
	out, err := record.Collect(step.Transform(context.Background(), PhaseUpsert, in))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestExportedDimensionLastStepWins(t *testing.T) {
	ad, err := New(NewParagraphChunker(true), NewNoOp(7))
	require.NoError(t, err)

	dim, ok := ad.ExportedDimension()
	require.True(t, ok)
	assert.Equal(t, 7, dim)

	ad, err = New(NewParagraphChunker(true), NewMarkdownChunker(true))
	require.NoError(t, err)
	_, ok = ad.ExportedDimension()
	assert.False(t, ok)
}

func TestParagraphChunkerSplits(t *testing.T) {
	chunker := NewParagraphChunker(true)
	in := record.FromSlice([]record.Record{
		record.New("doc", "first paragraph\n\nsecond paragraph\n\n\n\nthird", record.Metadata{"lang": "en"}),
	})

	out, err := record.Collect(chunker.Transform(context.Background(), PhaseUpsert, in))
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "doc_para_000", out[0].ID)
	assert.Equal(t, "doc_para_001", out[1].ID)
	assert.Equal(t, "doc_para_002", out[2].ID)
	assert.Equal(t, "first paragraph", out[0].Media)
	assert.Equal(t, "third", out[2].Media)

	// metadata is copied, not shared
	out[0].Metadata["lang"] = "de"
	assert.Equal(t, "en", out[1].Metadata["lang"])
}

func TestParagraphChunkerSkipDuringQuery(t *testing.T) {
	chunker := NewParagraphChunker(true)
	in := record.FromSlice([]record.Record{record.New("q", "two\n\nparagraphs", nil)})

	out, err := record.Collect(chunker.Transform(context.Background(), PhaseQuery, in))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "q", out[0].ID)
	assert.Equal(t, "two\n\nparagraphs", out[0].Media)
}

func TestParagraphChunkerQueryExpansionFails(t *testing.T) {
	chunker := NewParagraphChunker(false)
	in := record.FromSlice([]record.Record{record.New("q", "two\n\nparagraphs", nil)})

	_, err := record.Collect(chunker.Transform(context.Background(), PhaseQuery, in))
	require.ErrorIs(t, err, ErrQueryExpansion)
	assert.Contains(t, err.Error(), `"q"`)
}

func TestParagraphChunkerRejectsNonText(t *testing.T) {
	chunker := NewParagraphChunker(true)
	in := record.FromSlice([]record.Record{record.New("v", []float32{1}, nil)})

	_, err := record.Collect(chunker.Transform(context.Background(), PhaseUpsert, in))
	require.ErrorIs(t, err, ErrNotText)
}

func TestMarkdownChunkerHeadings(t *testing.T) {
	chunker := NewMarkdownChunker(true)
	md := "# one\nbody one\n## two\nbody two\n### three\nbody three"
	in := record.FromSlice([]record.Record{record.New("doc", md, nil)})

	out, err := record.Collect(chunker.Transform(context.Background(), PhaseUpsert, in))
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "doc_head_000", out[0].ID)
	assert.Equal(t, "# one\nbody one", out[0].Media)
	assert.Equal(t, "## two\nbody two", out[1].Media)
	assert.Equal(t, "### three\nbody three", out[2].Media)
}

func TestMarkdownChunkerSetextHeadings(t *testing.T) {
	chunker := NewMarkdownChunker(true)
	md := "intro text\nTitle\n=====\nbody\nSubtitle\n---\nmore body"
	in := record.FromSlice([]record.Record{record.New("doc", md, nil)})

	out, err := record.Collect(chunker.Transform(context.Background(), PhaseUpsert, in))
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "intro text", out[0].Media)
	assert.Equal(t, "Title\n=====\nbody", out[1].Media)
	assert.Equal(t, "Subtitle\n---\nmore body", out[2].Media)
}

func TestMarkdownChunkerIgnoresInvalidHeadings(t *testing.T) {
	chunker := NewMarkdownChunker(true)
	// no space after hashes, seven hashes, hash mid-line
	md := "#nospace\n####### seven\ntext with # inside"
	in := record.FromSlice([]record.Record{record.New("doc", md, nil)})

	out, err := record.Collect(chunker.Transform(context.Background(), PhaseUpsert, in))
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestMarkdownChunkerMaxWords(t *testing.T) {
	chunker := MarkdownChunker{SkipDuringQuery: true, MaxWords: 4}
	md := "# title\nalpha beta gamma\ndelta epsilon zeta"
	in := record.FromSlice([]record.Record{record.New("doc", md, nil)})

	out, err := record.Collect(chunker.Transform(context.Background(), PhaseUpsert, in))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "# title", out[0].Media)
	assert.Equal(t, "alpha beta gamma", out[1].Media)
	assert.Equal(t, "delta epsilon zeta", out[2].Media)
}

func TestTextEmbeddingPreservesOrder(t *testing.T) {
	records := make([]record.Record, 10)
	for i := range records {
		records[i] = record.New(fmt.Sprintf("r%d", i), strings.Repeat("w ", i+1), nil)
	}

	for _, batchSize := range []int{1, 3, 10, 64} {
		provider := &fakeProvider{}
		step := TextEmbedding{
			Client:    embedding.NewClientWithProvider(provider),
			Model:     "text-embedding-3-small",
			BatchSize: batchSize,
		}

		out, err := record.Collect(step.Transform(context.Background(), PhaseUpsert, record.FromSlice(records)))
		require.NoError(t, err, "batch size %d", batchSize)
		require.Len(t, out, len(records))
		for i, r := range out {
			assert.Equal(t, fmt.Sprintf("r%d", i), r.ID)
			vec, ok := record.AsVector(r.Media)
			require.True(t, ok)
			assert.Equal(t, []float32{float32(i + 1)}, vec, "batch size %d", batchSize)
		}
	}
}

func TestTextEmbeddingDimensionFromModel(t *testing.T) {
	step := NewTextEmbedding(embedding.NewClientWithProvider(&fakeProvider{}), "text-embedding-3-small")
	dim, ok := step.ExportedDimension()
	require.True(t, ok)
	assert.Equal(t, 1536, dim)

	step.Model = "some-unknown-model"
	_, ok = step.ExportedDimension()
	assert.False(t, ok)
}

func TestTextEmbeddingProviderFailure(t *testing.T) {
	step := TextEmbedding{
		Client: embedding.NewClientWithProvider(&fakeProvider{fail: true}),
		Model:  "text-embedding-3-small",
	}
	in := record.FromSlice([]record.Record{record.New("a", "hello", nil)})

	_, err := record.Collect(step.Transform(context.Background(), PhaseUpsert, in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unavailable")
}

func TestTextEmbeddingRejectsNonText(t *testing.T) {
	step := NewTextEmbedding(embedding.NewClientWithProvider(&fakeProvider{}), "text-embedding-3-small")
	in := record.FromSlice([]record.Record{record.New("v", 42, nil)})

	_, err := record.Collect(step.Transform(context.Background(), PhaseUpsert, in))
	require.ErrorIs(t, err, ErrNotText)
}

func TestPipelineChunkThenEmbed(t *testing.T) {
	provider := &fakeProvider{}
	ad, err := New(
		NewParagraphChunker(true),
		NewTextEmbedding(embedding.NewClientWithProvider(provider), "text-embedding-3-small"),
	)
	require.NoError(t, err)

	in := record.FromSlice([]record.Record{
		record.New("doc", "one two\n\nthree four five", record.Metadata{"src": "test"}),
	})
	out, err := record.Collect(ad.Transform(context.Background(), PhaseUpsert, in))
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "doc_para_000", out[0].ID)
	vec, ok := record.AsVector(out[0].Media)
	require.True(t, ok)
	assert.Equal(t, []float32{2}, vec)
	assert.Equal(t, "test", out[1].Metadata["src"])
}

func TestPipelineErrorPropagates(t *testing.T) {
	ad, err := New(NewParagraphChunker(true))
	require.NoError(t, err)

	boom := errors.New("upstream failed")
	_, err = record.Collect(ad.Transform(context.Background(), PhaseUpsert, record.FromError(boom)))
	require.ErrorIs(t, err, boom)
}

func TestPipelineErrorsNameFailingStep(t *testing.T) {
	ad, err := New(NewNoOp(1), NewParagraphChunker(true))
	require.NoError(t, err)

	in := record.FromSlice([]record.Record{record.New("v", []float32{1}, nil)})
	_, err = record.Collect(ad.Transform(context.Background(), PhaseUpsert, in))
	require.ErrorIs(t, err, ErrNotText)
	assert.Contains(t, err.Error(), "step 1")
	assert.NotContains(t, err.Error(), "step 0")
}
