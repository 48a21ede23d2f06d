package adapter

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Aleph-Alpha/vecstore/v1/embedding"
	"github.com/Aleph-Alpha/vecstore/v1/record"
)

const (
	// DefaultEmbedBatchSize is the number of texts sent per embedding request.
	DefaultEmbedBatchSize = 64

	// DefaultEmbedConcurrency is the number of embedding requests in flight.
	DefaultEmbedConcurrency = 4
)

// TextEmbedding replaces string media with embedding vectors. Records are
// grouped into batches of BatchSize texts, up to Concurrency batches are
// embedded in parallel, and results are yielded in input order so output
// is identical regardless of batching.
type TextEmbedding struct {
	// Client performs the embedding requests.
	Client *embedding.Client

	// Model is the embedding model name, e.g. "text-embedding-3-small".
	Model string

	// BatchSize caps texts per request. Zero means DefaultEmbedBatchSize.
	BatchSize int

	// Concurrency caps requests in flight. Zero means DefaultEmbedConcurrency.
	Concurrency int
}

// NewTextEmbedding returns an embedding step for the given model.
func NewTextEmbedding(client *embedding.Client, model string) TextEmbedding {
	return TextEmbedding{Client: client, Model: model}
}

// ExportedDimension reports the model's vector dimension when the model is
// known to the registry.
func (s TextEmbedding) ExportedDimension() (int, bool) {
	return embedding.ModelDimension(s.Model)
}

// Transform embeds each record's text media. The stream terminates on the
// first failed embedding request.
func (s TextEmbedding) Transform(ctx context.Context, _ Phase, in record.Stream) record.Stream {
	batchSize := s.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultEmbedConcurrency
	}

	return func(yield func(record.Record, error) bool) {
		var window [][]record.Record

		// flush embeds the buffered batches concurrently and yields the
		// results in input order. It reports whether to keep streaming.
		flush := func() bool {
			if len(window) == 0 {
				return true
			}
			vectors := make([][][]float32, len(window))
			g, gctx := errgroup.WithContext(ctx)
			for i, batch := range window {
				g.Go(func() error {
					texts := make([]string, len(batch))
					for j, r := range batch {
						texts[j] = r.Media.(string)
					}
					out, err := s.Client.Embed(gctx, s.Model, texts...)
					if err != nil {
						return err
					}
					if len(out) != len(texts) {
						return fmt.Errorf("embedding returned %d vectors for %d texts", len(out), len(texts))
					}
					vectors[i] = out
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				yield(record.Record{}, fmt.Errorf("embedding batch: %w", err))
				return false
			}
			for i, batch := range window {
				for j, r := range batch {
					r.Media = vectors[i][j]
					if !yield(r, nil) {
						return false
					}
				}
			}
			window = window[:0]
			return true
		}

		batch := make([]record.Record, 0, batchSize)
		for r, err := range in {
			if err != nil {
				if !yield(record.Record{}, err) {
					return
				}
				continue
			}
			if _, ok := r.Media.(string); !ok {
				err := fmt.Errorf("%w: record %q carries %T", ErrNotText, r.ID, r.Media)
				if !yield(record.Record{}, err) {
					return
				}
				continue
			}
			batch = append(batch, r)
			if len(batch) == batchSize {
				window = append(window, batch)
				batch = make([]record.Record, 0, batchSize)
				if len(window) == concurrency && !flush() {
					return
				}
			}
		}
		if len(batch) > 0 {
			window = append(window, batch)
		}
		flush()
	}
}
