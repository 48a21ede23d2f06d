package adapter

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/Aleph-Alpha/vecstore/v1/record"
)

// chunkStream is the shared driver for one-to-many text steps. It applies
// split to each record's media and yields one derived record per chunk,
// with ids formatted from the source id and the chunk ordinal. At query
// time it passes records through unchanged when skip is set, and fails on
// any record that would expand to more than one chunk otherwise.
func chunkStream(phase Phase, skip bool, in record.Stream, idFormat string, split func(string) []string) record.Stream {
	return func(yield func(record.Record, error) bool) {
		if phase == PhaseQuery && skip {
			for r, err := range in {
				if !yield(r, err) {
					return
				}
			}
			return
		}

		for r, err := range in {
			if err != nil {
				if !yield(record.Record{}, err) {
					return
				}
				continue
			}

			text, ok := r.Media.(string)
			if !ok {
				err := fmt.Errorf("%w: record %q carries %T", ErrNotText, r.ID, r.Media)
				if !yield(record.Record{}, err) {
					return
				}
				continue
			}

			chunks := split(text)
			if phase == PhaseQuery && len(chunks) > 1 {
				err := fmt.Errorf("%w: record %q expanded to %d chunks", ErrQueryExpansion, r.ID, len(chunks))
				if !yield(record.Record{}, err) {
					return
				}
				continue
			}

			for i, chunk := range chunks {
				out := record.Record{
					ID:       fmt.Sprintf(idFormat, r.ID, i),
					Media:    chunk,
					Metadata: maps.Clone(r.Metadata),
				}
				if !yield(out, nil) {
					return
				}
			}
		}
	}
}

// ParagraphChunker splits text media on blank lines and yields each
// paragraph as its own record. Chunk ids are derived as "<id>_para_000",
// "<id>_para_001" and so on, so re-upserting the same document overwrites
// the same rows. Every chunk inherits a copy of the source metadata.
type ParagraphChunker struct {
	// SkipDuringQuery passes query input through unchanged. Without it,
	// query input containing a blank line fails with ErrQueryExpansion.
	SkipDuringQuery bool
}

// NewParagraphChunker returns a paragraph chunker.
func NewParagraphChunker(skipDuringQuery bool) ParagraphChunker {
	return ParagraphChunker{SkipDuringQuery: skipDuringQuery}
}

// Transform splits each record into paragraph records.
func (c ParagraphChunker) Transform(_ context.Context, phase Phase, in record.Stream) record.Stream {
	return chunkStream(phase, c.SkipDuringQuery, in, "%s_para_%03d", splitParagraphs)
}

// ExportedDimension reports no dimension, chunking never produces vectors.
func (c ParagraphChunker) ExportedDimension() (int, bool) {
	return 0, false
}

func splitParagraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			chunks = append(chunks, p)
		}
	}
	return chunks
}
