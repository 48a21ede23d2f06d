// Package adapter composes media-to-vector transformation pipelines.
//
// An [Adapter] is an ordered, non-empty list of [Step] implementations. Each
// step consumes the upstream record stream lazily and produces its own lazy
// stream, so a pipeline run never materializes its full input; records move
// through in caller-controlled batches.
//
// Steps fall in two arity classes:
//
//   - one-to-one steps transform each record in place (e.g. [TextEmbedding]
//     replaces string media with an embedding vector);
//   - one-to-many steps expand a record into several (e.g. [ParagraphChunker]
//     splits a document into paragraphs), deriving each output id
//     deterministically from the source id and chunk ordinal so repeated
//     runs over identical input upsert the same rows.
//
// Pipelines run in one of two phases. During [PhaseUpsert] every step
// participates. During [PhaseQuery] steps can be configured to be skipped
// (chunking a two-word query makes no sense); a one-to-many step that does
// participate at query time fails if the input expands to more than one
// record, because a query must resolve to exactly one vector.
//
// A typical text collection pipeline:
//
//	ad, err := adapter.New(
//	    adapter.NewParagraphChunker(true),
//	    adapter.NewTextEmbedding(embClient, "text-embedding-3-small"),
//	)
package adapter
