// Package record defines the record shape shared by the adapter pipeline and
// the collection store, the lazy stream abstraction used to move records
// between them, and the codec that converts records to and from database rows.
//
// A [Record] carries a caller-assigned id, a media value (raw text before
// adaptation, a numeric vector after) and a metadata map restricted to JSON
// scalar values and string lists.
//
// A [Stream] is a finite, single-pass, lazy sequence of records. Pipelines
// built on streams never materialize their full input; [Chunk] regroups a
// stream into fixed-size batches without changing element order, so batch
// size is an efficiency knob rather than a semantic one.
//
// The codec ([ToRow], [FromRow]) validates vector dimensionality and metadata
// types before anything reaches the database.
package record
