package adapter

import (
	"context"
	"errors"

	"github.com/Aleph-Alpha/vecstore/v1/record"
)

var (
	// ErrNoSteps is returned by New when the pipeline would be empty.
	ErrNoSteps = errors.New("adapter requires at least one step")

	// ErrQueryExpansion is returned when a one-to-many step runs at query
	// time and a single input record expands into several. A query must
	// resolve to exactly one vector, so the step fails instead of picking
	// a chunk arbitrarily.
	ErrQueryExpansion = errors.New("record expanded to multiple chunks during query")

	// ErrNotText is returned by text steps when record media is not a string.
	ErrNotText = errors.New("record media is not text")
)

// Phase tells a step whether it is running on upsert input or on query input.
type Phase int

const (
	// PhaseUpsert marks a pipeline run over records being written.
	PhaseUpsert Phase = iota
	// PhaseQuery marks a pipeline run over a single query input.
	PhaseQuery
)

// String returns the phase name for log fields and error messages.
func (p Phase) String() string {
	switch p {
	case PhaseUpsert:
		return "upsert"
	case PhaseQuery:
		return "query"
	default:
		return "unknown"
	}
}

// Step is a single stage of an adapter pipeline.
//
// Transform must be lazy: it returns a stream that pulls from in on demand
// and it must stop pulling once the consumer stops. Errors are delivered
// in-band through the returned stream, never panicked.
type Step interface {
	// Transform maps the upstream record stream to this step's output
	// stream for the given phase.
	Transform(ctx context.Context, phase Phase, in record.Stream) record.Stream

	// ExportedDimension reports the vector dimension this step produces,
	// if it is the step that turns media into vectors. Steps that do not
	// determine the dimension return ok=false.
	ExportedDimension() (dimension int, ok bool)
}
