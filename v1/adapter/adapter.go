package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/Aleph-Alpha/vecstore/v1/record"
)

// Adapter is an ordered pipeline of steps. The zero value is not usable,
// construct with New.
type Adapter struct {
	steps []Step
}

// New builds an adapter from the given steps. At least one step is required.
//
// Parameters:
//   - steps: pipeline stages, applied in order.
//
// Returns:
//   - *Adapter: the composed pipeline.
//   - error: ErrNoSteps when steps is empty.
func New(steps ...Step) (*Adapter, error) {
	if len(steps) == 0 {
		return nil, ErrNoSteps
	}
	return &Adapter{steps: steps}, nil
}

// ExportedDimension reports the vector dimension the pipeline produces.
// The last step that reports a dimension wins, so a chunker followed by an
// embedder yields the embedder's dimension. ok is false when no step
// reports one.
func (a *Adapter) ExportedDimension() (int, bool) {
	for i := len(a.steps) - 1; i >= 0; i-- {
		if dim, ok := a.steps[i].ExportedDimension(); ok {
			return dim, true
		}
	}
	return 0, false
}

// Transform runs the pipeline over in for the given phase. The returned
// stream is lazy; nothing is pulled from in until the result is consumed.
// In-band errors carry the zero-based position of the step that produced
// them, so a misconfigured pipeline names the failing stage.
func (a *Adapter) Transform(ctx context.Context, phase Phase, in record.Stream) record.Stream {
	out := in
	for i, step := range a.steps {
		out = annotateStep(i, step.Transform(ctx, phase, out))
	}
	return out
}

// stepError tags an in-band error with the pipeline position it came from.
// Downstream steps pass upstream errors through, so annotateStep only tags
// an error once.
type stepError struct {
	step int
	err  error
}

func (e *stepError) Error() string {
	return fmt.Sprintf("step %d: %v", e.step, e.err)
}

func (e *stepError) Unwrap() error {
	return e.err
}

func annotateStep(step int, in record.Stream) record.Stream {
	return func(yield func(record.Record, error) bool) {
		for r, err := range in {
			if err != nil {
				var tagged *stepError
				if !errors.As(err, &tagged) {
					err = &stepError{step: step, err: err}
				}
			}
			if !yield(r, err) {
				return
			}
		}
	}
}

// NoOp is a pass-through step for callers that already hold vectors of a
// known dimension. It is the pipeline to use when no transformation is
// wanted at all.
type NoOp struct {
	// Dimension is the vector dimension the caller promises to provide.
	Dimension int
}

// NewNoOp returns a pass-through step reporting the given dimension.
func NewNoOp(dimension int) NoOp {
	return NoOp{Dimension: dimension}
}

// Transform returns in unchanged.
func (n NoOp) Transform(_ context.Context, _ Phase, in record.Stream) record.Stream {
	return in
}

// ExportedDimension reports the configured dimension.
func (n NoOp) ExportedDimension() (int, bool) {
	return n.Dimension, true
}
