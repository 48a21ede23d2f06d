package record

import "iter"

// Stream is a finite, single-pass, lazy sequence of records. A non-nil error
// terminates iteration; ranging further after an error is undefined.
type Stream = iter.Seq2[Record, error]

// FromSlice wraps a slice in a Stream.
func FromSlice(records []Record) Stream {
	return func(yield func(Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// FromError produces a stream that fails immediately.
func FromError(err error) Stream {
	return func(yield func(Record, error) bool) {
		yield(Record{}, err)
	}
}

// Collect drains a stream into a slice, stopping at the first error.
func Collect(s Stream) ([]Record, error) {
	var out []Record
	for r, err := range s {
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Chunk regroups a stream into batches of at most size records, preserving
// element order. Chunking only changes how many records are in flight at
// once: flattening the chunks yields exactly the input stream.
func Chunk(s Stream, size int) iter.Seq2[[]Record, error] {
	if size < 1 {
		size = 1
	}
	return func(yield func([]Record, error) bool) {
		batch := make([]Record, 0, size)
		for r, err := range s {
			if err != nil {
				yield(nil, err)
				return
			}
			batch = append(batch, r)
			if len(batch) == size {
				if !yield(batch, nil) {
					return
				}
				batch = make([]Record, 0, size)
			}
		}
		if len(batch) > 0 {
			yield(batch, nil)
		}
	}
}
