package record

import (
	"errors"
	"fmt"
)

var (
	// ErrMismatchedDimension is returned when a vector's length does not
	// match the collection's declared dimension.
	ErrMismatchedDimension = errors.New("record: mismatched vector dimension")

	// ErrInvalidMetadata is returned when a metadata value is not a JSON
	// scalar or a list of strings.
	ErrInvalidMetadata = errors.New("record: invalid metadata value")

	// ErrInvalidMedia is returned when a record's media cannot be
	// interpreted as a numeric vector at a point where one is required.
	ErrInvalidMedia = errors.New("record: media is not a numeric vector")
)

// Metadata maps field names to JSON scalar values or lists of strings.
type Metadata = map[string]any

// Record is a single unit flowing through the adapter pipeline and into a
// collection: an id unique within the collection, a media value, and
// associated metadata.
//
// Before adaptation, Media holds whatever the caller provided (for example a
// document string). After adaptation, Media must be a numeric vector of the
// collection's declared dimension.
type Record struct {
	ID       string
	Media    any
	Metadata Metadata
}

// New is a convenience constructor; a nil metadata map is normalized to an
// empty one so downstream steps never see nil.
func New(id string, media any, metadata Metadata) Record {
	if metadata == nil {
		metadata = Metadata{}
	}
	return Record{ID: id, Media: media, Metadata: metadata}
}

// ValidateMetadata checks that every metadata value is a JSON scalar
// (string, bool, number, null) or a list of strings. The returned error
// names the offending key.
func ValidateMetadata(md Metadata) error {
	for key, value := range md {
		switch v := value.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		case []string:
		case []any:
			for _, elem := range v {
				if _, ok := elem.(string); !ok {
					return fmt.Errorf("%w: key %q contains non-string list element %T",
						ErrInvalidMetadata, key, elem)
				}
			}
		default:
			return fmt.Errorf("%w: key %q has unsupported type %T", ErrInvalidMetadata, key, value)
		}
	}
	return nil
}

// AsVector interprets a record's media as a numeric vector. It accepts
// []float32 and []float64 (converted to float32, the storage width).
func AsVector(media any) ([]float32, bool) {
	switch v := media.(type) {
	case []float32:
		return v, true
	case []float64:
		out := make([]float32, len(v))
		for i, x := range v {
			out[i] = float32(x)
		}
		return out, true
	}
	return nil, false
}
