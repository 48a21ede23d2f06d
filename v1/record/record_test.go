package record

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMetadata(t *testing.T) {
	cases := []struct {
		name    string
		md      Metadata
		wantErr bool
	}{
		{"empty", Metadata{}, false},
		{"scalars", Metadata{"s": "x", "b": true, "i": 42, "f": 1.5, "n": nil}, false},
		{"string list", Metadata{"tags": []string{"a", "b"}}, false},
		{"any list of strings", Metadata{"tags": []any{"a", "b"}}, false},
		{"mixed list", Metadata{"tags": []any{"a", 1}}, true},
		{"nested map", Metadata{"obj": map[string]any{"a": 1}}, true},
		{"struct value", Metadata{"x": struct{}{}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateMetadata(tc.md)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMetadata)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToRow_DimensionEnforced(t *testing.T) {
	_, err := ToRow(New("vec0", []float32{1, 2, 3, 4}, nil), 3)
	require.ErrorIs(t, err, ErrMismatchedDimension)
	assert.Contains(t, err.Error(), "vec0")

	row, err := ToRow(New("vec0", []float32{1, 2, 3}, Metadata{"year": 1973}), 3)
	require.NoError(t, err)
	assert.Equal(t, "vec0", row.ID)
	assert.Equal(t, []float32{1, 2, 3}, row.Vec.Slice())
}

func TestToRow_Float64MediaAccepted(t *testing.T) {
	row, err := ToRow(New("vec1", []float64{0.1, 0.2, 0.3}, nil), 3)
	require.NoError(t, err)
	assert.Len(t, row.Vec.Slice(), 3)
}

func TestToRow_NonVectorMediaRejected(t *testing.T) {
	_, err := ToRow(New("doc0", "some text", nil), 3)
	require.ErrorIs(t, err, ErrInvalidMedia)
	assert.Contains(t, err.Error(), "doc0")
}

func TestFromRow_RoundTrip(t *testing.T) {
	row, err := ToRow(New("vec0", []float32{1, 2, 3}, Metadata{"genre": "jazz"}), 3)
	require.NoError(t, err)

	got := FromRow(row)
	assert.Equal(t, "vec0", got.ID)
	assert.Equal(t, []float32{1, 2, 3}, got.Media)
	assert.Equal(t, "jazz", got.Metadata["genre"])
}

func TestChunk_BatchSizeDoesNotChangeOutput(t *testing.T) {
	input := []Record{
		New("a", []float32{1}, nil),
		New("b", []float32{2}, nil),
		New("c", []float32{3}, nil),
		New("d", []float32{4}, nil),
		New("e", []float32{5}, nil),
	}

	var flattened [][]Record
	for _, size := range []int{1, 2, 3, 100} {
		var out []Record
		for batch, err := range Chunk(FromSlice(input), size) {
			require.NoError(t, err)
			assert.LessOrEqual(t, len(batch), max(size, 1))
			out = append(out, batch...)
		}
		flattened = append(flattened, out)
	}

	for _, out := range flattened {
		assert.Equal(t, input, out)
	}
}

func TestChunk_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	var got error
	for _, err := range Chunk(FromError(boom), 10) {
		if err != nil {
			got = err
		}
	}
	assert.ErrorIs(t, got, boom)
}

func TestCollect_StopsAtError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Collect(FromError(boom))
	assert.ErrorIs(t, err, boom)
}

func TestAsVector(t *testing.T) {
	v, ok := AsVector([]float32{1, 2})
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, v)

	v, ok = AsVector([]float64{1, 2})
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, v)

	_, ok = AsVector("nope")
	assert.False(t, ok)
}
