package vecstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureOpsAndOperators(t *testing.T) {
	cases := []struct {
		measure  IndexMeasure
		ops      string
		operator string
	}{
		{MeasureCosineDistance, "vector_cosine_ops", "<=>"},
		{MeasureL2Distance, "vector_l2_ops", "<->"},
		{MeasureMaxInnerProduct, "vector_ip_ops", "<#>"},
		{MeasureL1Distance, "vector_l1_ops", "<+>"},
	}
	for _, tc := range cases {
		ops, ok := tc.measure.Ops()
		require.True(t, ok)
		assert.Equal(t, tc.ops, ops)

		op, ok := tc.measure.Operator()
		require.True(t, ok)
		assert.Equal(t, tc.operator, op)
	}

	_, ok := IndexMeasure("chebyshev").Ops()
	assert.False(t, ok)
	_, ok = IndexMeasure("chebyshev").Operator()
	assert.False(t, ok)
}

func TestIvfflatLists(t *testing.T) {
	assert.Equal(t, 30, ivfflatLists(0))
	assert.Equal(t, 30, ivfflatLists(10_000))
	assert.Equal(t, 30, ivfflatLists(30_000))
	assert.Equal(t, 100, ivfflatLists(100_000))
	assert.Equal(t, 999, ivfflatLists(999_999))
	assert.Equal(t, 1000, ivfflatLists(1_000_000))
	assert.Equal(t, 1414, ivfflatLists(2_000_000))
}

func TestIndexNameRoundTripIVFFlat(t *testing.T) {
	builtAt := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	in := Index{
		Lists:              120,
		RecordCountAtBuild: 100_000,
	}
	name := encodeIndexName("vector_cosine_ops", IndexMethodIVFFlat, in, builtAt)

	out := parseIndexName(name)
	assert.Equal(t, name, out.Name)
	assert.Equal(t, IndexMethodIVFFlat, out.Method)
	assert.Equal(t, MeasureCosineDistance, out.Measure)
	assert.Equal(t, 120, out.Lists)
	assert.Equal(t, int64(100_000), out.RecordCountAtBuild)
	assert.Equal(t, builtAt, out.BuiltAt)
}

func TestIndexNameRoundTripHNSW(t *testing.T) {
	builtAt := time.Date(2026, 2, 14, 9, 30, 0, 0, time.UTC)
	in := Index{
		M:                  24,
		EfConstruction:     128,
		RecordCountAtBuild: 42,
	}
	name := encodeIndexName("vector_l2_ops", IndexMethodHNSW, in, builtAt)

	out := parseIndexName(name)
	assert.Equal(t, IndexMethodHNSW, out.Method)
	assert.Equal(t, MeasureL2Distance, out.Measure)
	assert.Equal(t, 24, out.M)
	assert.Equal(t, 128, out.EfConstruction)
	assert.Equal(t, int64(42), out.RecordCountAtBuild)
	assert.Equal(t, builtAt, out.BuiltAt)
}

func TestIndexNamesAreUnique(t *testing.T) {
	builtAt := time.Now().UTC().Truncate(time.Second)
	a := encodeIndexName("vector_cosine_ops", IndexMethodHNSW, Index{M: 16, EfConstruction: 64}, builtAt)
	b := encodeIndexName("vector_cosine_ops", IndexMethodHNSW, Index{M: 16, EfConstruction: 64}, builtAt)
	assert.NotEqual(t, a, b)
}

func TestParseIndexNameForeign(t *testing.T) {
	out := parseIndexName("docs_vec_idx")
	assert.Equal(t, "docs_vec_idx", out.Name)
	assert.Empty(t, out.Method)
	assert.Empty(t, out.Measure)

	out = parseIndexName("ix_something_else")
	assert.Equal(t, "ix_something_else", out.Name)
	assert.Empty(t, out.Measure)
	assert.Zero(t, out.RecordCountAtBuild)
}

func TestIndexConfigValidate(t *testing.T) {
	assert.NoError(t, newIndexConfig(nil).validate())

	cfg := newIndexConfig([]IndexOption{WithIndexArgs(IndexArgsIVFFlat{Lists: 10})})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newIndexConfig([]IndexOption{
		WithIndexMethod(IndexMethodHNSW),
		WithIndexArgs(IndexArgsIVFFlat{Lists: 10}),
	})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newIndexConfig([]IndexOption{
		WithIndexMethod(IndexMethodIVFFlat),
		WithIndexArgs(IndexArgsHNSW{M: 8}),
	})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newIndexConfig([]IndexOption{WithIndexMethod(IndexMethod("btree"))})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newIndexConfig([]IndexOption{WithIndexMeasure(IndexMeasure("chebyshev"))})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newIndexConfig([]IndexOption{
		WithIndexMethod(IndexMethodHNSW),
		WithIndexMeasure(MeasureMaxInnerProduct),
		WithIndexArgs(IndexArgsHNSW{M: 32, EfConstruction: 100}),
	})
	assert.NoError(t, cfg.validate())
}

func TestQueryConfigDefaultsAndValidation(t *testing.T) {
	cfg := newQueryConfig(nil)
	assert.Equal(t, DefaultQueryLimit, cfg.limit)
	assert.Equal(t, DefaultQueryProbes, cfg.probes)
	assert.Equal(t, DefaultQueryEfSearch, cfg.efSearch)
	assert.Equal(t, MeasureCosineDistance, cfg.measure)
	assert.NoError(t, cfg.validate())

	cfg = newQueryConfig([]QueryOption{WithLimit(0)})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newQueryConfig([]QueryOption{WithLimit(MaxQueryLimit + 1)})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newQueryConfig([]QueryOption{WithProbes(0)})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newQueryConfig([]QueryOption{WithEfSearch(-1)})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newQueryConfig([]QueryOption{WithMeasure(IndexMeasure("hamming"))})
	assert.ErrorIs(t, cfg.validate(), ErrInvalidArgument)

	cfg = newQueryConfig([]QueryOption{
		WithLimit(MaxQueryLimit),
		WithMeasure(MeasureL1Distance),
		WithProbes(25),
		WithEfSearch(100),
	})
	assert.NoError(t, cfg.validate())
}

func TestValidateCollectionName(t *testing.T) {
	assert.NoError(t, validateCollectionName("docs"))
	assert.ErrorIs(t, validateCollectionName(""), ErrInvalidArgument)
	assert.ErrorIs(t, validateCollectionName("_internal"), ErrInvalidArgument)

	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, validateCollectionName(string(long)), ErrInvalidArgument)
}
