package vecstore

import (
	"fmt"

	"github.com/Aleph-Alpha/vecstore/v1/adapter"
	"github.com/Aleph-Alpha/vecstore/v1/metrics"
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSchema changes the PostgreSQL schema collections live in. The default
// is "vecs".
func WithSchema(schema string) ClientOption {
	return func(c *Client) {
		c.schema = schema
	}
}

// WithMetrics attaches a metrics collector; every collection operation then
// reports a counter and a duration observation.
func WithMetrics(m metrics.MetricsCollector) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// collectionConfig collects the options of GetOrCreateCollection.
type collectionConfig struct {
	dimension int
	adapter   *adapter.Adapter
}

// CollectionOption configures collection creation.
type CollectionOption func(*collectionConfig)

// WithDimension sets the vector dimension of the collection explicitly.
// Either this option or an adapter reporting a dimension is required.
func WithDimension(dimension int) CollectionOption {
	return func(cfg *collectionConfig) {
		cfg.dimension = dimension
	}
}

// WithAdapter attaches a transformation pipeline to the collection. Upserted
// and queried media run through it unless an operation opts out.
func WithAdapter(a *adapter.Adapter) CollectionOption {
	return func(cfg *collectionConfig) {
		cfg.adapter = a
	}
}

// upsertConfig collects the options of Collection.Upsert.
type upsertConfig struct {
	skipAdapter bool
}

// UpsertOption configures a single upsert.
type UpsertOption func(*upsertConfig)

// WithSkipAdapter bypasses the collection's adapter, for callers that
// already hold vectors.
func WithSkipAdapter() UpsertOption {
	return func(cfg *upsertConfig) {
		cfg.skipAdapter = true
	}
}

// Query defaults and bounds.
const (
	DefaultQueryLimit    = 10
	MaxQueryLimit        = 1000
	DefaultQueryProbes   = 10
	DefaultQueryEfSearch = 40
)

// queryConfig collects the options of Collection.Query.
type queryConfig struct {
	limit           int
	filters         map[string]any
	measure         IndexMeasure
	includeValue    bool
	includeMetadata bool
	includeVector   bool
	probes          int
	efSearch        int
	skipAdapter     bool
}

// QueryOption configures a similarity search.
type QueryOption func(*queryConfig)

// WithLimit caps the number of returned matches (default 10, maximum 1000).
func WithLimit(limit int) QueryOption {
	return func(cfg *queryConfig) {
		cfg.limit = limit
	}
}

// WithFilters restricts matches to records whose metadata satisfies the
// filter expression.
func WithFilters(filters map[string]any) QueryOption {
	return func(cfg *queryConfig) {
		cfg.filters = filters
	}
}

// WithMeasure selects the distance measure to rank by (default cosine).
func WithMeasure(measure IndexMeasure) QueryOption {
	return func(cfg *queryConfig) {
		cfg.measure = measure
	}
}

// WithIncludeValue includes the distance value in each result.
func WithIncludeValue() QueryOption {
	return func(cfg *queryConfig) {
		cfg.includeValue = true
	}
}

// WithIncludeMetadata includes the record metadata in each result.
func WithIncludeMetadata() QueryOption {
	return func(cfg *queryConfig) {
		cfg.includeMetadata = true
	}
}

// WithIncludeVector includes the stored vector in each result.
func WithIncludeVector() QueryOption {
	return func(cfg *queryConfig) {
		cfg.includeVector = true
	}
}

// WithProbes sets the number of ivfflat lists probed during the search.
// Higher values increase recall at the cost of speed.
func WithProbes(probes int) QueryOption {
	return func(cfg *queryConfig) {
		cfg.probes = probes
	}
}

// WithEfSearch sets the size of the dynamic candidate list for hnsw search.
// Higher values increase recall at the cost of speed.
func WithEfSearch(efSearch int) QueryOption {
	return func(cfg *queryConfig) {
		cfg.efSearch = efSearch
	}
}

// WithQuerySkipAdapter bypasses the collection's adapter; the query data
// must then be a literal vector.
func WithQuerySkipAdapter() QueryOption {
	return func(cfg *queryConfig) {
		cfg.skipAdapter = true
	}
}

func newQueryConfig(opts []QueryOption) queryConfig {
	cfg := queryConfig{
		limit:    DefaultQueryLimit,
		measure:  MeasureCosineDistance,
		probes:   DefaultQueryProbes,
		efSearch: DefaultQueryEfSearch,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (cfg queryConfig) validate() error {
	if cfg.limit < 1 {
		return fmt.Errorf("%w: limit must be >= 1", ErrInvalidArgument)
	}
	if cfg.limit > MaxQueryLimit {
		return fmt.Errorf("%w: limit must be <= %d", ErrInvalidArgument, MaxQueryLimit)
	}
	if cfg.probes < 1 {
		return fmt.Errorf("%w: probes must be >= 1", ErrInvalidArgument)
	}
	if cfg.efSearch < 1 {
		return fmt.Errorf("%w: ef_search must be >= 1", ErrInvalidArgument)
	}
	if _, ok := cfg.measure.Operator(); !ok {
		return fmt.Errorf("%w: unknown index measure %q", ErrInvalidArgument, cfg.measure)
	}
	return nil
}

// indexConfig collects the options of Collection.CreateIndex.
type indexConfig struct {
	measure IndexMeasure
	method  IndexMethod
	args    IndexArgs
	replace bool
}

// IndexOption configures an index build.
type IndexOption func(*indexConfig)

// WithIndexMeasure selects the distance measure the index covers (default
// cosine).
func WithIndexMeasure(measure IndexMeasure) IndexOption {
	return func(cfg *indexConfig) {
		cfg.measure = measure
	}
}

// WithIndexMethod selects the index type (default auto).
func WithIndexMethod(method IndexMethod) IndexOption {
	return func(cfg *indexConfig) {
		cfg.method = method
	}
}

// WithIndexArgs supplies method-specific build parameters. The args type
// must match the chosen method and cannot be combined with IndexMethodAuto.
func WithIndexArgs(args IndexArgs) IndexOption {
	return func(cfg *indexConfig) {
		cfg.args = args
	}
}

// WithoutReplace fails the build when an index already exists instead of
// replacing it.
func WithoutReplace() IndexOption {
	return func(cfg *indexConfig) {
		cfg.replace = false
	}
}

func newIndexConfig(opts []IndexOption) indexConfig {
	cfg := indexConfig{
		measure: MeasureCosineDistance,
		method:  IndexMethodAuto,
		replace: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func (cfg indexConfig) validate() error {
	switch cfg.method {
	case IndexMethodAuto, IndexMethodIVFFlat, IndexMethodHNSW:
	default:
		return fmt.Errorf("%w: invalid index method %q", ErrInvalidArgument, cfg.method)
	}

	if _, ok := cfg.measure.Ops(); !ok {
		return fmt.Errorf("%w: unknown index measure %q", ErrInvalidArgument, cfg.measure)
	}

	if cfg.args != nil {
		if cfg.method == IndexMethodAuto {
			return fmt.Errorf("%w: index build parameters are not allowed with IndexMethodAuto", ErrInvalidArgument)
		}
		switch cfg.args.(type) {
		case IndexArgsIVFFlat:
			if cfg.method != IndexMethodIVFFlat {
				return fmt.Errorf("%w: IndexArgsIVFFlat supplied but %s index was specified", ErrInvalidArgument, cfg.method)
			}
		case IndexArgsHNSW:
			if cfg.method != IndexMethodHNSW {
				return fmt.Errorf("%w: IndexArgsHNSW supplied but %s index was specified", ErrInvalidArgument, cfg.method)
			}
		default:
			return fmt.Errorf("%w: unsupported index args type %T", ErrInvalidArgument, cfg.args)
		}
	}
	return nil
}
