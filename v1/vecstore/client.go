package vecstore

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/Aleph-Alpha/vecstore/v1/adapter"
	"github.com/Aleph-Alpha/vecstore/v1/logger"
	"github.com/Aleph-Alpha/vecstore/v1/metrics"
	"github.com/Aleph-Alpha/vecstore/v1/postgres"
)

// DefaultSchema is the PostgreSQL schema collections live in unless
// WithSchema overrides it.
const DefaultSchema = "vecs"

// Client manages vector collections in a PostgreSQL database with the
// pgvector extension. Construct with New, then call Setup once to prepare
// the schema and extension.
type Client struct {
	db      postgres.Client
	log     *logger.Logger
	metrics metrics.MetricsCollector
	schema  string
}

// New creates a client on top of an established database connection.
//
// Parameters:
//   - db: the database connection layer.
//   - log: structured logger used by all collection operations.
//   - opts: optional schema override and metrics collector.
//
// Returns:
//   - *Client: the client; call Setup before first use.
func New(db postgres.Client, log *logger.Logger, opts ...ClientOption) *Client {
	c := &Client{
		db:     db,
		log:    log,
		schema: DefaultSchema,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Setup prepares the database for vector workloads: it creates the schema,
// installs the pgvector extension, and caches the extension version for
// capability checks. Safe to call repeatedly.
func (c *Client) Setup(ctx context.Context) error {
	return c.db.Bootstrap(ctx, c.schema)
}

// Schema returns the PostgreSQL schema this client operates in.
func (c *Client) Schema() string {
	return c.schema
}

// GetOrCreateCollection returns the collection with the given name, creating
// it when absent. The vector dimension comes from WithDimension or from an
// adapter that reports one; when both are present they must agree, and when
// the collection already exists its stored dimension must agree as well,
// otherwise ErrMismatchedDimension is returned.
func (c *Client) GetOrCreateCollection(ctx context.Context, name string, opts ...CollectionOption) (*Collection, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}

	cfg := collectionConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	dimension := cfg.dimension
	if cfg.adapter != nil {
		if adapterDim, ok := cfg.adapter.ExportedDimension(); ok {
			if dimension != 0 && dimension != adapterDim {
				return nil, fmt.Errorf("%w: option reports %d, adapter reports %d",
					ErrMismatchedDimension, dimension, adapterDim)
			}
			dimension = adapterDim
		}
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: one of WithDimension or an adapter must provide a dimension", ErrInvalidArgument)
	}

	existingDim, err := c.collectionDimension(ctx, name)
	switch {
	case errors.Is(err, ErrCollectionNotFound):
		if err := c.createCollectionTable(ctx, name, dimension); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case existingDim != dimension:
		return nil, fmt.Errorf("%w: requested %d, existing collection %q has %d",
			ErrMismatchedDimension, dimension, name, existingDim)
	}

	return c.newCollection(name, dimension, cfg.adapter), nil
}

// CreateCollection creates a new collection and fails with
// ErrCollectionAlreadyExists on any name collision.
//
// Deprecated: Use GetOrCreateCollection.
func (c *Client) CreateCollection(ctx context.Context, name string, dimension int) (*Collection, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}
	if dimension <= 0 {
		return nil, fmt.Errorf("%w: dimension must be >= 1", ErrInvalidArgument)
	}

	_, err := c.collectionDimension(ctx, name)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %q", ErrCollectionAlreadyExists, name)
	case !errors.Is(err, ErrCollectionNotFound):
		return nil, err
	}

	if err := c.createCollectionTable(ctx, name, dimension); err != nil {
		return nil, err
	}
	return c.newCollection(name, dimension, nil), nil
}

// GetCollection returns an existing collection, discovering its dimension
// from the catalog. Returns ErrCollectionNotFound when absent.
//
// Deprecated: Use GetOrCreateCollection.
func (c *Client) GetCollection(ctx context.Context, name string) (*Collection, error) {
	if err := validateCollectionName(name); err != nil {
		return nil, err
	}

	dimension, err := c.collectionDimension(ctx, name)
	if err != nil {
		return nil, err
	}
	return c.newCollection(name, dimension, nil), nil
}

// ListCollections returns all collections in the client's schema.
func (c *Client) ListCollections(ctx context.Context) ([]*Collection, error) {
	var rows []struct {
		TableName    string
		EmbeddingDim int
	}
	err := c.db.Raw(ctx, &rows, `
		SELECT pc.relname AS table_name, pa.atttypmod AS embedding_dim
		FROM pg_class pc
		JOIN pg_attribute pa ON pc.oid = pa.attrelid
		WHERE pc.relnamespace = ?::regnamespace
		  AND pc.relkind = 'r'
		  AND pa.attname = 'vec'
		  AND NOT pc.relname ^@ '_'`, c.schema)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", c.db.TranslateError(err))
	}

	collections := make([]*Collection, 0, len(rows))
	for _, row := range rows {
		collections = append(collections, c.newCollection(row.TableName, row.EmbeddingDim, nil))
	}
	return collections, nil
}

// DeleteCollection drops the collection's table. The drop is idempotent;
// deleting an absent collection is not an error.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	if err := validateCollectionName(name); err != nil {
		return err
	}

	_, err := c.db.Exec(ctx, "DROP TABLE IF EXISTS "+c.qualify(name))
	if err != nil {
		return fmt.Errorf("delete collection %q: %w", name, c.db.TranslateError(err))
	}

	c.log.Info("collection deleted", nil, map[string]interface{}{
		"collection": name,
	})
	return nil
}

// Disconnect closes the underlying database connection.
func (c *Client) Disconnect() error {
	return c.db.GracefulShutdown()
}

// collectionDimension reads a collection's vector dimension from the
// catalog. For vector columns, atttypmod carries the declared dimension.
func (c *Client) collectionDimension(ctx context.Context, name string) (int, error) {
	var dims []int
	err := c.db.Raw(ctx, &dims, `
		SELECT pa.atttypmod
		FROM pg_class pc
		JOIN pg_attribute pa ON pc.oid = pa.attrelid
		WHERE pc.relnamespace = ?::regnamespace
		  AND pc.relkind = 'r'
		  AND pa.attname = 'vec'
		  AND NOT pc.relname ^@ '_'
		  AND pc.relname = ?`, c.schema, name)
	if err != nil {
		return 0, fmt.Errorf("inspect collection %q: %w", name, c.db.TranslateError(err))
	}
	if len(dims) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	return dims[0], nil
}

// createCollectionTable creates the collection table together with its GIN
// metadata index so scalar equality filters are served from the index from
// the start.
func (c *Client) createCollectionTable(ctx context.Context, name string, dimension int) error {
	table := c.qualify(name)
	metaIndex := pq.QuoteIdentifier(fmt.Sprintf("ix_meta_x%06x", rand.Uint32()&0xffffff))

	err := c.db.Transaction(ctx, func(tx *gorm.DB) error {
		ddl := fmt.Sprintf(`CREATE TABLE %s (
			id VARCHAR PRIMARY KEY,
			vec VECTOR(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb
		)`, table, dimension)
		if err := tx.Exec(ddl).Error; err != nil {
			return err
		}
		return tx.Exec(fmt.Sprintf(
			"CREATE INDEX %s ON %s USING gin ( metadata jsonb_path_ops )",
			metaIndex, table)).Error
	})
	if err != nil {
		return fmt.Errorf("create collection %q: %w", name, c.db.TranslateError(err))
	}

	c.log.Info("collection created", nil, map[string]interface{}{
		"collection": name,
		"dimension":  dimension,
	})
	return nil
}

func (c *Client) newCollection(name string, dimension int, a *adapter.Adapter) *Collection {
	if a == nil {
		noop, _ := adapter.New(adapter.NewNoOp(dimension))
		a = noop
	}
	return &Collection{
		client:    c,
		name:      name,
		dimension: dimension,
		adapter:   a,
	}
}

// qualify returns the schema-qualified, quoted table name.
func (c *Client) qualify(name string) string {
	return pq.QuoteIdentifier(c.schema) + "." + pq.QuoteIdentifier(name)
}

// observe reports one operation outcome to the metrics collector, if any.
func (c *Client) observe(start time.Time, collection, operation string, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.IncrementOperations(collection, operation, status)
	c.metrics.RecordOperationDuration(start, collection, operation)
}

// validateCollectionName rejects names the catalog discovery would not see
// again. Leading underscores are reserved for internal tables.
func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name must not be empty", ErrInvalidArgument)
	}
	if strings.HasPrefix(name, "_") {
		return fmt.Errorf("%w: collection name must not start with an underscore", ErrInvalidArgument)
	}
	if len(name) > 63 {
		return fmt.Errorf("%w: collection name must be at most 63 bytes", ErrInvalidArgument)
	}
	if strings.ContainsAny(name, `".`) {
		return fmt.Errorf("%w: collection name must not contain quotes or dots", ErrInvalidArgument)
	}
	return nil
}
