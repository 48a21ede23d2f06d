package vecstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aleph-Alpha/vecstore/v1/adapter"
	"github.com/Aleph-Alpha/vecstore/v1/filter"
	"github.com/Aleph-Alpha/vecstore/v1/record"
)

const (
	// upsertChunkSize is the number of rows written per INSERT statement.
	upsertChunkSize = 500

	// idChunkSize is the number of ids bound per statement in Fetch and
	// Delete.
	idChunkSize = 12
)

// Collection is a named table of records sharing one vector dimension.
// Instances are obtained from a Client and are safe for concurrent use.
type Collection struct {
	client    *Client
	name      string
	dimension int
	adapter   *adapter.Adapter
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Dimension returns the vector dimension every record must match.
func (c *Collection) Dimension() int {
	return c.dimension
}

// Len returns the number of records in the collection.
func (c *Collection) Len(ctx context.Context) (int64, error) {
	start := time.Now()

	var counts []int64
	err := c.client.db.Raw(ctx, &counts, "SELECT count(*) FROM "+c.table())
	c.client.observe(start, c.name, "len", err)
	if err != nil {
		return 0, fmt.Errorf("count collection %q: %w", c.name, c.client.db.TranslateError(err))
	}
	if len(counts) == 0 {
		return 0, nil
	}

	if c.client.metrics != nil {
		c.client.metrics.SetCollectionSize(c.name, float64(counts[0]))
	}
	return counts[0], nil
}

// Upsert writes records into the collection, inserting new ids and updating
// the vector and metadata of existing ones. Records pass through the
// collection's adapter first unless WithSkipAdapter is given, then are
// written in chunks inside a single transaction, so a failing record rolls
// back the whole call.
func (c *Collection) Upsert(ctx context.Context, records record.Stream, opts ...UpsertOption) error {
	start := time.Now()

	cfg := upsertConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	stream := records
	if !cfg.skipAdapter {
		stream = c.adapter.Transform(ctx, adapter.PhaseUpsert, records)
	}

	err := c.client.db.Transaction(ctx, func(tx *gorm.DB) error {
		for chunk, err := range record.Chunk(stream, upsertChunkSize) {
			if err != nil {
				return err
			}
			rows, err := c.chunkToRows(chunk)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				continue
			}
			err = tx.Table(c.table()).Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"vec", "metadata"}),
			}).Create(&rows).Error
			if err != nil {
				return c.client.db.TranslateError(err)
			}
		}
		return nil
	})
	c.client.observe(start, c.name, "upsert", err)
	if err != nil {
		return fmt.Errorf("upsert into collection %q: %w", c.name, err)
	}
	return nil
}

// chunkToRows validates a chunk and converts it to stored rows. When an id
// appears more than once within the chunk the last occurrence wins, matching
// the row state after sequential upserts; a single INSERT cannot touch the
// same id twice.
func (c *Collection) chunkToRows(chunk []record.Record) ([]record.Row, error) {
	rows := make([]record.Row, 0, len(chunk))
	seen := make(map[string]int, len(chunk))
	for _, r := range chunk {
		row, err := record.ToRow(r, c.dimension)
		if err != nil {
			return nil, err
		}
		if i, ok := seen[row.ID]; ok {
			rows[i] = row
			continue
		}
		seen[row.ID] = len(rows)
		rows = append(rows, row)
	}
	return rows, nil
}

// Fetch returns the records with the given ids. Unknown ids are silently
// absent from the result; result order is unspecified. Ids are bound in
// small chunks inside one transaction so the result is a consistent
// snapshot.
func (c *Collection) Fetch(ctx context.Context, ids ...string) ([]record.Record, error) {
	start := time.Now()

	if len(ids) == 0 {
		return nil, nil
	}

	records := make([]record.Record, 0, len(ids))
	err := c.client.db.Transaction(ctx, func(tx *gorm.DB) error {
		for chunk := range slices.Chunk(ids, idChunkSize) {
			var rows []record.Row
			err := tx.Raw("SELECT id, vec, metadata FROM "+c.table()+" WHERE id IN ?", chunk).
				Scan(&rows).Error
			if err != nil {
				return c.client.db.TranslateError(err)
			}
			for _, row := range rows {
				records = append(records, record.FromRow(row))
			}
		}
		return nil
	})
	c.client.observe(start, c.name, "fetch", err)
	if err != nil {
		return nil, fmt.Errorf("fetch from collection %q: %w", c.name, err)
	}
	return records, nil
}

// Delete removes records and returns the ids actually deleted. At least one
// of ids and filters must be given; when both are, only records matching
// both are removed. All statements run inside one transaction.
func (c *Collection) Delete(ctx context.Context, ids []string, filters map[string]any) ([]string, error) {
	start := time.Now()

	if len(ids) == 0 && filters == nil {
		return nil, fmt.Errorf("%w: at least one of ids and filters is required", ErrInvalidArgument)
	}

	var fragment string
	var fragmentArgs []any
	if filters != nil {
		parsed, err := filter.Parse(filters)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		fragment, fragmentArgs, err = filter.Compile(parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
	}

	var deleted []string
	err := c.client.db.Transaction(ctx, func(tx *gorm.DB) error {
		if len(ids) == 0 {
			return c.deleteWhere(tx, "("+fragment+")", fragmentArgs, &deleted)
		}
		for chunk := range slices.Chunk(ids, idChunkSize) {
			where := "id IN ?"
			args := []any{chunk}
			if fragment != "" {
				where += " AND (" + fragment + ")"
				args = append(args, fragmentArgs...)
			}
			if err := c.deleteWhere(tx, where, args, &deleted); err != nil {
				return err
			}
		}
		return nil
	})
	c.client.observe(start, c.name, "delete", err)
	if err != nil {
		return nil, fmt.Errorf("delete from collection %q: %w", c.name, err)
	}
	return deleted, nil
}

func (c *Collection) deleteWhere(tx *gorm.DB, where string, args []any, deleted *[]string) error {
	var got []string
	err := tx.Raw("DELETE FROM "+c.table()+" WHERE "+where+" RETURNING id", args...).
		Scan(&got).Error
	if err != nil {
		return c.client.db.TranslateError(err)
	}
	*deleted = append(*deleted, got...)
	return nil
}

// Match is one similarity search result. Distance, Metadata and Vector are
// only populated when the corresponding include option was given.
type Match struct {
	ID       string
	Distance float64
	Metadata record.Metadata
	Vector   []float32
}

// queryRow is the scan target for Query; columns map by name.
type queryRow struct {
	ID       string
	Distance float64
	Metadata datatypes.JSONMap
	Vec      pgvector.Vector
}

// Query returns the records nearest to data under the configured measure.
// Data passes through the collection's adapter in the query phase unless
// WithQuerySkipAdapter is given and must then come out as exactly one
// vector of the collection's dimension.
//
// The ivfflat probe count and, when the server supports hnsw, the hnsw
// candidate list size are set with SET LOCAL inside the query transaction,
// so they apply to this search only.
func (c *Collection) Query(ctx context.Context, data any, opts ...QueryOption) ([]Match, error) {
	start := time.Now()

	cfg := newQueryConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	vector, err := c.queryVector(ctx, data, cfg.skipAdapter)
	if err != nil {
		return nil, err
	}
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, collection expects %d",
			ErrMismatchedDimension, len(vector), c.dimension)
	}

	if !c.IsIndexedForMeasure(ctx, cfg.measure) {
		c.client.log.Warn("query does not have a covering index", nil, map[string]interface{}{
			"collection": c.name,
			"measure":    string(cfg.measure),
		})
	}

	operator, _ := cfg.measure.Operator()
	vec := pgvector.NewVector(vector)

	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT id")
	if cfg.includeValue {
		sb.WriteString(", vec " + operator + " ? AS distance")
		args = append(args, vec)
	}
	if cfg.includeMetadata {
		sb.WriteString(", metadata")
	}
	if cfg.includeVector {
		sb.WriteString(", vec")
	}
	sb.WriteString(" FROM " + c.table())
	if cfg.filters != nil {
		parsed, err := filter.Parse(cfg.filters)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		fragment, fragmentArgs, err := filter.Compile(parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		sb.WriteString(" WHERE (" + fragment + ")")
		args = append(args, fragmentArgs...)
	}
	sb.WriteString(" ORDER BY vec " + operator + " ? LIMIT ?")
	args = append(args, vec, cfg.limit)

	var rows []queryRow
	err = c.client.db.Transaction(ctx, func(tx *gorm.DB) error {
		// SET does not take bind parameters; the values are validated
		// integers.
		if err := tx.Exec(fmt.Sprintf("SET LOCAL ivfflat.probes = %d", cfg.probes)).Error; err != nil {
			return c.client.db.TranslateError(err)
		}
		if c.client.db.SupportsHNSW() {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", cfg.efSearch)).Error; err != nil {
				return c.client.db.TranslateError(err)
			}
		}
		if err := tx.Raw(sb.String(), args...).Scan(&rows).Error; err != nil {
			return c.client.db.TranslateError(err)
		}
		return nil
	})
	c.client.observe(start, c.name, "query", err)
	if err != nil {
		return nil, fmt.Errorf("query collection %q: %w", c.name, err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		m := Match{ID: row.ID}
		if cfg.includeValue {
			m.Distance = row.Distance
		}
		if cfg.includeMetadata {
			m.Metadata = record.Metadata(row.Metadata)
		}
		if cfg.includeVector {
			m.Vector = row.Vec.Slice()
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// queryVector resolves the caller's query data to a vector, running the
// adapter's query phase unless skipped.
func (c *Collection) queryVector(ctx context.Context, data any, skipAdapter bool) ([]float32, error) {
	if skipAdapter {
		vec, ok := record.AsVector(data)
		if !ok {
			return nil, fmt.Errorf("%w: query data of type %T is not a vector", ErrInvalidArgument, data)
		}
		return vec, nil
	}

	out, err := record.Collect(c.adapter.Transform(ctx, adapter.PhaseQuery,
		record.FromSlice([]record.Record{record.New("", data, nil)})))
	if err != nil {
		return nil, err
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("%w: adapter produced %d records for one query", ErrInvalidArgument, len(out))
	}
	vec, ok := record.AsVector(out[0].Media)
	if !ok {
		return nil, fmt.Errorf("%w: adapter produced media of type %T instead of a vector",
			ErrInvalidArgument, out[0].Media)
	}
	return vec, nil
}

func (c *Collection) table() string {
	return c.client.qualify(c.name)
}
