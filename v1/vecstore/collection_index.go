package vecstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CreateIndex builds a vector index covering one distance measure. An
// existing index is dropped and replaced in the same transaction unless
// WithoutReplace is given, in which case an existing index fails the call.
//
// With IndexMethodAuto the method is hnsw when the installed pgvector
// supports it and ivfflat otherwise. Requesting hnsw explicitly on a server
// without support is an error rather than a silent downgrade.
func (c *Collection) CreateIndex(ctx context.Context, opts ...IndexOption) (*Index, error) {
	start := time.Now()

	cfg := newIndexConfig(opts)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	ops, _ := cfg.measure.Ops()

	method := cfg.method
	if method == IndexMethodAuto {
		if c.client.db.SupportsHNSW() {
			method = IndexMethodHNSW
		} else {
			method = IndexMethodIVFFlat
		}
	}
	if method == IndexMethodHNSW && !c.client.db.SupportsHNSW() {
		return nil, fmt.Errorf("%w: hnsw indexes require pgvector >= 0.5.0, installed version is %q",
			ErrInvalidArgument, c.client.db.VectorVersion())
	}

	existing, err := c.Index(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil && !cfg.replace {
		return nil, fmt.Errorf("%w: index %q exists and WithoutReplace was given", ErrInvalidArgument, existing.Name)
	}

	count, err := c.Len(ctx)
	if err != nil {
		return nil, err
	}

	idx := Index{
		Method:             method,
		Measure:            cfg.measure,
		RecordCountAtBuild: count,
	}
	var with string
	switch method {
	case IndexMethodIVFFlat:
		idx.Lists = ivfflatLists(count)
		if args, ok := cfg.args.(IndexArgsIVFFlat); ok && args.Lists > 0 {
			idx.Lists = args.Lists
		}
		if count < int64(idx.Lists) {
			c.client.log.Warn("building ivfflat index on fewer records than lists, recall will suffer until rebuilt", nil,
				map[string]interface{}{
					"collection": c.name,
					"records":    count,
					"lists":      idx.Lists,
				})
		}
		with = fmt.Sprintf("WITH (lists = %d)", idx.Lists)
	case IndexMethodHNSW:
		idx.M = defaultHNSWM
		idx.EfConstruction = defaultHNSWEfConstruction
		if args, ok := cfg.args.(IndexArgsHNSW); ok {
			if args.M > 0 {
				idx.M = args.M
			}
			if args.EfConstruction > 0 {
				idx.EfConstruction = args.EfConstruction
			}
		}
		with = fmt.Sprintf("WITH (m = %d, ef_construction = %d)", idx.M, idx.EfConstruction)
	}

	builtAt := time.Now().UTC().Truncate(time.Second)
	idx.BuiltAt = builtAt
	idx.Name = encodeIndexName(ops, method, idx, builtAt)

	err = c.client.db.Transaction(ctx, func(tx *gorm.DB) error {
		if existing != nil {
			drop := "DROP INDEX IF EXISTS " +
				pq.QuoteIdentifier(c.client.schema) + "." + pq.QuoteIdentifier(existing.Name)
			if err := tx.Exec(drop).Error; err != nil {
				return c.client.db.TranslateError(err)
			}
		}
		create := fmt.Sprintf("CREATE INDEX %s ON %s USING %s (vec %s) %s",
			pq.QuoteIdentifier(idx.Name), c.table(), method, ops, with)
		if err := tx.Exec(create).Error; err != nil {
			return c.client.db.TranslateError(err)
		}
		return nil
	})
	c.client.observe(start, c.name, "create_index", err)
	if err != nil {
		return nil, fmt.Errorf("create index on collection %q: %w", c.name, err)
	}

	c.client.log.Info("vector index created", nil, map[string]interface{}{
		"collection": c.name,
		"index":      idx.Name,
		"method":     string(method),
		"measure":    string(cfg.measure),
		"records":    count,
	})
	return &idx, nil
}

// Index returns the descriptor of the collection's vector index, or nil when
// none exists. Build parameters are recovered from the index name; names not
// produced by this package yield a descriptor carrying only the name.
func (c *Collection) Index(ctx context.Context) (*Index, error) {
	var names []string
	err := c.client.db.Raw(ctx, &names, `
		SELECT pc.relname
		FROM pg_class pc
		JOIN pg_index pi ON pc.oid = pi.indexrelid
		WHERE pc.relname ilike 'ix_vector%'
		  AND pi.indrelid = ?::regclass`, c.table())
	if err != nil {
		return nil, fmt.Errorf("inspect index of collection %q: %w", c.name, c.client.db.TranslateError(err))
	}
	if len(names) == 0 {
		return nil, nil
	}

	idx := parseIndexName(names[0])
	return &idx, nil
}

// IsIndexedForMeasure reports whether the collection has a vector index
// built for the given measure. Queries with other measures still work but
// fall back to a sequential scan.
func (c *Collection) IsIndexedForMeasure(ctx context.Context, measure IndexMeasure) bool {
	ops, ok := measure.Ops()
	if !ok {
		return false
	}
	idx, err := c.Index(ctx)
	if err != nil || idx == nil {
		return false
	}
	return strings.HasPrefix(idx.Name, "ix_"+ops+"_")
}

// IndexIsStale reports whether the collection has grown past twice the
// record count the index was built with, the point where an ivfflat build
// should be refreshed. A missing index, or one whose name carries no build
// count, counts as stale as soon as the collection holds records.
func (c *Collection) IndexIsStale(ctx context.Context) (bool, error) {
	idx, err := c.Index(ctx)
	if err != nil {
		return false, err
	}

	count, err := c.Len(ctx)
	if err != nil {
		return false, err
	}
	if idx == nil {
		return count > 0, nil
	}
	return count > 2*idx.RecordCountAtBuild, nil
}
