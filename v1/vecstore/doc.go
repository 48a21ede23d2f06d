// Package vecstore manages vector collections in PostgreSQL with the
// pgvector extension.
//
// A Client owns one schema (default "vecs") and hands out Collections, each
// a table with an id, a fixed-dimension vector column and a JSONB metadata
// column. Collections support chunked upserts, fetches and deletes by id,
// metadata-filtered deletes, similarity search with metadata filters, and a
// vector index lifecycle covering ivfflat and hnsw.
//
// Core Features:
//   - Get-or-create collection contract with dimension verification
//   - Upserts, fetches, deletes and queries in single transactions
//   - Metadata filters compiled to JSONB predicates that use the
//     collection's GIN index
//   - Index builds with sensible defaults, name-encoded parameters, and
//     staleness detection
//   - Optional adapter pipelines that turn raw media into vectors on the
//     way in and out
//
// Basic Usage:
//
//	import (
//		"github.com/Aleph-Alpha/vecstore/v1/logger"
//		"github.com/Aleph-Alpha/vecstore/v1/postgres"
//		"github.com/Aleph-Alpha/vecstore/v1/record"
//		"github.com/Aleph-Alpha/vecstore/v1/vecstore"
//	)
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//	db, err := postgres.NewPostgres(postgres.DefaultConfig(), log)
//	if err != nil {
//		log.Fatal("failed to connect to database", err, nil)
//	}
//
//	client := vecstore.New(db, log)
//	if err := client.Setup(ctx); err != nil {
//		log.Fatal("failed to bootstrap vector schema", err, nil)
//	}
//
//	docs, err := client.GetOrCreateCollection(ctx, "docs", vecstore.WithDimension(3))
//	if err != nil {
//		log.Fatal("failed to open collection", err, nil)
//	}
//
//	err = docs.Upsert(ctx, record.FromSlice([]record.Record{
//		record.New("a", []float32{1, 2, 3}, record.Metadata{"year": 2012}),
//		record.New("b", []float32{4, 5, 6}, record.Metadata{"year": 2024}),
//	}))
//
//	matches, err := docs.Query(ctx, []float32{1, 2, 3},
//		vecstore.WithLimit(5),
//		vecstore.WithFilters(map[string]any{"year": map[string]any{"$gte": 2020}}),
//		vecstore.WithIncludeValue(),
//	)
//
// Indexing:
//
// Queries work without an index via sequential scan; build one per measure
// you rank by:
//
//	_, err = docs.CreateIndex(ctx, vecstore.WithIndexMeasure(vecstore.MeasureCosineDistance))
//
//	stale, err := docs.IndexIsStale(ctx)
//	if stale {
//	    _, err = docs.CreateIndex(ctx)
//	}
//
// Adapters:
//
// A collection created with WithAdapter accepts raw media and transforms it
// on upsert and on query. See the adapter package for chunkers and the
// embedding step.
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		postgres.FXModule,
//		vecstore.FXModule,
//		// ... other modules
//	)
//	app.Run()
//
// Thread Safety:
//
// Client and Collection are safe for concurrent use by multiple goroutines.
package vecstore
