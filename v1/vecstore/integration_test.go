package vecstore

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Aleph-Alpha/vecstore/v1/adapter"
	"github.com/Aleph-Alpha/vecstore/v1/logger"
	"github.com/Aleph-Alpha/vecstore/v1/postgres"
	"github.com/Aleph-Alpha/vecstore/v1/record"
)

// PgvectorContainer represents a PostgreSQL container with the pgvector
// extension available, for testing
type PgvectorContainer struct {
	testcontainers.Container
	Config postgres.Config
	Host   string
	Port   string
}

// setupPgvectorContainer sets up a pgvector-enabled Postgres container for
// testing
func setupPgvectorContainer(ctx context.Context) (*PgvectorContainer, error) {
	// Get a random free port
	port, err := getFreePort()
	if err != nil {
		return nil, fmt.Errorf("could not get free port: %w", err)
	}

	portStr := fmt.Sprintf("%d", port)
	portBindings := nat.PortMap{
		"5432/tcp": []nat.PortBinding{{HostPort: portStr}},
	}

	req := testcontainers.ContainerRequest{
		Image: "pgvector/pgvector:pg16",
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		ExposedPorts: []string{"5432/tcp"},
		HostConfigModifier: func(cfg *container.HostConfig) {
			cfg.PortBindings = portBindings
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start pgvector container: %w", err)
	}

	host, err := pgContainer.Host(ctx)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get host: %w", err)
	}

	// Double-check port mapping (could be different from requested)
	mappedPort, err := pgContainer.MappedPort(ctx, "5432")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("failed to get mapped port: %w", err)
	}
	portStr = mappedPort.Port()

	err = waitForPostgresReady(host, portStr, "testuser", "testpass", "testdb", 30*time.Second)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, fmt.Errorf("pgvector container not ready: %w", err)
	}

	config := postgres.Config{
		Connection: postgres.Connection{
			Host:     host,
			Port:     portStr,
			User:     "testuser",
			Password: "testpass",
			DbName:   "testdb",
			SSLMode:  "disable",
		},
	}

	return &PgvectorContainer{
		Container: pgContainer,
		Config:    config,
		Host:      host,
		Port:      portStr,
	}, nil
}

// getFreePort gets a free port from the OS
func getFreePort() (int, error) {
	addr, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer func(addr net.Listener) {
		err := addr.Close()
		if err != nil {
			fmt.Printf("Failed to close listener: %v", err)
		}
	}(addr)

	return addr.Addr().(*net.TCPAddr).Port, nil
}

// waitForPostgresReady attempts to connect to PostgreSQL until it's ready or
// times out
func waitForPostgresReady(host, port, user, password, dbname string, timeout time.Duration) error {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	startTime := time.Now()
	for {
		if time.Since(startTime) > timeout {
			return fmt.Errorf("timed out waiting for PostgreSQL to be ready after %s", timeout)
		}

		db, err := sql.Open("postgres", connStr)
		if err != nil {
			time.Sleep(500 * time.Millisecond)
			continue
		}

		err = db.Ping()
		if err == nil {
			return db.Close()
		}

		_ = db.Close()
		time.Sleep(500 * time.Millisecond)
	}
}

// setupClient starts a container-backed client; the caller gets a cleanup
// function terminating the container.
func setupClient(t *testing.T) (context.Context, *Client) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := setupPgvectorContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	log := logger.NewLoggerClient(logger.Config{
		Level:       logger.Error,
		ServiceName: "vecstore-test",
	})

	db, err := postgres.NewPostgres(pgContainer.Config, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.GracefulShutdown()
	})

	client := New(db, log)
	require.NoError(t, client.Setup(ctx))
	return ctx, client
}

func TestCollectionLifecycle(t *testing.T) {
	ctx, client := setupClient(t)

	docs, err := client.GetOrCreateCollection(ctx, "docs", WithDimension(3))
	require.NoError(t, err)
	assert.Equal(t, "docs", docs.Name())
	assert.Equal(t, 3, docs.Dimension())

	// Get-or-create is idempotent and discovers the stored dimension
	again, err := client.GetOrCreateCollection(ctx, "docs", WithDimension(3))
	require.NoError(t, err)
	assert.Equal(t, 3, again.Dimension())

	_, err = client.GetOrCreateCollection(ctx, "docs", WithDimension(4))
	assert.ErrorIs(t, err, ErrMismatchedDimension)

	_, err = client.CreateCollection(ctx, "docs", 3)
	assert.ErrorIs(t, err, ErrCollectionAlreadyExists)

	got, err := client.GetCollection(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Dimension())

	collections, err := client.ListCollections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	assert.Equal(t, "docs", collections[0].Name())

	require.NoError(t, client.DeleteCollection(ctx, "docs"))
	require.NoError(t, client.DeleteCollection(ctx, "docs"))

	_, err = client.GetCollection(ctx, "docs")
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestUpsertFetchDeleteQuery(t *testing.T) {
	ctx, client := setupClient(t)

	docs, err := client.GetOrCreateCollection(ctx, "docs", WithDimension(3))
	require.NoError(t, err)

	err = docs.Upsert(ctx, record.FromSlice([]record.Record{
		record.New("a", []float32{1, 0, 0}, record.Metadata{"year": 2012, "topic": "go"}),
		record.New("b", []float32{0, 1, 0}, record.Metadata{"year": 2020, "topic": "go"}),
		record.New("c", []float32{0, 0, 1}, record.Metadata{"year": 2024, "topic": "sql"}),
	}))
	require.NoError(t, err)

	count, err := docs.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// Upserting an existing id updates in place
	err = docs.Upsert(ctx, record.FromSlice([]record.Record{
		record.New("a", []float32{0.9, 0.1, 0}, record.Metadata{"year": 2013, "topic": "go"}),
	}))
	require.NoError(t, err)

	count, err = docs.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	fetched, err := docs.Fetch(ctx, "a", "missing")
	require.NoError(t, err)
	require.Len(t, fetched, 1)
	assert.Equal(t, "a", fetched[0].ID)
	assert.EqualValues(t, 2013, fetched[0].Metadata["year"])

	// Wrong dimension rolls the whole upsert back
	err = docs.Upsert(ctx, record.FromSlice([]record.Record{
		record.New("d", []float32{1, 1, 1}, nil),
		record.New("e", []float32{1, 1}, nil),
	}))
	assert.ErrorIs(t, err, ErrMismatchedDimension)

	count, err = docs.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	matches, err := docs.Query(ctx, []float32{0, 1, 0},
		WithLimit(2),
		WithIncludeValue(),
		WithIncludeMetadata(),
	)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "b", matches[0].ID)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	assert.EqualValues(t, 2020, matches[0].Metadata["year"])

	matches, err = docs.Query(ctx, []float32{0, 1, 0},
		WithFilters(map[string]any{"year": map[string]any{"$gte": 2014}}),
	)
	require.NoError(t, err)
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	assert.ElementsMatch(t, []string{"b", "c"}, ids)

	_, err = docs.Query(ctx, []float32{1, 2}, WithQuerySkipAdapter())
	assert.ErrorIs(t, err, ErrMismatchedDimension)

	// Delete with ids and filters removes only the intersection
	_, err = docs.Delete(ctx, nil, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Filter leaves need an operator object; bare values are rejected
	_, err = docs.Delete(ctx, nil, map[string]any{"topic": "sql"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	deleted, err := docs.Delete(ctx, []string{"a", "b"}, map[string]any{"year": map[string]any{"$lt": 2014}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, deleted)

	deleted, err = docs.Delete(ctx, nil, map[string]any{"topic": map[string]any{"$eq": "sql"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, deleted)

	deleted, err = docs.Delete(ctx, []string{"b", "missing"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, deleted)

	count, err = docs.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestIndexLifecycle(t *testing.T) {
	ctx, client := setupClient(t)

	docs, err := client.GetOrCreateCollection(ctx, "docs", WithDimension(3))
	require.NoError(t, err)

	idx, err := docs.Index(ctx)
	require.NoError(t, err)
	assert.Nil(t, idx)
	assert.False(t, docs.IsIndexedForMeasure(ctx, MeasureCosineDistance))

	err = docs.Upsert(ctx, record.FromSlice([]record.Record{
		record.New("a", []float32{1, 0, 0}, nil),
		record.New("b", []float32{0, 1, 0}, nil),
		record.New("c", []float32{0, 0, 1}, nil),
	}))
	require.NoError(t, err)

	// The pg16 image ships pgvector >= 0.5, so auto picks hnsw
	built, err := docs.CreateIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, IndexMethodHNSW, built.Method)
	assert.Equal(t, MeasureCosineDistance, built.Measure)
	assert.Equal(t, int64(3), built.RecordCountAtBuild)

	idx, err = docs.Index(ctx)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, built.Name, idx.Name)
	assert.Equal(t, IndexMethodHNSW, idx.Method)
	assert.Equal(t, int64(3), idx.RecordCountAtBuild)

	assert.True(t, docs.IsIndexedForMeasure(ctx, MeasureCosineDistance))
	assert.False(t, docs.IsIndexedForMeasure(ctx, MeasureL2Distance))

	stale, err := docs.IndexIsStale(ctx)
	require.NoError(t, err)
	assert.False(t, stale)

	_, err = docs.CreateIndex(ctx, WithoutReplace())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Replacing with an ivfflat build drops the old index
	built, err = docs.CreateIndex(ctx,
		WithIndexMethod(IndexMethodIVFFlat),
		WithIndexMeasure(MeasureL2Distance),
		WithIndexArgs(IndexArgsIVFFlat{Lists: 5}),
	)
	require.NoError(t, err)
	assert.Equal(t, IndexMethodIVFFlat, built.Method)
	assert.Equal(t, 5, built.Lists)

	idx, err = docs.Index(ctx)
	require.NoError(t, err)
	require.NotNil(t, idx)
	assert.Equal(t, built.Name, idx.Name)
	assert.True(t, docs.IsIndexedForMeasure(ctx, MeasureL2Distance))
	assert.False(t, docs.IsIndexedForMeasure(ctx, MeasureCosineDistance))

	// Growing past twice the build count marks the index stale
	growth := make([]record.Record, 0, 7)
	for i := 0; i < 7; i++ {
		growth = append(growth, record.New(fmt.Sprintf("g%d", i), []float32{float32(i), 1, 0}, nil))
	}
	require.NoError(t, docs.Upsert(ctx, record.FromSlice(growth)))

	stale, err = docs.IndexIsStale(ctx)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestCollectionWithAdapter(t *testing.T) {
	ctx, client := setupClient(t)

	pipeline, err := adapter.New(adapter.NewNoOp(3))
	require.NoError(t, err)

	// The adapter reports the dimension, so no WithDimension is needed
	docs, err := client.GetOrCreateCollection(ctx, "adapted", WithAdapter(pipeline))
	require.NoError(t, err)
	assert.Equal(t, 3, docs.Dimension())

	err = docs.Upsert(ctx, record.FromSlice([]record.Record{
		record.New("a", []float32{1, 0, 0}, nil),
	}))
	require.NoError(t, err)

	matches, err := docs.Query(ctx, []float32{1, 0, 0})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
}
