package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
)

// Bootstrap prepares the database for vector workloads. It creates the given
// schema, installs the pgvector extension, and caches the installed extension
// version for capability checks. Safe to call repeatedly.
func (p *Postgres) Bootstrap(ctx context.Context, schema string) error {
	if _, err := p.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(schema)); err != nil {
		return fmt.Errorf("create schema %q: %w", schema, TranslateError(err))
	}

	if _, err := p.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("create vector extension: %w", TranslateError(err))
	}

	var version string
	err := p.Raw(ctx, &version,
		"SELECT installed_version FROM pg_available_extensions WHERE name = 'vector'")
	if err != nil {
		return fmt.Errorf("read vector extension version: %w", TranslateError(err))
	}
	p.vectorVersion.Store(&version)

	p.log.Info("vector extension ready", nil, map[string]interface{}{
		"schema":  schema,
		"version": version,
	})
	return nil
}

// VectorVersion returns the installed pgvector version discovered during
// Bootstrap, or the empty string when Bootstrap has not run.
func (p *Postgres) VectorVersion() string {
	if v := p.vectorVersion.Load(); v != nil {
		return *v
	}
	return ""
}

// SupportsHNSW reports whether the installed pgvector version supports HNSW
// indexes. HNSW was introduced in pgvector 0.5.0.
func (p *Postgres) SupportsHNSW() bool {
	return vectorVersionAtLeast(p.VectorVersion(), 0, 5)
}

// vectorVersionAtLeast compares a "major.minor[.patch]" version string
// against the given threshold. Unparseable versions compare as too old.
func vectorVersionAtLeast(version string, major, minor int) bool {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) < 2 {
		return false
	}
	maj, err := strconv.Atoi(parts[0])
	if err != nil {
		return false
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return false
	}
	return maj > major || (maj == major && min >= minor)
}
