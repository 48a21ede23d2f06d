package postgres

import (
	"context"

	"gorm.io/gorm"
)

// Client is the database surface the vector store layers depend on. The
// Postgres type implements it; tests substitute their own implementation.
type Client interface {
	// Raw statement execution
	Exec(ctx context.Context, sql string, values ...interface{}) (int64, error)
	Raw(ctx context.Context, dest interface{}, sql string, values ...interface{}) error

	// Transaction support. The callback receives the transaction-scoped
	// gorm handle; returning an error rolls the transaction back.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Raw GORM access for advanced use cases
	DB() *gorm.DB

	// Vector workload bootstrap and capability checks
	Bootstrap(ctx context.Context, schema string) error
	VectorVersion() string
	SupportsHNSW() bool

	// Error translation / classification.
	//
	// CRUD and query paths return raw GORM/driver errors. Use
	// TranslateError to normalize them to the exported sentinels
	// (ErrRecordNotFound, ErrDuplicateKey, ...).
	TranslateError(err error) error
	GetErrorCategory(err error) ErrorCategory
	IsRetryable(err error) bool
	IsTemporary(err error) bool
	IsCritical(err error) bool

	// Lifecycle management
	GracefulShutdown() error
}
