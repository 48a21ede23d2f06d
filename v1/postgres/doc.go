// Package postgres provides the PostgreSQL connection layer for the vector
// store client.
//
// The package wraps GORM with connection management, health monitoring,
// automatic reconnection, and standardized error classification. The vector
// store layers depend on the Client interface; applications construct the
// concrete *Postgres either directly or through the fx module.
//
// Core Features:
//   - Connection pooling and management
//   - Health checks with automatic reconnection
//   - Transaction support with automatic rollback on errors
//   - SQLSTATE-based error translation and classification
//
// Basic Usage:
//
//	import (
//		"github.com/Aleph-Alpha/vecstore/v1/logger"
//		"github.com/Aleph-Alpha/vecstore/v1/postgres"
//	)
//
//	log := logger.NewLoggerClient(logger.Config{Level: "info"})
//
//	db, err := postgres.NewPostgres(postgres.Config{
//		Connection: postgres.Connection{
//			Host:    "localhost",
//			Port:    "5432",
//			User:    "postgres",
//			DbName:  "vectors",
//			SSLMode: "disable",
//		},
//	}, log)
//	if err != nil {
//		log.Fatal("failed to connect to database", err, nil)
//	}
//	defer db.GracefulShutdown()
//
//	// Raw statements
//	_, err = db.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS vecs")
//
//	// Transactions
//	err = db.Transaction(ctx, func(tx *gorm.DB) error {
//		if err := tx.Exec("DROP INDEX IF EXISTS ix_old").Error; err != nil {
//			return err
//		}
//		return tx.Exec("CREATE INDEX ...").Error
//	})
//
// FX Module Integration:
//
//	app := fx.New(
//		logger.FXModule,
//		postgres.FXModule,
//		// ... other modules
//	)
//	app.Run()
//
// Error Handling:
//
// All methods return GORM and driver errors directly, preserving the full
// error chain. For standardized error types, use TranslateError:
//
//	_, err := db.Exec(ctx, stmt)
//	if err != nil {
//	    err = db.TranslateError(err)
//	    if errors.Is(err, postgres.ErrDuplicateKey) {
//	        // Handle conflict with standardized error
//	    }
//	}
//
// Classification helpers answer the operational questions directly:
//
//	if db.IsRetryable(err) {
//	    // safe to run the statement again
//	}
//
// Thread Safety:
//
// All methods on Client are safe for concurrent use by multiple goroutines.
// The active connection is held in an atomic pointer and can be swapped by
// the reconnection loop without blocking readers.
package postgres
