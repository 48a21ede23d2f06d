package postgres

import (
	"context"
	"sync"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecstore/v1/logger"
)

// FXModule is an fx module that provides the Postgres database component.
// It registers the Postgres constructor for dependency injection and sets up
// lifecycle hooks to properly initialize and shut down the database
// connection.
//
// This module provides the Client interface, not the *Postgres concrete type.
var FXModule = fx.Module("postgres",
	fx.Provide(
		NewPostgresClientWithDI,
		fx.Annotate(
			ProvideClient,
			fx.As(new(Client)),
		),
	),
	fx.Invoke(RegisterPostgresLifecycle),
)

// ProvideClient wraps the concrete *Postgres and returns it as the Client
// interface, so applications depend on the interface rather than the
// concrete type.
func ProvideClient(pg *Postgres) Client {
	return pg
}

// PostgresParams groups the dependencies needed to create a Postgres client
// via dependency injection. The embedded fx.In marker enables automatic
// injection of the struct fields from the dependency container.
type PostgresParams struct {
	fx.In

	Config Config
	Logger *logger.Logger
}

// NewPostgresClientWithDI creates a new Postgres client using dependency
// injection. It delegates to NewPostgres, maintaining the same
// initialization logic while enabling fx integration.
//
// Example usage with fx:
//
//	app := fx.New(
//	    logger.FXModule,
//	    postgres.FXModule,
//	    fx.Provide(
//	        func() postgres.Config {
//	            return loadPostgresConfig()
//	        },
//	    ),
//	)
func NewPostgresClientWithDI(params PostgresParams) (*Postgres, error) {
	return NewPostgres(params.Config, params.Logger)
}

// PostgresLifeCycleParams groups the dependencies needed for Postgres
// lifecycle management.
type PostgresLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Postgres  *Postgres
}

// RegisterPostgresLifecycle registers lifecycle hooks for the Postgres
// database component. It sets up:
// 1. Connection monitoring on application start
// 2. Automatic reconnection on application start
// 3. Graceful shutdown of database connections on application stop
//
// A WaitGroup ensures the monitoring goroutines complete before the
// application terminates.
func RegisterPostgresLifecycle(params PostgresLifeCycleParams) {
	wg := &sync.WaitGroup{}
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			wg.Add(1)
			go func() {
				defer wg.Done()
				params.Postgres.MonitorConnection(ctx)
			}()

			wg.Add(1)
			go func() {
				defer wg.Done()
				params.Postgres.RetryConnection(ctx)
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Postgres.closeShutdownOnce.Do(func() {
				close(params.Postgres.shutdownSignal)
			})

			wg.Wait()

			params.Postgres.closeRetryChanOnce.Do(func() {
				close(params.Postgres.retryChanSignal)
			})

			sqlDB, err := params.Postgres.DB().DB()
			if err == nil {
				return sqlDB.Close()
			}

			return nil
		},
	})
}
