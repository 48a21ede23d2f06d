package vecstore

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/vecstore/v1/logger"
	"github.com/Aleph-Alpha/vecstore/v1/postgres"
)

// FXModule is an fx module that provides the vector store client. It
// registers the Client constructor for dependency injection and runs Setup
// on application start so the schema and the pgvector extension exist
// before any collection is touched.
var FXModule = fx.Module("vecstore",
	fx.Provide(NewClientWithDI),
	fx.Invoke(RegisterClientLifecycle),
)

// ClientParams groups the dependencies needed to create a vector store
// client via dependency injection. Options is optional, so applications can
// override the schema or attach metrics without providing anything when the
// defaults fit.
type ClientParams struct {
	fx.In

	DB      postgres.Client
	Logger  *logger.Logger
	Options []ClientOption `optional:"true"`
}

// NewClientWithDI creates a vector store client using dependency injection.
// It delegates to New, maintaining the same initialization logic while
// enabling fx integration.
//
// Example usage with fx:
//
//	app := fx.New(
//	    logger.FXModule,
//	    postgres.FXModule,
//	    vecstore.FXModule,
//	    fx.Provide(
//	        func() postgres.Config {
//	            return loadPostgresConfig()
//	        },
//	    ),
//	)
func NewClientWithDI(params ClientParams) *Client {
	return New(params.DB, params.Logger, params.Options...)
}

// ClientLifeCycleParams groups the dependencies needed for client lifecycle
// management.
type ClientLifeCycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Client    *Client
}

// RegisterClientLifecycle registers a lifecycle hook that bootstraps the
// vector schema on application start. The database connection itself is
// owned by the postgres module, so no shutdown hook is needed here.
func RegisterClientLifecycle(params ClientLifeCycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return params.Client.Setup(ctx)
		},
	})
}
