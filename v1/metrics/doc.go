// Package metrics provides Prometheus-based monitoring and metrics collection
// for the vector store client.
//
// The metrics package is designed to provide a standardized observability
// approach with a configurable HTTP endpoint for metrics exposure, automatic
// runtime instrumentation, and integration with the Fx dependency injection
// framework.
//
// # Architecture
//
// This package follows the "accept interfaces, return structs" design pattern:
//   - MetricsCollector interface: Defines the contract for metrics operations
//   - Metrics struct: Concrete implementation of the MetricsCollector interface
//   - NewMetrics constructor: Returns *Metrics (concrete type)
//   - FX module: Provides *Metrics for dependency injection
//
// Core Features:
//   - Exposes a configurable /metrics endpoint for Prometheus scraping
//   - Integration with go.uber.org/fx for automatic lifecycle management
//   - Automatic registration of Go runtime and process-level metrics
//   - Support for custom metric registration (counters, gauges, histograms)
//   - Service name labelling for multi-service observability
//   - Graceful startup and shutdown via Fx lifecycle hooks
//
// # Direct Usage (Without FX)
//
// For simple applications or tests, create metrics directly:
//
//	import "github.com/Aleph-Alpha/vecstore/v1/metrics"
//
//	cfg := metrics.Config{
//		Address:                 ":9090",
//		EnableDefaultCollectors: true,
//		ServiceName:             "vecstore",
//	}
//
//	m := metrics.NewMetrics(cfg)
//	go m.Server.ListenAndServe()
//
//	// Use built-in metrics
//	m.IncrementOperations("documents", "upsert", "success")
//	defer m.RecordOperationDuration(time.Now(), "documents", "query")
//
// # FX Module Integration
//
// For applications using Uber's fx:
//
//	app := fx.New(
//		logger.FXModule,
//		metrics.FXModule,
//		fx.Provide(func() metrics.Config {
//			return metrics.DefaultConfig()
//		}),
//	)
//	app.Run()
//
// # Configuration
//
// The metrics server can be configured via environment variables:
//
//	METRICS_ADDRESS=:9090                      # Port and address for /metrics endpoint
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true     # Enable runtime and process metrics
//	METRICS_SERVICE_NAME=vecstore              # Adds service label to all metrics
//
// # Custom Metrics
//
// Applications can register additional Prometheus metrics using the exposed
// Registry or the Create* factories:
//
//	embedLatency := m.CreateHistogram(
//	    "embedding_request_duration_seconds",
//	    "Histogram of embedding request latencies.",
//	    []string{"model"},
//	    prometheus.DefBuckets,
//	)
//
// # Thread Safety
//
// All methods on the Metrics struct and Prometheus collectors are safe for
// concurrent use by multiple goroutines.
package metrics
