// Package logger provides structured logging for the vector store client.
//
// The logger package wraps Uber's Zap logger behind a small interface with
// log levels, structured key-value fields, and fx integration, so every
// component logs the same way.
//
// Core Features:
//   - Structured logging with key-value pairs
//   - Support for multiple log levels (Debug, Info, Warn, Error, Fatal)
//   - JSON output with ISO8601 timestamps, suitable for log collectors
//   - Integration with the fx dependency injection framework
//
// # Direct Usage (Without FX)
//
// For simple applications or tests, create a logger directly:
//
//	import "github.com/Aleph-Alpha/vecstore/v1/logger"
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:       "info",
//		ServiceName: "vecstore",
//	})
//
//	log.Info("collection created", nil, map[string]interface{}{
//		"collection": "documents",
//		"dimension":  1536,
//	})
//
// # FX Module Integration
//
// For applications using Uber's fx:
//
//	app := fx.New(
//		logger.FXModule,
//		fx.Provide(func() logger.Config {
//			return logger.Config{Level: "info", ServiceName: "vecstore"}
//		}),
//		// ... other modules
//	)
//	app.Run()
//
// # Logging Levels
//
//	log.Debug("Debug message", nil, nil) // Only appears if level is Debug
//	log.Info("Info message", nil, nil)
//	log.Warn("Warning message", nil, nil)
//	log.Error("Error message", err, nil)
//
// # Configuration
//
// The logger can be configured via environment variables:
//
//	ZAP_LOGGER_LEVEL=debug          # Log level (debug, info, warning, error)
//	ZAP_LOGGER_SERVICE_NAME=myapp   # Service name attached to every entry
//
// # Thread Safety
//
// All methods on Logger are safe for concurrent use by multiple goroutines.
package logger
