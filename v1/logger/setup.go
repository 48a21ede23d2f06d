package logger

import (
	"log"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps Uber's zap logger behind the small surface the rest of the
// repo logs through (Info/Debug/Warn/Error/Fatal taking a message, an error
// and optional field maps).
type Logger struct {
	// Zap is the underlying zap.Logger instance, exported for the rare
	// caller that needs zap-specific functionality directly. Everything
	// else should go through the wrapper methods.
	Zap *zap.Logger

	// tracingEnabled makes the wrapper attach trace and span ids where a
	// context carries them.
	tracingEnabled bool
}

// levelFromConfig maps Config.Level onto zap levels. Unrecognized values
// fall back to info.
func levelFromConfig(level string) zapcore.Level {
	switch level {
	case Debug:
		return zap.DebugLevel
	case Warning:
		return zap.WarnLevel
	case Error:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// NewLoggerClient builds the production logger used across the repo.
//
// Parameters:
//   - cfg: log level, service name and tracing toggle.
//
// Returns:
//   - *Logger: ready for use; the fx module registers the Sync hook.
//
// Entries are JSON encoded with ISO8601 timestamps and caller locations, and
// every line carries the process id and service name. Output goes to stderr.
// A broken logger configuration leaves the process with no way to report
// problems, so construction failures are fatal.
//
// Example:
//
//	log := logger.NewLoggerClient(logger.Config{
//	    Level:       logger.Info,
//	    ServiceName: "vecstore",
//	})
//	log.Info("application started", nil, nil)
func NewLoggerClient(cfg Config) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	zapCfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(levelFromConfig(cfg.Level)),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields: map[string]interface{}{
			"pid":     os.Getpid(),
			"service": cfg.ServiceName,
		},
	}

	zl, err := zapCfg.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		log.Fatal(err)
	}

	return &Logger{
		Zap:            zl,
		tracingEnabled: cfg.EnableTracing,
	}
}
