package obs

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerOnce sync.Once
	logger     *zap.Logger
)

// InitLogger builds the shared logger. Idempotent: only the first call
// has effect. env "dev" selects the console encoder, anything else
// gets production JSON output.
func InitLogger(env, level string) {
	loggerOnce.Do(func() {
		logger = buildLogger(env, level)
	})
}

// L returns the shared logger, building a production default when
// InitLogger was never called.
func L() *zap.Logger {
	if logger == nil {
		InitLogger("prod", "info")
	}
	return logger
}

// Named returns the shared logger tagged with a component name.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync flushes buffered log entries. Call via defer in main.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

func buildLogger(env, level string) *zap.Logger {
	var cfg zap.Config
	if strings.EqualFold(env, "dev") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if parsed, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(parsed)
	}
	built, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return built
}
