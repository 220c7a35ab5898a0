package convert

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance.
// It uses a no-op logger by default.
//
// The logger is only consulted at converter construction time, for diagnostics like
// malformed struct tags; encode and decode paths never log.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package's logger.
// This must be called before any converters are constructed.
func SetLogger(l *zap.Logger) {
	logger = l
}
