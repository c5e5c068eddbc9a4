package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
)

var (
	DefaultLogger Logger
	zapLogger     *zap.Logger
)

func init() {
	zapLogger = newZap(os.Getenv("LOGGING_MODE"))
	DefaultLogger = zapLogger.Sugar()
}

func newZap(mode string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	switch strings.ToLower(mode) {
	case "prod":
		l, err = zap.NewProduction()
	case "nop":
		return zap.NewNop()
	default:
		l, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// NewLogger builds a logger for mode ("prod", "dev" or "nop") tagged with
// the component name.
func NewLogger(mode, component string) Logger {
	return newZap(mode).Named(component).Sugar()
}

func Cleanup() {
	_ = zapLogger.Sync()
}

// Logger is used for logging formatted messages.
type Logger interface {
	// Debugf logs messages at DEBUG level.
	Debugf(format string, args ...interface{})
	// Infof logs messages at INFO level.
	Infof(format string, args ...interface{})
	// Warnf logs messages at WARN level.
	Warnf(format string, args ...interface{})
	// Errorf logs messages at ERROR level.
	Errorf(format string, args ...interface{})
	// Fatalf logs messages at FATAL level.
	Fatalf(format string, args ...interface{})
}
