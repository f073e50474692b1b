// Package obs carries rustup's ambient observability stack: structured
// logging and a typed error taxonomy (spec.md §7).
//
// Init/LogDeferredError follow the teacher's internal/core/logger.go
// almost line for line — same zap.Config split (development vs.
// production, explicit stderr routing so stdout stays clean for tool
// output), same LogDeferredError helper for "log an error that can't be
// returned" call sites like deferred Close()s during rollback.
package obs

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init builds and installs the global zap logger. pretty selects a
// human-readable, color-coded development encoder (for an interactive
// terminal); otherwise JSON production logging is used. Output always
// goes to stderr so it never interleaves with a shim's proxied stdout.
func Init(pretty bool) (*zap.Logger, error) {
	var config zap.Config
	if pretty {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("obs: building logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

// LogDeferredError logs the error returned by fn, if any, under the global
// logger. Intended for defer sites (closing a file, releasing a lock)
// where the error can't propagate to the caller but shouldn't be silent.
func LogDeferredError(fn func() error) {
	if err := fn(); err != nil {
		zap.L().Error("deferred error", zap.Error(err))
	}
}

// LogTerminalError logs err, annotated with kind, as the final thing a
// command does before translating it to an exit code.
func LogTerminalError(op string, err error) {
	zap.L().Error(op, zap.Error(err), zap.String("kind", string(KindOf(err))))
}
