package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across dtsgen.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Targets
	FieldTarget = "target"
	FieldInput  = "input"
	FieldOutput = "output"
	FieldMode   = "mode" // "rewrite" or "plugin"

	// Plugins
	FieldPlugin  = "plugin"
	FieldLoader  = "loader"
	FieldParsers = "parsers"
	FieldVersion = "version"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount = "count"
	FieldSize  = "size"

	// Files and paths
	FieldFile = "file"
	FieldPath = "path"
	FieldRoot = "root"
)

// Context keys for propagating logging context
type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a build run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// LoggerFromContext returns a logger with fields extracted from context.
func LoggerFromContext(ctx context.Context) *zap.SugaredLogger {
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return Logger
	}
	return Logger.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
//
//	type Runner struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func NewRunner() *Runner {
//	    return &Runner{logger: logger.ComponentLogger("build")}
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
