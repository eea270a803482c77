// Package logger holds the process-wide zap logger used by dtsgen.
//
// The logger starts as a no-op so library packages can log before the CLI
// has parsed its flags. cmd/dtsgen calls Initialize once flags are known.
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global logger instance
	Logger *zap.SugaredLogger
	// Flag to track if JSON output is enabled
	JSONOutput bool
	// Verbosity is the -v count the logger was initialized with
	Verbosity int

	// output is where console and JSON logs go. Logs never share stdout
	// with `dtsgen plugins inspect` output.
	output io.Writer = os.Stderr
)

func init() {
	// Safe no-op logger at package load time
	Logger = zap.NewNop().Sugar()
}

// Initialize sets up the global logger from the --json-log flag and the -v count
func Initialize(jsonOutput bool, verbosity int) error {
	JSONOutput = jsonOutput
	Verbosity = verbosity
	level := VerbosityToLevel(verbosity)

	if theme := os.Getenv("DTSGEN_LOG_THEME"); theme != "" {
		SetTheme(theme)
	}
	if os.Getenv("NO_COLOR") != "" {
		SetColor(false)
	}

	var zapLogger *zap.Logger
	var err error

	if jsonOutput {
		// JSON structured output for CI log collectors
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(level)
		config.OutputPaths = []string{"stderr"}
		config.ErrorOutputPaths = []string{"stderr"}
		zapLogger, err = config.Build()
	} else {
		zapLogger = zap.New(
			zapcore.NewCore(
				newConsoleEncoder(),
				zapcore.AddSync(output),
				level,
			),
		)
	}

	if err != nil {
		return err
	}

	Logger = zapLogger.Sugar()
	return nil
}

// Cleanup flushes any buffered log entries
func Cleanup() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}

// Infow logs an info message with structured fields
func Infow(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Infow(msg, keysAndValues...)
	}
}

// Warnw logs a warning message with structured fields
func Warnw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Warnw(msg, keysAndValues...)
	}
}

// Errorw logs an error message with structured fields
func Errorw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Errorw(msg, keysAndValues...)
	}
}

// Debugw logs a debug message with structured fields
func Debugw(msg string, keysAndValues ...interface{}) {
	if Logger != nil {
		Logger.Debugw(msg, keysAndValues...)
	}
}
