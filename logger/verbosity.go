package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for the -v flag count.
const (
	VerbosityQuiet = 0 // No flags: warnings, errors and the build summary
	VerbosityInfo  = 1 // -v: + one line per target
	VerbosityDebug = 2 // -vv: + plugin loading, replacement counts, config
	VerbosityTrace = 3 // -vvv: + loader internals (exec stderr, wasm exports)
)

// VerbosityToLevel maps verbosity flags (-v, -vv, etc.) to zap log levels
//
//	0 (none)  -> WarnLevel
//	1 (-v)    -> InfoLevel
//	2+ (-vv)  -> DebugLevel
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch {
	case verbosity <= VerbosityQuiet:
		return zapcore.WarnLevel
	case verbosity == VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ShouldLogTrace returns true for verbosity >= 3 (-vvv)
func ShouldLogTrace(verbosity int) bool {
	return verbosity >= VerbosityTrace
}

// TraceEnabled reports whether the logger was initialized with -vvv or more.
// Trace output is logged at debug level.
func TraceEnabled() bool {
	return ShouldLogTrace(Verbosity)
}

// LevelName returns a human-readable name for verbosity level
func LevelName(verbosity int) string {
	switch verbosity {
	case VerbosityQuiet:
		return "Quiet"
	case VerbosityInfo:
		return "Info (-v)"
	case VerbosityDebug:
		return "Debug (-vv)"
	case VerbosityTrace:
		return "Trace (-vvv)"
	default:
		if verbosity > VerbosityTrace {
			return "Trace (-vvv+)"
		}
		return "Unknown"
	}
}
