package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
	}{
		{name: "JSON output mode", jsonOutput: true, verbosity: 0},
		{name: "Console output mode", jsonOutput: false, verbosity: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			Cleanup()
			Logger = zap.NewNop().Sugar()
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(-1))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "Quiet", LevelName(0))
	assert.Equal(t, "Trace (-vvv)", LevelName(3))
	assert.Equal(t, "Trace (-vvv+)", LevelName(5))
	assert.Equal(t, "Unknown", LevelName(-2))
	assert.True(t, ShouldLogTrace(3))
	assert.False(t, ShouldLogTrace(2))
}

func TestTraceEnabled(t *testing.T) {
	defer func() {
		Verbosity = 0
		Logger = zap.NewNop().Sugar()
	}()

	require.NoError(t, Initialize(false, VerbosityDebug))
	assert.False(t, TraceEnabled())

	require.NoError(t, Initialize(false, VerbosityTrace))
	assert.True(t, TraceEnabled())
}

func TestLoggerFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Logger = zap.New(core).Sugar()
	defer func() { Logger = zap.NewNop().Sugar() }()

	LoggerFromContext(context.Background()).Infow("plain")
	LoggerFromContext(WithRunID(context.Background(), "run-7")).Infow("scoped")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Empty(t, entries[0].ContextMap())
	assert.Equal(t, "run-7", entries[1].ContextMap()[FieldRunID])
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))

	ctx = WithRunID(ctx, "run-1")
	ctx = WithComponent(ctx, "build")
	assert.Equal(t, []interface{}{FieldRunID, "run-1", FieldComponent, "build"}, FieldsFromContext(ctx))
}

func TestConsoleEncoder(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	enc := newConsoleEncoder()
	entry := zapcore.Entry{
		Level:      zapcore.InfoLevel,
		Time:       time.Date(2026, 1, 2, 13, 4, 35, 0, time.UTC),
		LoggerName: "build",
		Message:    "Emitted declaration",
	}
	fields := []zapcore.Field{
		zap.String(FieldInput, "src/index.d.ts"),
		zap.String(FieldOutput, "index.d.ts"),
		zap.Int64(FieldDurationMS, 3),
		zap.String(FieldMode, "rewrite"),
	}

	buf, err := enc.EncodeEntry(entry, fields)
	require.NoError(t, err)
	assert.Equal(t, "13:04:35  build  Emitted declaration  src/index.d.ts -> index.d.ts  3ms  mode=rewrite\n", buf.String())
}

func TestConsoleEncoder_WarnAndError(t *testing.T) {
	SetColor(false)
	defer SetColor(true)

	enc := newConsoleEncoder()
	entry := zapcore.Entry{
		Level:   zapcore.WarnLevel,
		Time:    time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC),
		Message: "Target failed",
	}

	buf, err := enc.EncodeEntry(entry, []zapcore.Field{zap.Error(errors.New("boom"))})
	require.NoError(t, err)
	assert.Equal(t, "09:00:00  WARN  Target failed  boom\n", buf.String())
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("everforest")

	SetTheme("gruvbox")
	assert.Equal(t, "gruvbox", currentTheme)

	SetTheme("solarized")
	assert.Equal(t, "gruvbox", currentTheme)
}
