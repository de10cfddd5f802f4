package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
	}{
		{name: "JSON output mode", jsonOutput: true},
		{name: "Console output mode", jsonOutput: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Logger = nil
			JSONOutput = false
			defer Cleanup()

			require.NoError(t, Initialize(Options{JSON: tt.jsonOutput}))
			assert.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.Empty(t, DailyLogPath(), "no log dir means no daily file")
		})
	}
}

func TestInitializeWithLogDir(t *testing.T) {
	dir := t.TempDir()
	defer Cleanup()

	require.NoError(t, Initialize(Options{LogDir: dir}))

	path := DailyLogPath()
	assert.Equal(t, filepath.Join(dir, DailyFileName(time.Now())), path)

	Infow("Batch started", FieldRunID, "run-1", FieldQuantity, 5)
	Logger.Debugw("should not reach the file")
	Logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "=== processing log - ")
	assert.Contains(t, content, "Batch started")
	assert.Contains(t, content, "run-1")
	assert.NotContains(t, content, "should not reach the file")
}

func TestInitializeLogDirUnwritable(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := Initialize(Options{LogDir: filepath.Join(blocker, "logs")})
	assert.Error(t, err)
}

func TestVerbosityToLevel(t *testing.T) {
	tests := []struct {
		verbosity int
		want      zapcore.Level
	}{
		{0, zap.InfoLevel},
		{1, zap.InfoLevel},
		{2, zap.DebugLevel},
		{5, zap.DebugLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, VerbosityToLevel(tt.verbosity), "verbosity %d", tt.verbosity)
	}
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(0, OutputOutcomes))
	assert.False(t, ShouldOutput(0, OutputSteps))
	assert.True(t, ShouldOutput(1, OutputSteps))
	assert.False(t, ShouldOutput(2, OutputBrowserEvents))
	assert.True(t, ShouldOutput(3, OutputBrowserEvents))
	assert.False(t, ShouldOutput(2, OutputCategory(99)))
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "User", LevelName(0))
	assert.Equal(t, "Debug (-vv)", LevelName(2))
	assert.Equal(t, "Trace (-vvv+)", LevelName(7))
	assert.Equal(t, "Unknown", LevelName(-1))
}

func TestFieldsFromContext(t *testing.T) {
	ctx := WithRunID(t.Context(), "run-9")
	ctx = WithContractID(ctx, "CW1")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldRunID, "run-9", FieldContractID, "CW1"}, fields)
	assert.Equal(t, []interface{}{FieldContractID, "CW2"}, FieldsFromContext(WithContractID(t.Context(), "CW2")))
	assert.Empty(t, FieldsFromContext(t.Context()))
}

func TestDefaultLoggerIsSafe(t *testing.T) {
	// Packages log before Initialize in tests; this must not panic
	assert.NotPanics(t, func() {
		Infow("before init", FieldCount, 1)
		Warnw("before init")
	})
}
