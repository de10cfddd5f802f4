package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyFileName(t *testing.T) {
	day := time.Date(2026, 1, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "process_log_09_01_2026.txt", DailyFileName(day))
}

func TestDailyFileRollsOverAtMidnight(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 5, 1, 23, 59, 30, 0, time.UTC)
	clock := func() time.Time { return now }

	df, err := openDailyFile(dir, clock)
	require.NoError(t, err)
	defer df.Close()

	first := df.Path()
	_, err = df.Write([]byte("before midnight\n"))
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = df.Write([]byte("after midnight\n"))
	require.NoError(t, err)

	second := df.Path()
	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Join(dir, "process_log_01_05_2026.txt"), first)
	assert.Equal(t, filepath.Join(dir, "process_log_02_05_2026.txt"), second)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)

	assert.Contains(t, string(a), "before midnight")
	assert.NotContains(t, string(a), "after midnight")
	assert.Contains(t, string(b), "after midnight")
	assert.True(t, strings.HasPrefix(string(b), "=== processing log - 02/05/2026 00:00:30 ===\n"))
}

func TestDailyFileAppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()
	clock := func() time.Time { return time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC) }

	for _, line := range []string{"first run\n", "second run\n"} {
		df, err := openDailyFile(dir, clock)
		require.NoError(t, err)
		_, err = df.Write([]byte(line))
		require.NoError(t, err)
		require.NoError(t, df.Close())
	}

	data, err := os.ReadFile(filepath.Join(dir, "process_log_01_05_2026.txt"))
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "first run")
	assert.Contains(t, content, "second run")
	assert.Equal(t, 2, strings.Count(content, "=== processing log"), "each open writes a header")
	assert.Contains(t, content, strings.Repeat("=", 50))
}
