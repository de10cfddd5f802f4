package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/harvest/errors"
)

func stubMemory(t *testing.T, total, available uint64, err error) {
	t.Helper()
	orig := memoryStats
	memoryStats = func() (uint64, uint64, float64, error) {
		if err != nil {
			return 0, 0, 0, err
		}
		return total, available, float64(total-available) / float64(total) * 100, nil
	}
	t.Cleanup(func() { memoryStats = orig })
}

func TestCheckMemory(t *testing.T) {
	stubMemory(t, 8192*mib, 512*mib, nil)

	st, err := CheckMemory(1024)
	require.NoError(t, err)
	assert.Equal(t, uint64(8192), st.TotalMB)
	assert.Equal(t, uint64(512), st.AvailableMB)
	assert.True(t, st.Low)

	st, err = CheckMemory(256)
	require.NoError(t, err)
	assert.False(t, st.Low)

	st, err = CheckMemory(0)
	require.NoError(t, err)
	assert.False(t, st.Low, "zero disables the check")
}

func TestCheckMemoryError(t *testing.T) {
	stubMemory(t, 0, 0, errors.New("no /proc"))
	_, err := CheckMemory(1024)
	assert.Error(t, err)
}
