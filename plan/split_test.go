package plan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/harvest/contract"
)

func TestSplit(t *testing.T) {
	ids := contract.IDs("A", "B", "A", "C", "D", "E", "F", "G", "B")

	chunks, err := Split(ids, 3)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// 7 unique ids: 2, 2, then the remaining 3
	assert.Equal(t, contract.IDs("A", "B"), chunks[0])
	assert.Equal(t, contract.IDs("C", "D"), chunks[1])
	assert.Equal(t, contract.IDs("E", "F", "G"), chunks[2])
}

func TestSplitFewerThanParts(t *testing.T) {
	chunks, err := Split(contract.IDs("A", "B"), 3)
	require.NoError(t, err)
	assert.Empty(t, chunks[0])
	assert.Empty(t, chunks[1])
	assert.Equal(t, contract.IDs("A", "B"), chunks[2])
}

func TestSplitInvalidParts(t *testing.T) {
	_, err := Split(contract.IDs("A"), 0)
	assert.Error(t, err)
}

func TestWriteThenLoad(t *testing.T) {
	for _, name := range []string{"ids.xlsx", "ids.csv"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out", name)
			ids := contract.IDs("CW1", "CW2", "CW3")

			require.NoError(t, Write(path, ids))
			got, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, ids, got)
		})
	}
}

func TestPartPaths(t *testing.T) {
	paths := PartPaths("/data/Base.xlsx", "/out", 2)
	assert.Equal(t, []string{"/out/Base_part1.xlsx", "/out/Base_part2.xlsx"}, paths)
}
