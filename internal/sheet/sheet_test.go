package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/harvest/errors"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"contracts.xlsx", XLSX, false},
		{"REPORT.XLSX", XLSX, false},
		{"dir/contracts.csv", CSV, false},
		{"contracts.xls", "", true},
		{"contracts", "", true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestWriteRead(t *testing.T) {
	for _, ext := range []string{"xlsx", "csv"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "table."+ext)
			rows := [][]interface{}{
				{"CW1", "PROCESSED"},
				{"CW2", ""},
			}
			require.NoError(t, Write(path, []string{"Contract_ID", "Status"}, rows, 24, 28))

			table, err := Read(path)
			require.NoError(t, err)
			assert.Equal(t, []string{"Contract_ID", "Status"}, table.Header)
			require.Len(t, table.Rows, 2)
			assert.Equal(t, "CW1", table.Rows[0][0])
			assert.Equal(t, "PROCESSED", table.Rows[0][1])
			assert.Equal(t, "CW2", table.Rows[1][0])
			assert.Equal(t, 1, table.Column("Status"))
			assert.Equal(t, -1, table.Column("status"))
		})
	}
}

func TestReadStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.csv")
	require.NoError(t, os.WriteFile(path, []byte("\xef\xbb\xbfContract_ID\nCW1\n"), 0644))

	table, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Column("Contract_ID"))
}

func TestReadMissing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, errors.IsNotFoundError(err))
}

func TestReadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	table, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, table.Header)
	assert.Empty(t, table.Rows)
}
