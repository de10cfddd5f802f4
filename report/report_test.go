package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/internal/sheet"
)

var finished = time.Date(2026, 3, 4, 17, 45, 9, 0, time.Local)

func sampleOutcomes() []contract.Outcome {
	return []contract.Outcome{
		contract.NewOutcome("CW1", contract.Processed, 4210*time.Millisecond, "contracts/CW1/docs.zip"),
		contract.NewOutcome("CW2", contract.NoFiles, 2*time.Second, ""),
		contract.NewOutcome("CW3", contract.DownloadFailed.AsFault(), 1500*time.Millisecond, ""),
		contract.NewOutcome("CW4", contract.Error, 0, ""),
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "report_20260304_174509.xlsx", FileName(finished, sheet.XLSX))
	assert.Equal(t, "report_20260304_174509.csv", FileName(finished, sheet.CSV))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, format := range []sheet.Format{sheet.XLSX, sheet.CSV} {
		t.Run(string(format), func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "reports")

			path, err := Save(dir, sampleOutcomes(), format, finished)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, FileName(finished, format)), path)

			got, err := Load(path)
			require.NoError(t, err)
			require.Len(t, got, 4)

			for i, want := range sampleOutcomes() {
				assert.Equal(t, want.ID, got[i].ID)
				assert.Equal(t, want.Status, got[i].Status)
				assert.Equal(t, want.FilePath, got[i].FilePath)
				assert.InDelta(t, want.Seconds(), got[i].Seconds(), 0.001)
			}
		})
	}
}

func TestSaveCSVLayout(t *testing.T) {
	path, err := Save(t.TempDir(), sampleOutcomes()[:2], sheet.CSV, finished)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Contract_ID,Status,Duration,File_Path\n"+
			"CW1,PROCESSED,4.21,contracts/CW1/docs.zip\n"+
			"CW2,NO_FILES,2.00,\n",
		string(data))
}

func TestSaveNeverOverwrites(t *testing.T) {
	dir := t.TempDir()

	first, err := Save(dir, sampleOutcomes()[:1], sheet.CSV, finished)
	require.NoError(t, err)
	second, err := Save(dir, sampleOutcomes()[1:2], sheet.CSV, finished)
	require.NoError(t, err)
	third, err := Save(dir, sampleOutcomes()[2:3], sheet.CSV, finished)
	require.NoError(t, err)

	assert.Equal(t, "report_20260304_174509_1.csv", filepath.Base(second))
	assert.Equal(t, "report_20260304_174509_2.csv", filepath.Base(third))

	got, err := Load(first)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, contract.ID("CW1"), got[0].ID, "first report left untouched")
}

func TestSaveEmpty(t *testing.T) {
	path, err := Save(t.TempDir(), nil, sheet.XLSX, finished)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSaveRejectsUnknownFormat(t *testing.T) {
	_, err := Save(t.TempDir(), sampleOutcomes(), sheet.Format("ods"), finished)
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "xlsx or csv")
}

func TestSaveUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	_, err := Save(filepath.Join(blocker, "reports"), sampleOutcomes(), sheet.CSV, finished)
	assert.Error(t, err)
}

func TestLoadMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Contract_ID,Status\nCW1,PROCESSED\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrColumnMissing))
	assert.Contains(t, err.Error(), "Duration")
}

func TestLoadBadStatus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	body := strings.Join(Header, ",") + "\nCW1,DONE,1.00,\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}
