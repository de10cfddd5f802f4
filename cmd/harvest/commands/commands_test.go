package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/plan"
	"github.com/teranos/harvest/pulse"
	"github.com/teranos/harvest/report"
	"github.com/teranos/harvest/sym"
)

type fixedTracker contract.ID

func (f fixedTracker) LastProcessed(context.Context) (contract.ID, error) {
	return contract.ID(f), nil
}

func testConfig(t *testing.T) *am.Config {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "contracts.csv")
	require.NoError(t, os.WriteFile(input, []byte("Contract_ID\nA\nB\nC\nD\nE\n"), 0644))

	cfg := &am.Config{}
	cfg.Paths.Input = input
	cfg.Paths.Contracts = filepath.Join(dir, "contracts")
	cfg.Paths.Reports = filepath.Join(dir, "reports")
	cfg.Paths.Logs = filepath.Join(dir, "logs")
	cfg.Paths.Screenshots = filepath.Join(dir, "screenshots")
	cfg.Run.Quantity = am.DefaultQuantity
	cfg.Report.Format = "csv"
	return cfg
}

func TestPlanBatch(t *testing.T) {
	tests := []struct {
		name        string
		last        contract.ID
		args        []string
		wantIDs     []contract.ID
		wantQty     int
		wantRestart bool
	}{
		{"resume after marker", "C", []string{"2"}, contract.IDs("D", "E"), 2, false},
		{"fresh start", "", []string{"2"}, contract.IDs("A", "B"), 2, false},
		{"marker not in input", "Z", []string{"3"}, contract.IDs("A", "B", "C"), 3, true},
		{"invalid quantity falls back", "", []string{"lots"}, contract.IDs("A", "B", "C", "D", "E"), am.DefaultQuantity, false},
		{"no quantity", "D", nil, contract.IDs("E"), am.DefaultQuantity, false},
		{"exhausted", "E", []string{"5"}, contract.IDs(), 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			b, err := planBatch(t.Context(), cfg, fixedTracker(tt.last), tt.args)
			require.NoError(t, err)

			assert.Equal(t, tt.wantIDs, b.ids)
			assert.Equal(t, tt.wantQty, b.quantity)
			assert.Equal(t, tt.wantRestart, b.restart)
			assert.Len(t, b.full, 5)
		})
	}
}

func TestPlanBatchMissingInputIsPlanningError(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Input = filepath.Join(t.TempDir(), "absent.xlsx")

	_, err := planBatch(t.Context(), cfg, fixedTracker(""), nil)
	require.Error(t, err)
	assert.True(t, plan.IsPlanningError(err))
}

func TestFinishWritesReport(t *testing.T) {
	cfg := testConfig(t)
	outcomes := []contract.Outcome{
		contract.NewOutcome("A", contract.Processed, 2*time.Second, "contracts/A/documents.zip"),
		contract.NewOutcome("B", contract.NoFiles, time.Second, ""),
	}

	require.NoError(t, finish(cfg, "run-1", outcomes, 3*time.Second, true))

	entries, err := os.ReadDir(cfg.Paths.Reports)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	loaded, err := report.Load(filepath.Join(cfg.Paths.Reports, entries[0].Name()))
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestStoppedRunStillWritesReport(t *testing.T) {
	cfg := testConfig(t)
	ids, err := plan.Load(cfg.Paths.Input)
	require.NoError(t, err)

	const k = 2
	stop := pulse.NewStopToken()
	done := 0
	proc := stubProcessor(func(_ context.Context, id contract.ID) contract.Outcome {
		done++
		if done == k {
			stop.Stop("stop word")
		}
		return contract.NewOutcome(id, contract.Processed, time.Second, string(id)+"/docs.zip")
	})

	runner := pulse.NewRunner(proc)
	log := runner.Run(t.Context(), ids, stop)
	require.NoError(t, finish(cfg, runner.RunID(), log.Outcomes(), time.Second, true))

	entries, err := os.ReadDir(cfg.Paths.Reports)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	loaded, err := report.Load(filepath.Join(cfg.Paths.Reports, entries[0].Name()))
	require.NoError(t, err)
	require.Len(t, loaded, k)
	assert.Equal(t, contract.ID("A"), loaded[0].ID)
	assert.Equal(t, contract.ID("B"), loaded[1].ID)
}

type stubProcessor func(ctx context.Context, id contract.ID) contract.Outcome

func (f stubProcessor) Process(ctx context.Context, id contract.ID) contract.Outcome {
	return f(ctx, id)
}

func TestOpenCheckpointSharedAcrossInputSpellings(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.Paths.Input)
	cfg.Database.Path = filepath.Join(t.TempDir(), "state", "nested", "harvest.db")
	t.Chdir(dir)

	cfg.Paths.Input = "contracts.csv"
	database, cp, err := openCheckpoint(cfg)
	require.NoError(t, err)
	require.NoError(t, cp.Record(t.Context(), "run-1", contract.NewOutcome("C", contract.Processed, time.Second, "")))
	require.NoError(t, database.Close())

	for _, spelling := range []string{"./contracts.csv", filepath.Join(dir, "contracts.csv"), "../" + filepath.Base(dir) + "/contracts.csv"} {
		cfg.Paths.Input = spelling
		database, cp, err := openCheckpoint(cfg)
		require.NoError(t, err, spelling)

		last, err := cp.LastProcessed(t.Context())
		database.Close()
		require.NoError(t, err, spelling)
		assert.Equal(t, contract.ID("C"), last, spelling)
	}
}

func TestFinishWithoutOutcomesWritesNothing(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, finish(cfg, "run-1", nil, 0, true))
	_, err := os.Stat(cfg.Paths.Reports)
	assert.True(t, os.IsNotExist(err))
}

func TestFinishReportFailureIsReturned(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	cfg.Paths.Reports = filepath.Join(blocker, "reports")

	outcomes := []contract.Outcome{contract.NewOutcome("A", contract.SearchFailed, time.Second, "")}
	assert.Error(t, finish(cfg, "run-1", outcomes, time.Second, true))
}

func TestCreateDirs(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, createDirs(cfg))
	for _, dir := range []string{cfg.Paths.Contracts, cfg.Paths.Reports, cfg.Paths.Logs, cfg.Paths.Screenshots} {
		assert.DirExists(t, dir)
	}
}

func TestClearStaleStopFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "STOP")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	clearStaleStopFile(path)
	assert.NoFileExists(t, path)

	// absent file and disabled stop file are no-ops
	assert.NotPanics(t, func() {
		clearStaleStopFile(path)
		clearStaleStopFile("")
	})
}

func TestRunSplit(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "parts")

	splitParts, splitOut = 2, out
	t.Cleanup(func() { splitParts, splitOut = 2, "" })

	require.NoError(t, runSplit(SplitCmd, []string{cfg.Paths.Input}))

	first, err := plan.Load(filepath.Join(out, "contracts_part1.csv"))
	require.NoError(t, err)
	second, err := plan.Load(filepath.Join(out, "contracts_part2.csv"))
	require.NoError(t, err)
	assert.Equal(t, contract.IDs("A", "B"), first)
	assert.Equal(t, contract.IDs("C", "D", "E"), second)
}

func TestShortUsesGlyph(t *testing.T) {
	assert.Equal(t, sym.Pulse+" Download documents for the next batch of contracts", RunCmd.Short)
	assert.True(t, strings.HasPrefix(AmCmd.Short, sym.AM))
}
