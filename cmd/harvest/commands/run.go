package commands

import (
	"context"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/internal/sheet"
	"github.com/teranos/harvest/logger"
	"github.com/teranos/harvest/plan"
	"github.com/teranos/harvest/portal"
	"github.com/teranos/harvest/process"
	"github.com/teranos/harvest/pulse"
	"github.com/teranos/harvest/report"
	"github.com/teranos/harvest/sym"
	"github.com/teranos/harvest/version"
)

// RunCmd processes the next batch of contracts
var RunCmd = &cobra.Command{
	Use:   "run [quantity]",
	Short: short("run"),
	Long: sym.Pulse + ` run - Download documents for the next batch of contracts

Resumes after the last processed contract, logs into the portal and walks each
contract through search, open, documents and download. One outcome is recorded
per contract; a timestamped report is written when the batch ends.

quantity defaults to run.quantity (35000). A value that is not a positive
integer falls back to the default with a warning.

The batch stops after the current contract when you type the stop word
(run.stop_word) followed by Enter, create the stop file (run.stop_file) or
press Ctrl+C. A second Ctrl+C aborts the contract in flight.

Examples:
  harvest run                  # Up to 35000 contracts
  harvest run 200              # The next 200
  harvest run --dry-run 50     # Show the plan without opening a browser
  harvest run --input part2.xlsx`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

var (
	runDryRun bool
	runInput  string
)

func init() {
	RunCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Print the plan and exit without opening a browser")
	RunCmd.Flags().StringVar(&runInput, "input", "", "Input sheet (overrides paths.input)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	verbosity, jsonOutput := outputFlags(cmd)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runInput != "" {
		cfg.Paths.Input = runInput
	}
	if !runDryRun {
		if err := cfg.ValidateCredentials(); err != nil {
			return err
		}
	}

	if err := createDirs(cfg); err != nil {
		return err
	}

	// Re-initialize with the daily process log now that its directory is known
	if err := logger.Initialize(logger.Options{
		JSON:      jsonOutput,
		Verbosity: verbosity,
		LogDir:    cfg.Paths.Logs,
		Theme:     cfg.Log.Theme,
	}); err != nil {
		return errors.Wrap(err, "failed to open process log")
	}
	logger.Infow("harvest starting",
		"commit", version.Get().Short(),
		"verbosity", logger.LevelName(verbosity),
		logger.FieldInput, cfg.Paths.Input,
		logger.FieldPath, logger.DailyLogPath())

	database, checkpoint, err := openCheckpoint(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	t, err := tracker(cfg, checkpoint)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	b, err := planBatch(ctx, cfg, t, args)
	if err != nil {
		if plan.IsPlanningError(err) {
			reportPlanningError(err)
			return nil
		}
		return err
	}
	if len(b.ids) == 0 {
		pterm.Success.Println("Nothing left to process: every contract in the input is done")
		logger.Infow("Plan is empty", logger.FieldContractID, b.last.String())
		return nil
	}
	if runDryRun || logger.ShouldOutput(verbosity, logger.OutputStartup) {
		printBatch(b, false)
	}
	if runDryRun {
		return nil
	}

	checkMemory(cfg.Browser.MinFreeMemoryMB)
	clearStaleStopFile(cfg.Run.StopFile)

	session, err := startSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer session.Close()

	opts := []process.Option{process.WithScreenshots(cfg.Process.Screenshots)}
	if !cfg.Process.HomeOnNotFound {
		opts = append(opts, process.WithLegacyNotFound())
	}
	processor := process.New(session, opts...)

	var emitter pulse.ProgressEmitter = pulse.NewCLIEmitter(verbosity)
	if jsonOutput {
		emitter = pulse.NewJSONEmitter()
	}
	runner := pulse.NewRunner(processor,
		pulse.WithRecorder(checkpoint),
		pulse.WithEmitter(emitter),
		pulse.WithMinInterval(cfg.MinInterval()),
	)

	stop := pulse.NewStopToken()
	unregister := pulse.WatchSignals(ctx, stop, cancel)
	defer unregister()
	if cfg.Run.StopFile != "" {
		if err := pulse.WatchStopFile(ctx, cfg.Run.StopFile, stop); err != nil {
			logger.Warnw("Stop file watcher unavailable", logger.FieldError, err.Error())
		}
	}
	pulse.WatchInput(ctx, os.Stdin, stop, cfg.Run.StopWord)
	if !jsonOutput {
		pterm.Info.Printfln("Type %q (or %s) and press Enter to stop after the current contract", cfg.Run.StopWord, pulse.StopKey)
	}

	started := time.Now()
	log := runner.Run(ctx, b.ids, stop)
	elapsed := time.Since(started)

	return finish(cfg, runner.RunID(), log.Outcomes(), elapsed, jsonOutput)
}

// finish writes the report and prints the summary. A report write failure is
// returned after the summary so the operator still sees what was done.
func finish(cfg *am.Config, runID string, outcomes []contract.Outcome, elapsed time.Duration, jsonOutput bool) error {
	var saveErr error
	if len(outcomes) > 0 {
		path, err := report.Save(cfg.Paths.Reports, outcomes, sheet.Format(cfg.Report.Format), time.Now())
		if err != nil {
			saveErr = errors.Wrap(err, "failed to save report")
			logger.Errorw("Report not saved", logger.FieldError, err.Error())
		} else if !jsonOutput {
			pterm.Success.Printfln("Report saved to %s", path)
		}
	}

	summary := report.Summarize(outcomes, elapsed)
	if !jsonOutput {
		pterm.Println()
		if err := summary.Render(os.Stdout); err != nil {
			logger.Warnw("Failed to print summary", logger.FieldError, err.Error())
		}
	}
	logger.PulseCloseInfow("Batch summary",
		logger.FieldRunID, runID,
		logger.FieldTotal, summary.Total,
		"succeeded", summary.Succeeded,
		"no_files", summary.NoFiles,
		"failures", summary.Failures,
		logger.FieldElapsed, report.FormatDuration(elapsed),
	)
	return saveErr
}

// createDirs creates the output folders the run writes into.
func createDirs(cfg *am.Config) error {
	for _, dir := range []string{cfg.Paths.Contracts, cfg.Paths.Reports, cfg.Paths.Logs, cfg.Paths.Screenshots} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	return nil
}

func checkMemory(minFreeMB uint64) {
	st, err := pulse.CheckMemory(minFreeMB)
	if err != nil {
		logger.Debugw("Memory check skipped", logger.FieldError, err.Error())
		return
	}
	if st.Low {
		logger.Warnw("Low available memory, the browser may be unstable",
			"available_mb", st.AvailableMB,
			"min_free_mb", minFreeMB)
		return
	}
	logger.Debugw("Memory", "available_mb", st.AvailableMB, "total_mb", st.TotalMB)
}

// clearStaleStopFile removes a stop file left behind by an earlier run, which
// would otherwise stop this one before its first contract.
func clearStaleStopFile(path string) {
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warnw("Stale stop file could not be removed", logger.FieldFile, path, logger.FieldError, err.Error())
		return
	}
	logger.Warnw("Removed stale stop file from a previous run", logger.FieldFile, path)
}

// startSession launches the browser and logs in. Either failure aborts the run.
func startSession(ctx context.Context, cfg *am.Config) (*portal.Session, error) {
	session, err := portal.Launch(ctx, portal.OptionsFromConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "failed to launch browser")
	}
	if err := session.Login(ctx); err != nil {
		session.Close()
		return nil, errors.Wrap(err, "login failed")
	}
	logger.PulseOpenInfow("Logged in", logger.FieldURL, cfg.Portal.URL)
	return session, nil
}
