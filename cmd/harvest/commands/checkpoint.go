package commands

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
	"github.com/teranos/harvest/plan"
	"github.com/teranos/harvest/report"
	"github.com/teranos/harvest/resume"
	"github.com/teranos/harvest/sym"
)

// CheckpointCmd groups the resume checkpoint subcommands
var CheckpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: short("checkpoint"),
	Long: sym.DB + ` checkpoint - Inspect or edit the resume checkpoint

The checkpoint records the last contract processed for each input sheet. It
advances after every contract, whatever its outcome, so the next run starts
right after it.

Examples:
  harvest checkpoint show
  harvest checkpoint set CW2291          # Next run starts after CW2291
  harvest checkpoint reset               # Next run starts from the top
  harvest checkpoint failed --export retry.xlsx
  harvest checkpoint runs`,
}

var checkpointShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the checkpoint of the input sheet",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointShow,
}

var checkpointSetCmd = &cobra.Command{
	Use:   "set <contract-id>",
	Short: "Move the checkpoint to a contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheckpointSet,
}

var checkpointResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the checkpoint so the next run starts from the top",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointReset,
}

var checkpointFailedCmd = &cobra.Command{
	Use:   "failed",
	Short: "List contracts whose latest attempt failed",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointFailed,
}

var checkpointRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runCheckpointRuns,
}

var (
	checkpointInput  string
	failedExportPath string
)

func init() {
	CheckpointCmd.PersistentFlags().StringVar(&checkpointInput, "input", "", "Input sheet (overrides paths.input)")
	checkpointFailedCmd.Flags().StringVar(&failedExportPath, "export", "", "Write the failed ids to an input sheet (.xlsx or .csv)")

	CheckpointCmd.AddCommand(checkpointShowCmd)
	CheckpointCmd.AddCommand(checkpointSetCmd)
	CheckpointCmd.AddCommand(checkpointResetCmd)
	CheckpointCmd.AddCommand(checkpointFailedCmd)
	CheckpointCmd.AddCommand(checkpointRunsCmd)
}

// withCheckpoint opens the checkpoint of the configured input and calls fn.
func withCheckpoint(fn func(cp *resume.Checkpoint) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if checkpointInput != "" {
		cfg.Paths.Input = checkpointInput
	}
	database, cp, err := openCheckpoint(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(cp)
}

func runCheckpointShow(cmd *cobra.Command, args []string) error {
	return withCheckpoint(func(cp *resume.Checkpoint) error {
		rec, err := cp.Get(cmd.Context())
		if err != nil {
			return err
		}
		if rec == nil {
			pterm.Info.Printfln("No checkpoint for %s: the next run starts from the top", cp.Input())
			return nil
		}

		status := "set by hand"
		if rec.Status != contract.StatusUnknown {
			status = rec.Status.String()
		}
		pterm.Printf("%s Input:     %s\n", sym.DB, rec.Input)
		pterm.Printf("  Last:      %s\n", pterm.Bold.Sprint(rec.ContractID))
		pterm.Printf("  Status:    %s\n", status)
		if rec.RunID != "" {
			pterm.Printf("  Run:       %s\n", rec.RunID)
		}
		pterm.Printf("  Updated:   %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
		return nil
	})
}

func runCheckpointSet(cmd *cobra.Command, args []string) error {
	id := contract.ID(args[0])
	return withCheckpoint(func(cp *resume.Checkpoint) error {
		// Warn, but allow: a marker outside the input restarts from the top
		if full, err := plan.Load(cp.Input()); err == nil {
			if _, found := plan.Position(full, id); !found {
				pterm.Warning.Printfln("%s is not in %s; the next run will restart from the top", id, cp.Input())
			}
		}
		if err := cp.Set(cmd.Context(), id); err != nil {
			return err
		}
		logger.Infow("Checkpoint moved", logger.FieldContractID, id.String(), logger.FieldInput, cp.Input())
		pterm.Success.Printfln("Checkpoint set to %s", id)
		return nil
	})
}

func runCheckpointReset(cmd *cobra.Command, args []string) error {
	return withCheckpoint(func(cp *resume.Checkpoint) error {
		if err := cp.Reset(cmd.Context()); err != nil {
			return err
		}
		logger.Infow("Checkpoint reset", logger.FieldInput, cp.Input())
		pterm.Success.Printfln("Checkpoint for %s reset", cp.Input())
		return nil
	})
}

func runCheckpointFailed(cmd *cobra.Command, args []string) error {
	return withCheckpoint(func(cp *resume.Checkpoint) error {
		failed, err := cp.Failed(cmd.Context())
		if err != nil {
			return err
		}
		if len(failed) == 0 {
			pterm.Success.Println("No failed contracts")
			return nil
		}

		for _, o := range failed {
			pterm.Printf("  %-24s %s\n", o.ID, pterm.Red(o.Status.String()))
		}
		pterm.Printf("%d failed\n", len(failed))

		if failedExportPath == "" {
			return nil
		}
		ids := make([]contract.ID, len(failed))
		for i, o := range failed {
			ids[i] = o.ID
		}
		if err := plan.Write(failedExportPath, ids); err != nil {
			return errors.WithHint(err, "use a .xlsx or .csv file name")
		}
		pterm.Success.Printfln("Wrote %d ids to %s", len(ids), failedExportPath)
		return nil
	})
}

func runCheckpointRuns(cmd *cobra.Command, args []string) error {
	return withCheckpoint(func(cp *resume.Checkpoint) error {
		runs, err := cp.Runs(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			pterm.Info.Printfln("No runs recorded for %s", cp.Input())
			return nil
		}
		for _, r := range runs {
			pterm.Printf("%s  %s  %s  %d contracts, %d processed\n",
				r.RunID,
				r.Started.Format("2006-01-02 15:04"),
				report.FormatDuration(r.Finished.Sub(r.Started)),
				r.Total, r.Succeeded)
		}
		return nil
	})
}
