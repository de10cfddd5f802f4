package commands

import (
	"context"
	"database/sql"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/db"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
	"github.com/teranos/harvest/plan"
	"github.com/teranos/harvest/resume"
	"github.com/teranos/harvest/sym"
)

// previewLimit caps how many planned ids are listed without --all
const previewLimit = 20

// outputFlags reads the global -v and --json flags.
func outputFlags(cmd *cobra.Command) (verbosity int, jsonOutput bool) {
	verbosity, _ = cmd.Flags().GetCount("verbose")
	jsonOutput, _ = cmd.Flags().GetBool("json")
	return verbosity, jsonOutput
}

func short(command string) string {
	return sym.Prefix(command) + sym.CommandDescriptions[command]
}

// loadConfig loads and validates every setting except the portal credentials.
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.ValidateSettings(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// openCheckpoint opens the checkpoint database and binds it to the input
// sheet. Every spelling of the same sheet path shares one checkpoint.
func openCheckpoint(cfg *am.Config) (*sql.DB, *resume.Checkpoint, error) {
	database, err := db.OpenWithMigrations(cfg.Database.Path, logger.AddDBSymbol(logger.Logger.Named("db")))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to open checkpoint database %s", cfg.Database.Path)
	}
	return database, resume.NewCheckpoint(database, resume.InputKey(cfg.Paths.Input)), nil
}

// tracker builds the resume tracker configured by resume.mode.
func tracker(cfg *am.Config, cp *resume.Checkpoint) (resume.Tracker, error) {
	mode, err := resume.ParseMode(cfg.Resume.Mode)
	if err != nil {
		return nil, err
	}
	return resume.Select(mode, cp, resume.NewFolderTracker(cfg.Paths.Contracts), cfg.Resume.LegacyFallback), nil
}

// batch is the result of planning one run.
type batch struct {
	full     []contract.ID
	last     contract.ID
	restart  bool // last is set but missing from the input
	quantity int
	ids      []contract.ID
}

func (b *batch) remaining() int {
	return plan.Remaining(b.full, b.last)
}

// planBatch loads the input and selects the ids following the resume marker.
// Planning errors (missing input, missing column) are returned unwrapped so
// callers can test them with plan.IsPlanningError.
func planBatch(ctx context.Context, cfg *am.Config, t resume.Tracker, args []string) (*batch, error) {
	quantity, ok := plan.ParseQuantity(args, cfg.Run.Quantity)
	if !ok {
		logger.Warnw("Invalid quantity, using default",
			logger.FieldInput, args[0],
			logger.FieldQuantity, quantity)
	}

	full, err := plan.Load(cfg.Paths.Input)
	if err != nil {
		return nil, err
	}

	last, err := t.LastProcessed(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read resume marker")
	}

	b := &batch{
		full:     full,
		last:     last,
		quantity: quantity,
		ids:      plan.Next(full, last, quantity),
	}
	if !last.IsZero() {
		if _, found := plan.Position(full, last); !found {
			b.restart = true
			logger.Warnw("Resume marker is not in the input, restarting from the top",
				logger.FieldContractID, last.String(),
				logger.FieldInput, cfg.Paths.Input)
		}
	}
	return b, nil
}

// reportPlanningError prints why there is nothing to plan.
func reportPlanningError(err error) {
	pterm.Warning.Printfln("Nothing to process: %v", err)
	if hints := errors.FlattenHints(err); hints != "" {
		pterm.Info.Println(hints)
	}
	logger.Warnw("Nothing to process", logger.FieldError, err.Error())
}

// printBatch lists the planned ids, truncated unless all is set.
func printBatch(b *batch, all bool) {
	marker := "none (fresh start)"
	if !b.last.IsZero() {
		marker = b.last.String()
		if b.restart {
			marker += pterm.Yellow(" (not in input, restarting from the top)")
		}
	}
	pterm.Printf("%s Resume marker:  %s\n", sym.DB, marker)
	pterm.Printf("%s Input:          %d contracts, %d remaining\n", sym.IX, len(b.full), b.remaining())
	pterm.Printf("%s Planned:        %s of %d requested\n", sym.Pulse, pterm.Green(len(b.ids)), b.quantity)

	shown := b.ids
	if !all && len(shown) > previewLimit {
		shown = shown[:previewLimit]
	}
	for i, id := range shown {
		pterm.Printf("  %5d  %s\n", i+1, id)
	}
	if rest := len(b.ids) - len(shown); rest > 0 {
		pterm.Println(pterm.Gray(pterm.Sprintf("  ... and %d more (use --all)", rest)))
	}
}
