package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/cmd/harvest/commands"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
)

var rootCmd = &cobra.Command{
	Use:   "harvest",
	Short: "harvest - bulk contract document downloader",
	Long: `harvest - bulk contract document downloader.

harvest logs into the procurement portal, and for every contract in the input
sheet searches it, opens it, and downloads its document archive. Progress is
checkpointed after every contract so a batch can be stopped and resumed.

Available commands:
  run        - Download documents for the next batch of contracts
  plan       - Show which contracts the next run would process
  checkpoint - Inspect or edit the resume checkpoint
  report     - Summarize an outcome report
  split      - Split an input sheet into parts
  am         - Show and validate configuration ("I am")

Examples:
  harvest run                  # Process up to 35000 contracts
  harvest run 500              # Process the next 500
  harvest plan 20              # Preview the next 20
  harvest checkpoint show      # Where the next run resumes
  harvest am init              # Write a starter am.toml

Stop a running batch by typing "stop", creating the STOP file, or Ctrl+C.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			am.SetConfigFile(path)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonOutput, _ := cmd.Flags().GetBool("json")
		if err := logger.Initialize(logger.Options{JSON: jsonOutput, Verbosity: verbosity}); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
		return nil
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().Bool("json", false, "Machine-readable output: JSON logs and progress events")
	rootCmd.PersistentFlags().String("config", "", "Config file (overrides system, user and project am.toml)")

	// Add commands
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.PlanCmd)
	rootCmd.AddCommand(commands.CheckpointCmd)
	rootCmd.AddCommand(commands.ReportCmd)
	rootCmd.AddCommand(commands.SplitCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hints := errors.FlattenHints(err); hints != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hints)
		}
		os.Exit(1)
	}
}
