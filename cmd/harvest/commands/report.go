package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/report"
	"github.com/teranos/harvest/sym"
)

// ReportCmd groups the report subcommands
var ReportCmd = &cobra.Command{
	Use:   "report",
	Short: short("report"),
	Long: sym.Doc + ` report - Summarize an outcome report

Every run writes reports/report_<timestamp>.xlsx (or .csv) with the columns
Contract_ID, Status, Duration and File_Path.

Examples:
  harvest report show reports/report_20260304_130435.xlsx`,
}

var reportShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print the summary of a saved report",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

func init() {
	ReportCmd.AddCommand(reportShowCmd)
}

func runReportShow(cmd *cobra.Command, args []string) error {
	_, jsonOutput := outputFlags(cmd)

	outcomes, err := report.Load(args[0])
	if err != nil {
		return err
	}

	// A saved report has no wall clock; the busy time is the closest measure
	summary := report.Summarize(outcomes, 0)
	summary.Elapsed = summary.Busy

	if jsonOutput {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	pterm.Printf("%s %s\n\n", sym.Doc, args[0])
	return summary.Render(os.Stdout)
}
