package commands

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/harvest/am"
	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
	"github.com/teranos/harvest/plan"
	"github.com/teranos/harvest/sym"
)

// SplitCmd cuts an input sheet into parts for separate machines or runs
var SplitCmd = &cobra.Command{
	Use:   "split <input>",
	Short: short("split"),
	Long: sym.Split + ` split - Split an input sheet into parts

Drops duplicate ids, then writes <name>_part1 ... <name>_partN next to the
input (or into --out). Every part has the same size except the last, which
takes the remainder. Each part keeps its own checkpoint when used as input.

Examples:
  harvest split contracts.xlsx --parts 4
  harvest split contracts.csv --parts 2 --out parts/`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

var (
	splitParts int
	splitOut   string
)

func init() {
	SplitCmd.Flags().IntVarP(&splitParts, "parts", "n", 2, "Number of parts")
	SplitCmd.Flags().StringVarP(&splitOut, "out", "o", "", "Output directory (default: next to the input)")
}

func runSplit(cmd *cobra.Command, args []string) error {
	input := args[0]

	ids, err := plan.Load(input)
	if err != nil {
		return err
	}
	unique := plan.Unique(ids)
	if dropped := len(ids) - len(unique); dropped > 0 {
		logger.Warnw("Dropped duplicate ids", logger.FieldInput, input, logger.FieldCount, dropped)
	}

	chunks, err := plan.Split(unique, splitParts)
	if err != nil {
		return errors.WithHint(err, "--parts must be a positive number")
	}

	dir := splitOut
	if dir == "" {
		dir = filepath.Dir(input)
	}
	if err := os.MkdirAll(dir, am.DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	for i, path := range plan.PartPaths(input, dir, splitParts) {
		if err := plan.Write(path, chunks[i]); err != nil {
			return err
		}
		pterm.Printf("  %s  %d ids\n", path, len(chunks[i]))
	}
	pterm.Success.Printfln("Split %d ids into %d parts", len(unique), splitParts)
	return nil
}
