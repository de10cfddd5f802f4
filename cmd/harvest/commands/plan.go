package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/harvest/contract"
	"github.com/teranos/harvest/plan"
	"github.com/teranos/harvest/sym"
)

// PlanCmd previews the next batch
var PlanCmd = &cobra.Command{
	Use:   "plan [quantity]",
	Short: short("plan"),
	Long: sym.IX + ` plan - Show which contracts the next run would process

Reads the input sheet and the resume marker exactly as "harvest run" does and
lists the batch without touching the portal or the checkpoint.

Examples:
  harvest plan                 # Next batch at the default quantity
  harvest plan 10 --all        # List all 10 ids
  harvest plan --json 100      # Machine-readable`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

var (
	planAll   bool
	planInput string
)

func init() {
	PlanCmd.Flags().BoolVar(&planAll, "all", false, "List every planned id")
	PlanCmd.Flags().StringVar(&planInput, "input", "", "Input sheet (overrides paths.input)")
}

type planOutput struct {
	Input     string        `json:"input"`
	Last      contract.ID   `json:"last,omitempty"`
	Restart   bool          `json:"restart"`
	Total     int           `json:"total"`
	Remaining int           `json:"remaining"`
	Quantity  int           `json:"quantity"`
	IDs       []contract.ID `json:"ids"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	_, jsonOutput := outputFlags(cmd)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if planInput != "" {
		cfg.Paths.Input = planInput
	}

	database, checkpoint, err := openCheckpoint(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	t, err := tracker(cfg, checkpoint)
	if err != nil {
		return err
	}

	b, err := planBatch(cmd.Context(), cfg, t, args)
	if err != nil {
		if plan.IsPlanningError(err) {
			reportPlanningError(err)
			return nil
		}
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(planOutput{
			Input:     cfg.Paths.Input,
			Last:      b.last,
			Restart:   b.restart,
			Total:     len(b.full),
			Remaining: b.remaining(),
			Quantity:  b.quantity,
			IDs:       b.ids,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printBatch(b, planAll)
	return nil
}
