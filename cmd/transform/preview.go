package main

import (
	"encoding/json"
	"os"

	"go-transform-pipeline/internal/transform"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Execute a transform and print rows, plan and schema as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, plan, err := oneShot(cmd, runInput, runGoal, runPlan)
		if err != nil {
			return err
		}

		out := map[string]interface{}{
			"recordPath": plan.Source.RecordPath,
			"plan":       plan,
			"rows":       res.Rows,
			"schema":     transform.InferSchema(res.Rows),
			"warnings":   res.Warnings,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}
