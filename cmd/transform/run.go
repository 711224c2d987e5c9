package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go-transform-pipeline/internal/export"
	"go-transform-pipeline/internal/fetch"
	"go-transform-pipeline/internal/llm"
	"go-transform-pipeline/internal/logging"
	"go-transform-pipeline/internal/runner"
	"go-transform-pipeline/internal/transform"

	"github.com/spf13/cobra"
)

var (
	runInput string
	runGoal  string
	runPlan  string
	runOut   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "One-shot transform: fetch, plan, execute, export CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, plan, err := oneShot(cmd, runInput, runGoal, runPlan)
		if err != nil {
			return err
		}
		if logging.DebugEnabled() {
			b, _ := json.MarshalIndent(plan, "", "  ")
			fmt.Fprintf(os.Stderr, "executed plan:\n%s\n", b)
		}
		for _, w := range res.Warnings {
			fmt.Fprintf(os.Stderr, "⚠️ %s\n", w)
		}

		if runOut == "" {
			return export.WriteCSV(os.Stdout, res.Rows)
		}
		n, err := export.WriteFile(runOut, res.Rows)
		if err != nil {
			return err
		}
		fmt.Printf("💾 Wrote %d rows to %s\n", n, runOut)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "JSON document: file path or http(s) URL")
	runCmd.Flags().StringVar(&runGoal, "goal", "", "natural-language goal")
	runCmd.Flags().StringVar(&runPlan, "plan", "", "path to an explicit TransformPlan JSON file")
	runCmd.Flags().StringVar(&runOut, "out", "", "output file (.csv or .json); stdout when empty")
	runCmd.MarkFlagRequired("input")

	previewCmd.Flags().StringVar(&runInput, "input", "", "JSON document: file path or http(s) URL")
	previewCmd.Flags().StringVar(&runGoal, "goal", "", "natural-language goal")
	previewCmd.Flags().StringVar(&runPlan, "plan", "", "path to an explicit TransformPlan JSON file")
	previewCmd.MarkFlagRequired("input")
}

// oneShot fetches the document and executes a plan for it, returning the
// result plus the plan that ran.
func oneShot(cmd *cobra.Command, input, goal, planPath string) (transform.ExecutionResult, *transform.Plan, error) {
	fetcher := fetch.New(cfg.Fetch.Timeout, fetch.RetryConfig{
		MaxAttempts:       cfg.Fetch.MaxAttempts,
		InitialDelay:      cfg.Fetch.InitialDelay,
		MaxDelay:          cfg.Fetch.MaxDelay,
		BackoffMultiplier: fetch.DefaultRetryConfig.BackoffMultiplier,
		Jitter:            true,
	})

	doc, err := fetcher.Fetch(cmd.Context(), input, "")
	if err != nil {
		return transform.ExecutionResult{}, nil, err
	}

	var plan *transform.Plan
	if planPath != "" {
		data, err := os.ReadFile(planPath)
		if err != nil {
			return transform.ExecutionResult{}, nil, fmt.Errorf("failed to read plan file: %w", err)
		}
		plan, err = transform.ParseExternalPlan(data)
		if err != nil {
			return transform.ExecutionResult{}, nil, err
		}
	} else {
		plan, _, err = runner.BuildPlan(cmd.Context(), planSource(llm.NewClient(cfg.LLM)), doc, goal, "")
		if err != nil {
			return transform.ExecutionResult{}, nil, err
		}
	}

	res, err := transform.Execute(plan, doc)
	if err != nil {
		return transform.ExecutionResult{}, nil, err
	}
	return res, plan, nil
}
