package main

import (
	"fmt"
	"time"

	"go-transform-pipeline/internal/api"
	"go-transform-pipeline/internal/api/handler"
	"go-transform-pipeline/internal/fetch"
	"go-transform-pipeline/internal/llm"
	"go-transform-pipeline/internal/runner"
	"go-transform-pipeline/internal/store"
	"go-transform-pipeline/pkg/router"
	"go-transform-pipeline/pkg/utils"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := store.InitDB(cfg.Store.Path); err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer store.CloseDB()

		output := utils.NewOutputManager(cfg.Output.Dir)
		if err := output.EnsureOutputDirExists(); err != nil {
			return err
		}

		fetcher := fetch.New(cfg.Fetch.Timeout, fetch.RetryConfig{
			MaxAttempts:       cfg.Fetch.MaxAttempts,
			InitialDelay:      cfg.Fetch.InitialDelay,
			MaxDelay:          cfg.Fetch.MaxDelay,
			BackoffMultiplier: fetch.DefaultRetryConfig.BackoffMultiplier,
			Jitter:            true,
		})
		plans := llm.NewClient(cfg.LLM)
		runs := runner.New(fetcher, planSource(plans), output)
		handler.Init(runs, planSource(plans), output,
			utils.ParseDuration(cfg.Server.RunTimeout, 5*time.Minute))

		r := router.New()
		api.RegisterRoutes(r)
		return r.Start(cfg.Server.Addr)
	},
}

// planSource keeps a nil *llm.Client from becoming a non-nil interface.
func planSource(c *llm.Client) llm.PlanSource {
	if c == nil {
		return nil
	}
	return c
}
