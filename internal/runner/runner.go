// Package runner orchestrates full process runs: plan acquisition, document
// fetch, execution, schema inference and CSV export, with run status
// persisted at every transition.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go-transform-pipeline/internal/export"
	"go-transform-pipeline/internal/fetch"
	"go-transform-pipeline/internal/llm"
	"go-transform-pipeline/internal/model"
	"go-transform-pipeline/internal/store"
	"go-transform-pipeline/internal/transform"
	"go-transform-pipeline/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Runner executes saved processes.
type Runner struct {
	Fetcher *fetch.Fetcher
	Plans   llm.PlanSource // optional; nil means synthesize locally
	Output  *utils.OutputManager
}

// New creates a runner.
func New(fetcher *fetch.Fetcher, plans llm.PlanSource, output *utils.OutputManager) *Runner {
	return &Runner{Fetcher: fetcher, Plans: plans, Output: output}
}

// Run executes one run of a process. The run row must already exist in
// pending state; on return it is completed or failed.
func (r *Runner) Run(ctx context.Context, runID, processID string) (err error) {
	start := time.Now()
	log.Info().Str("run", runID).Str("process", processID).Msg("starting run")

	store.UpdateRunStatus(runID, model.RunRunning)
	defer func() {
		if err != nil {
			log.Error().Str("run", runID).Err(err).Msg("run failed")
			store.FailRun(runID, err)
		}
	}()

	proc, err := store.GetProcess(processID)
	if err != nil {
		return fmt.Errorf("failed to load process: %w", err)
	}

	source, authHeader := "", ""
	if proc.ConnectorID != "" {
		conn, err := store.GetConnector(proc.ConnectorID)
		if err != nil {
			return fmt.Errorf("failed to load connector: %w", err)
		}
		source, authHeader = conn.BaseURL, conn.AuthHeader
	}
	if source == "" {
		return errors.New("process has no connector to fetch from")
	}

	doc, err := r.Fetcher.Fetch(ctx, source, authHeader)
	if err != nil {
		return err
	}

	plan, err := r.planFor(ctx, proc, doc)
	if err != nil {
		return err
	}

	res, err := transform.Execute(plan, doc)
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		log.Warn().Str("run", runID).Msg(w)
	}

	outPath, err := r.Output.GetOutputFilePath(runID, "result.csv")
	if err != nil {
		return err
	}
	rowCount, err := export.WriteFile(outPath, res.Rows)
	if err != nil {
		return err
	}

	schemaPath, err := r.Output.GetOutputFilePath(runID, "schema.json")
	if err != nil {
		return err
	}
	if err := writeSchema(schemaPath, res.Rows); err != nil {
		return err
	}

	if err := store.CompleteRun(runID, rowCount, outPath); err != nil {
		return err
	}
	log.Info().Str("run", runID).Int("rows", rowCount).
		Dur("took", time.Since(start)).Msg("run completed")
	return nil
}

// planFor returns the latest stored plan for the process, or builds one
// (provider first, then local synthesis) and stores it as the next version.
func (r *Runner) planFor(ctx context.Context, proc model.Process, doc transform.Value) (*transform.Plan, error) {
	stored, err := store.GetLatestPlan(proc.ID)
	if err == nil {
		plan, perr := transform.ParsePlan([]byte(stored.Plan))
		if perr != nil {
			return nil, fmt.Errorf("stored plan v%d is invalid: %w", stored.Version, perr)
		}
		return plan, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	plan, _, err := BuildPlan(ctx, r.Plans, doc, proc.Goal, proc.RecordPath)
	if err != nil {
		return nil, err
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}
	version, err := store.SavePlanVersion(uuid.New().String(), proc.ID, string(planJSON))
	if err != nil {
		return nil, err
	}
	log.Info().Str("process", proc.ID).Int("version", version).Msg("stored synthesized plan")
	return plan, nil
}

// BuildPlan produces an executable plan for a document and goal. The record
// path is discovered unless pinned; a configured provider gets the first
// shot, and any provider failure falls back to local synthesis.
func BuildPlan(ctx context.Context, plans llm.PlanSource, doc transform.Value, goal, recordPath string) (*transform.Plan, string, error) {
	if recordPath == "" {
		disc, err := transform.Discover(doc, goal)
		if err != nil {
			return nil, "", err
		}
		recordPath = disc.RecordPath
	}

	norm, err := transform.ExtractAndNormalize(doc, recordPath)
	if err != nil {
		return nil, "", err
	}

	if plans != nil {
		plan, ok, err := plans.TryGetPlan(ctx, goal, recordPath, norm.Sample)
		if ok {
			return plan, recordPath, nil
		}
		if err != nil {
			log.Warn().Err(err).Msg("plan provider unavailable, synthesizing locally")
		}
	}

	plan := transform.Synthesize(goal, recordPath, norm.Sample)
	return plan, recordPath, nil
}

func writeSchema(path string, rows []*transform.Row) error {
	schema := transform.InferSchema(rows)
	data, err := transform.EncodeValue(schema)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
