package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-transform-pipeline/internal/fetch"
	"go-transform-pipeline/internal/model"
	"go-transform-pipeline/internal/store"
	"go-transform-pipeline/internal/transform"
	"go-transform-pipeline/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sourceDoc = `{
  "items": [
    {"name": "mouse", "price": 10},
    {"name": "keyboard", "price": 30}
  ]
}`

func setup(t *testing.T, payload string) (*Runner, model.Process) {
	t.Helper()

	require.NoError(t, store.InitDB(filepath.Join(t.TempDir(), "runner.db")))
	t.Cleanup(func() { store.CloseDB() })

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)

	now := time.Now().UTC()
	conn := model.Connector{ID: uuid.New().String(), Name: "src", BaseURL: srv.URL, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.SaveConnector(conn))

	proc := model.Process{
		ID:          uuid.New().String(),
		ConnectorID: conn.ID,
		Name:        "items export",
		Goal:        "show name and price",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, store.SaveProcess(proc))

	fetcher := fetch.New(time.Second, fetch.RetryConfig{MaxAttempts: 1})
	out := utils.NewOutputManager(t.TempDir())
	return New(fetcher, nil, out), proc
}

func TestRun_EndToEnd(t *testing.T) {
	r, proc := setup(t, sourceDoc)

	runID := uuid.New().String()
	require.NoError(t, store.SaveRun(runID, proc.ID))
	require.NoError(t, r.Run(context.Background(), runID, proc.ID))

	run, err := store.GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, run.Status)
	assert.Equal(t, 2, run.RowCount)

	data, err := os.ReadFile(run.OutputPath)
	require.NoError(t, err)
	csv := string(data)
	assert.Contains(t, csv, "name,price")
	assert.Contains(t, csv, "mouse,10")

	schema, err := os.ReadFile(filepath.Join(filepath.Dir(run.OutputPath), "schema.json"))
	require.NoError(t, err)
	assert.Contains(t, string(schema), `"additionalProperties":true`)
}

func TestRun_StoresSynthesizedPlanAsVersionOne(t *testing.T) {
	r, proc := setup(t, sourceDoc)

	runID := uuid.New().String()
	require.NoError(t, store.SaveRun(runID, proc.ID))
	require.NoError(t, r.Run(context.Background(), runID, proc.ID))

	pv, err := store.GetLatestPlan(proc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pv.Version)

	plan, err := transform.ParsePlan([]byte(pv.Plan))
	require.NoError(t, err)
	assert.Equal(t, "/items", plan.Source.RecordPath)

	// A second run reuses the stored plan instead of appending a version.
	runID2 := uuid.New().String()
	require.NoError(t, store.SaveRun(runID2, proc.ID))
	require.NoError(t, r.Run(context.Background(), runID2, proc.ID))

	versions, err := store.ListPlanVersions(proc.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

func TestRun_FailsWhenNoRecordsetExists(t *testing.T) {
	r, proc := setup(t, `{"just":"a scalar object"}`)

	runID := uuid.New().String()
	require.NoError(t, store.SaveRun(runID, proc.ID))

	err := r.Run(context.Background(), runID, proc.ID)
	require.Error(t, err)

	run, gerr := store.GetRun(runID)
	require.NoError(t, gerr)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Contains(t, run.ErrorMessage, "NoRecordsetFound")
}

func TestRun_UnknownProcessFails(t *testing.T) {
	r, _ := setup(t, sourceDoc)

	runID := uuid.New().String()
	require.NoError(t, store.SaveRun(runID, "missing"))
	assert.Error(t, r.Run(context.Background(), runID, "missing"))
}

func TestBuildPlan_PinnedRecordPathSkipsDiscovery(t *testing.T) {
	doc, err := transform.ParseDocument([]byte(`{"a":{"b":[{"x":1}]},"items":[{"y":2}]}`))
	require.NoError(t, err)

	plan, path, err := BuildPlan(context.Background(), nil, doc, "", "/a/b")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", path)
	assert.Equal(t, "/a/b", plan.Source.RecordPath)
}
