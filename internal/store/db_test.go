package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go-transform-pipeline/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initTestDB points the package-level handle at a fresh temp database.
func initTestDB(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "store.db")
	require.NoError(t, InitDB(path))
	t.Cleanup(func() { CloseDB() })
}

func newConnector(name string) model.Connector {
	now := time.Now().UTC()
	return model.Connector{
		ID:        uuid.New().String(),
		Name:      name,
		BaseURL:   "https://api.example.com/items",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newProcess(connectorID string) model.Process {
	now := time.Now().UTC()
	return model.Process{
		ID:          uuid.New().String(),
		ConnectorID: connectorID,
		Name:        "export items",
		Goal:        "show name and price",
		RecordPath:  "/items",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestConnectorCRUD(t *testing.T) {
	initTestDB(t)

	c := newConnector("inventory")
	require.NoError(t, SaveConnector(c))

	got, err := GetConnector(c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Name, got.Name)
	assert.Equal(t, c.BaseURL, got.BaseURL)

	got.Name = "inventory-v2"
	require.NoError(t, UpdateConnector(got))
	got, err = GetConnector(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "inventory-v2", got.Name)

	list, err := ListConnectors()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, DeleteConnector(c.ID))
	_, err = GetConnector(c.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestConnectorUpdateMissingIsNotFound(t *testing.T) {
	initTestDB(t)

	err := UpdateConnector(newConnector("ghost"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(DeleteConnector("nope"), ErrNotFound))
}

func TestPlanVersionsAreAppendOnly(t *testing.T) {
	initTestDB(t)

	p := newProcess("")
	require.NoError(t, SaveProcess(p))

	_, err := GetLatestPlan(p.ID)
	require.True(t, errors.Is(err, ErrNotFound))

	v1, err := SavePlanVersion(uuid.New().String(), p.ID, `{"planVersion":"1.0"}`)
	require.NoError(t, err)
	assert.Equal(t, 1, v1)

	v2, err := SavePlanVersion(uuid.New().String(), p.ID, `{"planVersion":"1.0","steps":[]}`)
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	latest, err := GetLatestPlan(p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Contains(t, latest.Plan, "steps")

	all, err := ListPlanVersions(p.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, 2, all[1].Version)
}

func TestRunLifecycle(t *testing.T) {
	initTestDB(t)

	p := newProcess("")
	require.NoError(t, SaveProcess(p))

	runID := uuid.New().String()
	require.NoError(t, SaveRun(runID, p.ID))

	run, err := GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, model.RunPending, run.Status)

	require.NoError(t, UpdateRunStatus(runID, model.RunRunning))
	require.NoError(t, CompleteRun(runID, 42, "/tmp/out.csv"))

	run, err = GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, model.RunCompleted, run.Status)
	assert.Equal(t, 42, run.RowCount)
	assert.Equal(t, "/tmp/out.csv", run.OutputPath)
}

func TestFailRunRecordsError(t *testing.T) {
	initTestDB(t)

	p := newProcess("")
	require.NoError(t, SaveProcess(p))

	runID := uuid.New().String()
	require.NoError(t, SaveRun(runID, p.ID))
	require.NoError(t, FailRun(runID, errors.New("NoRecordsetFound")))

	run, err := GetRun(runID)
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, "NoRecordsetFound", run.ErrorMessage)
}

func TestDeleteProcessCascades(t *testing.T) {
	initTestDB(t)

	p := newProcess("")
	require.NoError(t, SaveProcess(p))
	_, err := SavePlanVersion(uuid.New().String(), p.ID, `{}`)
	require.NoError(t, err)
	runID := uuid.New().String()
	require.NoError(t, SaveRun(runID, p.ID))

	require.NoError(t, DeleteProcess(p.ID))

	_, err = GetProcess(p.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = GetRun(runID)
	assert.True(t, errors.Is(err, ErrNotFound))
	versions, err := ListPlanVersions(p.ID)
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestListRunsFiltersByProcess(t *testing.T) {
	initTestDB(t)

	p1 := newProcess("")
	p2 := newProcess("")
	require.NoError(t, SaveProcess(p1))
	require.NoError(t, SaveProcess(p2))
	require.NoError(t, SaveRun(uuid.New().String(), p1.ID))
	require.NoError(t, SaveRun(uuid.New().String(), p2.ID))

	all, err := ListRuns("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	only, err := ListRuns(p1.ID)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, p1.ID, only[0].ProcessID)
}
