package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go-transform-pipeline/internal/model"
	"go-transform-pipeline/internal/store"
	"go-transform-pipeline/internal/transform"

	"github.com/google/uuid"
)

// ProcessRequest is the create payload for a process.
type ProcessRequest struct {
	ConnectorID string `json:"connectorId"`
	Name        string `json:"name"`
	Goal        string `json:"goal"`
	RecordPath  string `json:"recordPath"`
}

// CreateProcess saves a new process
// @Summary Create a process
// @Description Define a transformation: a connector plus a natural-language goal. The plan is versioned separately.
// @Tags processes
// @Accept json
// @Produce json
// @Param process body ProcessRequest true "Process definition"
// @Success 200 {object} model.Process "Process created"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Router /processes [post]
func CreateProcess(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Name == "" || req.ConnectorID == "" {
		writeError(w, http.StatusBadRequest, "name and connectorId are required")
		return
	}
	if _, err := store.GetConnector(req.ConnectorID); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusBadRequest, "connector does not exist")
		return
	}

	now := time.Now().UTC()
	proc := model.Process{
		ID:          uuid.New().String(),
		ConnectorID: req.ConnectorID,
		Name:        req.Name,
		Goal:        req.Goal,
		RecordPath:  req.RecordPath,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.SaveProcess(proc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save process")
		return
	}
	writeJSON(w, http.StatusOK, proc)
}

// ListProcesses lists all processes
// @Summary List processes
// @Tags processes
// @Produce json
// @Success 200 {array} model.Process "Processes"
// @Router /processes [get]
func ListProcesses(w http.ResponseWriter, r *http.Request) {
	procs, err := store.ListProcesses()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list processes")
		return
	}
	if procs == nil {
		procs = []model.Process{}
	}
	writeJSON(w, http.StatusOK, procs)
}

// GetProcess fetches one process with its plan versions
// @Summary Get process
// @Tags processes
// @Produce json
// @Param id path string true "Process ID"
// @Success 200 {object} map[string]interface{} "Process and plan versions"
// @Failure 404 {object} map[string]interface{} "Process not found"
// @Router /processes/{id} [get]
func GetProcess(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/processes/", "")
	if id == "" {
		writeError(w, http.StatusBadRequest, "process ID is required")
		return
	}

	proc, err := store.GetProcess(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "process not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch process")
		return
	}

	versions, err := store.ListPlanVersions(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch plan versions")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"process":  proc,
		"versions": versions,
	})
}

// DeleteProcess removes a process with its versions and runs
// @Summary Delete process
// @Tags processes
// @Param id path string true "Process ID"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 404 {object} map[string]interface{} "Process not found"
// @Router /processes/{id} [delete]
func DeleteProcess(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/processes/", "")
	if id == "" {
		writeError(w, http.StatusBadRequest, "process ID is required")
		return
	}

	err := store.DeleteProcess(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "process not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete process")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}

// SavePlan stores a new plan version for a process
// @Summary Store a plan version
// @Description Validate the posted TransformPlan and append it as the next version. Versions are immutable.
// @Tags processes
// @Accept json
// @Produce json
// @Param id path string true "Process ID"
// @Param plan body object true "TransformPlan JSON"
// @Success 200 {object} map[string]interface{} "Stored version number"
// @Failure 400 {object} map[string]interface{} "Structurally invalid plan"
// @Failure 404 {object} map[string]interface{} "Process not found"
// @Router /processes/{id}/plan [post]
func SavePlan(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/processes/", "/plan")
	if id == "" {
		writeError(w, http.StatusBadRequest, "process ID is required")
		return
	}
	if _, err := store.GetProcess(id); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "process not found")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	plan, err := transform.ParseExternalPlan(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Store the normalized encoding, not the raw bytes.
	planJSON, err := json.Marshal(plan)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode plan")
		return
	}
	version, err := store.SavePlanVersion(uuid.New().String(), id, string(planJSON))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store plan version")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"processId": id,
		"version":   version,
	})
}

// RunProcess launches an asynchronous run
// @Summary Run a process
// @Description Create a run in pending state and execute it on a background goroutine with the configured timeout
// @Tags processes
// @Produce json
// @Param id path string true "Process ID"
// @Success 200 {object} map[string]interface{} "Run ID and initial status"
// @Failure 404 {object} map[string]interface{} "Process not found"
// @Router /processes/{id}/run [post]
func RunProcess(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/processes/", "/run")
	if id == "" {
		writeError(w, http.StatusBadRequest, "process ID is required")
		return
	}
	if _, err := store.GetProcess(id); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "process not found")
		return
	}

	runID := uuid.New().String()
	if err := store.SaveRun(runID, id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create run")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	go func() {
		defer cancel()
		runs.Run(ctx, runID, id)
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":  runID,
		"status": model.RunPending,
	})
}

// RunResponse is a run decorated with download metadata for its output file.
type RunResponse struct {
	model.Run
	DownloadURL string `json:"downloadUrl,omitempty"`
	FileType    string `json:"fileType,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
}

func runResponse(run model.Run) RunResponse {
	resp := RunResponse{Run: run}
	if run.OutputPath == "" {
		return resp
	}
	fileName := filepath.Base(run.OutputPath)
	resp.DownloadURL = output.GetDownloadURL(run.ID, fileName)
	resp.FileType = output.GetFileType(fileName)
	if size, err := output.GetFileSize(run.OutputPath); err == nil {
		resp.SizeBytes = size
	}
	return resp
}

// GetRun fetches a run
// @Summary Get run
// @Tags runs
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} RunResponse "Run with download metadata"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func GetRun(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/runs/", "")
	if id == "" {
		writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := store.GetRun(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch run")
		return
	}
	writeJSON(w, http.StatusOK, runResponse(run))
}

// ListRuns lists runs, optionally filtered by process
// @Summary List runs
// @Tags runs
// @Produce json
// @Param processId query string false "Filter by process ID"
// @Success 200 {array} RunResponse "Runs with download metadata"
// @Router /runs [get]
func ListRuns(w http.ResponseWriter, r *http.Request) {
	list, err := store.ListRuns(r.URL.Query().Get("processId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	out := make([]RunResponse, 0, len(list))
	for _, run := range list {
		out = append(out, runResponse(run))
	}
	writeJSON(w, http.StatusOK, out)
}

// DownloadOutput serves a run's output file
// @Summary Download run output
// @Tags runs
// @Produce octet-stream
// @Param runId path string true "Run ID"
// @Param file path string true "File name"
// @Success 200 {file} file "Output file"
// @Failure 404 {object} map[string]interface{} "File not found"
// @Router /download/{runId}/{file} [get]
func DownloadOutput(w http.ResponseWriter, r *http.Request) {
	rest := pathParam(r.URL.Path, "/api/v1/download/", "")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "run ID and file name are required")
		return
	}
	runID, fileName := parts[0], filepath.Base(parts[1])

	path := filepath.Join(output.BaseOutputDir, runID, fileName)
	http.ServeFile(w, r, path)
}
