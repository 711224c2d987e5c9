package handler

import (
	"encoding/json"
	"net/http"

	"go-transform-pipeline/internal/runner"
	"go-transform-pipeline/internal/transform"
)

// PreviewRequest is the payload for the transform preview endpoint. Document
// is the raw upstream JSON; Plan, when present, overrides goal-driven plan
// acquisition.
type PreviewRequest struct {
	Document json.RawMessage `json:"document"`
	Goal     string          `json:"goal"`
	Plan     json.RawMessage `json:"plan"`
}

// PreviewTransform runs a full transform over an inline document
// @Summary Preview a transformation
// @Description Discover the record set, obtain or synthesize a plan, execute it and infer the output schema, without persisting anything
// @Tags transform
// @Accept json
// @Produce json
// @Param preview body PreviewRequest true "Document plus optional goal or explicit plan"
// @Success 200 {object} map[string]interface{} "Rows, plan, record path, schema and warnings"
// @Failure 400 {object} map[string]interface{} "Malformed document or structurally invalid plan"
// @Router /preview/transform [post]
func PreviewTransform(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if len(req.Document) == 0 {
		writeError(w, http.StatusBadRequest, "document is required")
		return
	}

	doc, err := transform.ParseDocument(req.Document)
	if err != nil {
		writeError(w, http.StatusBadRequest, "document is not valid JSON: "+err.Error())
		return
	}

	var plan *transform.Plan
	recordPath := ""
	if len(req.Plan) > 0 {
		plan, err = transform.ParseExternalPlan(req.Plan)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		recordPath = plan.Source.RecordPath
	} else {
		plan, recordPath, err = runner.BuildPlan(r.Context(), plans, doc, req.Goal, "")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := transform.Execute(plan, doc)
	if err != nil {
		// Execution errors are structural by construction: content problems
		// come back as warnings instead.
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recordPath": recordPath,
		"plan":       plan,
		"rows":       res.Rows,
		"schema":     transform.InferSchema(res.Rows),
		"warnings":   res.Warnings,
	})
}

// DiscoverRequest is the payload for the record-path discovery endpoint.
type DiscoverRequest struct {
	Document json.RawMessage `json:"document"`
	Goal     string          `json:"goal"`
}

// DiscoverRecords scores candidate record paths in a document
// @Summary Discover the record set
// @Description Rank array locations in the document and return the chosen record path with all scored candidates
// @Tags transform
// @Accept json
// @Produce json
// @Param discover body DiscoverRequest true "Document plus optional goal text"
// @Success 200 {object} map[string]interface{} "Chosen path and candidates"
// @Failure 400 {object} map[string]interface{} "Malformed document or no record set found"
// @Router /discover [post]
func DiscoverRecords(w http.ResponseWriter, r *http.Request) {
	var req DiscoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if len(req.Document) == 0 {
		writeError(w, http.StatusBadRequest, "document is required")
		return
	}

	doc, err := transform.ParseDocument(req.Document)
	if err != nil {
		writeError(w, http.StatusBadRequest, "document is not valid JSON: "+err.Error())
		return
	}

	result, err := transform.Discover(doc, req.Goal)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
