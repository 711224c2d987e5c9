package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go-transform-pipeline/internal/llm"
	"go-transform-pipeline/internal/runner"
	"go-transform-pipeline/pkg/utils"
)

var (
	runs       *runner.Runner
	plans      llm.PlanSource
	output     *utils.OutputManager
	runTimeout = 5 * time.Minute
)

// Init wires the handler package to its service dependencies.
func Init(r *runner.Runner, p llm.PlanSource, om *utils.OutputManager, timeout time.Duration) {
	runs = r
	plans = p
	output = om
	if timeout > 0 {
		runTimeout = timeout
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, reason string) {
	writeJSON(w, status, map[string]interface{}{"error": reason})
}

// pathParam extracts the segment between prefix and suffix of the URL path,
// e.g. pathParam("/api/v1/processes/abc/run", "/api/v1/processes/", "/run")
// returns "abc".
func pathParam(path, prefix, suffix string) string {
	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	return strings.Trim(path[len(prefix):len(path)-len(suffix)], "/")
}
