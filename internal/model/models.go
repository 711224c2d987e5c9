package model

import "time"

// Connector is a saved upstream JSON source.
type Connector struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	BaseURL    string    `json:"baseUrl"`
	AuthHeader string    `json:"authHeader,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Process is a saved transformation: a connector plus a goal, with versioned
// plans stored separately.
type Process struct {
	ID          string    `json:"id"`
	ConnectorID string    `json:"connectorId"`
	Name        string    `json:"name"`
	Goal        string    `json:"goal"`
	RecordPath  string    `json:"recordPath,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProcessVersion is one immutable revision of a process's transform plan.
type ProcessVersion struct {
	ID        string    `json:"id"`
	ProcessID string    `json:"processId"`
	Version   int       `json:"version"`
	Plan      string    `json:"plan"` // serialized TransformPlan JSON
	CreatedAt time.Time `json:"createdAt"`
}

// Run statuses, pending through terminal.
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is one execution of a process.
type Run struct {
	ID           string    `json:"id"`
	ProcessID    string    `json:"processId"`
	Status       string    `json:"status"`
	RowCount     int       `json:"rowCount"`
	OutputPath   string    `json:"outputPath,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
