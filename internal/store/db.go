package store

import (
	"database/sql"
	"errors"
	"time"

	"go-transform-pipeline/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

var db *sql.DB

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// InitDB opens the SQLite database and creates tables if absent.
func InitDB(dbPath string) error {
	var err error
	db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	tables := []string{
		`CREATE TABLE IF NOT EXISTS connectors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			base_url TEXT NOT NULL,
			auth_header TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS processes (
			id TEXT PRIMARY KEY,
			connector_id TEXT,
			name TEXT NOT NULL,
			goal TEXT,
			record_path TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS process_versions (
			id TEXT PRIMARY KEY,
			process_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			plan TEXT NOT NULL,
			created_at DATETIME,
			UNIQUE(process_id, version)
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			process_id TEXT NOT NULL,
			status TEXT NOT NULL,
			row_count INTEGER DEFAULT 0,
			output_path TEXT,
			error_message TEXT,
			created_at DATETIME,
			updated_at DATETIME
		);`,
	}
	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CloseDB closes the database handle.
func CloseDB() error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// ------------------- Connectors -------------------

// SaveConnector inserts a new connector.
func SaveConnector(c model.Connector) error {
	_, err := db.Exec(
		`INSERT INTO connectors (id, name, base_url, auth_header, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.BaseURL, c.AuthHeader, c.CreatedAt, c.UpdatedAt)
	return err
}

// UpdateConnector overwrites the mutable fields of a connector.
func UpdateConnector(c model.Connector) error {
	res, err := db.Exec(
		`UPDATE connectors SET name = ?, base_url = ?, auth_header = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.BaseURL, c.AuthHeader, time.Now().UTC(), c.ID)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// GetConnector fetches a connector by ID.
func GetConnector(id string) (model.Connector, error) {
	var c model.Connector
	var authHeader sql.NullString
	err := db.QueryRow(
		`SELECT id, name, base_url, auth_header, created_at, updated_at FROM connectors WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.BaseURL, &authHeader, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	c.AuthHeader = authHeader.String
	return c, err
}

// ListConnectors returns all connectors, newest first.
func ListConnectors() ([]model.Connector, error) {
	rows, err := db.Query(
		`SELECT id, name, base_url, auth_header, created_at, updated_at FROM connectors ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Connector
	for rows.Next() {
		var c model.Connector
		var authHeader sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.BaseURL, &authHeader, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		c.AuthHeader = authHeader.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConnector removes a connector by ID.
func DeleteConnector(id string) error {
	res, err := db.Exec(`DELETE FROM connectors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// ------------------- Processes -------------------

// SaveProcess inserts a new process.
func SaveProcess(p model.Process) error {
	_, err := db.Exec(
		`INSERT INTO processes (id, connector_id, name, goal, record_path, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ConnectorID, p.Name, p.Goal, p.RecordPath, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetProcess fetches a process by ID.
func GetProcess(id string) (model.Process, error) {
	var p model.Process
	var recordPath sql.NullString
	err := db.QueryRow(
		`SELECT id, connector_id, name, goal, record_path, created_at, updated_at FROM processes WHERE id = ?`, id).
		Scan(&p.ID, &p.ConnectorID, &p.Name, &p.Goal, &recordPath, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	p.RecordPath = recordPath.String
	return p, err
}

// ListProcesses returns all processes, newest first.
func ListProcesses() ([]model.Process, error) {
	rows, err := db.Query(
		`SELECT id, connector_id, name, goal, record_path, created_at, updated_at FROM processes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Process
	for rows.Next() {
		var p model.Process
		var recordPath sql.NullString
		if err := rows.Scan(&p.ID, &p.ConnectorID, &p.Name, &p.Goal, &recordPath, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.RecordPath = recordPath.String
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeleteProcess removes a process and its versions and runs.
func DeleteProcess(id string) error {
	if _, err := db.Exec(`DELETE FROM process_versions WHERE process_id = ?`, id); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM runs WHERE process_id = ?`, id); err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM processes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return mustAffect(res)
}

// ------------------- Process versions -------------------

// SavePlanVersion appends a new plan version for a process and returns the
// assigned version number. Versions are append-only.
func SavePlanVersion(versionID, processID, planJSON string) (int, error) {
	var current sql.NullInt64
	err := db.QueryRow(`SELECT MAX(version) FROM process_versions WHERE process_id = ?`, processID).Scan(&current)
	if err != nil {
		return 0, err
	}
	next := int(current.Int64) + 1

	_, err = db.Exec(
		`INSERT INTO process_versions (id, process_id, version, plan, created_at) VALUES (?, ?, ?, ?, ?)`,
		versionID, processID, next, planJSON, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return next, nil
}

// GetLatestPlan returns the highest-version plan JSON for a process, or
// ErrNotFound when no version has been stored yet.
func GetLatestPlan(processID string) (model.ProcessVersion, error) {
	var pv model.ProcessVersion
	err := db.QueryRow(
		`SELECT id, process_id, version, plan, created_at FROM process_versions
		 WHERE process_id = ? ORDER BY version DESC LIMIT 1`, processID).
		Scan(&pv.ID, &pv.ProcessID, &pv.Version, &pv.Plan, &pv.CreatedAt)
	if err == sql.ErrNoRows {
		return pv, ErrNotFound
	}
	return pv, err
}

// ListPlanVersions returns all plan versions for a process, oldest first.
func ListPlanVersions(processID string) ([]model.ProcessVersion, error) {
	rows, err := db.Query(
		`SELECT id, process_id, version, plan, created_at FROM process_versions
		 WHERE process_id = ? ORDER BY version ASC`, processID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ProcessVersion
	for rows.Next() {
		var pv model.ProcessVersion
		if err := rows.Scan(&pv.ID, &pv.ProcessID, &pv.Version, &pv.Plan, &pv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pv)
	}
	return out, rows.Err()
}

// ------------------- Runs -------------------

// SaveRun stores a new run in pending state.
func SaveRun(runID, processID string) error {
	now := time.Now().UTC()
	_, err := db.Exec(
		`INSERT INTO runs (id, process_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		runID, processID, model.RunPending, now, now)
	return err
}

// UpdateRunStatus moves a run to a new status.
func UpdateRunStatus(runID, status string) error {
	_, err := db.Exec(`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), runID)
	return err
}

// CompleteRun marks a run completed with its output.
func CompleteRun(runID string, rowCount int, outputPath string) error {
	_, err := db.Exec(
		`UPDATE runs SET status = ?, row_count = ?, output_path = ?, updated_at = ? WHERE id = ?`,
		model.RunCompleted, rowCount, outputPath, time.Now().UTC(), runID)
	return err
}

// FailRun marks a run failed with its error detail.
func FailRun(runID string, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	_, err := db.Exec(
		`UPDATE runs SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		model.RunFailed, msg, time.Now().UTC(), runID)
	return err
}

// GetRun fetches a run by ID.
func GetRun(runID string) (model.Run, error) {
	var run model.Run
	var outputPath, errorMessage sql.NullString
	err := db.QueryRow(
		`SELECT id, process_id, status, row_count, output_path, error_message, created_at, updated_at
		 FROM runs WHERE id = ?`, runID).
		Scan(&run.ID, &run.ProcessID, &run.Status, &run.RowCount, &outputPath, &errorMessage, &run.CreatedAt, &run.UpdatedAt)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	run.OutputPath = outputPath.String
	run.ErrorMessage = errorMessage.String
	return run, err
}

// ListRuns returns runs for a process (or all when processID is empty),
// newest first.
func ListRuns(processID string) ([]model.Run, error) {
	query := `SELECT id, process_id, status, row_count, output_path, error_message, created_at, updated_at FROM runs`
	args := []interface{}{}
	if processID != "" {
		query += ` WHERE process_id = ?`
		args = append(args, processID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		var run model.Run
		var outputPath, errorMessage sql.NullString
		if err := rows.Scan(&run.ID, &run.ProcessID, &run.Status, &run.RowCount, &outputPath, &errorMessage, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, err
		}
		run.OutputPath = outputPath.String
		run.ErrorMessage = errorMessage.String
		out = append(out, run)
	}
	return out, rows.Err()
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
