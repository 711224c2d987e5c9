package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go-transform-pipeline/internal/model"
	"go-transform-pipeline/internal/store"

	"github.com/google/uuid"
)

// ConnectorRequest is the create/update payload for a connector.
type ConnectorRequest struct {
	Name       string `json:"name"`
	BaseURL    string `json:"baseUrl"`
	AuthHeader string `json:"authHeader"`
}

// CreateConnector saves a new upstream source
// @Summary Create a connector
// @Description Register an upstream JSON source by URL, with an optional Authorization header value
// @Tags connectors
// @Accept json
// @Produce json
// @Param connector body ConnectorRequest true "Connector definition"
// @Success 200 {object} model.Connector "Connector created"
// @Failure 400 {object} map[string]interface{} "Invalid request payload"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /connectors [post]
func CreateConnector(w http.ResponseWriter, r *http.Request) {
	var req ConnectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Name == "" || req.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "name and baseUrl are required")
		return
	}

	now := time.Now().UTC()
	conn := model.Connector{
		ID:         uuid.New().String(),
		Name:       req.Name,
		BaseURL:    req.BaseURL,
		AuthHeader: req.AuthHeader,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.SaveConnector(conn); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save connector")
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// ListConnectors lists all connectors
// @Summary List connectors
// @Tags connectors
// @Produce json
// @Success 200 {array} model.Connector "Connectors"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /connectors [get]
func ListConnectors(w http.ResponseWriter, r *http.Request) {
	conns, err := store.ListConnectors()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list connectors")
		return
	}
	if conns == nil {
		conns = []model.Connector{}
	}
	writeJSON(w, http.StatusOK, conns)
}

// GetConnector fetches one connector
// @Summary Get connector
// @Tags connectors
// @Produce json
// @Param id path string true "Connector ID"
// @Success 200 {object} model.Connector "Connector"
// @Failure 404 {object} map[string]interface{} "Connector not found"
// @Router /connectors/{id} [get]
func GetConnector(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/connectors/", "")
	if id == "" {
		writeError(w, http.StatusBadRequest, "connector ID is required")
		return
	}

	conn, err := store.GetConnector(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "connector not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch connector")
		return
	}
	writeJSON(w, http.StatusOK, conn)
}

// UpdateConnector updates a connector
// @Summary Update connector
// @Tags connectors
// @Accept json
// @Produce json
// @Param id path string true "Connector ID"
// @Param connector body ConnectorRequest true "New connector definition"
// @Success 200 {object} model.Connector "Updated connector"
// @Failure 404 {object} map[string]interface{} "Connector not found"
// @Router /connectors/{id} [put]
func UpdateConnector(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/connectors/", "")
	if id == "" {
		writeError(w, http.StatusBadRequest, "connector ID is required")
		return
	}

	var req ConnectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Name == "" || req.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "name and baseUrl are required")
		return
	}

	conn := model.Connector{ID: id, Name: req.Name, BaseURL: req.BaseURL, AuthHeader: req.AuthHeader}
	err := store.UpdateConnector(conn)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "connector not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update connector")
		return
	}

	updated, err := store.GetConnector(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch connector")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteConnector removes a connector
// @Summary Delete connector
// @Tags connectors
// @Param id path string true "Connector ID"
// @Success 200 {object} map[string]interface{} "Deleted"
// @Failure 404 {object} map[string]interface{} "Connector not found"
// @Router /connectors/{id} [delete]
func DeleteConnector(w http.ResponseWriter, r *http.Request) {
	id := pathParam(r.URL.Path, "/api/v1/connectors/", "")
	if id == "" {
		writeError(w, http.StatusBadRequest, "connector ID is required")
		return
	}

	err := store.DeleteConnector(id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "connector not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete connector")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": id})
}
