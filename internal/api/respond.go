package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// Response is the envelope shared by every API endpoint.
type Response struct {
	Success    bool                `json:"success"`
	Count      *int                `json:"count,omitempty"`
	Pagination *models.Pagination  `json:"pagination,omitempty"`
	Data       interface{}         `json:"data,omitempty"`
	Message    string              `json:"message,omitempty"`
	Error      string              `json:"error,omitempty"`
	Errors     []models.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// respondData writes a single-record success envelope.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

// respondList writes a paginated list envelope. Count is the page size, the
// pagination block carries the total match count.
func respondList(w http.ResponseWriter, data interface{}, count int, pagination models.Pagination) {
	writeJSON(w, http.StatusOK, Response{
		Success:    true,
		Count:      &count,
		Pagination: &pagination,
		Data:       data,
	})
}

// respondSearch writes a search result envelope. Search responses carry the
// count and data only, no pagination block.
func respondSearch(w http.ResponseWriter, data interface{}, count int) {
	writeJSON(w, http.StatusOK, Response{Success: true, Count: &count, Data: data})
}

// respondMessage writes a data-less success envelope.
func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: true, Message: message})
}

// respondError maps an error to the envelope and status the client sees.
// Validation failures and duplicates are client errors; everything else is
// reported as an internal error without leaking detail.
func respondError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if ve, ok := models.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   "validation failed",
			Errors:  ve.Fields,
		})
		return
	}
	if errors.Is(err, database.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, Response{Success: false, Error: "record not found"})
		return
	}
	if database.IsDuplicate(err) {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "record already exists"})
		return
	}

	logger.Error("request failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "internal server error"})
}

// respondBadRequest writes a client error with a fixed message.
func respondBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: message})
}

// respondUnauthorized writes an authentication failure.
func respondUnauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, Response{Success: false, Error: message})
}
