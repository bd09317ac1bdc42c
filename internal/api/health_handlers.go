package api

import (
	"database/sql"
	"net/http"
	"time"

	"log/slog"

	"github.com/cyberthreat-atlas/atlas/internal/database"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	db        *sql.DB
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(db *sql.DB, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger, startTime: time.Now()}
}

// Info handles GET /. It identifies the service and points at the API root.
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{
		"service":  "cyberthreat-atlas",
		"api_base": "/api/v1",
	})
}

// Health handles GET /health. The endpoint degrades to 503 when the database
// is unreachable so orchestrators can restart the instance.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}

	status := http.StatusOK
	if err := database.HealthCheck(r.Context(), h.db); err != nil {
		h.logger.Error("health check failed", "error", err)
		payload["status"] = "degraded"
		payload["database"] = "unreachable"
		status = http.StatusServiceUnavailable
	} else {
		payload["database"] = database.Stats(h.db)
	}

	writeJSON(w, status, Response{Success: status == http.StatusOK, Data: payload})
}
