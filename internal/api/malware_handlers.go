package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// MalwareStore is the persistence surface the handler needs.
type MalwareStore interface {
	Create(ctx context.Context, malware *models.Malware) (*models.Malware, error)
	GetByID(ctx context.Context, id string) (*models.Malware, error)
	Update(ctx context.Context, malware *models.Malware) (*models.Malware, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]models.Malware, int, error)
	Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Malware, int, error)
}

// MalwareHandler serves the malware endpoints.
type MalwareHandler struct {
	store  MalwareStore
	logger *slog.Logger
}

// NewMalwareHandler creates a malware handler.
func NewMalwareHandler(store MalwareStore, logger *slog.Logger) *MalwareHandler {
	return &MalwareHandler{store: store, logger: logger}
}

// List handles GET /malware
func (h *MalwareHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	families, total, err := h.store.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, families, len(families), models.NewPagination(total, q.Page, q.Limit))
}

// Get handles GET /malware/{id}
func (h *MalwareHandler) Get(w http.ResponseWriter, r *http.Request) {
	malware, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, malware)
}

// Create handles POST /malware
func (h *MalwareHandler) Create(w http.ResponseWriter, r *http.Request) {
	var malware models.Malware
	if err := decodeJSON(r, &malware); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateMalware(&malware); err != nil {
		respondError(w, h.logger, err)
		return
	}

	created, err := h.store.Create(r.Context(), &malware)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /malware/{id}
func (h *MalwareHandler) Update(w http.ResponseWriter, r *http.Request) {
	var malware models.Malware
	if err := decodeJSON(r, &malware); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	malware.ID = mux.Vars(r)["id"]
	if err := validateMalware(&malware); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), &malware)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /malware/{id}
func (h *MalwareHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "malware deleted")
}

// Search handles POST /malware/search
func (h *MalwareHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	families, _, err := h.store.Search(r.Context(), req, parseListQuery(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, families, len(families))
}
