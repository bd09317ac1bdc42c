package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// TechniqueStore is the persistence surface the handler needs.
type TechniqueStore interface {
	Create(ctx context.Context, technique *models.Technique) (*models.Technique, error)
	GetByID(ctx context.Context, id string) (*models.Technique, error)
	Update(ctx context.Context, technique *models.Technique) (*models.Technique, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]models.Technique, int, error)
	Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Technique, int, error)
}

// TechniqueHandler serves the technique endpoints.
type TechniqueHandler struct {
	store  TechniqueStore
	logger *slog.Logger
}

// NewTechniqueHandler creates a technique handler.
func NewTechniqueHandler(store TechniqueStore, logger *slog.Logger) *TechniqueHandler {
	return &TechniqueHandler{store: store, logger: logger}
}

// List handles GET /techniques
func (h *TechniqueHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	techniques, total, err := h.store.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, techniques, len(techniques), models.NewPagination(total, q.Page, q.Limit))
}

// Get handles GET /techniques/{id}
func (h *TechniqueHandler) Get(w http.ResponseWriter, r *http.Request) {
	technique, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, technique)
}

// Create handles POST /techniques
func (h *TechniqueHandler) Create(w http.ResponseWriter, r *http.Request) {
	var technique models.Technique
	if err := decodeJSON(r, &technique); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateTechnique(&technique); err != nil {
		respondError(w, h.logger, err)
		return
	}

	created, err := h.store.Create(r.Context(), &technique)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /techniques/{id}
func (h *TechniqueHandler) Update(w http.ResponseWriter, r *http.Request) {
	var technique models.Technique
	if err := decodeJSON(r, &technique); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	technique.ID = mux.Vars(r)["id"]
	if err := validateTechnique(&technique); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), &technique)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /techniques/{id}
func (h *TechniqueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "technique deleted")
}

// Search handles POST /techniques/search
func (h *TechniqueHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	techniques, _, err := h.store.Search(r.Context(), req, parseListQuery(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, techniques, len(techniques))
}
