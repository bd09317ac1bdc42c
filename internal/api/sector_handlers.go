package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// SectorStore is the persistence surface the handler needs.
type SectorStore interface {
	Create(ctx context.Context, sector *models.Sector) (*models.Sector, error)
	GetByID(ctx context.Context, id string) (*models.Sector, error)
	Update(ctx context.Context, sector *models.Sector) (*models.Sector, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]models.Sector, int, error)
	Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Sector, int, error)
}

// SectorHandler serves the sector endpoints.
type SectorHandler struct {
	store  SectorStore
	logger *slog.Logger
}

// NewSectorHandler creates a sector handler.
func NewSectorHandler(store SectorStore, logger *slog.Logger) *SectorHandler {
	return &SectorHandler{store: store, logger: logger}
}

// List handles GET /sectors
func (h *SectorHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	sectors, total, err := h.store.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, sectors, len(sectors), models.NewPagination(total, q.Page, q.Limit))
}

// Get handles GET /sectors/{id}
func (h *SectorHandler) Get(w http.ResponseWriter, r *http.Request) {
	sector, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, sector)
}

// Create handles POST /sectors
func (h *SectorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sector models.Sector
	if err := decodeJSON(r, &sector); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateSector(&sector); err != nil {
		respondError(w, h.logger, err)
		return
	}

	created, err := h.store.Create(r.Context(), &sector)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /sectors/{id}
func (h *SectorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var sector models.Sector
	if err := decodeJSON(r, &sector); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	sector.ID = mux.Vars(r)["id"]
	if err := validateSector(&sector); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), &sector)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /sectors/{id}
func (h *SectorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "sector deleted")
}

// Search handles POST /sectors/search
func (h *SectorHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	sectors, _, err := h.store.Search(r.Context(), req, parseListQuery(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, sectors, len(sectors))
}
