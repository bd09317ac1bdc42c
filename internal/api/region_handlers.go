package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// RegionStore is the persistence surface the handler needs.
type RegionStore interface {
	Create(ctx context.Context, region *models.Region) (*models.Region, error)
	GetByID(ctx context.Context, id string) (*models.Region, error)
	Update(ctx context.Context, region *models.Region) (*models.Region, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]models.Region, int, error)
	Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Region, int, error)
}

// RegionHandler serves the region endpoints.
type RegionHandler struct {
	store  RegionStore
	logger *slog.Logger
}

// NewRegionHandler creates a region handler.
func NewRegionHandler(store RegionStore, logger *slog.Logger) *RegionHandler {
	return &RegionHandler{store: store, logger: logger}
}

// List handles GET /regions
func (h *RegionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	regions, total, err := h.store.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, regions, len(regions), models.NewPagination(total, q.Page, q.Limit))
}

// Get handles GET /regions/{id}
func (h *RegionHandler) Get(w http.ResponseWriter, r *http.Request) {
	region, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, region)
}

// Create handles POST /regions
func (h *RegionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var region models.Region
	if err := decodeJSON(r, &region); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateRegion(&region); err != nil {
		respondError(w, h.logger, err)
		return
	}

	created, err := h.store.Create(r.Context(), &region)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /regions/{id}
func (h *RegionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var region models.Region
	if err := decodeJSON(r, &region); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	region.ID = mux.Vars(r)["id"]
	if err := validateRegion(&region); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), &region)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /regions/{id}
func (h *RegionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "region deleted")
}

// Search handles POST /regions/search
func (h *RegionHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	regions, _, err := h.store.Search(r.Context(), req, parseListQuery(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, regions, len(regions))
}
