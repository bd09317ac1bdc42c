package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// IndicatorStore is the persistence surface the handler needs.
type IndicatorStore interface {
	Create(ctx context.Context, indicator *models.Indicator) (*models.Indicator, error)
	GetByID(ctx context.Context, id string) (*models.Indicator, error)
	Update(ctx context.Context, indicator *models.Indicator) (*models.Indicator, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]models.Indicator, int, error)
	Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Indicator, int, error)
}

// IndicatorHandler serves the indicator endpoints.
type IndicatorHandler struct {
	store  IndicatorStore
	logger *slog.Logger
}

// NewIndicatorHandler creates an indicator handler.
func NewIndicatorHandler(store IndicatorStore, logger *slog.Logger) *IndicatorHandler {
	return &IndicatorHandler{store: store, logger: logger}
}

// List handles GET /indicators
func (h *IndicatorHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	indicators, total, err := h.store.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, indicators, len(indicators), models.NewPagination(total, q.Page, q.Limit))
}

// Get handles GET /indicators/{id}
func (h *IndicatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	indicator, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, indicator)
}

// Create handles POST /indicators
func (h *IndicatorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var indicator models.Indicator
	if err := decodeJSON(r, &indicator); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateIndicator(&indicator); err != nil {
		respondError(w, h.logger, err)
		return
	}

	created, err := h.store.Create(r.Context(), &indicator)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /indicators/{id}
func (h *IndicatorHandler) Update(w http.ResponseWriter, r *http.Request) {
	var indicator models.Indicator
	if err := decodeJSON(r, &indicator); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	indicator.ID = mux.Vars(r)["id"]
	if err := validateIndicator(&indicator); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), &indicator)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /indicators/{id}
func (h *IndicatorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "indicator deleted")
}

// Search handles POST /indicators/search
func (h *IndicatorHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	indicators, _, err := h.store.Search(r.Context(), req, parseListQuery(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, indicators, len(indicators))
}
