package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// CampaignStore is the persistence surface the handler needs.
type CampaignStore interface {
	Create(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	Update(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]models.Campaign, int, error)
	Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.Campaign, int, error)
	Timeline(ctx context.Context, filters map[string]string) ([]models.TimelineEntry, error)
}

// CampaignHandler serves the campaign endpoints.
type CampaignHandler struct {
	store  CampaignStore
	logger *slog.Logger
}

// NewCampaignHandler creates a campaign handler.
func NewCampaignHandler(store CampaignStore, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{store: store, logger: logger}
}

// List handles GET /campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	campaigns, total, err := h.store.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, campaigns, len(campaigns), models.NewPagination(total, q.Page, q.Limit))
}

// Get handles GET /campaigns/{id}
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, campaign)
}

// Create handles POST /campaigns
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var campaign models.Campaign
	if err := decodeJSON(r, &campaign); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateCampaign(&campaign); err != nil {
		respondError(w, h.logger, err)
		return
	}

	created, err := h.store.Create(r.Context(), &campaign)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /campaigns/{id}
func (h *CampaignHandler) Update(w http.ResponseWriter, r *http.Request) {
	var campaign models.Campaign
	if err := decodeJSON(r, &campaign); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	campaign.ID = mux.Vars(r)["id"]
	if err := validateCampaign(&campaign); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), &campaign)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /campaigns/{id}
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "campaign deleted")
}

// Search handles POST /campaigns/search
func (h *CampaignHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	campaigns, _, err := h.store.Search(r.Context(), req, parseListQuery(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, campaigns, len(campaigns))
}

// GetTimeline handles GET /campaigns/timeline
func (h *CampaignHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.Timeline(r.Context(), parseListQuery(r).Filters)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, entries, len(entries))
}
