package api

import (
	"context"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// AttackGroupStore is the persistence surface the handler needs.
type AttackGroupStore interface {
	Create(ctx context.Context, group *models.AttackGroup) (*models.AttackGroup, error)
	GetByID(ctx context.Context, id string) (*models.AttackGroup, error)
	Update(ctx context.Context, group *models.AttackGroup) (*models.AttackGroup, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, q models.ListQuery) ([]models.AttackGroup, int, error)
	Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.AttackGroup, int, error)
}

// AttackGroupHandler serves the attack group endpoints.
type AttackGroupHandler struct {
	store  AttackGroupStore
	logger *slog.Logger
}

// NewAttackGroupHandler creates an attack group handler.
func NewAttackGroupHandler(store AttackGroupStore, logger *slog.Logger) *AttackGroupHandler {
	return &AttackGroupHandler{store: store, logger: logger}
}

// List handles GET /attack-groups
func (h *AttackGroupHandler) List(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r)
	groups, total, err := h.store.List(r.Context(), q)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondList(w, groups, len(groups), models.NewPagination(total, q.Page, q.Limit))
}

// Get handles GET /attack-groups/{id}
func (h *AttackGroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.store.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, group)
}

// Create handles POST /attack-groups
func (h *AttackGroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var group models.AttackGroup
	if err := decodeJSON(r, &group); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateAttackGroup(&group); err != nil {
		respondError(w, h.logger, err)
		return
	}

	created, err := h.store.Create(r.Context(), &group)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, created)
}

// Update handles PUT /attack-groups/{id}
func (h *AttackGroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var group models.AttackGroup
	if err := decodeJSON(r, &group); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	group.ID = mux.Vars(r)["id"]
	if err := validateAttackGroup(&group); err != nil {
		respondError(w, h.logger, err)
		return
	}

	updated, err := h.store.Update(r.Context(), &group)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, updated)
}

// Delete handles DELETE /attack-groups/{id}
func (h *AttackGroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "attack group deleted")
}

// Search handles POST /attack-groups/search
func (h *AttackGroupHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	groups, _, err := h.store.Search(r.Context(), req, parseListQuery(r))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondSearch(w, groups, len(groups))
}
