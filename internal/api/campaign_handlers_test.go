package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberthreat-atlas/atlas/internal/models"
)

type fakeCampaignStore struct {
	CampaignStore
	campaign    *models.Campaign
	entries     []models.TimelineEntry
	lastFilters map[string]string
}

func (s *fakeCampaignStore) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	return s.campaign, nil
}

func (s *fakeCampaignStore) Timeline(ctx context.Context, filters map[string]string) ([]models.TimelineEntry, error) {
	s.lastFilters = filters
	return s.entries, nil
}

// A campaign can reference groups or techniques that no longer exist. The
// expansion simply produces nothing for them, and the record still renders
// with the expanded fields omitted rather than failing.
func TestCampaignGetToleratesDanglingReferences(t *testing.T) {
	store := &fakeCampaignStore{campaign: &models.Campaign{
		ID:           "c1",
		Name:         "Orphaned Campaign",
		AttackGroups: []string{"No Such Group"},
		Techniques:   []string{"T0000"},
	}}
	h := NewCampaignHandler(store, discardLogger())

	r := mux.NewRouter()
	r.HandleFunc("/campaigns/{id}", h.Get).Methods(http.MethodGet)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/campaigns/c1", nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	data, ok := raw["data"].(map[string]interface{})
	require.True(t, ok)
	// The raw name references survive; the unresolved expansions are absent.
	assert.Equal(t, []interface{}{"No Such Group"}, data["attack_groups"])
	assert.NotContains(t, data, "attack_group_details")
	assert.NotContains(t, data, "techniques_used")
}

func TestCampaignTimeline(t *testing.T) {
	start := time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC)
	store := &fakeCampaignStore{entries: []models.TimelineEntry{
		{
			ID:          "c1",
			Name:        "Election Interference 2016",
			Start:       &start,
			End:         end,
			Status:      models.CampaignCompleted,
			Severity:    models.SeverityCritical,
			AttackGroup: &models.TimelineGroup{ID: "g1", Name: "APT28", Country: "Russia"},
			Regions:     []models.TimelineRegion{{ID: "r1", Name: "North America"}},
		},
	}}
	h := NewCampaignHandler(store, discardLogger())

	r := mux.NewRouter()
	r.HandleFunc("/campaigns/timeline", h.GetTimeline).Methods(http.MethodGet)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/campaigns/timeline?attack_group=APT28", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "APT28", store.lastFilters["attack_group"])

	var resp struct {
		Success bool                   `json:"success"`
		Count   int                    `json:"count"`
		Data    []models.TimelineEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Data, 1)
	entry := resp.Data[0]
	assert.Equal(t, "Election Interference 2016", entry.Name)
	require.NotNil(t, entry.AttackGroup)
	assert.Equal(t, "APT28", entry.AttackGroup.Name)
	require.Len(t, entry.Regions, 1)
	assert.Equal(t, "North America", entry.Regions[0].Name)
	assert.NotContains(t, rr.Body.String(), "pagination")
}
