package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/models"
)

type fakeAttackGroupStore struct {
	groups     map[string]models.AttackGroup
	listResult []models.AttackGroup
	listTotal  int
	lastQuery  models.ListQuery
	lastSearch models.SearchRequest
}

func newFakeAttackGroupStore(groups ...models.AttackGroup) *fakeAttackGroupStore {
	s := &fakeAttackGroupStore{groups: map[string]models.AttackGroup{}}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return s
}

func (s *fakeAttackGroupStore) Create(ctx context.Context, group *models.AttackGroup) (*models.AttackGroup, error) {
	group.ID = "generated-id"
	s.groups[group.ID] = *group
	return group, nil
}

func (s *fakeAttackGroupStore) GetByID(ctx context.Context, id string) (*models.AttackGroup, error) {
	group, ok := s.groups[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &group, nil
}

func (s *fakeAttackGroupStore) Update(ctx context.Context, group *models.AttackGroup) (*models.AttackGroup, error) {
	if _, ok := s.groups[group.ID]; !ok {
		return nil, database.ErrNotFound
	}
	s.groups[group.ID] = *group
	return group, nil
}

func (s *fakeAttackGroupStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.groups[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.groups, id)
	return nil
}

func (s *fakeAttackGroupStore) List(ctx context.Context, q models.ListQuery) ([]models.AttackGroup, int, error) {
	s.lastQuery = q
	if s.listTotal > 0 {
		return s.listResult, s.listTotal, nil
	}
	out := make([]models.AttackGroup, 0, len(s.groups))
	for _, g := range s.groups {
		out = append(out, g)
	}
	return out, len(out), nil
}

func (s *fakeAttackGroupStore) Search(ctx context.Context, req models.SearchRequest, q models.ListQuery) ([]models.AttackGroup, int, error) {
	s.lastSearch = req
	s.lastQuery = q
	return nil, 0, nil
}

func newGroupRouter(store AttackGroupStore) *mux.Router {
	h := NewAttackGroupHandler(store, discardLogger())
	r := mux.NewRouter()
	r.HandleFunc("/attack-groups", h.List).Methods(http.MethodGet)
	r.HandleFunc("/attack-groups/search", h.Search).Methods(http.MethodPost)
	r.HandleFunc("/attack-groups/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/attack-groups", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/attack-groups/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/attack-groups/{id}", h.Delete).Methods(http.MethodDelete)
	return r
}

func TestAttackGroupList(t *testing.T) {
	store := newFakeAttackGroupStore(models.AttackGroup{ID: "g1", Name: "APT28"})
	router := newGroupRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/attack-groups?page=2&limit=5&country_of_origin=Russia", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, "Russia", store.lastQuery.Filters["country_of_origin"])
	assert.Equal(t, 5, store.lastQuery.Limit)
}

func TestAttackGroupListPaginationEnvelope(t *testing.T) {
	// 15 matches at limit 10: the second page holds the remaining 5.
	lastPage := make([]models.AttackGroup, 5)
	for i := range lastPage {
		lastPage[i] = models.AttackGroup{ID: "g" + string(rune('0'+i)), Name: "Group"}
	}
	store := newFakeAttackGroupStore()
	store.listResult = lastPage
	store.listTotal = 15
	router := newGroupRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/attack-groups?page=2&limit=10", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	require.NotNil(t, resp.Count)
	assert.Equal(t, 5, *resp.Count)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 15, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 2, resp.Pagination.Pages)
}

func TestAttackGroupGetNotFound(t *testing.T) {
	router := newGroupRouter(newFakeAttackGroupStore())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/attack-groups/missing", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, decodeResponse(t, rr).Success)
}

func TestAttackGroupCreate(t *testing.T) {
	store := newFakeAttackGroupStore()
	router := newGroupRouter(store)

	body, _ := json.Marshal(models.AttackGroup{Name: "APT29", ThreatLevel: 9})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/attack-groups", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeResponse(t, rr)
	assert.True(t, resp.Success)
	assert.Len(t, store.groups, 1)
}

func TestAttackGroupCreateValidation(t *testing.T) {
	router := newGroupRouter(newFakeAttackGroupStore())

	body, _ := json.Marshal(models.AttackGroup{ThreatLevel: 99})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/attack-groups", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeResponse(t, rr)
	require.Len(t, resp.Errors, 2)
}

func TestAttackGroupCreateRejectsBadJSON(t *testing.T) {
	router := newGroupRouter(newFakeAttackGroupStore())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/attack-groups", bytes.NewReader([]byte("{"))))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAttackGroupUpdateUsesPathID(t *testing.T) {
	store := newFakeAttackGroupStore(models.AttackGroup{ID: "g1", Name: "APT28"})
	router := newGroupRouter(store)

	body, _ := json.Marshal(models.AttackGroup{ID: "ignored", Name: "APT28", Description: "updated"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/attack-groups/g1", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "updated", store.groups["g1"].Description)
}

func TestAttackGroupDelete(t *testing.T) {
	store := newFakeAttackGroupStore(models.AttackGroup{ID: "g1", Name: "APT28"})
	router := newGroupRouter(store)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/attack-groups/g1", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, store.groups)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/attack-groups/g1", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAttackGroupSearchPassesRequest(t *testing.T) {
	store := newFakeAttackGroupStore()
	router := newGroupRouter(store)

	body, _ := json.Marshal(models.SearchRequest{
		Keywords:  []string{"bear"},
		Countries: []string{"Russia"},
	})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/attack-groups/search?page=2", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"bear"}, store.lastSearch.Keywords)
	assert.Equal(t, []string{"Russia"}, store.lastSearch.Countries)
	assert.Equal(t, 2, store.lastQuery.Page)
}
