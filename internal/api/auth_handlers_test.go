package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberthreat-atlas/atlas/internal/auth"
	"github.com/cyberthreat-atlas/atlas/internal/config"
	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/models"
)

type fakeUserStore struct {
	byEmail map[string]*models.User
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	s := &fakeUserStore{byEmail: map[string]*models.User{}}
	for _, u := range users {
		s.byEmail[u.Email] = u
	}
	return s
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = "user-id"
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *fakeUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, database.ErrNotFound
}

func (s *fakeUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, database.ErrNotFound
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	for _, u := range s.byEmail {
		if u.ID == id {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return database.ErrNotFound
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}
}

func TestRegister(t *testing.T) {
	store := newFakeUserStore()
	h := NewAuthHandler(store, testAuthConfig(), discardLogger())

	body, _ := json.Marshal(registerRequest{Name: "Analyst", Email: "analyst@example.com", Password: "s3cret-pass"})
	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    tokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	require.NotNil(t, resp.Data.User)
	assert.Equal(t, models.RoleReader, resp.Data.User.Role)

	identity, err := auth.ValidateToken(resp.Data.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "analyst@example.com", identity.Email)
}

func TestRegisterValidation(t *testing.T) {
	h := NewAuthHandler(newFakeUserStore(), testAuthConfig(), discardLogger())

	body, _ := json.Marshal(registerRequest{Email: "not-an-email", Password: "short"})
	rr := httptest.NewRecorder()
	h.Register(rr, httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body)))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeResponse(t, rr)
	require.Len(t, resp.Errors, 3)
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	store := newFakeUserStore(&models.User{ID: "u1", Email: "analyst@example.com", PasswordHash: hash, Role: models.RoleReader})
	h := NewAuthHandler(store, testAuthConfig(), discardLogger())

	body, _ := json.Marshal(loginRequest{Email: "analyst@example.com", Password: "s3cret-pass"})
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data tokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := auth.HashPassword("s3cret-pass")
	require.NoError(t, err)
	store := newFakeUserStore(&models.User{ID: "u1", Email: "analyst@example.com", PasswordHash: hash})
	h := NewAuthHandler(store, testAuthConfig(), discardLogger())

	body, _ := json.Marshal(loginRequest{Email: "analyst@example.com", Password: "wrong"})
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid credentials", decodeResponse(t, rr).Error)
}

func TestLoginUnknownEmail(t *testing.T) {
	h := NewAuthHandler(newFakeUserStore(), testAuthConfig(), discardLogger())

	body, _ := json.Marshal(loginRequest{Email: "nobody@example.com", Password: "whatever"})
	rr := httptest.NewRecorder()
	h.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body)))

	// Unknown email and wrong password are indistinguishable to the client.
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "invalid credentials", decodeResponse(t, rr).Error)
}
