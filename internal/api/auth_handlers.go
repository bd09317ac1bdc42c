package api

import (
	"context"
	"errors"
	"net/http"

	"log/slog"

	"github.com/cyberthreat-atlas/atlas/internal/auth"
	"github.com/cyberthreat-atlas/atlas/internal/config"
	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/models"
)

// UserStore is the persistence surface the auth handler needs.
type UserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// AuthHandler serves registration, login and account endpoints.
type AuthHandler struct {
	store  UserStore
	cfg    config.AuthConfig
	logger *slog.Logger
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(store UserStore, cfg config.AuthConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{store: store, cfg: cfg, logger: logger}
}

type registerRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if err := validateRegistration(req.Name, req.Email, req.Password, req.Role); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleReader
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	user, err := h.store.Create(r.Context(), &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	token, err := auth.GenerateToken(user, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusCreated, tokenResponse{Token: token, User: user})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}

	user, err := h.store.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, database.ErrNotFound) {
		respondUnauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		respondUnauthorized(w, "invalid credentials")
		return
	}

	token, err := auth.GenerateToken(user, h.cfg.JWTSecret, h.cfg.TokenTTL)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, tokenResponse{Token: token, User: user})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "authentication required")
		return
	}

	user, err := h.store.GetByID(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondData(w, http.StatusOK, user)
}

// ChangePassword handles PUT /auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondUnauthorized(w, "authentication required")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondBadRequest(w, err.Error())
		return
	}
	if len(req.NewPassword) < 8 {
		ve := &models.ValidationError{}
		ve.Add("new_password", "must be at least 8 characters")
		respondError(w, h.logger, ve)
		return
	}

	user, err := h.store.GetByID(r.Context(), identity.UserID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if !auth.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		respondUnauthorized(w, "invalid credentials")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.store.UpdatePassword(r.Context(), user.ID, hash); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondMessage(w, http.StatusOK, "password updated")
}
