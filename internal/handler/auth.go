package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/azad-pos/api/internal/auth"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/enum"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const minPasswordLength = 8

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetStaffCredential(ctx context.Context, role string) (database.StaffCredential, error)
	UpsertStaffCredential(ctx context.Context, arg database.UpsertStaffCredentialParams) (database.StaffCredential, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret}
}

// RegisterRoutes registers the public login endpoint.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// RegisterManagerRoutes registers endpoints that must sit behind
// Authenticate and RequireRole(MANAGER).
func (h *AuthHandler) RegisterManagerRoutes(r chi.Router) {
	r.Put("/auth/password", h.ChangePassword)
}

// --- Request / Response types ---

type loginRequest struct {
	Role     string `json:"role"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	Role        string    `json:"role"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type changePasswordRequest struct {
	Role            string `json:"role"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// --- Handlers ---

// Login exchanges a role's shared secret for a token carrying that role.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Role == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "role and password are required"})
		return
	}
	if !enum.IsValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	if err := h.verify(r.Context(), req.Role, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		zap.S().Errorw("login", "role", req.Role, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, req.Role)
	if err != nil {
		zap.S().Errorw("generate token", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		Role:        req.Role,
		ExpiresAt:   time.Now().Add(auth.TokenTTL).UTC(),
	})
}

// ChangePassword replaces a role's shared secret after checking the current one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Role == "" {
		req.Role = enum.RoleManager
	}
	if !enum.IsValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}
	if len(req.NewPassword) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "new_password must be at least 8 characters"})
		return
	}

	if err := h.verify(r.Context(), req.Role, req.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "current password is incorrect"})
			return
		}
		zap.S().Errorw("change password: verify", "role", req.Role, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		zap.S().Errorw("change password: hash", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if _, err := h.store.UpsertStaffCredential(r.Context(), database.UpsertStaffCredentialParams{
		Role:         req.Role,
		PasswordHash: hash,
	}); err != nil {
		zap.S().Errorw("change password: store", "role", req.Role, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// verify returns auth.ErrInvalidCredentials for an unknown role or a wrong password.
func (h *AuthHandler) verify(ctx context.Context, role, password string) error {
	cred, err := h.store.GetStaffCredential(ctx, role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.ErrInvalidCredentials
		}
		return err
	}
	return auth.CheckPassword(cred.PasswordHash, password)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("encode JSON response", "error", err)
	}
}
