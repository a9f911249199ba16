package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/azad-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// LoyaltyStore defines the database methods needed by loyalty handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type LoyaltyStore interface {
	GetLoyaltyAccount(ctx context.Context, id string) (database.LoyaltyAccount, error)
}

// LoyaltyHandler serves point balances.
type LoyaltyHandler struct {
	store LoyaltyStore
}

// NewLoyaltyHandler creates a new LoyaltyHandler.
func NewLoyaltyHandler(store LoyaltyStore) *LoyaltyHandler {
	return &LoyaltyHandler{store: store}
}

// RegisterRoutes registers loyalty endpoints: /loyalty
func (h *LoyaltyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{account}", h.Get)
}

type loyaltyResponse struct {
	AccountID string `json:"account_id"`
	Points    int64  `json:"points"`
}

// Get handles GET /loyalty/{account}. An account that has never ordered
// has zero points rather than being an error.
func (h *LoyaltyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "account")

	acct, err := h.store.GetLoyaltyAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusOK, loyaltyResponse{AccountID: id})
			return
		}
		zap.S().Errorw("get loyalty account", "account_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, loyaltyResponse{AccountID: acct.ID, Points: acct.Points})
}
