package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/azad-pos/api/internal/catalog"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/enum"
	"github.com/azad-pos/api/internal/service"
	"github.com/azad-pos/api/internal/split"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// OrderCreator is the one service method split checkout needs.
// Satisfied by *service.OrderService.
type OrderCreator interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*database.Order, error)
}

// SplitHandler runs bill splitting for a dine-in table before the order
// exists. Sessions live in memory until checkout or cancel.
type SplitHandler struct {
	registry *split.Registry
	orders   OrderCreator
	menu     catalog.Reader
}

// NewSplitHandler creates a new SplitHandler.
func NewSplitHandler(registry *split.Registry, orders OrderCreator, menu catalog.Reader) *SplitHandler {
	return &SplitHandler{registry: registry, orders: orders, menu: menu}
}

// RegisterRoutes registers split endpoints: /split-sessions
func (h *SplitHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{sid}", h.Get)
	r.Put("/{sid}/mode", h.SetMode)
	r.Post("/{sid}/settle", h.Settle)
	r.Post("/{sid}/checkout", h.Checkout)
	r.Delete("/{sid}", h.Discard)
}

// --- Request / Response types ---

type createSplitRequest struct {
	OrderType   string        `json:"order_type"`
	TableNumber string        `json:"table_number"`
	Items       []lineRequest `json:"items"`
}

type setModeRequest struct {
	Mode       string `json:"mode"`
	PartyCount int    `json:"party_count"`
}

type settleRequest struct {
	Keys []string `json:"keys"`
}

type checkoutRequest struct {
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	Notes            string `json:"notes"`
	PaymentMethod    string `json:"payment_method"`
	LoyaltyAccountID string `json:"loyalty_account_id"`
}

type splitSessionResponse struct {
	ID          uuid.UUID          `json:"id"`
	OrderType   string             `json:"order_type"`
	TableNumber string             `json:"table_number"`
	Mode        string             `json:"mode"`
	PartyCount  int                `json:"party_count,omitempty"`
	Lines       []service.LineView `json:"lines"`
	SettledKeys []string           `json:"settled_keys"`
	Total       string             `json:"total"`
	Remaining   string             `json:"remaining"`
	AllSettled  bool               `json:"all_settled"`
	CreatedAt   time.Time          `json:"created_at"`
}

type settlementResponse struct {
	Keys       []string             `json:"keys"`
	Amount     string               `json:"amount"`
	Share      string               `json:"share"`
	PartyCount int                  `json:"party_count,omitempty"`
	Session    splitSessionResponse `json:"session"`
}

// --- Handlers ---

// Create handles POST /split-sessions.
func (h *SplitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.OrderType == "" {
		req.OrderType = enum.OrderTypeDineIn
	}

	lines, err := buildLines(r.Context(), h.menu, req.Items)
	if err != nil {
		writeServiceError(w, "create split: build lines", err)
		return
	}

	s, err := h.registry.Create(req.OrderType, req.TableNumber, lines)
	if err != nil {
		writeServiceError(w, "create split", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSplitResponse(s.Snapshot()))
}

// Get handles GET /split-sessions/{sid}.
func (h *SplitHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSplitResponse(s.Snapshot()))
}

// SetMode handles PUT /split-sessions/{sid}/mode.
func (h *SplitHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.SetMode(req.Mode, req.PartyCount); err != nil {
		writeServiceError(w, "set split mode", err)
		return
	}
	writeJSON(w, http.StatusOK, toSplitResponse(s.Snapshot()))
}

// Settle handles POST /split-sessions/{sid}/settle.
func (h *SplitHandler) Settle(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	st, err := s.Settle(req.Keys)
	if err != nil {
		writeServiceError(w, "settle split", err)
		return
	}

	writeJSON(w, http.StatusOK, settlementResponse{
		Keys:       st.Keys,
		Amount:     st.Amount.StringFixed(2),
		Share:      st.Share.StringFixed(2),
		PartyCount: st.PartyCount,
		Session:    toSplitResponse(s.Snapshot()),
	})
}

// Checkout handles POST /split-sessions/{sid}/checkout. It is refused until
// every line is paid and while another checkout of the session is running;
// the order is then created as PAID and the session closed.
func (h *SplitHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := s.BeginCheckout(); err != nil {
		writeServiceError(w, "split checkout", err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderRequest{
		OrderType:        s.OrderType,
		TableNumber:      s.TableNumber,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		Notes:            req.Notes,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    enum.PaymentStatusPaid,
		LoyaltyAccountID: req.LoyaltyAccountID,
		Lines:            s.Lines(),
	})
	if err != nil {
		s.AbortCheckout()
		writeServiceError(w, "split checkout", err)
		return
	}

	h.registry.Discard(s.ID)
	writeJSON(w, http.StatusCreated, service.ToView(*order))
}

// Discard handles DELETE /split-sessions/{sid}: the table cancelled checkout.
func (h *SplitHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return
	}
	if !h.registry.Discard(id) {
		writeServiceError(w, "discard split", split.ErrSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

func (h *SplitHandler) session(w http.ResponseWriter, r *http.Request) (*split.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session ID"})
		return nil, false
	}
	s, err := h.registry.Get(id)
	if err != nil {
		writeServiceError(w, "get split", err)
		return nil, false
	}
	return s, true
}

func toSplitResponse(snap split.Snapshot) splitSessionResponse {
	return splitSessionResponse{
		ID:          snap.ID,
		OrderType:   snap.OrderType,
		TableNumber: snap.TableNumber,
		Mode:        snap.Mode,
		PartyCount:  snap.PartyCount,
		Lines:       service.LineViews(snap.Lines),
		SettledKeys: snap.SettledKeys,
		Total:       snap.Total.StringFixed(2),
		Remaining:   snap.Remaining.StringFixed(2),
		AllSettled:  snap.AllSettled,
		CreatedAt:   snap.CreatedAt,
	}
}
