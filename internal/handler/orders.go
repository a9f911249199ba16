package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/azad-pos/api/internal/cart"
	"github.com/azad-pos/api/internal/catalog"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/middleware"
	"github.com/azad-pos/api/internal/policy"
	"github.com/azad-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*database.Order, error)
	ListOrders(ctx context.Context, f service.ListOrdersFilter) ([]database.Order, error)
	TransitionStatus(ctx context.Context, req service.TransitionRequest) (*database.Order, error)
	MergeAdditionalItems(ctx context.Context, orderID uuid.UUID, lines []cart.Line) (*database.Order, error)
	EditDetails(ctx context.Context, req service.EditDetailsRequest) (*database.Order, error)
	Cancel(ctx context.Context, orderID uuid.UUID, role string) (*database.Order, error)
	Refund(ctx context.Context, orderID uuid.UUID, role string) (*database.Order, error)
}

// TicketRequester queues a kitchen ticket reprint.
// Satisfied by *queue.Publisher.
type TicketRequester interface {
	RequestTicket(ctx context.Context, order service.OrderView) error
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc     OrderServicer
	menu    catalog.Reader
	tickets TicketRequester
}

// NewOrderHandler creates a new OrderHandler. tickets may be nil when no
// printer queue is configured.
func NewOrderHandler(svc OrderServicer, menu catalog.Reader, tickets TicketRequester) *OrderHandler {
	return &OrderHandler{svc: svc, menu: menu, tickets: tickets}
}

// RegisterPublicRoutes registers the customer endpoints: /orders
func (h *OrderHandler) RegisterPublicRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/items", h.AddItems)
}

// RegisterStaffRoutes registers endpoints that must sit behind Authenticate.
func (h *OrderHandler) RegisterStaffRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}/actions", h.Actions)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}", h.UpdateDetails)
	r.Post("/{id}/cancel", h.Cancel)
	r.Post("/{id}/refund", h.Refund)
	r.Post("/{id}/print", h.Print)
}

// --- Request / Response types ---

type createOrderRequest struct {
	OrderType        string        `json:"order_type"`
	TableNumber      string        `json:"table_number"`
	CustomerName     string        `json:"customer_name"`
	CustomerPhone    string        `json:"customer_phone"`
	Notes            string        `json:"notes"`
	PaymentMethod    string        `json:"payment_method"`
	LoyaltyAccountID string        `json:"loyalty_account_id"`
	Items            []lineRequest `json:"items"`
}

type addItemsRequest struct {
	Items []lineRequest `json:"items"`
}

type updateStatusRequest struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type updateDetailsRequest struct {
	CustomerName  *string `json:"customer_name"`
	CustomerPhone *string `json:"customer_phone"`
	Notes         *string `json:"notes"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []service.OrderView `json:"orders"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

type actionsResponse struct {
	Role    string          `json:"role"`
	Actions []policy.Action `json:"actions"`
}

// --- Public handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines, err := buildLines(r.Context(), h.menu, req.Items)
	if err != nil {
		writeServiceError(w, "create order: build lines", err)
		return
	}

	order, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		OrderType:        req.OrderType,
		TableNumber:      req.TableNumber,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		Notes:            req.Notes,
		PaymentMethod:    req.PaymentMethod,
		LoyaltyAccountID: req.LoyaltyAccountID,
		Lines:            lines,
	})
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	writeJSON(w, http.StatusCreated, service.ToView(*order))
}

// Get handles GET /orders/{id}. Customers poll it for status.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get order", err)
		return
	}

	writeJSON(w, http.StatusOK, service.ToView(*order))
}

// AddItems handles POST /orders/{id}/items.
func (h *OrderHandler) AddItems(w http.ResponseWriter, r *http.Request) {
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req addItemsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines, err := buildLines(r.Context(), h.menu, req.Items)
	if err != nil {
		writeServiceError(w, "add items: build lines", err)
		return
	}

	order, err := h.svc.MergeAdditionalItems(r.Context(), id, lines)
	if err != nil {
		writeServiceError(w, "add items", err)
		return
	}

	writeJSON(w, http.StatusOK, service.ToView(*order))
}

// --- Staff handlers ---

// List handles GET /orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 50
	if s := q.Get("limit"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > 100 {
		limit = 100
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			offset = v
		}
	}

	f := service.ListOrdersFilter{
		Status:    q.Get("status"),
		OrderType: q.Get("type"),
		Search:    q.Get("q"),
		Limit:     int32(limit),
		Offset:    int32(offset),
	}
	switch q.Get("view") {
	case "":
	case "active":
		active := true
		f.Active = &active
	case "completed":
		active := false
		f.Active = &active
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "view must be active or completed"})
		return
	}

	orders, err := h.svc.ListOrders(r.Context(), f)
	if err != nil {
		writeServiceError(w, "list orders", err)
		return
	}

	views := make([]service.OrderView, len(orders))
	for i, o := range orders {
		views[i] = service.ToView(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: views, Limit: limit, Offset: offset})
}

// Actions handles GET /orders/{id}/actions: what the caller's role may do
// to this order right now.
func (h *OrderHandler) Actions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, "order actions", err)
		return
	}

	writeJSON(w, http.StatusOK, actionsResponse{
		Role:    claims.Role,
		Actions: policy.Permitted(claims.Role, order.Status, order.PaymentStatus),
	})
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	order, err := h.svc.TransitionStatus(r.Context(), service.TransitionRequest{
		OrderID:       id,
		Role:          claims.Role,
		Status:        req.Status,
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		writeServiceError(w, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, service.ToView(*order))
}

// UpdateDetails handles PATCH /orders/{id}.
func (h *OrderHandler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	var req updateDetailsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.svc.EditDetails(r.Context(), service.EditDetailsRequest{
		OrderID:       id,
		Role:          claims.Role,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
	})
	if err != nil {
		writeServiceError(w, "update order details", err)
		return
	}

	writeJSON(w, http.StatusOK, service.ToView(*order))
}

// Cancel handles POST /orders/{id}/cancel.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.terminal(w, r, "cancel order", h.svc.Cancel)
}

// Refund handles POST /orders/{id}/refund.
func (h *OrderHandler) Refund(w http.ResponseWriter, r *http.Request) {
	h.terminal(w, r, "refund order", h.svc.Refund)
}

func (h *OrderHandler) terminal(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, uuid.UUID, string) (*database.Order, error)) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := fn(r.Context(), id, claims.Role)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	writeJSON(w, http.StatusOK, service.ToView(*order))
}

// Print handles POST /orders/{id}/print: a kitchen ticket reprint.
func (h *OrderHandler) Print(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	id, ok := parseOrderID(w, r)
	if !ok {
		return
	}

	order, err := h.svc.GetOrder(r.Context(), id)
	if err != nil {
		writeServiceError(w, "print order", err)
		return
	}
	if !policy.Allows(claims.Role, policy.ActionPrint, order.Status, order.PaymentStatus) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "role may not print tickets"})
		return
	}
	if h.tickets == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "printer queue is not configured"})
		return
	}

	if err := h.tickets.RequestTicket(r.Context(), service.ToView(*order)); err != nil {
		zap.S().Errorw("request ticket", "order_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "printer queue unavailable"})
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// --- Helpers ---

func parseOrderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return uuid.Nil, false
	}
	return id, true
}

// writeServiceError maps an error kind to its HTTP status. Errors without a
// kind are infrastructure failures: logged, and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status := http.StatusInternalServerError
	switch apperr.Kind(err) {
	case apperr.ErrValidation:
		status = http.StatusBadRequest
	case apperr.ErrNotFound:
		status = http.StatusNotFound
	case apperr.ErrInvalidTransition:
		status = http.StatusConflict
		if errors.Is(err, service.ErrRoleNotPermitted) {
			status = http.StatusForbidden
		}
	case apperr.ErrInvalidState, apperr.ErrConflict:
		status = http.StatusConflict
	default:
		zap.S().Errorw(op, "error", err)
		writeJSON(w, status, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
