package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/azad-pos/api/internal/cart"
	"github.com/azad-pos/api/internal/catalog"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/enum"
	"github.com/azad-pos/api/internal/handler"
	"github.com/azad-pos/api/internal/middleware"
	"github.com/azad-pos/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mock OrderServicer ---

type mockOrderService struct {
	createFn     func(ctx context.Context, req service.CreateOrderRequest) (*database.Order, error)
	getFn        func(ctx context.Context, id uuid.UUID) (*database.Order, error)
	listFn       func(ctx context.Context, f service.ListOrdersFilter) ([]database.Order, error)
	transitionFn func(ctx context.Context, req service.TransitionRequest) (*database.Order, error)
	mergeFn      func(ctx context.Context, id uuid.UUID, lines []cart.Line) (*database.Order, error)
	editFn       func(ctx context.Context, req service.EditDetailsRequest) (*database.Order, error)
	cancelFn     func(ctx context.Context, id uuid.UUID, role string) (*database.Order, error)
	refundFn     func(ctx context.Context, id uuid.UUID, role string) (*database.Order, error)
}

func (m *mockOrderService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*database.Order, error) {
	return m.createFn(ctx, req)
}

func (m *mockOrderService) GetOrder(ctx context.Context, id uuid.UUID) (*database.Order, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, service.ErrOrderNotFound
}

func (m *mockOrderService) ListOrders(ctx context.Context, f service.ListOrdersFilter) ([]database.Order, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return []database.Order{}, nil
}

func (m *mockOrderService) TransitionStatus(ctx context.Context, req service.TransitionRequest) (*database.Order, error) {
	return m.transitionFn(ctx, req)
}

func (m *mockOrderService) MergeAdditionalItems(ctx context.Context, id uuid.UUID, lines []cart.Line) (*database.Order, error) {
	return m.mergeFn(ctx, id, lines)
}

func (m *mockOrderService) EditDetails(ctx context.Context, req service.EditDetailsRequest) (*database.Order, error) {
	return m.editFn(ctx, req)
}

func (m *mockOrderService) Cancel(ctx context.Context, id uuid.UUID, role string) (*database.Order, error) {
	return m.cancelFn(ctx, id, role)
}

func (m *mockOrderService) Refund(ctx context.Context, id uuid.UUID, role string) (*database.Order, error) {
	return m.refundFn(ctx, id, role)
}

// --- Mock catalog ---

type mockMenu struct {
	items []catalog.MenuItem
	err   error
}

func (m *mockMenu) ListMenuItems(_ context.Context) ([]catalog.MenuItem, error) {
	return m.items, m.err
}

func testMenu() *mockMenu {
	return &mockMenu{items: []catalog.MenuItem{
		{
			ID: 1, Name: "Nasi Goreng USA", Price: decimal.RequireFromString("12.00"), Category: "Main Courses", IsAvailable: true,
			Modifiers: []catalog.Modifier{
				{ID: 1001, Name: "Extra Sambal", Price: decimal.RequireFromString("1.50")},
				{ID: 2002, Name: "Telur Dadar (Omelette)", Price: decimal.RequireFromString("2.00")},
			},
		},
		{ID: 13, Name: "Teh Tarik", Price: decimal.RequireFromString("3.50"), Category: "Beverages", IsAvailable: true, IsFeatured: true},
		{ID: 6, Name: "Lamb Shank Biryani", Price: decimal.RequireFromString("28.00"), Category: "Main Courses"},
	}}
}

// --- Mock TicketRequester ---

type mockTickets struct {
	err      error
	requests []service.OrderView
}

func (m *mockTickets) RequestTicket(_ context.Context, order service.OrderView) error {
	if m.err != nil {
		return m.err
	}
	m.requests = append(m.requests, order)
	return nil
}

// --- Helpers ---

func testOrder(status, payment string) *database.Order {
	now := time.Date(2026, 3, 14, 4, 30, 0, 0, time.UTC)
	return &database.Order{
		ID:            uuid.New(),
		OrderSeq:      7,
		OrderNumber:   "AZD-007",
		OrderType:     enum.OrderTypeDineIn,
		TableNumber:   database.Text("5"),
		TotalAmount:   database.DecimalToNumeric(decimal.RequireFromString("15.50")),
		Status:        status,
		PaymentMethod: enum.PaymentMethodCash,
		PaymentStatus: payment,
		Revision:      1,
		CreatedAt:     pgtype.Timestamptz{Time: now, Valid: true},
		UpdatedAt:     pgtype.Timestamptz{Time: now, Valid: true},
	}
}

func newOrderRouter(svc handler.OrderServicer, tickets handler.TicketRequester) chi.Router {
	h := handler.NewOrderHandler(svc, testMenu(), tickets)
	r := chi.NewRouter()
	r.Route("/orders", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(testSecret))
			h.RegisterStaffRoutes(r)
		})
	})
	return r
}

// --- Create tests ---

func TestCreateOrder_PricesFromCatalog(t *testing.T) {
	var got service.CreateOrderRequest
	svc := &mockOrderService{
		createFn: func(_ context.Context, req service.CreateOrderRequest) (*database.Order, error) {
			got = req
			o := testOrder(enum.OrderStatusNew, enum.PaymentStatusPending)
			o.Lines = req.Lines
			o.TotalAmount = database.DecimalToNumeric(cart.Total(req.Lines))
			return o, nil
		},
	}
	r := newOrderRouter(svc, nil)

	rr := postJSON(t, r, "/orders", map[string]interface{}{
		"order_type":     "DINE_IN",
		"table_number":   "5",
		"payment_method": "CASH",
		"items": []map[string]interface{}{
			{"menu_item_id": 1, "modifier_ids": []int64{2002, 1001}, "quantity": 1},
			{"menu_item_id": 13},
			{"menu_item_id": 1, "modifier_ids": []int64{1001, 2002}},
		},
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}
	if len(got.Lines) != 2 {
		t.Fatalf("lines: got %d, want 2 (repeated selection collapses)", len(got.Lines))
	}
	if got.Lines[0].Key != "1-1001-2002" || got.Lines[0].Quantity != 2 {
		t.Errorf("first line: got %s x%d", got.Lines[0].Key, got.Lines[0].Quantity)
	}
	if got.Lines[1].Quantity != 1 {
		t.Errorf("missing quantity should default to 1, got %d", got.Lines[1].Quantity)
	}

	resp := decodeResponse(t, rr)
	if resp["total_amount"] != "34.50" {
		t.Errorf("total_amount: got %v, want 34.50", resp["total_amount"])
	}
	if resp["order_number"] != "AZD-007" {
		t.Errorf("order_number: got %v", resp["order_number"])
	}
}

func TestCreateOrder_Rejections(t *testing.T) {
	svc := &mockOrderService{
		createFn: func(_ context.Context, req service.CreateOrderRequest) (*database.Order, error) {
			if req.TableNumber == "" {
				return nil, service.ErrTableRequired
			}
			return testOrder(enum.OrderStatusNew, enum.PaymentStatusPending), nil
		},
	}
	r := newOrderRouter(svc, nil)

	tests := []struct {
		name string
		body map[string]interface{}
		want int
	}{
		{"unknown item", map[string]interface{}{"order_type": "DINE_IN", "table_number": "5", "items": []map[string]interface{}{{"menu_item_id": 99}}}, http.StatusBadRequest},
		{"unavailable item", map[string]interface{}{"order_type": "DINE_IN", "table_number": "5", "items": []map[string]interface{}{{"menu_item_id": 6}}}, http.StatusBadRequest},
		{"modifier not offered", map[string]interface{}{"order_type": "DINE_IN", "table_number": "5", "items": []map[string]interface{}{{"menu_item_id": 13, "modifier_ids": []int64{1001}}}}, http.StatusBadRequest},
		{"negative quantity", map[string]interface{}{"order_type": "DINE_IN", "table_number": "5", "items": []map[string]interface{}{{"menu_item_id": 13, "quantity": -1}}}, http.StatusBadRequest},
		{"service validation", map[string]interface{}{"order_type": "DINE_IN", "items": []map[string]interface{}{{"menu_item_id": 13}}}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, r, "/orders", tt.body)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d; body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestCreateOrder_CatalogUnavailable(t *testing.T) {
	h := handler.NewOrderHandler(&mockOrderService{}, &mockMenu{err: errors.New("connection refused")}, nil)
	r := chi.NewRouter()
	r.Route("/orders", h.RegisterPublicRoutes)

	rr := postJSON(t, r, "/orders", map[string]interface{}{
		"order_type": "TAKEAWAY", "customer_name": "Aisyah",
		"items": []map[string]interface{}{{"menu_item_id": 13}},
	})
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if resp := decodeResponse(t, rr); resp["error"] != "internal server error" {
		t.Errorf("infrastructure errors must not leak: got %v", resp["error"])
	}
}

// --- Get / AddItems tests ---

func TestGetOrder(t *testing.T) {
	order := testOrder(enum.OrderStatusPreparing, enum.PaymentStatusPending)
	svc := &mockOrderService{
		getFn: func(_ context.Context, id uuid.UUID) (*database.Order, error) {
			if id != order.ID {
				return nil, service.ErrOrderNotFound
			}
			return order, nil
		},
	}
	r := newOrderRouter(svc, nil)

	rr := doJSON(t, r, "GET", "/orders/"+order.ID.String(), nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if resp["status"] != "PREPARING" || resp["table_number"] != "5" {
		t.Errorf("unexpected body: %v", resp)
	}

	rr = doJSON(t, r, "GET", "/orders/"+uuid.NewString(), nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing order: got %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr = doJSON(t, r, "GET", "/orders/not-a-uuid", nil, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestAddItems(t *testing.T) {
	order := testOrder(enum.OrderStatusPreparing, enum.PaymentStatusPending)
	var merged []cart.Line
	svc := &mockOrderService{
		mergeFn: func(_ context.Context, id uuid.UUID, lines []cart.Line) (*database.Order, error) {
			if id != order.ID {
				t.Errorf("order id: got %s", id)
			}
			merged = lines
			return order, nil
		},
	}
	r := newOrderRouter(svc, nil)

	rr := postJSON(t, r, "/orders/"+order.ID.String()+"/items", map[string]interface{}{
		"items": []map[string]interface{}{{"menu_item_id": 13, "quantity": 3}},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if len(merged) != 1 || merged[0].Quantity != 3 || merged[0].Key != "13" {
		t.Errorf("merged lines: %+v", merged)
	}
}

func TestAddItems_FinalizedOrder(t *testing.T) {
	svc := &mockOrderService{
		mergeFn: func(context.Context, uuid.UUID, []cart.Line) (*database.Order, error) {
			return nil, service.ErrOrderFinalized
		},
	}
	r := newOrderRouter(svc, nil)

	rr := postJSON(t, r, "/orders/"+uuid.NewString()+"/items", map[string]interface{}{
		"items": []map[string]interface{}{{"menu_item_id": 13}},
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusConflict)
	}
}

// --- Staff route tests ---

func TestStaffRoutes_RequireToken(t *testing.T) {
	r := newOrderRouter(&mockOrderService{}, nil)
	id := uuid.NewString()

	routes := []struct{ method, path string }{
		{"GET", "/orders"},
		{"GET", "/orders/" + id + "/actions"},
		{"PATCH", "/orders/" + id + "/status"},
		{"PATCH", "/orders/" + id},
		{"POST", "/orders/" + id + "/cancel"},
		{"POST", "/orders/" + id + "/refund"},
		{"POST", "/orders/" + id + "/print"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rr := doJSON(t, r, rt.method, rt.path, map[string]string{}, "")
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestListOrders_Query(t *testing.T) {
	var got service.ListOrdersFilter
	svc := &mockOrderService{
		listFn: func(_ context.Context, f service.ListOrdersFilter) ([]database.Order, error) {
			got = f
			return []database.Order{*testOrder(enum.OrderStatusNew, enum.PaymentStatusPending)}, nil
		},
	}
	r := newOrderRouter(svc, nil)
	token := tokenFor(t, enum.RoleKitchen)

	rr := doJSON(t, r, "GET", "/orders?status=NEW&type=DINE_IN&q=aisyah&limit=500&offset=10&view=active", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got.Status != "NEW" || got.OrderType != "DINE_IN" || got.Search != "aisyah" {
		t.Errorf("filter: %+v", got)
	}
	if got.Limit != 100 || got.Offset != 10 {
		t.Errorf("paging: limit %d offset %d, want 100 10", got.Limit, got.Offset)
	}
	if got.Active == nil || !*got.Active {
		t.Error("view=active should set Active=true")
	}

	resp := decodeResponse(t, rr)
	if orders, ok := resp["orders"].([]interface{}); !ok || len(orders) != 1 {
		t.Errorf("orders: %v", resp["orders"])
	}

	rr = doJSON(t, r, "GET", "/orders?view=completed", nil, token)
	if rr.Code != http.StatusOK || got.Active == nil || *got.Active {
		t.Errorf("view=completed: status %d, active %v", rr.Code, got.Active)
	}
	if got.Limit != 50 {
		t.Errorf("default limit: got %d, want 50", got.Limit)
	}

	rr = doJSON(t, r, "GET", "/orders?view=archived", nil, token)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad view: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestOrderActions(t *testing.T) {
	order := testOrder(enum.OrderStatusReady, enum.PaymentStatusPending)
	svc := &mockOrderService{
		getFn: func(context.Context, uuid.UUID) (*database.Order, error) { return order, nil },
	}
	r := newOrderRouter(svc, nil)

	rr := doJSON(t, r, "GET", "/orders/"+order.ID.String()+"/actions", nil, tokenFor(t, enum.RoleCashier))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	actions, _ := resp["actions"].([]interface{})
	if len(actions) != 1 || actions[0] != "COMPLETE" {
		t.Errorf("cashier actions on READY: got %v, want [COMPLETE]", actions)
	}
}

func TestUpdateStatus_PassesRole(t *testing.T) {
	order := testOrder(enum.OrderStatusNew, enum.PaymentStatusPending)
	var got service.TransitionRequest
	svc := &mockOrderService{
		transitionFn: func(_ context.Context, req service.TransitionRequest) (*database.Order, error) {
			got = req
			o := *order
			o.Status = req.Status
			return &o, nil
		},
	}
	r := newOrderRouter(svc, nil)

	rr := doJSON(t, r, "PATCH", "/orders/"+order.ID.String()+"/status",
		map[string]string{"status": "PREPARING"}, tokenFor(t, enum.RoleKitchen))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	if got.Role != enum.RoleKitchen || got.Status != "PREPARING" || got.OrderID != order.ID {
		t.Errorf("transition request: %+v", got)
	}

	rr = doJSON(t, r, "PATCH", "/orders/"+order.ID.String()+"/status", map[string]string{}, tokenFor(t, enum.RoleKitchen))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUpdateStatus_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", service.ErrInvalidStatus, http.StatusBadRequest},
		{"not found", service.ErrOrderNotFound, http.StatusNotFound},
		{"illegal transition", fmt.Errorf("NEW → READY: %w", apperr.ErrInvalidTransition), http.StatusConflict},
		{"role not permitted", fmt.Errorf("KITCHEN may not complete: %w", service.ErrRoleNotPermitted), http.StatusForbidden},
		{"finalized", service.ErrOrderFinalized, http.StatusConflict},
		{"already paid", service.ErrOrderPaid, http.StatusConflict},
		{"stale revision", service.ErrStaleOrder, http.StatusConflict},
		{"infrastructure", errors.New("connection reset by peer"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{
				transitionFn: func(context.Context, service.TransitionRequest) (*database.Order, error) {
					return nil, tt.err
				},
			}
			r := newOrderRouter(svc, nil)

			rr := doJSON(t, r, "PATCH", "/orders/"+uuid.NewString()+"/status",
				map[string]string{"status": "COMPLETED"}, tokenFor(t, enum.RoleKitchen))
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestUpdateDetails_PartialFields(t *testing.T) {
	order := testOrder(enum.OrderStatusNew, enum.PaymentStatusPending)
	var got service.EditDetailsRequest
	svc := &mockOrderService{
		editFn: func(_ context.Context, req service.EditDetailsRequest) (*database.Order, error) {
			got = req
			return order, nil
		},
	}
	r := newOrderRouter(svc, nil)

	rr := doJSON(t, r, "PATCH", "/orders/"+order.ID.String(),
		map[string]string{"notes": "less spicy"}, tokenFor(t, enum.RoleManager))
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got.Notes == nil || *got.Notes != "less spicy" {
		t.Errorf("notes: got %v", got.Notes)
	}
	if got.CustomerName != nil || got.CustomerPhone != nil {
		t.Error("omitted fields must stay nil")
	}
	if got.Role != enum.RoleManager {
		t.Errorf("role: got %s", got.Role)
	}
}

func TestCancelAndRefund(t *testing.T) {
	order := testOrder(enum.OrderStatusCompleted, enum.PaymentStatusPaid)
	var calls []string
	svc := &mockOrderService{
		cancelFn: func(_ context.Context, _ uuid.UUID, role string) (*database.Order, error) {
			calls = append(calls, "cancel:"+role)
			return nil, service.ErrOrderFinalized
		},
		refundFn: func(_ context.Context, _ uuid.UUID, role string) (*database.Order, error) {
			calls = append(calls, "refund:"+role)
			o := *order
			o.PaymentStatus = enum.PaymentStatusRefunded
			return &o, nil
		},
	}
	r := newOrderRouter(svc, nil)
	token := tokenFor(t, enum.RoleManager)

	rr := doJSON(t, r, "POST", "/orders/"+order.ID.String()+"/cancel", nil, token)
	if rr.Code != http.StatusConflict {
		t.Errorf("cancel completed: got %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = doJSON(t, r, "POST", "/orders/"+order.ID.String()+"/refund", nil, token)
	if rr.Code != http.StatusOK {
		t.Fatalf("refund: got %d, want %d", rr.Code, http.StatusOK)
	}
	if resp := decodeResponse(t, rr); resp["payment_status"] != "REFUNDED" {
		t.Errorf("payment_status: got %v", resp["payment_status"])
	}
	if len(calls) != 2 || calls[0] != "cancel:MANAGER" || calls[1] != "refund:MANAGER" {
		t.Errorf("calls: %v", calls)
	}
}

// --- Print tests ---

func TestPrint(t *testing.T) {
	order := testOrder(enum.OrderStatusPreparing, enum.PaymentStatusPending)
	svc := &mockOrderService{
		getFn: func(context.Context, uuid.UUID) (*database.Order, error) { return order, nil },
	}
	path := "/orders/" + order.ID.String() + "/print"

	t.Run("queued", func(t *testing.T) {
		tickets := &mockTickets{}
		rr := doJSON(t, newOrderRouter(svc, tickets), "POST", path, nil, tokenFor(t, enum.RoleKitchen))
		if rr.Code != http.StatusAccepted {
			t.Fatalf("status: got %d, want %d", rr.Code, http.StatusAccepted)
		}
		if len(tickets.requests) != 1 || tickets.requests[0].OrderNumber != "AZD-007" {
			t.Errorf("requests: %+v", tickets.requests)
		}
	})

	t.Run("cashier may not print", func(t *testing.T) {
		tickets := &mockTickets{}
		rr := doJSON(t, newOrderRouter(svc, tickets), "POST", path, nil, tokenFor(t, enum.RoleCashier))
		if rr.Code != http.StatusForbidden {
			t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
		}
		if len(tickets.requests) != 0 {
			t.Error("ticket queued for a role without print")
		}
	})

	t.Run("no queue configured", func(t *testing.T) {
		rr := doJSON(t, newOrderRouter(svc, nil), "POST", path, nil, tokenFor(t, enum.RoleManager))
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status: got %d, want %d", rr.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("queue failure", func(t *testing.T) {
		tickets := &mockTickets{err: errors.New("channel closed")}
		rr := doJSON(t, newOrderRouter(svc, tickets), "POST", path, nil, tokenFor(t, enum.RoleManager))
		if rr.Code != http.StatusBadGateway {
			t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadGateway)
		}
	})
}
