package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/azad-pos/api/internal/database"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

const topItemsLimit = 5

// ReportsStore defines the database methods needed by report handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ReportsStore interface {
	GetOrderSummary(ctx context.Context, arg database.GetOrderSummaryParams) (database.GetOrderSummaryRow, error)
	GetTopItems(ctx context.Context, arg database.GetTopItemsParams) ([]database.GetTopItemsRow, error)
}

// ReportsHandler handles report endpoints.
type ReportsHandler struct {
	store ReportsStore
	loc   *time.Location
	now   func() time.Time
}

// NewReportsHandler creates a new ReportsHandler. Days are cut at midnight in loc.
func NewReportsHandler(store ReportsStore, loc *time.Location) *ReportsHandler {
	return &ReportsHandler{store: store, loc: loc, now: time.Now}
}

// RegisterRoutes registers report endpoints: /reports
// Expected behind RequireRole(MANAGER).
func (h *ReportsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/today", h.Today)
	r.Get("/summary", h.Summary)
}

// --- Response types ---

type topItemResponse struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
}

type summaryResponse struct {
	StartDate      string            `json:"start_date"`
	EndDate        string            `json:"end_date"`
	OrderCount     int64             `json:"order_count"`
	ActiveCount    int64             `json:"active_count"`
	CompletedCount int64             `json:"completed_count"`
	CancelledCount int64             `json:"cancelled_count"`
	Revenue        string            `json:"revenue"`
	TopItem        *topItemResponse  `json:"top_item"`
	TopItems       []topItemResponse `json:"top_items"`
}

// --- Handlers ---

// Today handles GET /reports/today: counts, revenue of completed and paid
// orders, and the best sellers since local midnight.
func (h *ReportsHandler) Today(w http.ResponseWriter, r *http.Request) {
	start := midnight(h.now().In(h.loc))
	h.writeSummary(w, r, start, start.AddDate(0, 0, 1))
}

// Summary handles GET /reports/summary?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	start, end, err := h.parseDateRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.writeSummary(w, r, start, end)
}

func (h *ReportsHandler) writeSummary(w http.ResponseWriter, r *http.Request, start, end time.Time) {
	from := pgtype.Timestamptz{Time: start, Valid: true}
	to := pgtype.Timestamptz{Time: end, Valid: true}

	summary, err := h.store.GetOrderSummary(r.Context(), database.GetOrderSummaryParams{From: from, To: to})
	if err != nil {
		zap.S().Errorw("get order summary", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	rows, err := h.store.GetTopItems(r.Context(), database.GetTopItemsParams{From: from, To: to, Limit: topItemsLimit})
	if err != nil {
		zap.S().Errorw("get top items", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	top := make([]topItemResponse, len(rows))
	for i, row := range rows {
		top[i] = topItemResponse{MenuItemID: row.MenuItemID, Name: row.Name, Quantity: row.Quantity}
	}

	resp := summaryResponse{
		StartDate:      start.Format("2006-01-02"),
		EndDate:        end.AddDate(0, 0, -1).Format("2006-01-02"),
		OrderCount:     summary.OrderCount,
		ActiveCount:    summary.ActiveCount,
		CompletedCount: summary.CompletedCount,
		CancelledCount: summary.CancelledCount,
		Revenue:        database.NumericToDecimal(summary.Revenue).StringFixed(2),
		TopItems:       top,
	}
	if len(top) > 0 {
		resp.TopItem = &top[0]
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseDateRange parses start_date and end_date in the restaurant's timezone.
// Both default to today. The returned end is exclusive (next day midnight).
func (h *ReportsHandler) parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	today := midnight(h.now().In(h.loc))
	start, end := today, today

	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, h.loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date format: %w", err)
		}
		start = t
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.ParseInLocation(layout, s, h.loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date format: %w", err)
		}
		end = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date must not be before start_date")
	}
	return start, end.AddDate(0, 0, 1), nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
