package service

import (
	"time"

	"github.com/azad-pos/api/internal/cart"
	"github.com/azad-pos/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// OrderView is the flat wire form of an order: RFC3339 timestamps and money
// as strings fixed to two decimal places.
type OrderView struct {
	ID               uuid.UUID  `json:"id"`
	OrderNumber      string     `json:"order_number"`
	OrderType        string     `json:"order_type"`
	TableNumber      *string    `json:"table_number"`
	CustomerName     *string    `json:"customer_name"`
	CustomerPhone    *string    `json:"customer_phone"`
	Notes            *string    `json:"notes"`
	Lines            []LineView `json:"lines"`
	TotalAmount      string     `json:"total_amount"`
	Status           string     `json:"status"`
	PaymentMethod    string     `json:"payment_method"`
	PaymentStatus    string     `json:"payment_status"`
	PointsEarned     int64      `json:"points_earned"`
	LoyaltyAccountID string     `json:"loyalty_account_id"`
	Revision         int64      `json:"revision"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// LineView is one frozen order line.
type LineView struct {
	Key        string         `json:"key"`
	MenuItemID int64          `json:"menu_item_id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	UnitPrice  string         `json:"unit_price"`
	Modifiers  []ModifierView `json:"modifiers"`
	Quantity   int            `json:"quantity"`
	LineTotal  string         `json:"line_total"`
}

// ModifierView is a selected add-on on a line.
type ModifierView struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ToView converts a database.Order to its wire form.
func ToView(o database.Order) OrderView {
	return OrderView{
		ID:               o.ID,
		OrderNumber:      o.OrderNumber,
		OrderType:        o.OrderType,
		TableNumber:      textPtr(o.TableNumber),
		CustomerName:     textPtr(o.CustomerName),
		CustomerPhone:    textPtr(o.CustomerPhone),
		Notes:            textPtr(o.Notes),
		Lines:            LineViews(o.Lines),
		TotalAmount:      database.NumericToDecimal(o.TotalAmount).StringFixed(2),
		Status:           o.Status,
		PaymentMethod:    o.PaymentMethod,
		PaymentStatus:    o.PaymentStatus,
		PointsEarned:     o.PointsEarned,
		LoyaltyAccountID: o.LoyaltyAccountID,
		Revision:         o.Revision,
		CreatedAt:        o.CreatedAt.Time,
		UpdatedAt:        o.UpdatedAt.Time,
	}
}

// LineViews converts frozen cart lines to their wire form.
func LineViews(lines []cart.Line) []LineView {
	out := make([]LineView, len(lines))
	for i, l := range lines {
		mods := make([]ModifierView, len(l.Modifiers))
		for j, m := range l.Modifiers {
			mods[j] = ModifierView{ID: m.ID, Name: m.Name, Price: m.Price.StringFixed(2)}
		}
		out[i] = LineView{
			Key:        l.Key,
			MenuItemID: l.MenuItemID,
			Name:       l.Name,
			Category:   l.Category,
			UnitPrice:  l.Price.StringFixed(2),
			Modifiers:  mods,
			Quantity:   l.Quantity,
			LineTotal:  l.Total().StringFixed(2),
		}
	}
	return out
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
