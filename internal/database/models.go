package database

import (
	"github.com/azad-pos/api/internal/cart"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID               uuid.UUID          `json:"id"`
	OrderSeq         int32              `json:"order_seq"`
	OrderNumber      string             `json:"order_number"`
	OrderType        string             `json:"order_type"`
	TableNumber      pgtype.Text        `json:"table_number"`
	CustomerName     pgtype.Text        `json:"customer_name"`
	CustomerPhone    pgtype.Text        `json:"customer_phone"`
	Notes            pgtype.Text        `json:"notes"`
	Lines            []cart.Line        `json:"lines"`
	TotalAmount      pgtype.Numeric     `json:"total_amount"`
	Status           string             `json:"status"`
	PaymentMethod    string             `json:"payment_method"`
	PaymentStatus    string             `json:"payment_status"`
	PointsEarned     int64              `json:"points_earned"`
	LoyaltyAccountID string             `json:"loyalty_account_id"`
	Revision         int64              `json:"revision"`
	CreatedAt        pgtype.Timestamptz `json:"created_at"`
	UpdatedAt        pgtype.Timestamptz `json:"updated_at"`
}

type LoyaltyAccount struct {
	ID        string             `json:"id"`
	Points    int64              `json:"points"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type StaffCredential struct {
	Role         string             `json:"role"`
	PasswordHash string             `json:"password_hash"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}
