package database

import (
	"context"

	"github.com/azad-pos/api/internal/cart"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, order_seq, order_number, order_type, table_number, customer_name, customer_phone,
    notes, lines, total_amount, status, payment_method, payment_status, points_earned,
    loyalty_account_id, revision, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var i Order
	err := row.Scan(
		&i.ID,
		&i.OrderSeq,
		&i.OrderNumber,
		&i.OrderType,
		&i.TableNumber,
		&i.CustomerName,
		&i.CustomerPhone,
		&i.Notes,
		&i.Lines,
		&i.TotalAmount,
		&i.Status,
		&i.PaymentMethod,
		&i.PaymentStatus,
		&i.PointsEarned,
		&i.LoyaltyAccountID,
		&i.Revision,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getNextOrderNumber = `-- name: GetNextOrderNumber :one
SELECT (COALESCE(MAX(order_seq), 0) + 1)::int FROM orders
`

func (q *Queries) GetNextOrderNumber(ctx context.Context) (int32, error) {
	row := q.db.QueryRow(ctx, getNextOrderNumber)
	var next int32
	err := row.Scan(&next)
	return next, err
}

const createOrder = `-- name: CreateOrder :one
INSERT INTO orders (
    id, order_seq, order_number, order_type, table_number, customer_name, customer_phone,
    notes, lines, total_amount, status, payment_method, payment_status, points_earned,
    loyalty_account_id
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)
RETURNING ` + orderColumns

type CreateOrderParams struct {
	ID               uuid.UUID      `json:"id"`
	OrderSeq         int32          `json:"order_seq"`
	OrderNumber      string         `json:"order_number"`
	OrderType        string         `json:"order_type"`
	TableNumber      pgtype.Text    `json:"table_number"`
	CustomerName     pgtype.Text    `json:"customer_name"`
	CustomerPhone    pgtype.Text    `json:"customer_phone"`
	Notes            pgtype.Text    `json:"notes"`
	Lines            []cart.Line    `json:"lines"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
	Status           string         `json:"status"`
	PaymentMethod    string         `json:"payment_method"`
	PaymentStatus    string         `json:"payment_status"`
	PointsEarned     int64          `json:"points_earned"`
	LoyaltyAccountID string         `json:"loyalty_account_id"`
}

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.ID,
		arg.OrderSeq,
		arg.OrderNumber,
		arg.OrderType,
		arg.TableNumber,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.Notes,
		arg.Lines,
		arg.TotalAmount,
		arg.Status,
		arg.PaymentMethod,
		arg.PaymentStatus,
		arg.PointsEarned,
		arg.LoyaltyAccountID,
	)
	return scanOrder(row)
}

const getOrder = `-- name: GetOrder :one
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, getOrder, id)
	return scanOrder(row)
}

const listOrders = `-- name: ListOrders :many
SELECT ` + orderColumns + `
FROM orders
WHERE ($1::text IS NULL OR status = $1)
  AND ($2::text IS NULL OR order_type = $2)
  AND ($3::text IS NULL
       OR id::text ILIKE $3 ESCAPE '\'
       OR order_number ILIKE $3 ESCAPE '\'
       OR customer_name ILIKE $3 ESCAPE '\'
       OR customer_phone ILIKE $3 ESCAPE '\'
       OR table_number ILIKE $3 ESCAPE '\')
  AND ($6::boolean IS NULL OR $6 = (status NOT IN ('COMPLETED', 'CANCELLED')))
ORDER BY
  CASE WHEN $6::boolean IS TRUE THEN created_at END ASC,
  created_at DESC
LIMIT $4 OFFSET $5
`

type ListOrdersParams struct {
	Status    pgtype.Text `json:"status"`
	OrderType pgtype.Text `json:"order_type"`
	// Search is an ILIKE pattern; build it with Contains.
	Search    pgtype.Text `json:"search"`
	Limit     int32       `json:"limit"`
	Offset    int32       `json:"offset"`
	// Active true keeps in-flight orders, oldest first; false keeps
	// finished ones.
	Active pgtype.Bool `json:"active"`
}

func (q *Queries) ListOrders(ctx context.Context, arg ListOrdersParams) ([]Order, error) {
	rows, err := q.db.Query(ctx, listOrders,
		arg.Status,
		arg.OrderType,
		arg.Search,
		arg.Limit,
		arg.Offset,
		arg.Active,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Order{}
	for rows.Next() {
		i, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateOrder writes the whole mutable state of an order, guarded by the
// revision the caller read. A stale revision matches no row and surfaces as
// pgx.ErrNoRows.
const updateOrder = `-- name: UpdateOrder :one
UPDATE orders
SET status         = $3,
    payment_status = $4,
    customer_name  = $5,
    customer_phone = $6,
    notes          = $7,
    lines          = $8,
    total_amount   = $9,
    points_earned  = $10,
    revision       = revision + 1,
    updated_at     = now()
WHERE id = $1 AND revision = $2
RETURNING ` + orderColumns

type UpdateOrderParams struct {
	ID            uuid.UUID      `json:"id"`
	Revision      int64          `json:"revision"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"payment_status"`
	CustomerName  pgtype.Text    `json:"customer_name"`
	CustomerPhone pgtype.Text    `json:"customer_phone"`
	Notes         pgtype.Text    `json:"notes"`
	Lines         []cart.Line    `json:"lines"`
	TotalAmount   pgtype.Numeric `json:"total_amount"`
	PointsEarned  int64          `json:"points_earned"`
}

func (q *Queries) UpdateOrder(ctx context.Context, arg UpdateOrderParams) (Order, error) {
	row := q.db.QueryRow(ctx, updateOrder,
		arg.ID,
		arg.Revision,
		arg.Status,
		arg.PaymentStatus,
		arg.CustomerName,
		arg.CustomerPhone,
		arg.Notes,
		arg.Lines,
		arg.TotalAmount,
		arg.PointsEarned,
	)
	return scanOrder(row)
}
