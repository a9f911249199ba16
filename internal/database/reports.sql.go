package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const getOrderSummary = `-- name: GetOrderSummary :one
SELECT
    COUNT(*)                                                                AS order_count,
    COUNT(*) FILTER (WHERE status IN ('NEW', 'PREPARING', 'READY'))         AS active_count,
    COUNT(*) FILTER (WHERE status = 'COMPLETED')                            AS completed_count,
    COUNT(*) FILTER (WHERE status = 'CANCELLED')                            AS cancelled_count,
    COALESCE(SUM(total_amount) FILTER (WHERE status = 'COMPLETED' AND payment_status = 'PAID'), 0)::numeric(12,2)
                                                                            AS revenue
FROM orders
WHERE created_at >= $1 AND created_at < $2
`

type GetOrderSummaryParams struct {
	From pgtype.Timestamptz `json:"from"`
	To   pgtype.Timestamptz `json:"to"`
}

type GetOrderSummaryRow struct {
	OrderCount     int64          `json:"order_count"`
	ActiveCount    int64          `json:"active_count"`
	CompletedCount int64          `json:"completed_count"`
	CancelledCount int64          `json:"cancelled_count"`
	Revenue        pgtype.Numeric `json:"revenue"`
}

func (q *Queries) GetOrderSummary(ctx context.Context, arg GetOrderSummaryParams) (GetOrderSummaryRow, error) {
	row := q.db.QueryRow(ctx, getOrderSummary, arg.From, arg.To)
	var i GetOrderSummaryRow
	err := row.Scan(
		&i.OrderCount,
		&i.ActiveCount,
		&i.CompletedCount,
		&i.CancelledCount,
		&i.Revenue,
	)
	return i, err
}

const getTopItems = `-- name: GetTopItems :many
SELECT (l->>'menu_item_id')::bigint          AS menu_item_id,
       l->>'name'                            AS name,
       SUM((l->>'quantity')::bigint)::bigint AS quantity
FROM orders o
CROSS JOIN LATERAL jsonb_array_elements(o.lines) AS l
WHERE o.created_at >= $1 AND o.created_at < $2
  AND o.status <> 'CANCELLED'
GROUP BY 1, 2
ORDER BY quantity DESC, name
LIMIT $3
`

type GetTopItemsParams struct {
	From  pgtype.Timestamptz `json:"from"`
	To    pgtype.Timestamptz `json:"to"`
	Limit int32              `json:"limit"`
}

type GetTopItemsRow struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
}

func (q *Queries) GetTopItems(ctx context.Context, arg GetTopItemsParams) ([]GetTopItemsRow, error) {
	rows, err := q.db.Query(ctx, getTopItems, arg.From, arg.To, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetTopItemsRow{}
	for rows.Next() {
		var i GetTopItemsRow
		if err := rows.Scan(&i.MenuItemID, &i.Name, &i.Quantity); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
