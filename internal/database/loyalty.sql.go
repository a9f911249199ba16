package database

import "context"

const addLoyaltyPoints = `-- name: AddLoyaltyPoints :one
INSERT INTO loyalty_accounts (id, points)
VALUES ($1, GREATEST($2::bigint, 0))
ON CONFLICT (id) DO UPDATE
SET points     = GREATEST(loyalty_accounts.points + $2::bigint, 0),
    updated_at = now()
RETURNING id, points, updated_at
`

type AddLoyaltyPointsParams struct {
	ID    string `json:"id"`
	Delta int64  `json:"delta"`
}

// AddLoyaltyPoints creates the account on first use and applies delta,
// flooring the balance at zero.
func (q *Queries) AddLoyaltyPoints(ctx context.Context, arg AddLoyaltyPointsParams) (LoyaltyAccount, error) {
	row := q.db.QueryRow(ctx, addLoyaltyPoints, arg.ID, arg.Delta)
	var i LoyaltyAccount
	err := row.Scan(&i.ID, &i.Points, &i.UpdatedAt)
	return i, err
}

const getLoyaltyAccount = `-- name: GetLoyaltyAccount :one
SELECT id, points, updated_at FROM loyalty_accounts WHERE id = $1
`

func (q *Queries) GetLoyaltyAccount(ctx context.Context, id string) (LoyaltyAccount, error) {
	row := q.db.QueryRow(ctx, getLoyaltyAccount, id)
	var i LoyaltyAccount
	err := row.Scan(&i.ID, &i.Points, &i.UpdatedAt)
	return i, err
}
