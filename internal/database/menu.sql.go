package database

import (
	"context"

	"github.com/azad-pos/api/internal/catalog"
	"github.com/shopspring/decimal"
)

const listMenuItems = `-- name: ListMenuItems :many
SELECT m.id, m.name, m.description, m.price::text, m.category, m.is_available, m.is_featured,
       COALESCE(
           jsonb_agg(jsonb_build_object('id', md.id, 'name', md.name, 'price', md.price::text) ORDER BY md.id)
               FILTER (WHERE md.id IS NOT NULL),
           '[]'::jsonb
       ) AS modifiers
FROM menu_items m
LEFT JOIN menu_item_modifiers mim ON mim.menu_item_id = m.id
LEFT JOIN modifiers md ON md.id = mim.modifier_id
GROUP BY m.id
ORDER BY m.category, m.id
`

// ListMenuItems returns the whole catalog, unavailable items included, with
// each item's modifiers aggregated in id order.
func (q *Queries) ListMenuItems(ctx context.Context) ([]catalog.MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []catalog.MenuItem{}
	for rows.Next() {
		var (
			i     catalog.MenuItem
			price string
		)
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Description,
			&price,
			&i.Category,
			&i.IsAvailable,
			&i.IsFeatured,
			&i.Modifiers,
		); err != nil {
			return nil, err
		}
		if i.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertMenuItem = `-- name: UpsertMenuItem :exec
INSERT INTO menu_items (id, name, description, price, category, is_available, is_featured)
VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    category = EXCLUDED.category,
    is_available = EXCLUDED.is_available,
    is_featured = EXCLUDED.is_featured
`

type UpsertMenuItemParams struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	IsAvailable bool   `json:"is_available"`
	IsFeatured  bool   `json:"is_featured"`
}

func (q *Queries) UpsertMenuItem(ctx context.Context, arg UpsertMenuItemParams) error {
	_, err := q.db.Exec(ctx, upsertMenuItem,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Price,
		arg.Category,
		arg.IsAvailable,
		arg.IsFeatured,
	)
	return err
}

const upsertModifier = `-- name: UpsertModifier :exec
INSERT INTO modifiers (id, name, price)
VALUES ($1, $2, $3::numeric)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name, price = EXCLUDED.price
`

type UpsertModifierParams struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

func (q *Queries) UpsertModifier(ctx context.Context, arg UpsertModifierParams) error {
	_, err := q.db.Exec(ctx, upsertModifier, arg.ID, arg.Name, arg.Price)
	return err
}

const attachModifier = `-- name: AttachModifier :exec
INSERT INTO menu_item_modifiers (menu_item_id, modifier_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`

type AttachModifierParams struct {
	MenuItemID int64 `json:"menu_item_id"`
	ModifierID int64 `json:"modifier_id"`
}

func (q *Queries) AttachModifier(ctx context.Context, arg AttachModifierParams) error {
	_, err := q.db.Exec(ctx, attachModifier, arg.MenuItemID, arg.ModifierID)
	return err
}
