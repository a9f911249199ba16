package handler

import (
	"context"
	"fmt"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/azad-pos/api/internal/cart"
	"github.com/azad-pos/api/internal/catalog"
)

var errUnknownMenuItem = fmt.Errorf("%w: menu item not found", apperr.ErrValidation)

// lineRequest is one cart line as the customer app sends it. Prices are
// never taken from the client; they are read from the catalog.
type lineRequest struct {
	MenuItemID  int64   `json:"menu_item_id"`
	ModifierIDs []int64 `json:"modifier_ids"`
	Quantity    int     `json:"quantity"`
}

// buildLines prices reqs against the current catalog. Repeated selections
// collapse into one line the same way the customer's cart does.
func buildLines(ctx context.Context, menu catalog.Reader, reqs []lineRequest) ([]cart.Line, error) {
	if len(reqs) == 0 {
		return nil, nil
	}

	items, err := menu.ListMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	idx := catalog.NewIndex(items)

	c := cart.New()
	for i, req := range reqs {
		item, ok := idx[req.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("items[%d]: %w", i, errUnknownMenuItem)
		}
		qty := req.Quantity
		if qty == 0 {
			qty = 1
		}
		if _, err := c.AddQuantity(item, qty, req.ModifierIDs...); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
	}
	return c.Lines(), nil
}
