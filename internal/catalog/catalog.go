// Package catalog holds the read-only menu records the ordering core consumes.
package catalog

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
)

// Modifier is an optional add-on offered by a menu item.
type Modifier struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// MenuItem is an immutable catalog record.
type MenuItem struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	IsAvailable bool            `json:"is_available"`
	IsFeatured  bool            `json:"is_featured"`
	Modifiers   []Modifier      `json:"modifiers"`
}

// Reader lists the catalog. Satisfied by *database.Queries.
type Reader interface {
	ListMenuItems(ctx context.Context) ([]MenuItem, error)
}

// Modifier looks up one of the item's offered modifiers by id.
func (m MenuItem) Modifier(id int64) (Modifier, bool) {
	for _, mod := range m.Modifiers {
		if mod.ID == id {
			return mod, true
		}
	}
	return Modifier{}, false
}

// Index maps item id → item.
type Index map[int64]MenuItem

// NewIndex builds an Index over items.
func NewIndex(items []MenuItem) Index {
	idx := make(Index, len(items))
	for _, it := range items {
		idx[it.ID] = it
	}
	return idx
}

// Categories returns the distinct categories, sorted. Categories are derived
// from the items, never stored on their own.
func Categories(items []MenuItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out
}

// Filter keeps items in category (empty = any) and, if featuredOnly, featured ones.
func Filter(items []MenuItem, category string, featuredOnly bool) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if category != "" && it.Category != category {
			continue
		}
		if featuredOnly && !it.IsFeatured {
			continue
		}
		out = append(out, it)
	}
	return out
}
