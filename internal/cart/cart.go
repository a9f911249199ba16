// Package cart accumulates menu selections into identity-keyed lines before
// checkout. A cart lives in memory only and never touches orders.
package cart

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/azad-pos/api/internal/catalog"
	"github.com/azad-pos/api/internal/pricing"
	"github.com/shopspring/decimal"
)

// Errors returned by the cart.
var (
	ErrItemUnavailable = fmt.Errorf("%w: menu item is not available", apperr.ErrValidation)
	ErrUnknownModifier = fmt.Errorf("%w: modifier is not offered by this item", apperr.ErrValidation)
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be > 0", apperr.ErrValidation)
	ErrLineNotFound    = fmt.Errorf("%w: cart line", apperr.ErrNotFound)
)

// Line is one distinct (item + modifier selection) with a quantity. Item and
// modifier data are frozen copies taken from the catalog when the line is built.
type Line struct {
	Key        string             `json:"key"`
	MenuItemID int64              `json:"menu_item_id"`
	Name       string             `json:"name"`
	Category   string             `json:"category"`
	Price      decimal.Decimal    `json:"price"`
	Modifiers  []catalog.Modifier `json:"modifiers"`
	Quantity   int                `json:"quantity"`
}

// Priced returns the line in the shape the pricing engine consumes.
func (l Line) Priced() pricing.Item {
	prices := make([]decimal.Decimal, len(l.Modifiers))
	for i, m := range l.Modifiers {
		prices[i] = m.Price
	}
	return pricing.Item{Price: l.Price, ModifierPrices: prices, Quantity: l.Quantity}
}

// Total is the line total.
func (l Line) Total() decimal.Decimal {
	return pricing.LineTotal(l.Priced())
}

// Clone deep-copies the line so no modifier slice is shared.
func (l Line) Clone() Line {
	c := l
	c.Modifiers = append([]catalog.Modifier(nil), l.Modifiers...)
	return c
}

// Key derives the identity key from the item id and the sorted modifier ids,
// e.g. "17-4001-4003".
func Key(itemID int64, modifierIDs []int64) string {
	ids := append([]int64(nil), modifierIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var b strings.Builder
	b.WriteString(strconv.FormatInt(itemID, 10))
	for _, id := range ids {
		b.WriteByte('-')
		b.WriteString(strconv.FormatInt(id, 10))
	}
	return b.String()
}

// BaseKey strips the "~N" suffix MergeLines gives to re-priced duplicates.
func BaseKey(key string) string {
	if i := strings.IndexByte(key, '~'); i >= 0 {
		return key[:i]
	}
	return key
}

// NewLine builds a frozen line for item with the given modifiers. Duplicate
// modifier ids collapse to one.
func NewLine(item catalog.MenuItem, quantity int, modifierIDs ...int64) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	if !item.IsAvailable {
		return Line{}, fmt.Errorf("item %d: %w", item.ID, ErrItemUnavailable)
	}

	seen := make(map[int64]bool, len(modifierIDs))
	mods := make([]catalog.Modifier, 0, len(modifierIDs))
	for _, id := range modifierIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		mod, ok := item.Modifier(id)
		if !ok {
			return Line{}, fmt.Errorf("item %d modifier %d: %w", item.ID, id, ErrUnknownModifier)
		}
		mods = append(mods, mod)
	}
	sort.Slice(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })

	ids := make([]int64, len(mods))
	for i, m := range mods {
		ids[i] = m.ID
	}

	return Line{
		Key:        Key(item.ID, ids),
		MenuItemID: item.ID,
		Name:       item.Name,
		Category:   item.Category,
		Price:      item.Price,
		Modifiers:  mods,
		Quantity:   quantity,
	}, nil
}

// Cart is an ordered set of lines. Not safe for concurrent use.
type Cart struct {
	lines []Line
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts one unit of item with the selected modifiers in the cart. A line
// with the same identity key gets its quantity incremented instead.
func (c *Cart) Add(item catalog.MenuItem, modifierIDs ...int64) (Line, error) {
	return c.AddQuantity(item, 1, modifierIDs...)
}

// AddQuantity is Add for n units.
func (c *Cart) AddQuantity(item catalog.MenuItem, n int, modifierIDs ...int64) (Line, error) {
	line, err := NewLine(item, n, modifierIDs...)
	if err != nil {
		return Line{}, err
	}
	for i := range c.lines {
		if c.lines[i].Key == line.Key {
			c.lines[i].Quantity += n
			return c.lines[i].Clone(), nil
		}
	}
	c.lines = append(c.lines, line)
	return line.Clone(), nil
}

// SetQuantity sets a line's quantity; n <= 0 removes the line.
func (c *Cart) SetQuantity(key string, n int) error {
	for i := range c.lines {
		if c.lines[i].Key != key {
			continue
		}
		if n <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
		} else {
			c.lines[i].Quantity = n
		}
		return nil
	}
	return fmt.Errorf("%s: %w", key, ErrLineNotFound)
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}

// Lines returns a deep copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	return CloneLines(c.lines)
}

// Len is the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Total is the cart total.
func (c *Cart) Total() decimal.Decimal {
	return Total(c.lines)
}

// Total sums the line totals.
func Total(lines []Line) decimal.Decimal {
	items := make([]pricing.Item, len(lines))
	for i, l := range lines {
		items[i] = l.Priced()
	}
	return pricing.OrderTotal(items)
}

// CloneLines deep-copies lines.
func CloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = l.Clone()
	}
	return out
}

// MergeLines appends additions to existing, summing quantities of lines that
// share an identity key. An addition whose key matches but whose frozen prices
// differ (the catalog was re-priced in between) is appended as its own line
// with a "~N" key suffix, so earlier lines keep the price they were sold at.
func MergeLines(existing, additions []Line) []Line {
	out := CloneLines(existing)
	for _, add := range additions {
		base := BaseKey(add.Key)
		merged := false
		siblings := 0
		for i := range out {
			if BaseKey(out[i].Key) != base {
				continue
			}
			siblings++
			if samePrices(out[i], add) {
				out[i].Quantity += add.Quantity
				merged = true
				break
			}
		}
		if merged {
			continue
		}
		line := add.Clone()
		line.Key = base
		if siblings > 0 {
			line.Key = base + "~" + strconv.Itoa(siblings+1)
		}
		out = append(out, line)
	}
	return out
}

func samePrices(a, b Line) bool {
	if !a.Price.Equal(b.Price) || len(a.Modifiers) != len(b.Modifiers) {
		return false
	}
	for i := range a.Modifiers {
		if a.Modifiers[i].ID != b.Modifiers[i].ID || !a.Modifiers[i].Price.Equal(b.Modifiers[i].Price) {
			return false
		}
	}
	return true
}
