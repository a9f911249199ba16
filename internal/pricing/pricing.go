// Package pricing computes line and order totals. All functions are pure and
// results are always derived from their inputs, never cached.
package pricing

import "github.com/shopspring/decimal"

// MinorUnits is the currency precision (sen).
const MinorUnits = 2

// Item is the priced shape of one order line.
type Item struct {
	Price          decimal.Decimal
	ModifierPrices []decimal.Decimal
	Quantity       int
}

// UnitPrice returns the item price plus every selected modifier price.
func UnitPrice(it Item) decimal.Decimal {
	unit := it.Price
	for _, p := range it.ModifierPrices {
		unit = unit.Add(p)
	}
	return unit
}

// LineTotal = (price + Σ modifier prices) × quantity.
func LineTotal(it Item) decimal.Decimal {
	if it.Quantity <= 0 {
		return decimal.Zero
	}
	return UnitPrice(it).Mul(decimal.NewFromInt(int64(it.Quantity))).Round(MinorUnits)
}

// OrderTotal = Σ LineTotal.
func OrderTotal(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(LineTotal(it))
	}
	return total
}

// Fixed renders an amount with exactly two minor-unit digits.
func Fixed(d decimal.Decimal) string {
	return d.StringFixed(MinorUnits)
}
