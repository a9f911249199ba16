package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{"no modifiers", Item{Price: dec("10.00"), Quantity: 3}, "30.00"},
		{"with modifiers", Item{Price: dec("10.00"), ModifierPrices: []decimal.Decimal{dec("2.00")}, Quantity: 2}, "24.00"},
		{"free modifier", Item{Price: dec("4.50"), ModifierPrices: []decimal.Decimal{dec("0.00"), dec("1.50")}, Quantity: 1}, "6.00"},
		{"zero quantity", Item{Price: dec("4.50"), Quantity: 0}, "0.00"},
		{"sen precision", Item{Price: dec("3.335"), Quantity: 1}, "3.34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(tt.item)
			if !got.Equal(dec(tt.want)) {
				t.Errorf("LineTotal: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestLineTotal_ModifierOrderIrrelevant(t *testing.T) {
	a := Item{Price: dec("12.00"), ModifierPrices: []decimal.Decimal{dec("1.50"), dec("2.00"), dec("6.00")}, Quantity: 2}
	b := Item{Price: dec("12.00"), ModifierPrices: []decimal.Decimal{dec("6.00"), dec("1.50"), dec("2.00")}, Quantity: 2}

	if !LineTotal(a).Equal(LineTotal(b)) {
		t.Fatalf("line total depends on modifier order: %s vs %s", LineTotal(a), LineTotal(b))
	}
}

func TestOrderTotal_SumOfLines(t *testing.T) {
	items := []Item{
		{Price: dec("2.50"), ModifierPrices: []decimal.Decimal{dec("3.00")}, Quantity: 2},
		{Price: dec("3.50"), Quantity: 4},
		{Price: dec("28.00"), Quantity: 1},
	}

	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineTotal(it))
	}

	got := OrderTotal(items)
	if !got.Equal(sum) {
		t.Fatalf("OrderTotal: got %s, want %s", got, sum)
	}
	if Fixed(got) != "53.00" {
		t.Errorf("Fixed: got %s, want 53.00", Fixed(got))
	}
}

func TestOrderTotal_Empty(t *testing.T) {
	if got := OrderTotal(nil); !got.IsZero() {
		t.Fatalf("OrderTotal(nil): got %s, want 0", got)
	}
}
