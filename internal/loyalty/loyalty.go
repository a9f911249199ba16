// Package loyalty derives reward points from order totals.
package loyalty

import (
	"fmt"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/shopspring/decimal"
)

// DefaultAccount is used when the caller does not identify a customer.
const DefaultAccount = "default"

// DefaultRate awards one point per currency unit.
var DefaultRate = decimal.NewFromInt(1)

// ErrInvalidRate is returned for a negative earn rate.
var ErrInvalidRate = fmt.Errorf("%w: loyalty rate must be >= 0", apperr.ErrValidation)

// Ledger computes points at a fixed rate.
type Ledger struct {
	Rate decimal.Decimal
}

// NewLedger returns a ledger earning rate points per currency unit.
func NewLedger(rate decimal.Decimal) (Ledger, error) {
	if rate.IsNegative() {
		return Ledger{}, ErrInvalidRate
	}
	return Ledger{Rate: rate}, nil
}

// PointsForTotal = floor(total × rate), never negative.
func (l Ledger) PointsForTotal(total decimal.Decimal) int64 {
	pts := total.Mul(l.Rate).Floor()
	if pts.IsNegative() {
		return 0
	}
	return pts.IntPart()
}

// Amend recomputes points for an amended order. The account must be credited
// with delta, not newPoints, or the original award is counted twice.
func (l Ledger) Amend(oldPoints int64, newTotal decimal.Decimal) (newPoints, delta int64) {
	newPoints = l.PointsForTotal(newTotal)
	return newPoints, newPoints - oldPoints
}
