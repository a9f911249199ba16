package loyalty

import (
	"errors"
	"testing"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/shopspring/decimal"
)

func TestPointsForTotal(t *testing.T) {
	l := Ledger{Rate: DefaultRate}

	tests := []struct {
		total string
		want  int64
	}{
		{"0.00", 0},
		{"0.99", 0},
		{"24.00", 24},
		{"24.99", 24},
		{"100.50", 100},
		{"-5.00", 0},
	}
	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			if got := l.PointsForTotal(decimal.RequireFromString(tt.total)); got != tt.want {
				t.Errorf("PointsForTotal(%s): got %d, want %d", tt.total, got, tt.want)
			}
		})
	}
}

func TestPointsForTotal_Monotonic(t *testing.T) {
	l := Ledger{Rate: decimal.RequireFromString("1.5")}

	prev := int64(0)
	for sen := int64(0); sen <= 5000; sen += 7 {
		got := l.PointsForTotal(decimal.New(sen, -2))
		if got < prev {
			t.Fatalf("points decreased at %d sen: %d < %d", sen, got, prev)
		}
		prev = got
	}
}

func TestAmend_ReturnsDelta(t *testing.T) {
	l := Ledger{Rate: DefaultRate}

	oldPoints := l.PointsForTotal(decimal.RequireFromString("24.00"))
	newPoints, delta := l.Amend(oldPoints, decimal.RequireFromString("31.50"))

	if newPoints != 31 {
		t.Errorf("newPoints: got %d, want 31", newPoints)
	}
	if delta != 7 {
		t.Errorf("delta: got %d, want 7", delta)
	}
}

func TestNewLedger_RejectsNegativeRate(t *testing.T) {
	_, err := NewLedger(decimal.NewFromInt(-1))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
