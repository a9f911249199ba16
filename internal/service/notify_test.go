package service

import (
	"context"
	"errors"
	"testing"

	"github.com/azad-pos/api/internal/cart"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/enum"
	"github.com/google/uuid"
)

func TestNotifiers_FanOutJoinsErrors(t *testing.T) {
	a := &recordingNotifier{}
	b := &recordingNotifier{err: errors.New("queue unavailable")}
	c := &recordingNotifier{}

	err := Notifiers{a, b, c}.Notify(context.Background(), Event{Type: EventOrderCreated})
	if err == nil || err.Error() != "queue unavailable" {
		t.Fatalf("expected joined error, got %v", err)
	}
	if len(a.events) != 1 || len(c.events) != 1 {
		t.Fatal("a failing notifier stopped the fan-out")
	}
}

func TestToView(t *testing.T) {
	line, _ := cart.NewLine(testItem(), 2, 2002)
	o := database.Order{
		ID:           uuid.New(),
		OrderNumber:  "AZD-007",
		OrderType:    enum.OrderTypeDineIn,
		TableNumber:  database.Text("5"),
		Lines:        []cart.Line{line},
		TotalAmount:  database.DecimalToNumeric(dec("24")),
		Status:       enum.OrderStatusNew,
		PointsEarned: 24,
	}

	v := ToView(o)
	if v.TotalAmount != "24.00" {
		t.Errorf("TotalAmount: got %s", v.TotalAmount)
	}
	if v.TableNumber == nil || *v.TableNumber != "5" {
		t.Errorf("TableNumber: got %v", v.TableNumber)
	}
	if v.CustomerName != nil {
		t.Errorf("CustomerName should be nil")
	}
	if v.Lines[0].LineTotal != "24.00" || v.Lines[0].UnitPrice != "10.00" || v.Lines[0].Modifiers[0].Price != "2.00" {
		t.Errorf("line view: %+v", v.Lines[0])
	}
}
