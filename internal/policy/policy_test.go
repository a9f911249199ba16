package policy

import (
	"reflect"
	"testing"

	"github.com/azad-pos/api/internal/enum"
)

func TestPermitted(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		status  string
		payment string
		want    []Action
	}{
		{"kitchen new", enum.RoleKitchen, enum.OrderStatusNew, enum.PaymentStatusPending,
			[]Action{ActionStartCooking, ActionPrint}},
		{"kitchen preparing", enum.RoleKitchen, enum.OrderStatusPreparing, enum.PaymentStatusPending,
			[]Action{ActionMarkReady, ActionPrint}},
		{"kitchen ready", enum.RoleKitchen, enum.OrderStatusReady, enum.PaymentStatusPending,
			[]Action{ActionPrint}},
		{"cashier ready", enum.RoleCashier, enum.OrderStatusReady, enum.PaymentStatusPending,
			[]Action{ActionComplete}},
		{"cashier new", enum.RoleCashier, enum.OrderStatusNew, enum.PaymentStatusPending,
			[]Action{}},
		{"manager new", enum.RoleManager, enum.OrderStatusNew, enum.PaymentStatusPending,
			[]Action{ActionStartCooking, ActionEditDetails, ActionCancel, ActionPrint}},
		{"manager ready", enum.RoleManager, enum.OrderStatusReady, enum.PaymentStatusPending,
			[]Action{ActionComplete, ActionEditDetails, ActionCancel, ActionPrint}},
		{"manager completed paid", enum.RoleManager, enum.OrderStatusCompleted, enum.PaymentStatusPaid,
			[]Action{ActionRefund, ActionPrint}},
		{"manager completed refunded", enum.RoleManager, enum.OrderStatusCompleted, enum.PaymentStatusRefunded,
			[]Action{ActionPrint}},
		{"manager cancelled paid", enum.RoleManager, enum.OrderStatusCancelled, enum.PaymentStatusPaid,
			[]Action{ActionRefund, ActionPrint}},
		{"manager cancelled pending", enum.RoleManager, enum.OrderStatusCancelled, enum.PaymentStatusPending,
			[]Action{ActionPrint}},
		{"manager cancelled refunded", enum.RoleManager, enum.OrderStatusCancelled, enum.PaymentStatusRefunded,
			[]Action{ActionPrint}},
		{"cashier cancelled paid", enum.RoleCashier, enum.OrderStatusCancelled, enum.PaymentStatusPaid,
			[]Action{}},
		{"unknown role", "CUSTOMER", enum.OrderStatusNew, enum.PaymentStatusPending,
			[]Action{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Permitted(tt.role, tt.status, tt.payment)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Permitted: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestManagerIsSuperset(t *testing.T) {
	statuses := []string{enum.OrderStatusNew, enum.OrderStatusPreparing, enum.OrderStatusReady,
		enum.OrderStatusCompleted, enum.OrderStatusCancelled}
	payments := []string{enum.PaymentStatusPending, enum.PaymentStatusPaid, enum.PaymentStatusRefunded}

	for _, s := range statuses {
		for _, p := range payments {
			for _, role := range []string{enum.RoleKitchen, enum.RoleCashier} {
				for _, a := range Permitted(role, s, p) {
					if !Allows(enum.RoleManager, a, s, p) {
						t.Errorf("%s may %s on %s/%s but manager may not", role, a, s, p)
					}
				}
			}
		}
	}
}

func TestAllows_KitchenCannotComplete(t *testing.T) {
	if Allows(enum.RoleKitchen, ActionComplete, enum.OrderStatusReady, enum.PaymentStatusPending) {
		t.Fatal("kitchen must not complete orders")
	}
	if Allows(enum.RoleCashier, ActionCancel, enum.OrderStatusNew, enum.PaymentStatusPending) {
		t.Fatal("cashier must not cancel orders")
	}
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		current, target, payment string
		want                     Action
		ok                       bool
	}{
		{enum.OrderStatusNew, enum.OrderStatusPreparing, "", ActionStartCooking, true},
		{enum.OrderStatusPreparing, enum.OrderStatusReady, "", ActionMarkReady, true},
		{enum.OrderStatusReady, enum.OrderStatusCompleted, "", ActionComplete, true},
		{enum.OrderStatusReady, enum.OrderStatusCompleted, enum.PaymentStatusPaid, ActionComplete, true},
		{enum.OrderStatusPreparing, enum.OrderStatusCancelled, "", ActionCancel, true},
		{enum.OrderStatusCompleted, enum.OrderStatusCompleted, enum.PaymentStatusRefunded, ActionRefund, true},
		{enum.OrderStatusCancelled, enum.OrderStatusCancelled, enum.PaymentStatusRefunded, ActionRefund, true},
		{enum.OrderStatusNew, enum.OrderStatusPreparing, enum.PaymentStatusPaid, ActionStartCooking, true},
		{enum.OrderStatusReady, enum.OrderStatusNew, "", "", false},
	}
	for _, tt := range tests {
		got, ok := ActionFor(tt.current, tt.target, tt.payment)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ActionFor(%s→%s, %q): got (%s, %v), want (%s, %v)",
				tt.current, tt.target, tt.payment, got, ok, tt.want, tt.ok)
		}
	}
}
