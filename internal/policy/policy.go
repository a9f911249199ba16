// Package policy maps an acting role and an order's state to the actions the
// role may take. It is a pure lookup shared by the HTTP layer, which uses it to
// decide what to offer, and by the order service, which refuses anything it
// does not allow.
package policy

import "github.com/azad-pos/api/internal/enum"

// Action is a role-gated operation on an order.
type Action string

const (
	ActionStartCooking Action = "START_COOKING"
	ActionMarkReady    Action = "MARK_READY"
	ActionComplete     Action = "COMPLETE"
	ActionEditDetails  Action = "EDIT_DETAILS"
	ActionCancel       Action = "CANCEL"
	ActionRefund       Action = "REFUND"
	ActionPrint        Action = "PRINT"
)

// rule grants an action to roles while the order matches the state predicate.
type rule struct {
	action Action
	roles  []string
	when   func(status, paymentStatus string) bool
}

func statusIs(want string) func(string, string) bool {
	return func(status, _ string) bool { return status == want }
}

func nonTerminal(status, _ string) bool { return !enum.IsTerminalStatus(status) }

// refundable covers completed orders and paid orders cancelled before completion.
func refundable(status, paymentStatus string) bool {
	return paymentStatus == enum.PaymentStatusPaid &&
		(status == enum.OrderStatusCompleted || status == enum.OrderStatusCancelled)
}

func always(string, string) bool { return true }

// Manager holds every action; the other roles hold a slice of the workflow.
var rules = []rule{
	{ActionStartCooking, []string{enum.RoleKitchen, enum.RoleManager}, statusIs(enum.OrderStatusNew)},
	{ActionMarkReady, []string{enum.RoleKitchen, enum.RoleManager}, statusIs(enum.OrderStatusPreparing)},
	{ActionComplete, []string{enum.RoleCashier, enum.RoleManager}, statusIs(enum.OrderStatusReady)},
	{ActionEditDetails, []string{enum.RoleManager}, nonTerminal},
	{ActionCancel, []string{enum.RoleManager}, nonTerminal},
	{ActionRefund, []string{enum.RoleManager}, refundable},
	{ActionPrint, []string{enum.RoleKitchen, enum.RoleManager}, always},
}

func (r rule) grants(role string) bool {
	for _, g := range r.roles {
		if g == role {
			return true
		}
	}
	return false
}

// Permitted returns the actions role may take on an order in the given state,
// in a stable order.
func Permitted(role, status, paymentStatus string) []Action {
	out := []Action{}
	for _, r := range rules {
		if r.grants(role) && r.when(status, paymentStatus) {
			out = append(out, r.action)
		}
	}
	return out
}

// Allows reports whether role may take action on an order in the given state.
func Allows(role string, action Action, status, paymentStatus string) bool {
	for _, r := range rules {
		if r.action == action {
			return r.grants(role) && r.when(status, paymentStatus)
		}
	}
	return false
}

// ActionFor names the action a requested status/payment change amounts to.
// ok is false when the request matches no action.
func ActionFor(currentStatus, targetStatus, targetPayment string) (Action, bool) {
	if targetPayment == enum.PaymentStatusRefunded && targetStatus == currentStatus {
		return ActionRefund, true
	}
	switch targetStatus {
	case enum.OrderStatusPreparing:
		return ActionStartCooking, true
	case enum.OrderStatusReady:
		return ActionMarkReady, true
	case enum.OrderStatusCompleted:
		return ActionComplete, true
	case enum.OrderStatusCancelled:
		return ActionCancel, true
	}
	return "", false
}
