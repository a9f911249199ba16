package enum

// ── Group A: State machines (CHECK constrained in DB) ──

const (
	OrderStatusNew       = "NEW"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusRefunded = "REFUNDED"
)

// ── Group C: Borderline (CHECK constrained in DB) ──

const (
	RoleManager = "MANAGER"
	RoleCashier = "CASHIER"
	RoleKitchen = "KITCHEN"
)

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypeTakeaway = "TAKEAWAY"
	OrderTypeDelivery = "DELIVERY"
)

// ── Group B: Configurable labels (no DB constraint) ──

const (
	PaymentMethodCash      = "CASH"
	PaymentMethodCard      = "CARD"
	PaymentMethodFPX       = "FPX"
	PaymentMethodTouchNGo  = "TOUCH_N_GO"
	PaymentMethodGrabPay   = "GRABPAY"
	PaymentMethodShopeePay = "SHOPEEPAY"
	PaymentMethodBoost     = "BOOST"
	PaymentMethodGooglePay = "GOOGLE_PAY"
	PaymentMethodApplePay  = "APPLE_PAY"
)

const (
	SplitModeByItem  = "BY_ITEM"
	SplitModeEqually = "EQUALLY"
)

// IsTerminalStatus reports whether no further status transitions are allowed.
func IsTerminalStatus(s string) bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsValidOrderStatus checks if the given status is a valid order status.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusNew, OrderStatusPreparing, OrderStatusReady,
		OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func IsValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

func IsValidOrderType(s string) bool {
	switch s {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return true
	}
	return false
}

func IsValidRole(s string) bool {
	switch s {
	case RoleManager, RoleCashier, RoleKitchen:
		return true
	}
	return false
}

func IsValidPaymentMethod(s string) bool {
	switch s {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodFPX,
		PaymentMethodTouchNGo, PaymentMethodGrabPay, PaymentMethodShopeePay,
		PaymentMethodBoost, PaymentMethodGooglePay, PaymentMethodApplePay:
		return true
	}
	return false
}
