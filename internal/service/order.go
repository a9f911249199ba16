package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/azad-pos/api/internal/cart"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/enum"
	"github.com/azad-pos/api/internal/loyalty"
	"github.com/azad-pos/api/internal/policy"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems           = fmt.Errorf("%w: items are required", apperr.ErrValidation)
	ErrInvalidOrderType     = fmt.Errorf("%w: invalid order_type", apperr.ErrValidation)
	ErrTableRequired        = fmt.Errorf("%w: table_number is required for DINE_IN orders", apperr.ErrValidation)
	ErrCustomerRequired     = fmt.Errorf("%w: customer_name is required for TAKEAWAY and DELIVERY orders", apperr.ErrValidation)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: invalid payment_method", apperr.ErrValidation)
	ErrInvalidPaymentStatus = fmt.Errorf("%w: invalid payment_status", apperr.ErrValidation)
	ErrInvalidQuantity      = fmt.Errorf("%w: quantity must be > 0", apperr.ErrValidation)
	ErrInvalidStatus        = fmt.Errorf("%w: invalid status", apperr.ErrValidation)
	ErrInvalidRole          = fmt.Errorf("%w: invalid role", apperr.ErrValidation)
	ErrNoChanges            = fmt.Errorf("%w: no fields to update", apperr.ErrValidation)
	ErrOrderNotFound        = fmt.Errorf("%w: order", apperr.ErrNotFound)
	ErrOrderFinalized       = fmt.Errorf("%w: order is completed or cancelled", apperr.ErrInvalidState)
	ErrOrderPaid            = fmt.Errorf("%w: order is already paid, place a new order", apperr.ErrInvalidState)
	ErrRoleNotPermitted     = fmt.Errorf("%w: role is not permitted this action", apperr.ErrInvalidTransition)
	ErrStaleOrder           = fmt.Errorf("%w: order was modified concurrently, reload and retry", apperr.ErrConflict)
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods the lifecycle operations run inside a
// transaction. Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetNextOrderNumber(ctx context.Context) (int32, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrder(ctx context.Context, arg database.UpdateOrderParams) (database.Order, error)
	AddLoyaltyPoints(ctx context.Context, arg database.AddLoyaltyPointsParams) (database.LoyaltyAccount, error)
}

// OrderReader defines the lock-free reads. Satisfied by *database.Queries.
type OrderReader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrders(ctx context.Context, arg database.ListOrdersParams) ([]database.Order, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderRequest is the validated input for creating an order.
type CreateOrderRequest struct {
	OrderType        string
	TableNumber      string
	CustomerName     string
	CustomerPhone    string
	Notes            string
	PaymentMethod    string
	PaymentStatus    string // PENDING (default) or PAID for a split-settled checkout
	LoyaltyAccountID string
	Lines            []cart.Line
}

// TransitionRequest asks for a status change on behalf of a staff role.
type TransitionRequest struct {
	OrderID       uuid.UUID
	Role          string
	Status        string
	PaymentStatus string // optional explicit payment status
}

// EditDetailsRequest is a partial update; nil fields are left unchanged.
type EditDetailsRequest struct {
	OrderID       uuid.UUID
	Role          string
	CustomerName  *string
	CustomerPhone *string
	Notes         *string
}

// ListOrdersFilter narrows the dashboard listing. Empty fields match anything.
type ListOrdersFilter struct {
	Status    string
	OrderType string
	Search    string
	Limit     int32
	Offset    int32
	Active    *bool // nil lists everything
}

// OrderService owns the order state machine. Every mutation is one
// transaction: read the order, compute the new state, write it guarded by
// the revision that was read, credit loyalty, commit.
type OrderService struct {
	pool     TxBeginner
	newStore NewOrderStore
	reader   OrderReader
	ledger   loyalty.Ledger
	notifier Notifier
	logger   *zap.SugaredLogger
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool TxBeginner, newStore NewOrderStore, reader OrderReader, ledger loyalty.Ledger, logger *zap.SugaredLogger) *OrderService {
	return &OrderService{
		pool:     pool,
		newStore: newStore,
		reader:   reader,
		ledger:   ledger,
		notifier: Notifiers(nil),
		logger:   logger,
	}
}

// SetNotifier installs the hook fired after each committed change.
func (s *OrderService) SetNotifier(n Notifier) {
	s.notifier = n
}

// CreateOrder validates, prices, and creates an order atomically, crediting
// the customer's loyalty account in the same transaction.
// Retries up to maxOrderNumberRetries times on order number unique constraint
// violations (race condition where concurrent transactions get the same MAX).
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*database.Order, error) {
	if err := validateCreate(&req); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		order, err := s.createOrderTx(ctx, req)
		if err == nil {
			s.notify(ctx, EventOrderCreated, order, "")
			return &order, nil
		}
		if isOrderNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func validateCreate(req *CreateOrderRequest) error {
	if !enum.IsValidOrderType(req.OrderType) {
		return ErrInvalidOrderType
	}
	if len(req.Lines) == 0 {
		return ErrEmptyItems
	}
	for i, l := range req.Lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("line[%d]: %w", i, ErrInvalidQuantity)
		}
	}
	if req.OrderType == enum.OrderTypeDineIn && req.TableNumber == "" {
		return ErrTableRequired
	}
	if req.OrderType != enum.OrderTypeDineIn && req.CustomerName == "" {
		return ErrCustomerRequired
	}
	if !enum.IsValidPaymentMethod(req.PaymentMethod) {
		return ErrInvalidPaymentMethod
	}
	switch req.PaymentStatus {
	case "":
		req.PaymentStatus = enum.PaymentStatusPending
	case enum.PaymentStatusPending, enum.PaymentStatusPaid:
	default:
		return ErrInvalidPaymentStatus
	}
	if req.LoyaltyAccountID == "" {
		req.LoyaltyAccountID = loyalty.DefaultAccount
	}
	return nil
}

// isOrderNumberConflict checks if the error is a unique constraint violation
// on the order sequence (pgconn error code 23505).
func isOrderNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_seq_key"
	}
	return false
}

func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	seq, err := store.GetNextOrderNumber(ctx)
	if err != nil {
		return database.Order{}, fmt.Errorf("get next order number: %w", err)
	}

	// Identical selections collapse into one line even if the caller sent them apart.
	lines := cart.MergeLines(nil, req.Lines)
	total := cart.Total(lines)
	points := s.ledger.PointsForTotal(total)

	// The account row must exist before the order references it.
	if _, err := store.AddLoyaltyPoints(ctx, database.AddLoyaltyPointsParams{
		ID:    req.LoyaltyAccountID,
		Delta: points,
	}); err != nil {
		return database.Order{}, fmt.Errorf("credit loyalty: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return database.Order{}, fmt.Errorf("generate order id: %w", err)
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		ID:               id,
		OrderSeq:         seq,
		OrderNumber:      FormatOrderNumber(seq),
		OrderType:        req.OrderType,
		TableNumber:      database.Text(req.TableNumber),
		CustomerName:     database.Text(req.CustomerName),
		CustomerPhone:    database.Text(req.CustomerPhone),
		Notes:            database.Text(req.Notes),
		Lines:            lines,
		TotalAmount:      database.DecimalToNumeric(total),
		Status:           enum.OrderStatusNew,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    req.PaymentStatus,
		PointsEarned:     points,
		LoyaltyAccountID: req.LoyaltyAccountID,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.Order{}, fmt.Errorf("commit tx: %w", err)
	}
	return order, nil
}

// FormatOrderNumber renders the ticket number printed for the kitchen.
func FormatOrderNumber(seq int32) string {
	return fmt.Sprintf("AZD-%03d", seq)
}

// TransitionStatus moves an order along the status graph on behalf of a role.
// The role policy is enforced here as well as by callers, so a caller that
// skips its own check is still refused.
func (s *OrderService) TransitionStatus(ctx context.Context, req TransitionRequest) (*database.Order, error) {
	if !enum.IsValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	if !enum.IsValidOrderStatus(req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.PaymentStatus != "" && !enum.IsValidPaymentStatus(req.PaymentStatus) {
		return nil, ErrInvalidPaymentStatus
	}

	var previous string
	order, err := s.mutate(ctx, req.OrderID, func(o *database.Order) error {
		previous = o.Status
		return applyTransition(o, req.Role, req.Status, req.PaymentStatus)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, EventStatusChanged, *order, previous)
	return order, nil
}

// Cancel is TransitionStatus to CANCELLED.
func (s *OrderService) Cancel(ctx context.Context, orderID uuid.UUID, role string) (*database.Order, error) {
	return s.TransitionStatus(ctx, TransitionRequest{OrderID: orderID, Role: role, Status: enum.OrderStatusCancelled})
}

// Refund moves a paid order, completed or cancelled, to REFUNDED. The order
// status is left as it is.
func (s *OrderService) Refund(ctx context.Context, orderID uuid.UUID, role string) (*database.Order, error) {
	if !enum.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	var previous string
	order, err := s.mutate(ctx, orderID, func(o *database.Order) error {
		previous = o.Status
		return applyTransition(o, role, o.Status, enum.PaymentStatusRefunded)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, EventStatusChanged, *order, previous)
	return order, nil
}

// applyTransition checks a status/payment change against the state machine
// and the role policy, then applies it to o.
func applyTransition(o *database.Order, role, target, explicitPayment string) error {
	status, payment, err := nextState(o.Status, o.PaymentStatus, target, explicitPayment)
	if err != nil {
		return err
	}
	action, ok := policy.ActionFor(o.Status, target, explicitPayment)
	if !ok || !policy.Allows(role, action, o.Status, o.PaymentStatus) {
		return fmt.Errorf("%s may not %s an order that is %s/%s: %w",
			role, actionName(action), o.Status, o.PaymentStatus, ErrRoleNotPermitted)
	}
	// Cashier completion always takes payment.
	if action == policy.ActionComplete && role == enum.RoleCashier {
		payment = enum.PaymentStatusPaid
	}
	o.Status, o.PaymentStatus = status, payment
	return nil
}

// MergeAdditionalItems appends lines to an unfinished order, merging equal
// identity keys, and credits the customer the change in points.
func (s *OrderService) MergeAdditionalItems(ctx context.Context, orderID uuid.UUID, lines []cart.Line) (*database.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}
	for i, l := range lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("line[%d]: %w", i, ErrInvalidQuantity)
		}
	}

	var delta int64
	order, err := s.mutate(ctx, orderID, func(o *database.Order) error {
		if enum.IsTerminalStatus(o.Status) {
			return ErrOrderFinalized
		}
		if o.PaymentStatus != enum.PaymentStatusPending {
			return ErrOrderPaid
		}
		o.Lines = cart.MergeLines(o.Lines, lines)
		total := cart.Total(o.Lines)
		o.TotalAmount = database.DecimalToNumeric(total)
		o.PointsEarned, delta = s.ledger.Amend(o.PointsEarned, total)
		return nil
	}, func(ctx context.Context, store OrderStore, o database.Order) error {
		if delta == 0 {
			return nil
		}
		_, err := store.AddLoyaltyPoints(ctx, database.AddLoyaltyPointsParams{
			ID:    o.LoyaltyAccountID,
			Delta: delta,
		})
		if err != nil {
			return fmt.Errorf("credit loyalty: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, EventItemsAdded, *order, "")
	return order, nil
}

// EditDetails updates customer name, phone and notes. Manager only.
func (s *OrderService) EditDetails(ctx context.Context, req EditDetailsRequest) (*database.Order, error) {
	if !enum.IsValidRole(req.Role) {
		return nil, ErrInvalidRole
	}
	if req.CustomerName == nil && req.CustomerPhone == nil && req.Notes == nil {
		return nil, ErrNoChanges
	}

	order, err := s.mutate(ctx, req.OrderID, func(o *database.Order) error {
		if enum.IsTerminalStatus(o.Status) {
			return ErrOrderFinalized
		}
		if !policy.Allows(req.Role, policy.ActionEditDetails, o.Status, o.PaymentStatus) {
			return fmt.Errorf("%s may not edit order details: %w", req.Role, ErrRoleNotPermitted)
		}
		if req.CustomerName != nil {
			o.CustomerName = database.Text(*req.CustomerName)
		}
		if req.CustomerPhone != nil {
			o.CustomerPhone = database.Text(*req.CustomerPhone)
		}
		if req.Notes != nil {
			o.Notes = database.Text(*req.Notes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, EventDetailsUpdated, *order, "")
	return order, nil
}

// GetOrder reads an order outside any transaction.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*database.Order, error) {
	order, err := s.reader.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

// ListOrders reads a page of orders, newest first, outside any transaction.
func (s *OrderService) ListOrders(ctx context.Context, f ListOrdersFilter) ([]database.Order, error) {
	if f.Status != "" && !enum.IsValidOrderStatus(f.Status) {
		return nil, ErrInvalidStatus
	}
	if f.OrderType != "" && !enum.IsValidOrderType(f.OrderType) {
		return nil, ErrInvalidOrderType
	}
	orders, err := s.reader.ListOrders(ctx, database.ListOrdersParams{
		Status:    database.Text(f.Status),
		OrderType: database.Text(f.OrderType),
		Search:    database.Contains(f.Search),
		Limit:     f.Limit,
		Offset:    f.Offset,
		Active:    activeParam(f.Active),
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func activeParam(b *bool) pgtype.Bool {
	if b == nil {
		return pgtype.Bool{}
	}
	return pgtype.Bool{Bool: *b, Valid: true}
}

// afterWrite runs inside the transaction once the order row is updated.
type afterWrite func(ctx context.Context, store OrderStore, o database.Order) error

// mutate is the read-modify-write unit shared by every lifecycle operation.
// apply edits a copy of the order; a nil error means "write it".
func (s *OrderService) mutate(ctx context.Context, id uuid.UUID, apply func(*database.Order) error, after ...afterWrite) (*database.Order, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	next := current
	next.Lines = cart.CloneLines(current.Lines)
	if err := apply(&next); err != nil {
		return nil, err
	}

	updated, err := store.UpdateOrder(ctx, database.UpdateOrderParams{
		ID:            current.ID,
		Revision:      current.Revision,
		Status:        next.Status,
		PaymentStatus: next.PaymentStatus,
		CustomerName:  next.CustomerName,
		CustomerPhone: next.CustomerPhone,
		Notes:         next.Notes,
		Lines:         next.Lines,
		TotalAmount:   next.TotalAmount,
		PointsEarned:  next.PointsEarned,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStaleOrder
		}
		return nil, fmt.Errorf("update order: %w", err)
	}

	for _, fn := range after {
		if err := fn(ctx, store, updated); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &updated, nil
}

func (s *OrderService) notify(ctx context.Context, eventType string, o database.Order, previous string) {
	ev := NewEvent(eventType, o, previous)
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.Warnw("order notification failed",
			"event", eventType, "order_id", o.ID, "error", err)
	}
}

// --- State machine ---

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedTransitions = map[string][]string{
	enum.OrderStatusNew:       {enum.OrderStatusPreparing, enum.OrderStatusCancelled},
	enum.OrderStatusPreparing: {enum.OrderStatusReady, enum.OrderStatusCancelled},
	enum.OrderStatusReady:     {enum.OrderStatusCompleted, enum.OrderStatusCancelled},
}

// validateStatusTransition checks if the transition from current to next is allowed.
func validateStatusTransition(current, next string) error {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("cannot transition from %s to %s: %w", current, next, apperr.ErrInvalidTransition)
}

// nextState computes the (status, paymentStatus) pair a request leads to.
//
// Completion marks the order PAID unless an explicit payment status was
// supplied, and completion is the only status change that may carry one.
// The only change allowed on a terminal order is the refund PAID → REFUNDED,
// which keeps the status.
func nextState(status, payment, target, explicitPayment string) (string, string, error) {
	if explicitPayment == enum.PaymentStatusRefunded {
		if target == status && payment == enum.PaymentStatusPaid &&
			(status == enum.OrderStatusCompleted || status == enum.OrderStatusCancelled) {
			return status, enum.PaymentStatusRefunded, nil
		}
		return "", "", fmt.Errorf("cannot refund an order that is %s/%s: %w", status, payment, apperr.ErrInvalidTransition)
	}

	if err := validateStatusTransition(status, target); err != nil {
		return "", "", err
	}

	switch {
	case explicitPayment != "" && target != enum.OrderStatusCompleted:
		return "", "", fmt.Errorf("payment status can only be set when completing, not on %s: %w", target, apperr.ErrInvalidTransition)
	case explicitPayment != "":
		if payment == enum.PaymentStatusPaid && explicitPayment == enum.PaymentStatusPending {
			return "", "", fmt.Errorf("cannot move payment from PAID back to PENDING: %w", apperr.ErrInvalidTransition)
		}
		if payment == enum.PaymentStatusRefunded {
			return "", "", fmt.Errorf("payment already refunded: %w", apperr.ErrInvalidTransition)
		}
		return target, explicitPayment, nil
	case target == enum.OrderStatusCompleted && payment == enum.PaymentStatusPending:
		return target, enum.PaymentStatusPaid, nil
	}
	return target, payment, nil
}

func actionName(a policy.Action) string {
	if a == "" {
		return "change"
	}
	return string(a)
}
