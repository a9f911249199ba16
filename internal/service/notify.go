package service

import (
	"context"
	"errors"
	"time"

	"github.com/azad-pos/api/internal/database"
)

// Order event types.
const (
	EventOrderCreated   = "order.created"
	EventStatusChanged  = "order.status_changed"
	EventItemsAdded     = "order.items_added"
	EventDetailsUpdated = "order.details_updated"

	// EventTicketRequested asks the kitchen printer for a reprint. It is
	// not a state change and is never emitted by OrderService.
	EventTicketRequested = "order.ticket_requested"
)

// Event describes a committed order change.
type Event struct {
	Type           string    `json:"type"`
	Order          OrderView `json:"order"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	At             time.Time `json:"at"`
}

// NewEvent builds an event for o.
func NewEvent(eventType string, o database.Order, previousStatus string) Event {
	return Event{
		Type:           eventType,
		Order:          ToView(o),
		PreviousStatus: previousStatus,
		At:             time.Now().UTC(),
	}
}

// Notifier is told about every committed order change. Delivery failures
// never undo the change; the service only logs them.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// Notifiers fans an event out to each notifier in turn.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range ns {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
