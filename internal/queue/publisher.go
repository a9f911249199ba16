package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/azad-pos/api/internal/service"
)

// Publisher forwards order events to the order-events queue, where the
// kitchen printer picks them up.
type Publisher struct {
	broker Broker
}

func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// Notify implements service.Notifier.
func (p *Publisher) Notify(ctx context.Context, ev service.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.broker.Publish(ctx, QueueOrderEvents, body); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// RequestTicket queues a reprint of the order's kitchen ticket.
func (p *Publisher) RequestTicket(ctx context.Context, order service.OrderView) error {
	return p.Notify(ctx, service.Event{
		Type:  service.EventTicketRequested,
		Order: order,
		At:    time.Now().UTC(),
	})
}
