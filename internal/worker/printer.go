package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/azad-pos/api/internal/queue"
	"github.com/azad-pos/api/internal/service"
	"go.uber.org/zap"
)

// PrinterWorker prints a kitchen ticket for each new order and for each
// explicit reprint request. Other order events are acknowledged and skipped.
type PrinterWorker struct {
	broker queue.Broker
	out    io.Writer
	loc    *time.Location
	logger *zap.SugaredLogger
	ctx    context.Context
	cancel context.CancelFunc

	// one ticket at a time on the device
	mu sync.Mutex
}

func NewPrinterWorker(broker queue.Broker, out io.Writer, loc *time.Location, logger *zap.SugaredLogger) *PrinterWorker {
	ctx, cancel := context.WithCancel(context.Background())

	return &PrinterWorker{
		broker: broker,
		out:    out,
		loc:    loc,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (w *PrinterWorker) Start() error {
	w.logger.Info("starting printer worker")

	return w.broker.Subscribe(w.ctx, queue.QueueOrderEvents, w.handleMessage)
}

func (w *PrinterWorker) Stop() {
	w.logger.Info("stopping printer worker")
	w.cancel()
}

func (w *PrinterWorker) handleMessage(ctx context.Context, message []byte) error {
	var ev service.Event
	if err := json.Unmarshal(message, &ev); err != nil {
		w.logger.Errorw("failed to unmarshal event", "error", err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	var reprint bool
	switch ev.Type {
	case service.EventOrderCreated:
	case service.EventTicketRequested:
		reprint = true
	default:
		w.logger.Debugw("skipping event", "event_type", ev.Type, "order_number", ev.Order.OrderNumber)
		return nil
	}

	w.logger.Infow("printing ticket", "order_number", ev.Order.OrderNumber, "reprint", reprint)

	ticket := RenderTicket(ev.Order, reprint, w.loc)
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := io.WriteString(w.out, ticket+"\n"); err != nil {
		w.logger.Errorw("failed to print ticket", "order_number", ev.Order.OrderNumber, "error", err)
		return fmt.Errorf("print ticket %s: %w", ev.Order.OrderNumber, err)
	}
	return nil
}
