package worker

import (
	"fmt"
	"strings"
	"time"

	"github.com/azad-pos/api/internal/enum"
	"github.com/azad-pos/api/internal/service"
)

// ticketWidth fits a 58mm thermal roll.
const ticketWidth = 32

// RenderTicket formats the kitchen copy of an order: header, lines with
// their add-ons, then notes. Prices are left off.
func RenderTicket(order service.OrderView, reprint bool, loc *time.Location) string {
	var b strings.Builder
	rule := strings.Repeat("-", ticketWidth) + "\n"

	if reprint {
		b.WriteString("*** REPRINT ***\n")
	}
	b.WriteString(order.OrderNumber + "  " + orderTypeLabel(order.OrderType) + "\n")
	switch {
	case order.OrderType == enum.OrderTypeDineIn && order.TableNumber != nil:
		fmt.Fprintf(&b, "Table %s\n", *order.TableNumber)
	case order.CustomerName != nil:
		b.WriteString(*order.CustomerName + "\n")
	}
	if loc == nil {
		loc = time.UTC
	}
	b.WriteString(order.CreatedAt.In(loc).Format("2006-01-02 15:04") + "\n")
	b.WriteString(rule)

	for _, l := range order.Lines {
		fmt.Fprintf(&b, "%d x %s\n", l.Quantity, l.Name)
		for _, m := range l.Modifiers {
			fmt.Fprintf(&b, "    + %s\n", m.Name)
		}
	}

	b.WriteString(rule)
	if order.Notes != nil && *order.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", *order.Notes)
	}
	return b.String()
}

func orderTypeLabel(t string) string {
	return strings.ReplaceAll(t, "_", " ")
}
