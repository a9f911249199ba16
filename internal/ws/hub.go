package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/azad-pos/api/internal/service"
	"go.uber.org/zap"
)

// StaffRoom receives every order event; the dashboards subscribe here.
const StaffRoom = "staff"

// OrderRoom is the room a customer joins to follow one order.
func OrderRoom(orderID fmt.Stringer) string {
	return "order:" + orderID.String()
}

// ErrHubClosed is returned by Broadcast once Run has returned.
var ErrHubClosed = errors.New("websocket hub is closed")

// roomEvent is an internal struct for routing a message to one room.
type roomEvent struct {
	Room    string
	Message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	// Registered clients by room
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *roomEvent

	// closed when Run returns
	done chan struct{}

	logger *zap.SugaredLogger

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *roomEvent, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop and returns when ctx is done.
// This should be called as a goroutine: go hub.Run(ctx)
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.rooms[event.Room] {
				select {
				case client.send <- event.Message:
				default:
					// Slow consumer; drop it rather than stall the room.
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// remove must be called with h.mu held.
func (h *Hub) remove(client *Client) {
	clients, ok := h.rooms[client.room]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.room)
	}
}

// join hands client to Run. It reports false once the hub has shut down.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave hands client back to Run; after shutdown there is nothing to undo.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues message for every client in room.
func (h *Hub) Broadcast(ctx context.Context, room string, message []byte) error {
	select {
	case <-h.done:
		return ErrHubClosed
	default:
	}
	select {
	case h.broadcast <- &roomEvent{Room: room, Message: message}:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Notify pushes a committed order event to the staff room and to the
// order's own room.
func (h *Hub) Notify(ctx context.Context, ev service.Event) error {
	message, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := h.Broadcast(ctx, StaffRoom, message); err != nil {
		return err
	}
	return h.Broadcast(ctx, OrderRoom(ev.Order.ID), message)
}

// ClientCount reports how many clients are in room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
