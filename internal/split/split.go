// Package split tracks incremental payment of a dine-in table's cart before
// the order is confirmed.
//
// A session is owned by one checkout flow. It reports whether every line has
// been paid; refusing confirmation until then is the caller's job.
package split

import (
	"fmt"
	"sync"
	"time"

	"github.com/azad-pos/api/internal/apperr"
	"github.com/azad-pos/api/internal/cart"
	"github.com/azad-pos/api/internal/enum"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by split sessions.
var (
	ErrNotDineIn        = fmt.Errorf("%w: bill splitting is only available for dine-in", apperr.ErrValidation)
	ErrTableRequired    = fmt.Errorf("%w: table_number is required", apperr.ErrValidation)
	ErrNoLines          = fmt.Errorf("%w: lines are required", apperr.ErrValidation)
	ErrDuplicateLine    = fmt.Errorf("%w: duplicate line key", apperr.ErrValidation)
	ErrInvalidMode      = fmt.Errorf("%w: invalid split mode", apperr.ErrValidation)
	ErrPartyCount       = fmt.Errorf("%w: party_count must be >= 2", apperr.ErrValidation)
	ErrEmptySelection   = fmt.Errorf("%w: select at least one line", apperr.ErrValidation)
	ErrUnknownLine      = fmt.Errorf("%w: line is not in this bill", apperr.ErrValidation)
	ErrAlreadySettled   = fmt.Errorf("%w: line is already paid", apperr.ErrValidation)
	ErrNothingRemaining = fmt.Errorf("%w: nothing left to pay", apperr.ErrValidation)
	ErrSessionNotFound  = fmt.Errorf("%w: split session", apperr.ErrNotFound)
	ErrNotSettled       = fmt.Errorf("%w: bill is not fully paid", apperr.ErrInvalidState)
	ErrCheckoutStarted  = fmt.Errorf("%w: bill is already being checked out", apperr.ErrInvalidState)
)

// Settlement is the result of one Settle call.
type Settlement struct {
	Keys       []string        `json:"keys"`
	Amount     decimal.Decimal `json:"amount"`
	Share      decimal.Decimal `json:"share"`
	PartyCount int             `json:"party_count,omitempty"`
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID          uuid.UUID       `json:"id"`
	OrderType   string          `json:"order_type"`
	TableNumber string          `json:"table_number"`
	Mode        string          `json:"mode"`
	PartyCount  int             `json:"party_count,omitempty"`
	Lines       []cart.Line     `json:"lines"`
	SettledKeys []string        `json:"settled_keys"`
	Total       decimal.Decimal `json:"total"`
	Remaining   decimal.Decimal `json:"remaining"`
	AllSettled  bool            `json:"all_settled"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Session is one table's split-bill state.
type Session struct {
	ID          uuid.UUID
	OrderType   string
	TableNumber string
	CreatedAt   time.Time

	mu         sync.Mutex
	lines      []cart.Line
	settled    map[string]bool
	mode       string
	partyCount int
	checkedOut bool
}

// NewSession starts a ByItem session over a deep copy of lines.
func NewSession(orderType, tableNumber string, lines []cart.Line) (*Session, error) {
	if orderType != enum.OrderTypeDineIn {
		return nil, ErrNotDineIn
	}
	if tableNumber == "" {
		return nil, ErrTableRequired
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if seen[l.Key] {
			return nil, fmt.Errorf("%s: %w", l.Key, ErrDuplicateLine)
		}
		seen[l.Key] = true
	}

	return &Session{
		ID:          uuid.New(),
		OrderType:   orderType,
		TableNumber: tableNumber,
		CreatedAt:   time.Now(),
		lines:       cart.CloneLines(lines),
		settled:     make(map[string]bool),
		mode:        enum.SplitModeByItem,
	}, nil
}

// SetMode switches between ByItem and Equally. partyCount is required (>= 2)
// for Equally and ignored for ByItem.
func (s *Session) SetMode(mode string, partyCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case enum.SplitModeByItem:
		s.mode, s.partyCount = mode, 0
	case enum.SplitModeEqually:
		if partyCount < 2 {
			return ErrPartyCount
		}
		s.mode, s.partyCount = mode, partyCount
	default:
		return ErrInvalidMode
	}
	return nil
}

// Settle records a payment.
//
// ByItem settles exactly the selected keys and returns their summed total.
// Equally ignores keys: it settles every unpaid line at once and reports
// remaining / partyCount as each payer's share. Paying one share at a time
// is not supported.
func (s *Session) Settle(keys []string) (Settlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == enum.SplitModeEqually {
		return s.settleEqually()
	}
	return s.settleByItem(keys)
}

func (s *Session) settleByItem(keys []string) (Settlement, error) {
	if len(keys) == 0 {
		return Settlement{}, ErrEmptySelection
	}

	selected := make([]cart.Line, 0, len(keys))
	picked := make(map[string]bool, len(keys))
	for _, k := range keys {
		line, ok := s.line(k)
		if !ok {
			return Settlement{}, fmt.Errorf("%s: %w", k, ErrUnknownLine)
		}
		if s.settled[k] || picked[k] {
			return Settlement{}, fmt.Errorf("%s: %w", k, ErrAlreadySettled)
		}
		picked[k] = true
		selected = append(selected, line)
	}

	for k := range picked {
		s.settled[k] = true
	}
	amount := cart.Total(selected)
	return Settlement{
		Keys:   append([]string(nil), keys...),
		Amount: amount,
		Share:  amount,
	}, nil
}

func (s *Session) settleEqually() (Settlement, error) {
	unpaid := s.unpaid()
	if len(unpaid) == 0 {
		return Settlement{}, ErrNothingRemaining
	}

	amount := cart.Total(unpaid)
	keys := make([]string, len(unpaid))
	for i, l := range unpaid {
		keys[i] = l.Key
		s.settled[l.Key] = true
	}
	return Settlement{
		Keys:       keys,
		Amount:     amount,
		Share:      amount.DivRound(decimal.NewFromInt(int64(s.partyCount)), 2),
		PartyCount: s.partyCount,
	}, nil
}

// Lines returns a copy of every line in the bill.
func (s *Session) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.CloneLines(s.lines)
}

// Unpaid returns copies of the lines not yet settled.
func (s *Session) Unpaid() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.CloneLines(s.unpaid())
}

// RemainingTotal is the total of the unpaid lines.
func (s *Session) RemainingTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.Total(s.unpaid())
}

// AllSettled reports whether no unpaid line remains.
func (s *Session) AllSettled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.unpaid()) == 0
}

// BeginCheckout claims a fully settled session for the single order it
// produces. A second claim fails until AbortCheckout releases the first.
func (s *Session) BeginCheckout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.checkedOut {
		return ErrCheckoutStarted
	}
	if len(s.unpaid()) > 0 {
		return ErrNotSettled
	}
	s.checkedOut = true
	return nil
}

// AbortCheckout releases the claim when the order could not be created.
func (s *Session) AbortCheckout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkedOut = false
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	settled := make([]string, 0, len(s.settled))
	for _, l := range s.lines {
		if s.settled[l.Key] {
			settled = append(settled, l.Key)
		}
	}
	unpaid := s.unpaid()
	return Snapshot{
		ID:          s.ID,
		OrderType:   s.OrderType,
		TableNumber: s.TableNumber,
		Mode:        s.mode,
		PartyCount:  s.partyCount,
		Lines:       cart.CloneLines(s.lines),
		SettledKeys: settled,
		Total:       cart.Total(s.lines),
		Remaining:   cart.Total(unpaid),
		AllSettled:  len(unpaid) == 0,
		CreatedAt:   s.CreatedAt,
	}
}

func (s *Session) line(key string) (cart.Line, bool) {
	for _, l := range s.lines {
		if l.Key == key {
			return l, true
		}
	}
	return cart.Line{}, false
}

func (s *Session) unpaid() []cart.Line {
	out := make([]cart.Line, 0, len(s.lines))
	for _, l := range s.lines {
		if !s.settled[l.Key] {
			out = append(out, l)
		}
	}
	return out
}

// Registry holds the open sessions of every checkout in progress.
type Registry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[uuid.UUID]*Session)}
}

// Create opens a session and registers it.
func (r *Registry) Create(orderType, tableNumber string, lines []cart.Line) (*Session, error) {
	s, err := NewSession(orderType, tableNumber, lines)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

// Get looks up an open session.
func (r *Registry) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Discard closes a session. It reports whether the session was open.
func (r *Registry) Discard(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	return true
}

// Sweep discards sessions created before now-maxAge and returns how many
// were dropped. Abandoned checkouts never call Discard.
func (r *Registry) Sweep(now time.Time, maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, s := range r.sessions {
		if now.Sub(s.CreatedAt) > maxAge {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Len is the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
