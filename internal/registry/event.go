package registry

import "sync"

// Event is something observable that happened to the registry.  Events are
// emitted only after the mutation that produced them has been applied.
type Event interface {
	EventName() string
}

// Transfer records a change of ownership.  From is the zero address when
// the ticket was just minted.
type Transfer struct {
	From     Address `json:"from"`
	To       Address `json:"to"`
	TicketID uint64  `json:"ticket_id"`
}

// TicketMinted is emitted exactly once per successful mint.  It is how
// indexers discover the id assigned to a new ticket.
type TicketMinted struct {
	TicketID  uint64  `json:"ticket_id"`
	Recipient Address `json:"recipient"`
	EventID   uint64  `json:"event_id"`
	SeatCode  string  `json:"seat_code"`
}

// BaseURIChanged records a new base URI.  Every resolved URI changes with it.
type BaseURIChanged struct {
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

// AdminChanged records a handover of administrative control.
type AdminChanged struct {
	Previous Address `json:"previous"`
	Current  Address `json:"current"`
}

func (Transfer) EventName() string       { return "Transfer" }
func (TicketMinted) EventName() string   { return "TicketMinted" }
func (BaseURIChanged) EventName() string { return "BaseURIChanged" }
func (AdminChanged) EventName() string   { return "AdminChanged" }

// Sink receives registry events.  Emit is called while the registry still
// holds its write lock, so implementations must return promptly and must
// not call back into the registry.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// EventLog is an append-only in-memory Sink.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
}

// NewEventLog returns an empty log.
func NewEventLog() *EventLog { return &EventLog{} }

// Emit appends e.
func (l *EventLog) Emit(e Event) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

// Events returns a copy of everything recorded so far, oldest first.
func (l *EventLog) Events() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Minted returns the recorded TicketMinted events in emission order.
func (l *EventLog) Minted() []TicketMinted {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []TicketMinted
	for _, e := range l.events {
		if m, ok := e.(TicketMinted); ok {
			out = append(out, m)
		}
	}
	return out
}
