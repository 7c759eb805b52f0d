package registry

import (
	"context"
	"time"
)

// Ticket is one minted record.  Everything except Owner is fixed at mint
// time.
type Ticket struct {
	ID         uint64    `json:"id"`
	Owner      Address   `json:"owner"`
	EventID    uint64    `json:"event_id"`
	SeatCode   string    `json:"seat_code"`
	FileSuffix string    `json:"file_suffix"`
	MintedAt   time.Time `json:"minted_at"`
}

// SeatKey is the composite uniqueness key of a ticket.
type SeatKey struct {
	EventID  uint64
	SeatCode string
}

// Key returns the ticket's composite key.
func (t Ticket) Key() SeatKey { return SeatKey{EventID: t.EventID, SeatCode: t.SeatCode} }

// Settings holds the collection-wide values.  Name and Symbol never change
// after initialization.
type Settings struct {
	Name    string
	Symbol  string
	BaseURI string
	Admin   Address
}

// Snapshot is the persisted state handed to the registry when it opens.
// Found reports whether the settings row exists.  Tickets are returned
// either way.
type Snapshot struct {
	Found    bool
	Settings Settings
	Tickets  []Ticket
}

// Store persists registry state.  The registry calls it while holding its
// write lock and applies a change in memory only after the store accepted
// it, so a failing store leaves the registry untouched.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	InsertTicket(ctx context.Context, t Ticket) error
	UpdateOwner(ctx context.Context, id uint64, owner Address) error
	SaveSettings(ctx context.Context, s Settings) error
}
