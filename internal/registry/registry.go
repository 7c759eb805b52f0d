// Package registry implements the ticket registry: it mints non-fungible
// ticket records bound to one (event, seat) pair each, tracks their owners
// and composes their metadata URIs from a mutable base.
//
// Every mutation is gated on a single admin address and runs under one
// exclusive lock covering the id allocator, the seat index, the record
// store and the settings.  Reads share a read lock and therefore only ever
// observe completed mutations.
package registry

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"
)

// metadataExt is appended to every resolved token URI.
const metadataExt = ".json"

// Upper bounds, in characters, on the free-form ticket fields.  They match
// the column widths of the MySQL store.
const (
	MaxSeatCodeLen   = 64
	MaxFileSuffixLen = 255
)

// Config carries the values fixed at registry creation.
type Config struct {
	Name    string
	Symbol  string
	BaseURI string
	Admin   Address
}

// Option customizes a Registry.
type Option func(*Registry)

// WithStore makes every mutation write through s before it is applied.
func WithStore(s Store) Option { return func(r *Registry) { r.store = s } }

// WithSink registers an event sink.  Sinks are called in registration order.
func WithSink(s Sink) Option { return func(r *Registry) { r.sinks = append(r.sinks, s) } }

// WithClock overrides the time source used for MintedAt.
func WithClock(now func() time.Time) Option { return func(r *Registry) { r.now = now } }

// MintRequest describes a ticket to mint.  An empty FileSuffix defaults to
// the decimal id of the new ticket.  SeatCode and FileSuffix are limited to
// MaxSeatCodeLen and MaxFileSuffixLen characters.
type MintRequest struct {
	To         Address
	EventID    uint64
	SeatCode   string
	FileSuffix string
}

// Registry is safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	name    string
	symbol  string
	baseURI string
	admin   Address

	nextID   uint64
	tickets  map[uint64]*Ticket
	seats    map[SeatKey]uint64
	balances map[Address]uint64

	store Store
	sinks []Sink
	now   func() time.Time
}

// New creates a registry.  When a store is configured its snapshot is
// loaded; a store without settings is seeded from cfg.  The
// persisted settings win over cfg once they exist, since base URI and admin
// may have been changed since the first start.
func New(ctx context.Context, cfg Config, opts ...Option) (*Registry, error) {
	r := &Registry{
		name:     cfg.Name,
		symbol:   cfg.Symbol,
		baseURI:  cfg.BaseURI,
		admin:    cfg.Admin,
		nextID:   1,
		tickets:  make(map[uint64]*Ticket),
		seats:    make(map[SeatKey]uint64),
		balances: make(map[Address]uint64),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		if r.admin.IsZero() {
			return nil, fmt.Errorf("registry admin: %w", ErrInvalidRecipient)
		}
		return r, nil
	}

	snap, err := r.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry state: %w", err)
	}
	if snap.Found {
		r.name = snap.Settings.Name
		r.symbol = snap.Settings.Symbol
		r.baseURI = snap.Settings.BaseURI
		r.admin = snap.Settings.Admin
	} else {
		// Tickets without a settings row (a partial restore) are still
		// loaded below so ids keep counting from the highest stored one.
		if r.admin.IsZero() {
			return nil, fmt.Errorf("registry admin: %w", ErrInvalidRecipient)
		}
		if err := r.store.SaveSettings(ctx, r.settings()); err != nil {
			return nil, fmt.Errorf("save initial settings: %w", err)
		}
	}
	for i := range snap.Tickets {
		t := snap.Tickets[i]
		if _, dup := r.seats[t.Key()]; dup {
			return nil, fmt.Errorf("load ticket %d: %w", t.ID, ErrDuplicateSeat)
		}
		r.tickets[t.ID] = &t
		r.seats[t.Key()] = t.ID
		r.balances[t.Owner]++
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r, nil
}

func (r *Registry) settings() Settings {
	return Settings{Name: r.name, Symbol: r.symbol, BaseURI: r.baseURI, Admin: r.admin}
}

func (r *Registry) emit(events ...Event) {
	for _, e := range events {
		for _, s := range r.sinks {
			s.Emit(e)
		}
	}
}

// Mint creates a ticket for req.To.  Preconditions are checked in a fixed
// order: caller is admin, recipient is not the null address, seat key is
// unused, field lengths fit.  A rejected mint changes nothing and consumes
// no id.  MintedAt is kept at microsecond precision so it survives a round
// trip through the store.
func (r *Registry) Mint(ctx context.Context, caller Address, req MintRequest) (Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return Ticket{}, ErrUnauthorized
	}
	if req.To.IsZero() {
		return Ticket{}, ErrInvalidRecipient
	}
	key := SeatKey{EventID: req.EventID, SeatCode: req.SeatCode}
	if _, taken := r.seats[key]; taken {
		return Ticket{}, ErrDuplicateSeat
	}
	if utf8.RuneCountInString(req.SeatCode) > MaxSeatCodeLen {
		return Ticket{}, fmt.Errorf("seat code: %w", ErrFieldTooLong)
	}
	if utf8.RuneCountInString(req.FileSuffix) > MaxFileSuffixLen {
		return Ticket{}, fmt.Errorf("file suffix: %w", ErrFieldTooLong)
	}

	t := Ticket{
		ID:         r.nextID,
		Owner:      req.To,
		EventID:    req.EventID,
		SeatCode:   req.SeatCode,
		FileSuffix: req.FileSuffix,
		MintedAt:   r.now().UTC().Truncate(time.Microsecond),
	}
	if t.FileSuffix == "" {
		t.FileSuffix = strconv.FormatUint(t.ID, 10)
	}
	if r.store != nil {
		if err := r.store.InsertTicket(ctx, t); err != nil {
			return Ticket{}, fmt.Errorf("persist ticket: %w", err)
		}
	}

	r.seats[key] = t.ID
	r.nextID++
	r.tickets[t.ID] = &t
	r.balances[t.Owner]++

	r.emit(
		Transfer{From: ZeroAddress, To: t.Owner, TicketID: t.ID},
		TicketMinted{TicketID: t.ID, Recipient: t.Owner, EventID: t.EventID, SeatCode: t.SeatCode},
	)
	return t, nil
}

// SetBaseURI replaces the base URI.  The new value applies immediately to
// every ticket, including ones minted before the change.
func (r *Registry) SetBaseURI(ctx context.Context, caller Address, base string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return ErrUnauthorized
	}
	next := r.settings()
	next.BaseURI = base
	if r.store != nil {
		if err := r.store.SaveSettings(ctx, next); err != nil {
			return fmt.Errorf("persist base uri: %w", err)
		}
	}
	prev := r.baseURI
	r.baseURI = base
	r.emit(BaseURIChanged{Previous: prev, Current: base})
	return nil
}

// SetAdmin hands administrative control to newAdmin.  The previous admin
// loses every right in the same step.
func (r *Registry) SetAdmin(ctx context.Context, caller, newAdmin Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if caller != r.admin {
		return ErrUnauthorized
	}
	if newAdmin.IsZero() {
		return ErrInvalidRecipient
	}
	next := r.settings()
	next.Admin = newAdmin
	if r.store != nil {
		if err := r.store.SaveSettings(ctx, next); err != nil {
			return fmt.Errorf("persist admin: %w", err)
		}
	}
	prev := r.admin
	r.admin = newAdmin
	r.emit(AdminChanged{Previous: prev, Current: newAdmin})
	return nil
}

// Transfer moves ticket id from its current owner to to.  Only the owner may
// transfer; the seat stays reserved regardless of who holds the ticket.
func (r *Registry) Transfer(ctx context.Context, caller Address, id uint64, to Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	if caller != t.Owner {
		return ErrNotOwner
	}
	if to.IsZero() {
		return ErrInvalidRecipient
	}
	if r.store != nil {
		if err := r.store.UpdateOwner(ctx, id, to); err != nil {
			return fmt.Errorf("persist owner: %w", err)
		}
	}
	from := t.Owner
	t.Owner = to
	r.balances[from]--
	if r.balances[from] == 0 {
		delete(r.balances, from)
	}
	r.balances[to]++
	r.emit(Transfer{From: from, To: to, TicketID: id})
	return nil
}

// OwnerOf returns the current owner of ticket id.
func (r *Registry) OwnerOf(id uint64) (Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return ZeroAddress, ErrNotFound
	}
	return t.Owner, nil
}

// TokenURI resolves the metadata location of ticket id as the current base
// URI followed by the ticket's file suffix and ".json".  Nothing is cached;
// separators are the caller's business when setting the base.
func (r *Registry) TokenURI(id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return "", ErrNotFound
	}
	return r.baseURI + t.FileSuffix + metadataExt, nil
}

// Ticket returns a copy of the record for id.
func (r *Registry) Ticket(id uint64) (Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tickets[id]
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return *t, nil
}

// BalanceOf returns how many tickets owner currently holds.
func (r *Registry) BalanceOf(owner Address) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[owner]
}

// TotalSupply returns the number of tickets ever minted.
func (r *Registry) TotalSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.tickets))
}

// Name returns the collection name.  It never changes after creation.
func (r *Registry) Name() string { return r.name }

// Symbol returns the collection symbol.  It never changes after creation.
func (r *Registry) Symbol() string { return r.symbol }

// BaseURI returns the prefix currently used by TokenURI.
func (r *Registry) BaseURI() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseURI
}

// Admin returns the only address currently allowed to mutate settings and
// mint.
func (r *Registry) Admin() Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.admin
}

// Info is a consistent view of the collection-wide values.
type Info struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	BaseURI     string  `json:"base_uri"`
	Admin       Address `json:"admin"`
	TotalSupply uint64  `json:"total_supply"`
}

// Info returns the collection settings and supply read under one lock.
func (r *Registry) Info() Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Info{
		Name:        r.name,
		Symbol:      r.symbol,
		BaseURI:     r.baseURI,
		Admin:       r.admin,
		TotalSupply: uint64(len(r.tickets)),
	}
}
