package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

// settingsRowID is the primary key of the single registry_settings row.
const settingsRowID = 1

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// seatKeyName is the unique key on tickets(event_id, seat_code).
const seatKeyName = "uq_tickets_event_seat"

// TicketRepo persists registry state in MySQL.  It implements
// registry.Store.
type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

var _ registry.Store = (*TicketRepo)(nil)

// Load reads the settings row and every ticket ordered by id.  Found is
// false when the settings row does not exist; tickets are read regardless.
func (r *TicketRepo) Load(ctx context.Context) (registry.Snapshot, error) {
	var (
		snap  registry.Snapshot
		admin string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT name, symbol, base_uri, admin FROM registry_settings WHERE id=? LIMIT 1",
		settingsRowID).Scan(&snap.Settings.Name, &snap.Settings.Symbol, &snap.Settings.BaseURI, &admin)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// not initialized, or a restore that only brought back tickets
	case err != nil:
		return registry.Snapshot{}, err
	default:
		if snap.Settings.Admin, err = registry.ParseAddress(admin); err != nil {
			return registry.Snapshot{}, fmt.Errorf("stored admin %q: %w", admin, err)
		}
		snap.Found = true
	}

	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, owner, event_id, seat_code, file_suffix, minted_at FROM tickets ORDER BY id")
	if err != nil {
		return registry.Snapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			t     registry.Ticket
			owner string
		)
		if err := rows.Scan(&t.ID, &owner, &t.EventID, &t.SeatCode, &t.FileSuffix, &t.MintedAt); err != nil {
			return registry.Snapshot{}, err
		}
		if t.Owner, err = registry.ParseAddress(owner); err != nil {
			return registry.Snapshot{}, fmt.Errorf("ticket %d owner %q: %w", t.ID, owner, err)
		}
		snap.Tickets = append(snap.Tickets, t)
	}
	if err := rows.Err(); err != nil {
		return registry.Snapshot{}, err
	}
	return snap, nil
}

// InsertTicket stores a freshly minted ticket.  A violation of the
// (event_id, seat_code) key is reported as registry.ErrDuplicateSeat.  Any
// other duplicate, such as the id already being taken, means the database
// has been written behind the registry's back and is returned as is.
func (r *TicketRepo) InsertTicket(ctx context.Context, t registry.Ticket) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO tickets (id, owner, event_id, seat_code, file_suffix, minted_at) VALUES (?,?,?,?,?,?)",
		t.ID, t.Owner.Hex(), t.EventID, t.SeatCode, t.FileSuffix, t.MintedAt.UTC())
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		if strings.Contains(myErr.Message, seatKeyName) {
			return registry.ErrDuplicateSeat
		}
		return fmt.Errorf("insert ticket %d: %w", t.ID, err)
	}
	return err
}

// UpdateOwner records a transfer.  MySQL reports zero affected rows for a
// self-transfer, so the row count is not checked.
func (r *TicketRepo) UpdateOwner(ctx context.Context, id uint64, owner registry.Address) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE tickets SET owner=? WHERE id=?", owner.Hex(), id)
	return err
}

// SaveSettings upserts the single settings row.
func (r *TicketRepo) SaveSettings(ctx context.Context, s registry.Settings) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO registry_settings (id, name, symbol, base_uri, admin) VALUES (?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE name=VALUES(name), symbol=VALUES(symbol), base_uri=VALUES(base_uri), admin=VALUES(admin)`,
		settingsRowID, s.Name, s.Symbol, s.BaseURI, s.Admin.Hex())
	return err
}
