package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

var (
	adminAddr = registry.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	ownerAddr = registry.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
)

func newMock(t *testing.T) (*TicketRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTicketRepo(db), mock
}

func TestLoadEmpty(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, symbol, base_uri, admin FROM registry_settings")).
		WithArgs(settingsRowID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "symbol", "base_uri", "admin"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner, event_id, seat_code, file_suffix, minted_at FROM tickets ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "event_id", "seat_code", "file_suffix", "minted_at"}))

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Found)
	assert.Empty(t, snap.Tickets)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadTicketsWithoutSettingsRow(t *testing.T) {
	repo, mock := newMock(t)
	minted := time.Date(2026, 1, 2, 3, 4, 5, 678000, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, symbol, base_uri, admin FROM registry_settings")).
		WithArgs(settingsRowID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "symbol", "base_uri", "admin"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner, event_id, seat_code, file_suffix, minted_at FROM tickets ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "event_id", "seat_code", "file_suffix", "minted_at"}).
			AddRow(uint64(3), ownerAddr.Hex(), uint64(10), "a001", "a001", minted))

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, snap.Found)
	require.Len(t, snap.Tickets, 1)
	assert.Equal(t, uint64(3), snap.Tickets[0].ID)
	assert.Equal(t, minted, snap.Tickets[0].MintedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadSnapshot(t *testing.T) {
	repo, mock := newMock(t)
	minted := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, symbol, base_uri, admin FROM registry_settings")).
		WithArgs(settingsRowID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "symbol", "base_uri", "admin"}).
			AddRow("BaseBlock Ticket", "BBT", "https://example.com/meta/", adminAddr.Hex()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner, event_id, seat_code, file_suffix, minted_at FROM tickets ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "event_id", "seat_code", "file_suffix", "minted_at"}).
			AddRow(uint64(1), ownerAddr.Hex(), uint64(10), "a001", "a001", minted).
			AddRow(uint64(2), "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359", uint64(10), "a002", "2", minted))

	snap, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Found)
	assert.Equal(t, registry.Settings{Name: "BaseBlock Ticket", Symbol: "BBT", BaseURI: "https://example.com/meta/", Admin: adminAddr}, snap.Settings)
	require.Len(t, snap.Tickets, 2)
	assert.Equal(t, registry.Ticket{ID: 1, Owner: ownerAddr, EventID: 10, SeatCode: "a001", FileSuffix: "a001", MintedAt: minted}, snap.Tickets[0])
	assert.Equal(t, ownerAddr, snap.Tickets[1].Owner)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadRejectsCorruptAdmin(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name, symbol, base_uri, admin FROM registry_settings")).
		WithArgs(settingsRowID).
		WillReturnRows(sqlmock.NewRows([]string{"name", "symbol", "base_uri", "admin"}).
			AddRow("n", "s", "b", "not-an-address"))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, registry.ErrInvalidAddress)
}

func TestInsertTicket(t *testing.T) {
	repo, mock := newMock(t)
	tk := registry.Ticket{ID: 1, Owner: ownerAddr, EventID: 10, SeatCode: "a001", FileSuffix: "a001", MintedAt: time.Now().UTC()}

	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(tk.ID, ownerAddr.Hex(), tk.EventID, tk.SeatCode, tk.FileSuffix, tk.MintedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.InsertTicket(context.Background(), tk))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTicketDuplicateSeat(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec("INSERT INTO tickets").
		WillReturnError(&mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry '10-a001' for key 'uq_tickets_event_seat'"})

	err := repo.InsertTicket(context.Background(), registry.Ticket{ID: 2, Owner: ownerAddr, EventID: 10, SeatCode: "a001"})
	require.ErrorIs(t, err, registry.ErrDuplicateSeat)
}

func TestInsertTicketDuplicateID(t *testing.T) {
	repo, mock := newMock(t)
	pk := &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry '3' for key 'tickets.PRIMARY'"}
	mock.ExpectExec("INSERT INTO tickets").WillReturnError(pk)

	err := repo.InsertTicket(context.Background(), registry.Ticket{ID: 3, Owner: ownerAddr, EventID: 10, SeatCode: "free"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, registry.ErrDuplicateSeat)
	require.ErrorIs(t, err, pk)
	assert.Contains(t, err.Error(), "insert ticket 3")
}

func TestInsertTicketOtherError(t *testing.T) {
	repo, mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO tickets").WillReturnError(boom)

	err := repo.InsertTicket(context.Background(), registry.Ticket{ID: 2, Owner: ownerAddr})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, registry.ErrDuplicateSeat)
}

func TestUpdateOwner(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets SET owner=? WHERE id=?")).
		WithArgs(adminAddr.Hex(), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateOwner(context.Background(), 7, adminAddr))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSettings(t *testing.T) {
	repo, mock := newMock(t)
	s := registry.Settings{Name: "BaseBlock Ticket", Symbol: "BBT", BaseURI: "https://new-cdn/", Admin: adminAddr}
	mock.ExpectExec("INSERT INTO registry_settings").
		WithArgs(settingsRowID, s.Name, s.Symbol, s.BaseURI, adminAddr.Hex()).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.SaveSettings(context.Background(), s))
	require.NoError(t, mock.ExpectationsWereMet())
}

// The registry and the repository together: a registry opened over a mocked
// database seeds the settings row and writes each mint through.
func TestRegistryWritesThrough(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT name, symbol, base_uri, admin FROM registry_settings").
		WillReturnRows(sqlmock.NewRows([]string{"name", "symbol", "base_uri", "admin"}))
	mock.ExpectQuery("SELECT id, owner, event_id, seat_code, file_suffix, minted_at FROM tickets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner", "event_id", "seat_code", "file_suffix", "minted_at"}))
	mock.ExpectExec("INSERT INTO registry_settings").
		WithArgs(settingsRowID, "BaseBlock Ticket", "BBT", "https://example.com/meta/", adminAddr.Hex()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(uint64(1), ownerAddr.Hex(), uint64(10), "a001", "a001", fixed).
		WillReturnResult(sqlmock.NewResult(1, 1))

	reg, err := registry.New(ctx, registry.Config{
		Name: "BaseBlock Ticket", Symbol: "BBT", BaseURI: "https://example.com/meta/", Admin: adminAddr,
	}, registry.WithStore(repo), registry.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	tk, err := reg.Mint(ctx, adminAddr, registry.MintRequest{To: ownerAddr, EventID: 10, SeatCode: "a001", FileSuffix: "a001"})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tk.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
