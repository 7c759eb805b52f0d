package registry

import "errors"

// Sentinel errors returned by registry operations.  Callers compare with
// errors.Is; storage failures are wrapped around the underlying cause.
var (
	// ErrUnauthorized is returned when a mutating call does not come from
	// the current admin.  It is checked before anything else.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidRecipient is returned when a recipient or new admin is the
	// null address.
	ErrInvalidRecipient = errors.New("invalid recipient")

	// ErrDuplicateSeat is returned when the (event id, seat code) pair has
	// already been minted.  Seats are never released.
	ErrDuplicateSeat = errors.New("seat already minted")

	// ErrNotFound is returned when no ticket has been minted under the
	// requested id.
	ErrNotFound = errors.New("ticket not found")

	// ErrNotOwner is returned when a transfer is requested by someone other
	// than the ticket's current owner.
	ErrNotOwner = errors.New("caller is not the ticket owner")

	// ErrInvalidAddress is returned when text cannot be parsed as a 20-byte
	// hex account address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrFieldTooLong is returned when a seat code or file suffix exceeds
	// MaxSeatCodeLen or MaxFileSuffixLen.
	ErrFieldTooLong = errors.New("field too long")
)
