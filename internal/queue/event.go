// Package queue defines message payloads exchanged over the message broker
// and the background consumer that records them.
package queue

// Queue names.  Routing keys equal the queue names on the default exchange.
const (
	TicketMintedQueue      = "ticket.minted"
	TicketTransferredQueue = "ticket.transferred"
)

// TicketMintedEvent is published after a ticket has been minted.  It carries
// the assigned id so indexers never have to guess it.
type TicketMintedEvent struct {
	TicketID  uint64 `json:"ticket_id"`
	Recipient string `json:"recipient"`
	EventID   uint64 `json:"event_id"`
	SeatCode  string `json:"seat_code"`
	MintedAt  string `json:"minted_at"`
}

// TicketTransferredEvent is published when a ticket changes hands after mint.
type TicketTransferredEvent struct {
	TicketID      uint64 `json:"ticket_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	TransferredAt string `json:"transferred_at"`
}
