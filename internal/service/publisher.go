// Package service forwards registry events to RabbitMQ.  Publishing happens
// on a background goroutine: the registry hands events over while holding
// its write lock and must never wait on the broker.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/ticket-registry/internal/queue"
	"github.com/iliyamo/ticket-registry/internal/registry"
)

type message struct {
	queue string
	body  []byte
}

type publishFunc func(ctx context.Context, m message) error

// Publisher is a registry.Sink that queues TicketMinted and post-mint
// Transfer events for delivery to RabbitMQ.  Other events are ignored.
type Publisher struct {
	url     string
	pending chan message
	now     func() time.Time

	conn    *amqp.Connection
	ch      *amqp.Channel
	publish publishFunc
}

var _ registry.Sink = (*Publisher)(nil)

// NewPublisher returns a publisher buffering up to buffer messages.
func NewPublisher(url string, buffer int) *Publisher {
	if buffer < 1 {
		buffer = 1
	}
	p := &Publisher{
		url:     url,
		pending: make(chan message, buffer),
		now:     time.Now,
	}
	p.publish = p.publishAMQP
	return p
}

// Emit converts e into a broker message and queues it.  When the buffer is
// full the message is dropped and logged; Emit never blocks.
func (p *Publisher) Emit(e registry.Event) {
	m, ok, err := p.encode(e)
	if err != nil {
		log.Printf("ticket-publisher: encode %s failed: %v", e.EventName(), err)
		return
	}
	if !ok {
		return
	}
	select {
	case p.pending <- m:
	default:
		log.Printf("ticket-publisher: buffer full, dropping %s message", m.queue)
	}
}

func (p *Publisher) encode(e registry.Event) (message, bool, error) {
	at := p.now().UTC().Format(time.RFC3339)
	var (
		m   message
		err error
	)
	switch ev := e.(type) {
	case registry.TicketMinted:
		m.queue = queue.TicketMintedQueue
		m.body, err = json.Marshal(queue.TicketMintedEvent{
			TicketID:  ev.TicketID,
			Recipient: ev.Recipient.Hex(),
			EventID:   ev.EventID,
			SeatCode:  ev.SeatCode,
			MintedAt:  at,
		})
	case registry.Transfer:
		// the mint itself is announced through TicketMinted
		if ev.From.IsZero() {
			return message{}, false, nil
		}
		m.queue = queue.TicketTransferredQueue
		m.body, err = json.Marshal(queue.TicketTransferredEvent{
			TicketID:      ev.TicketID,
			From:          ev.From.Hex(),
			To:            ev.To.Hex(),
			TransferredAt: at,
		})
	default:
		return message{}, false, nil
	}
	if err != nil {
		return message{}, false, err
	}
	return m, true, nil
}

// Run delivers queued messages until ctx is cancelled.  A failed publish is
// retried once on a fresh connection and then dropped with a log line.
func (p *Publisher) Run(ctx context.Context) error {
	defer p.close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-p.pending:
			if err := p.publish(ctx, m); err != nil {
				p.close()
				if err = p.publish(ctx, m); err != nil {
					log.Printf("ticket-publisher: publish to %s failed: %v", m.queue, err)
				}
			}
		}
	}
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.close()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Ensure the queues exist (idempotent). Durable so messages survive broker restarts.
	for _, name := range []string{queue.TicketMintedQueue, queue.TicketTransferredQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, err
		}
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) publishAMQP(ctx context.Context, m message) error {
	ch, err := p.channel()
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx,
		"",      // default exchange
		m.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    p.now().UTC(),
			Body:         m.body,
		})
}

func (p *Publisher) close() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
