package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartTicketConsumer connects to RabbitMQ, declares the ticket.minted and
// ticket.transferred queues (durable) and appends one line per message to
// logDir/ticket.log.  It reconnects with exponential backoff until ctx is
// cancelled, which is the only way it returns.
func StartTicketConsumer(ctx context.Context, url, logDir string) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("ticket-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = consumeLoop(ctx, conn, logDir)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("ticket-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, logDir string) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Printf("ticket-consumer: set QoS failed: %v", err)
	}

	deliveries := make(map[string]<-chan amqp.Delivery, 2)
	for _, name := range []string{TicketMintedQueue, TicketTransferredQueue} {
		if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", name, err)
		}
		msgs, err := ch.ConsumeWithContext(ctx, name, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", name, err)
		}
		deliveries[name] = msgs
	}

	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case d, ok = <-deliveries[TicketMintedQueue]:
			queue = TicketMintedQueue
		case d, ok = <-deliveries[TicketTransferredQueue]:
			queue = TicketTransferredQueue
		}
		if !ok {
			return fmt.Errorf("%s deliveries channel closed", queue)
		}
		if err := handleMessage(logDir, queue, d.Body); err != nil {
			log.Printf("ticket-consumer: handle %s message failed: %v", queue, err)
			_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
			continue
		}
		_ = d.Ack(false)
	}
}

func handleMessage(logDir, queue string, body []byte) error {
	var buf bytes.Buffer
	switch queue {
	case TicketMintedQueue:
		var ev TicketMintedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if ev.TicketID == 0 {
			return errors.New("message without ticket_id")
		}
		if err := writeLine(&buf, ev); err != nil {
			return err
		}
	case TicketTransferredQueue:
		var ev TicketTransferredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
		if ev.TicketID == 0 {
			return errors.New("message without ticket_id")
		}
		if err := writeTransferLine(&buf, ev); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown queue %q", queue)
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(logDir, "ticket.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func writeLine(w io.Writer, ev TicketMintedEvent) error {
	_, err := fmt.Fprintf(w, "[%s] Ticket minted | ticket_id=%d | recipient=%s | event_id=%d | seat=%q\n",
		ev.MintedAt, ev.TicketID, ev.Recipient, ev.EventID, ev.SeatCode)
	return err
}

func writeTransferLine(w io.Writer, ev TicketTransferredEvent) error {
	_, err := fmt.Fprintf(w, "[%s] Ticket transferred | ticket_id=%d | from=%s | to=%s\n",
		ev.TransferredAt, ev.TicketID, ev.From, ev.To)
	return err
}
