package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/seating-plan/internal/model"
)

// applyTimeout bounds the handling of one delivery.
const applyTimeout = 5 * time.Second

// Handler applies events received from other instances.
type Handler interface {
	ApplyRemote(ctx context.Context, ev model.CollabEvent) error
}

// ConsumerConfig names the broker and exchange to consume from.
type ConsumerConfig struct {
	URL      string
	Exchange string
	// Origin is this instance's id; its own events are skipped.
	Origin string
}

// StartCollabConsumer binds an exclusive queue to the fanout exchange and
// feeds every delivery to h.  It reconnects with exponential backoff and
// only returns when ctx is cancelled.
func StartCollabConsumer(ctx context.Context, cfg ConsumerConfig, h Handler, logger *log.Logger) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			logger.Warn("collab-consumer: dial failed", "err", err, "retry", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, cfg, h, logger)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("collab-consumer: consume loop ended, reconnecting", "err", err)
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

// DeclareExchange declares the durable fanout exchange both sides use.
func DeclareExchange(ch *amqp.Channel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		return fmt.Errorf("exchange declare: %w", err)
	}
	return nil
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg ConsumerConfig, h Handler, logger *log.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		logger.Warn("collab-consumer: set QoS failed", "err", err)
	}
	if err := DeclareExchange(ch, cfg.Exchange); err != nil {
		return err
	}
	// server-named, exclusive and auto-deleted: missed events are not
	// replayed, a reconnecting instance reloads plans from the store
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	logger.Info("collab-consumer: listening", "exchange", cfg.Exchange, "queue", q.Name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if d.AppId != "" && d.AppId == cfg.Origin {
				_ = d.Ack(false)
				continue
			}
			if err := handleMessage(ctx, h, d.Body); err != nil {
				logger.Warn("collab-consumer: handle message failed", "err", err)
				_ = d.Nack(false, false) // do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, h Handler, body []byte) error {
	ev, err := Decode(body)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()
	if err := h.ApplyRemote(ctx, ev); err != nil {
		return fmt.Errorf("apply %s for plan %s: %w", ev.Kind, ev.PlanID, err)
	}
	return nil
}
