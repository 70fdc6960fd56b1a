// Package service holds the outbound side of the cross-instance relay.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/seating-plan/internal/model"
	"github.com/iliyamo/seating-plan/internal/queue"
)

const dialTimeout = 5 * time.Second

// Publisher sends collaboration events to the fanout exchange.  The
// connection is opened on first use and reopened after a failure, so a
// broker outage only costs the events published while it lasts.
type Publisher struct {
	url      string
	exchange string
	origin   string
	logger   *log.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for url and exchange.  origin is
// stamped on every message so the sender can skip its own events.
func NewPublisher(url, exchange, origin string, logger *log.Logger) *Publisher {
	return &Publisher{url: url, exchange: exchange, origin: origin, logger: logger}
}

// Publish implements engine.Relay.
func (p *Publisher) Publish(ctx context.Context, ev model.CollabEvent) error {
	body, err := queue.Encode(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(ctx)
	if err != nil {
		p.logger.Warn("rabbitmq: channel unavailable", "err", err)
		return err
	}
	pub := amqp.Publishing{
		ContentType: queue.ContentType,
		AppId:       p.origin,
		Type:        string(ev.Kind),
		Timestamp:   time.Now().UTC(),
		Body:        body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, "", false, false, pub); err != nil {
		p.logger.Warn("rabbitmq: publish failed", "kind", ev.Kind, "plan", ev.PlanID, "err", err)
		p.reset()
		return err
	}
	return nil
}

// channel returns the open channel, dialling when needed.  The dial is
// bounded by the deadline of ctx.  Callers hold mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	timeout := dialTimeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open: %w", err)
	}
	if err := queue.DeclareExchange(ch, p.exchange); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
