package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/parthbtw/WealthNest-Hackathon/internal/domain"
	"github.com/parthbtw/WealthNest-Hackathon/internal/logger"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is the topic exchange ledger events are published to
const DefaultExchange = "vault_events"

// channel is the subset of *amqp.Channel the publisher needs
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements domain.EventPublisher on a RabbitMQ topic exchange
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  channel
	exchange string
	reopen   func() (channel, error)
}

// NewPublisher dials RabbitMQ and declares the durable topic exchange
func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Bounded dial so startup does not hang
	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	reopen := func() (channel, error) {
		return conn.Channel()
	}

	ch, err := reopen()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	p, err := newPublisher(ch, exchange, reopen)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn

	return p, nil
}

func newPublisher(ch channel, exchange string, reopen func() (channel, error)) (*Publisher, error) {
	if strings.TrimSpace(exchange) == "" {
		exchange = DefaultExchange
	}

	if err := declareExchange(ch, exchange); err != nil {
		return nil, err
	}

	return &Publisher{channel: ch, exchange: exchange, reopen: reopen}, nil
}

// RoutingKey returns the routing key for an event type, e.g. ledger.deposit
func RoutingKey(eventType domain.LedgerEventType) string {
	return "ledger." + string(eventType)
}

// PublishLedgerEvent sends the event as JSON. A failed publish reopens the
// channel and retries once.
func (p *Publisher) PublishLedgerEvent(ctx context.Context, event domain.LedgerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID.String(),
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Body:         body,
	}
	key := RoutingKey(event.Type)

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if err == nil {
		return nil
	}

	logger.Warn("publish failed, reopening channel", logger.Fields{
		"exchange":    p.exchange,
		"routing_key": key,
		"error":       err.Error(),
	})

	if p.reopen == nil {
		return fmt.Errorf("failed to publish ledger event: %w", err)
	}
	ch, chErr := p.reopen()
	if chErr != nil {
		return fmt.Errorf("failed to reopen rabbitmq channel: %w", errors.Join(err, chErr))
	}
	if exErr := declareExchange(ch, p.exchange); exErr != nil {
		return exErr
	}
	p.channel = ch

	if err := p.channel.PublishWithContext(ctx, p.exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish ledger event: %w", err)
	}
	return nil
}

// Close closes the channel and the connection
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Fallback is a no-op publisher used when RabbitMQ is not configured or unreachable
type Fallback struct{}

// PublishLedgerEvent logs and drops the event
func (Fallback) PublishLedgerEvent(_ context.Context, event domain.LedgerEvent) error {
	logger.Warn("ledger event publish skipped", logger.Fields{
		"mode":     "fallback",
		"event_id": event.EventID.String(),
		"type":     string(event.Type),
	})
	return nil
}

func declareExchange(ch channel, exchange string) error {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return nil
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", fmt.Errorf("invalid AMQP URL: %w", err)
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}
