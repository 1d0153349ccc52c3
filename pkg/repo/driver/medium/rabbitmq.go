package medium

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"custody/pkg/entities"
	"custody/utilities"
)

const amqpDialTimeout = 10 * time.Second

// EventProducer publishes vault events to a topic exchange, routed by kind.
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// EventProducerFallback is used when the broker is not configured or not
// reachable at startup.
type EventProducerFallback struct{}

func (p *EventProducerFallback) PublishEvent(_ context.Context, event entities.Event) error {
	utilities.NewLogger("EventProducerFallback").Debugf("publish of %s skipped", event.Kind.RoutingKey())
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials the broker and declares the exchange.
func NewEventProducer(amqpURL, exchange string) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(amqpDialTimeout)})
	if err != nil {
		return nil, err
	}

	p := &EventProducer{conn: conn, exchange: exchange}
	if err := p.reopen(); err != nil {
		conn.Close()
		return nil, err
	}

	return p, nil
}

// NewPublisher returns a broker producer, or the fallback when amqpURL is
// empty or the broker cannot be reached.
func NewPublisher(amqpURL, exchange string) EventPublisher {
	log := utilities.NewLogger("NewPublisher")

	if amqpURL == "" {
		log.Warn("amqp url not configured, events will not be published to the broker")
		return &EventProducerFallback{}
	}

	p, err := NewEventProducer(amqpURL, exchange)
	if err != nil {
		log.WithError(err).Warn("rabbitmq unavailable, using fallback publisher")
		return &EventProducerFallback{}
	}

	return p
}

// reopen must be called with mu held or before the producer is shared.
func (p *EventProducer) reopen() error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return err
	}
	p.channel = ch
	return nil
}

func (p *EventProducer) PublishEvent(ctx context.Context, event entities.Event) error {
	log := utilities.NewLoggerWithFields("EventProducer.PublishEvent", map[string]interface{}{
		"exchange": p.exchange,
		"kind":     event.Kind.String(),
		"vault":    event.VaultID,
	})

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    time.Unix(event.Timestamp, 0).UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, event.Kind.RoutingKey(), false, false, msg)
	if err == nil {
		return nil
	}

	// one retry on a fresh channel
	log.WithError(err).Warn("publish failed, reopening channel")
	if reopenErr := p.reopen(); reopenErr != nil {
		return reopenErr
	}

	return p.channel.PublishWithContext(ctx, p.exchange, event.Kind.RoutingKey(), false, false, msg)
}

func (p *EventProducer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
