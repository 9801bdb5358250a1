// Package rabbit publishes attempt outcomes to RabbitMQ.
package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quiz-client/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends attempt events to a topic exchange, routed by event type
// (attempt.completed, attempt.abandoned).
type Publisher struct {
	conn     *amqp.Connection
	exchange string

	// amqp channels must not be shared between concurrent publishers
	mu sync.Mutex
	ch *amqp.Channel
}

// Dial connects to url and declares the exchange.
func Dial(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	p, err := NewPublisher(conn, exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return p, nil
}

func NewPublisher(conn *amqp.Connection, exchange string) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, exchange: exchange, ch: ch}, nil
}

func (p *Publisher) Publish(ctx context.Context, event domain.AttemptEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		event.Type, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.AttemptID + ":" + event.Type,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}
