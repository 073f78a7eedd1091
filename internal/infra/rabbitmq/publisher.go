package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	confirms chan amqp.Confirmation
	tag      uint64
	exchange string
}

// Envelope matches the message shape of NestJS microservice consumers.
type Envelope struct {
	Pattern string `json:"pattern"`
	Data    any    `json:"data"`
	ID      string `json:"id,omitempty"`
}

func NewPublisher(amqpURL, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// durable topic exchange, routed by event pattern
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := channel.Confirm(false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &Publisher{
		conn:     conn,
		channel:  channel,
		confirms: channel.NotifyPublish(make(chan amqp.Confirmation, 1)),
		exchange: exchange,
	}, nil
}

func NewEnvelope(pattern string, data any) Envelope {
	return Envelope{Pattern: pattern, Data: data, ID: uuid.NewString()}
}

func (p *Publisher) Publish(ctx context.Context, pattern string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(NewEnvelope(pattern, data))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.Publish(p.exchange, pattern, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.tag++
	if err := awaitConfirm(ctx, p.confirms, p.tag); err != nil {
		return fmt.Errorf("%s: %w", pattern, err)
	}

	log.Printf("[events] published '%s' to exchange '%s'", pattern, p.exchange)
	return nil
}

// awaitConfirm waits for the broker ack of delivery tag. Confirms for earlier
// tags belong to publishes whose caller gave up and are skipped.
func awaitConfirm(ctx context.Context, confirms <-chan amqp.Confirmation, tag uint64) error {
	for {
		select {
		case confirm, ok := <-confirms:
			if !ok {
				return errors.New("channel closed before confirm")
			}
			if confirm.DeliveryTag < tag {
				continue
			}
			if !confirm.Ack {
				return fmt.Errorf("broker rejected delivery %d", confirm.DeliveryTag)
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("waiting for confirm: %w", ctx.Err())
		}
	}
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// LogPublisher is used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, pattern string, data any) error {
	body, err := json.Marshal(NewEnvelope(pattern, data))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	log.Printf("[events] %s", body)
	return nil
}
