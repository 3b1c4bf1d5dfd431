package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/streadway/amqp"
)

var ErrBrokerClosed = errors.New("broker connection closed")

// Channel is the subset of *amqp.Channel the forwarder publishes through.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPForwarder republishes bus events to a topic exchange, keyed by event type.
type AMQPForwarder struct {
	conn     *amqp.Connection
	ch       Channel
	exchange string
	logger   *slog.Logger
	mu       sync.Mutex
}

func DialAMQPForwarder(url, exchange string, logger *slog.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open broker channel: %w", err)
	}

	f, err := NewAMQPForwarder(ch, exchange, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	f.conn = conn
	return f, nil
}

func NewAMQPForwarder(ch Channel, exchange string, logger *slog.Logger) (*AMQPForwarder, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPForwarder{
		ch:       ch,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// Attach subscribes the forwarder to the given event types.
func (f *AMQPForwarder) Attach(bus *EventBus, eventTypes ...string) {
	for _, t := range eventTypes {
		bus.Subscribe(t, f.Handle)
	}
}

func (f *AMQPForwarder) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event %s: %w", event.EventID(), err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	err = f.ch.Publish(f.exchange, event.EventType(), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID(),
		Timestamp:    event.OccurredAt(),
		Type:         event.EventType(),
		Body:         body,
	})
	if err != nil {
		f.logger.Error("failed to forward event",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"error", err)
		return err
	}
	return nil
}

// Ping reports whether the broker connection is still open.
func (f *AMQPForwarder) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.conn != nil && f.conn.IsClosed() {
		return ErrBrokerClosed
	}
	return nil
}

func (f *AMQPForwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.ch.Close()
	if f.conn != nil {
		if cerr := f.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
