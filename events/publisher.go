// Package events publishes order lifecycle events to a RabbitMQ topic
// exchange so other systems (ERP sync, SMS gateway) can follow along.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"go-buildmart/logger"
)

// Routing keys.
const (
	OrderPlaced        = "order.placed"
	OrderStatusChanged = "order.status_changed"
	OrderCancelled     = "order.cancelled"
	UserRegistered     = "user.registered"
)

// OrderEvent is the payload of the order.* keys.
type OrderEvent struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	TotalAmount float64   `json:"total_amount"`
	At          time.Time `json:"at"`
}

// Publisher sends JSON events under a routing key.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
	Close() error
}

// AMQPPublisher publishes to a durable topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials url and declares exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// LogPublisher logs events at debug level. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(ctx context.Context, key string, v any) error {
	logger.FromContext(ctx).Debug("event", "key", key, "payload", v)
	return nil
}

func (LogPublisher) Close() error { return nil }
