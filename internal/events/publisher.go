package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coursework/storefront/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const publishTimeout = 5 * time.Second

// Publisher sends order events to a queue through the default exchange
type Publisher struct {
	pool      *ChannelPool
	queueName string
	logger    *zap.Logger
}

// NewPublisher creates a new publisher
func NewPublisher(pool *ChannelPool, queueName string, logger *zap.Logger) *Publisher {
	return &Publisher{pool: pool, queueName: queueName, logger: logger}
}

// PublishOrderEvent publishes a persistent JSON message describing the event
func (p *Publisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	ch, err := p.pool.GetChannel(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer p.pool.ReturnChannel(ch)

	err = ch.PublishWithContext(ctx,
		"",          // default exchange
		p.queueName, // routing key
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}

	p.logger.Debug("Order event published",
		zap.String("type", event.Type),
		zap.Int("order_id", event.OrderID),
	)
	return nil
}

// Close releases the underlying channel pool
func (p *Publisher) Close() {
	p.pool.Close()
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

// PublishOrderEvent does nothing
func (NoopPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	return nil
}

// Close does nothing
func (NoopPublisher) Close() {}
