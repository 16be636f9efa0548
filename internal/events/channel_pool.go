// Package events publishes order lifecycle events to RabbitMQ
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	dialTimeout   = 2 * time.Second
	redialBackoff = 5 * time.Second
)

// ErrPoolClosed is returned when a channel is requested from a closed pool
var ErrPoolClosed = errors.New("channel pool is closed")

// Channel is the part of *amqp.Channel the publisher needs
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// ChannelPool hands out at most size AMQP channels at a time.
// Every checked out channel holds one slot; a slot is released on return even when
// the channel is dead, so broker outages never shrink the pool.
type ChannelPool struct {
	open   func() (Channel, error)
	closer func()
	slots  chan struct{}
	idle   chan Channel
	done   chan struct{}
	mu     sync.Mutex
	closed bool
	logger *zap.Logger
}

// connection dials RabbitMQ lazily and redials after the broker drops it
type connection struct {
	url        string
	queueName  string
	mu         sync.Mutex
	conn       *amqp.Connection
	retryAfter time.Time
	logger     *zap.Logger
}

func (c *connection) channel() (Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.conn.IsClosed() {
		if time.Now().Before(c.retryAfter) {
			return nil, fmt.Errorf("RabbitMQ is unavailable, next dial after %s", c.retryAfter.Format(time.RFC3339))
		}
		conn, err := amqp.DialConfig(c.url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(dialTimeout),
		})
		if err != nil {
			c.retryAfter = time.Now().Add(redialBackoff)
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		if c.conn != nil {
			c.logger.Info("Reconnected to RabbitMQ")
		}
		c.conn = conn
		go c.watch(conn)
	}

	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	// durable, not auto-deleted, not exclusive
	if _, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", c.queueName, err)
	}
	return ch, nil
}

// watch logs when the broker closes the connection; the next channel request redials
func (c *connection) watch(conn *amqp.Connection) {
	if err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1)); ok && err != nil {
		c.logger.Warn("RabbitMQ connection lost", zap.Error(err))
	}
}

func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
	}
}

// NewChannelPool dials RabbitMQ and pre-opens size channels, each with queueName declared
func NewChannelPool(url, queueName string, size int, logger *zap.Logger) (*ChannelPool, error) {
	conn := &connection{url: url, queueName: queueName, logger: logger}

	pool, err := newChannelPool(conn.channel, size, logger)
	if err != nil {
		conn.close()
		return nil, err
	}
	pool.closer = conn.close
	return pool, nil
}

func newChannelPool(open func() (Channel, error), size int, logger *zap.Logger) (*ChannelPool, error) {
	if size < 1 {
		size = 1
	}

	pool := &ChannelPool{
		open:   open,
		slots:  make(chan struct{}, size),
		idle:   make(chan Channel, size),
		done:   make(chan struct{}),
		logger: logger,
	}
	for i := 0; i < size; i++ {
		ch, err := open()
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create channel %d: %w", i, err)
		}
		pool.idle <- ch
	}

	logger.Info("RabbitMQ channel pool created", zap.Int("size", size))
	return pool, nil
}

// GetChannel takes a slot, waiting until one is free or ctx is done, and returns an
// open channel. Dead idle channels are discarded and a fresh one is opened in their place.
// When opening fails the slot is released and the error is returned at once.
func (p *ChannelPool) GetChannel(ctx context.Context) (Channel, error) {
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	default:
	}

	select {
	case p.slots <- struct{}{}:
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for {
		select {
		case ch := <-p.idle:
			if ch.IsClosed() {
				continue
			}
			return ch, nil
		default:
		}

		ch, err := p.open()
		if err != nil {
			<-p.slots
			return nil, err
		}
		return ch, nil
	}
}

// ReturnChannel puts a channel back and frees its slot. Closed channels are dropped.
func (p *ChannelPool) ReturnChannel(ch Channel) {
	defer func() { <-p.slots }()
	if ch == nil || ch.IsClosed() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		ch.Close()
		return
	}
	select {
	case p.idle <- ch:
	default:
		ch.Close()
	}
}

// Close closes every idle channel and the connection
func (p *ChannelPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.done)

drain:
	for {
		select {
		case ch := <-p.idle:
			ch.Close()
		default:
			break drain
		}
	}
	if p.closer != nil {
		p.closer()
	}
	p.logger.Info("RabbitMQ channel pool closed")
}
