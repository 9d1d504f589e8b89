// Package amqp announces stored survey responses on a RabbitMQ exchange.
package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// DefaultExchange is the topic exchange responses are published to.
	DefaultExchange = "surveyflow.responses"
	// DefaultRoutingKey is used for every stored response.
	DefaultRoutingKey = "response.submitted"

	// MessageTypeResponseSubmitted tags a stored response announcement.
	MessageTypeResponseSubmitted = "response.submitted"
)

// Message is the JSON envelope written to the exchange.
type Message struct {
	ID        string           `json:"id"`
	Type      string           `json:"type"`
	Payload   *domain.Response `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
}

// Publisher implements ports.ResultPublisher.
type Publisher struct {
	url        string
	exchange   string
	routingKey string
	logger     *slog.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithExchange overrides the exchange name.
func WithExchange(name string) Option {
	return func(p *Publisher) {
		if name != "" {
			p.exchange = name
		}
	}
}

// WithRoutingKey overrides the routing key.
func WithRoutingKey(key string) Option {
	return func(p *Publisher) {
		if key != "" {
			p.routingKey = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher dials the broker and declares the exchange.
func NewPublisher(url string, opts ...Option) (*Publisher, error) {
	p := &Publisher{
		url:        url,
		exchange:   DefaultExchange,
		routingKey: DefaultRoutingKey,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	p.conn = conn
	p.channel = ch
	p.logger.Info("connected to RabbitMQ", "exchange", p.exchange)
	return nil
}

// channelLocked returns an open channel, reconnecting once if the previous one was closed.
func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.conn == nil {
		return nil, errors.New("publisher closed")
	}
	if !p.conn.IsClosed() && !p.channel.IsClosed() {
		return p.channel, nil
	}

	p.logger.Warn("amqp channel closed, reconnecting")
	if p.channel != nil {
		p.channel.Close()
	}
	p.conn.Close()
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p.channel, nil
}

// Publish sends a response.submitted message for resp.
func (p *Publisher) Publish(ctx context.Context, resp *domain.Response) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeResponseSubmitted,
		Payload:   resp,
		Timestamp: time.Now(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channelLocked()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx, p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         msg.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s/%s: %w", p.exchange, p.routingKey, err)
	}

	p.logger.Debug("published response",
		"exchange", p.exchange,
		"routing_key", p.routingKey,
		"message_id", msg.ID,
		"survey_id", resp.SurveyID,
		"response_id", resp.ID,
	)
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return nil
	}
	if p.channel != nil {
		p.channel.Close()
	}
	err := p.conn.Close()
	p.conn, p.channel = nil, nil
	return err
}
