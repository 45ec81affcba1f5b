package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher writes events to a durable topic exchange, keyed by event type.
type AMQPPublisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
	log      *logger.Logger

	mu sync.Mutex
}

func NewAMQPPublisher(cfg config.EventsConfig, log *logger.Logger) (*AMQPPublisher, error) {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.RabbitMQURI == "" {
		log.Warn("RABBITMQ_URI is empty, event publishing is disabled")
		return &AMQPPublisher{log: log}, nil
	}

	conn, err := amqp091.Dial(cfg.RabbitMQURI)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "learnfinity.events"
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Info("event publisher ready", "exchange", exchange)
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange, enabled: true, log: log}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	if p == nil || !p.enabled {
		return nil
	}
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(pubCtx, p.exchange, string(e.Type), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.OccurredAt,
		Type:         string(e.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	p.log.Debug("event published", "type", e.Type, "id", e.ID)
	return nil
}

func (p *AMQPPublisher) Close() error {
	if p == nil || !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.log.Warn("close rabbitmq channel", "error", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
