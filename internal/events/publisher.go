package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"kitchen_inventory_backend/internal/models"
)

const (
	// KitchenExchange is the topic exchange cooking events are published to.
	KitchenExchange = "kitchen_topic"
	// RoutingKeyMenuCooked is the routing key of a committed cooking event.
	RoutingKeyMenuCooked = "kitchen.menu.cooked"
)

// Publisher fans out committed domain events. Publishing never takes part in a stock transaction.
type Publisher interface {
	PublishCookingEvent(ctx context.Context, event models.CookingEvent) error
	Close() error
}

// CookingEventMessage is the JSON body of a kitchen.menu.cooked message.
type CookingEventMessage struct {
	CookingEventID int64     `json:"cooking_event_id"`
	MenuID         int64     `json:"menu_id"`
	Quantity       int       `json:"quantity"`
	ActorID        int64     `json:"actor_id"`
	CookedAt       time.Time `json:"cooked_at"`
}

// NewCookingEventMessage builds the message body for a cooking event.
func NewCookingEventMessage(event models.CookingEvent) CookingEventMessage {
	return CookingEventMessage{
		CookingEventID: event.ID,
		MenuID:         event.MenuID,
		Quantity:       event.Quantity,
		ActorID:        event.UserID,
		CookedAt:       event.CookedAt.UTC(),
	}
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishCookingEvent(context.Context, models.CookingEvent) error { return nil }
func (NopPublisher) Close() error                                                  { return nil }

// confirmChannel is the part of *amqp.Channel the publisher uses.
type confirmChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	GetNextPublishSeqNo() uint64
	Close() error
}

// confirmBuffer holds confirms that arrive after their publisher gave up waiting.
const confirmBuffer = 64

// RabbitPublisher publishes with publisher confirms on a single channel.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   confirmChannel

	acks <-chan amqp.Confirmation
	mu   sync.Mutex // serializes Publish while waiting for confirms
}

// DialRabbit connects to url, enables confirms and declares the kitchen exchange.
func DialRabbit(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(KitchenExchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", KitchenExchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}
	acks := ch.NotifyPublish(make(chan amqp.Confirmation, confirmBuffer))

	return &RabbitPublisher{conn: conn, ch: ch, acks: acks}, nil
}

// PublishCookingEvent publishes the event and waits for the broker confirm of this delivery
// or ctx cancellation. Confirms left over from abandoned publishes are skipped by delivery tag.
func (p *RabbitPublisher) PublishCookingEvent(ctx context.Context, event models.CookingEvent) error {
	body, err := json.Marshal(NewCookingEventMessage(event))
	if err != nil {
		return fmt.Errorf("failed to marshal cooking event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	seqNo := p.ch.GetNextPublishSeqNo()
	err = p.ch.PublishWithContext(ctx, KitchenExchange, RoutingKeyMenuCooked, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    strconv.FormatInt(event.ID, 10),
		Timestamp:    time.Now().UTC(),
		Headers: amqp.Table{
			"x-source": "kitchen-inventory",
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("failed to publish cooking event %d: %w", event.ID, err)
	}

	for {
		select {
		case conf, ok := <-p.acks:
			if !ok {
				return fmt.Errorf("confirm channel closed before cooking event %d was confirmed", event.ID)
			}
			if conf.DeliveryTag < seqNo {
				continue
			}
			if conf.Ack {
				return nil
			}
			return fmt.Errorf("publish NACK from broker for cooking event %d", event.ID)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close closes the channel and the connection.
func (p *RabbitPublisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
