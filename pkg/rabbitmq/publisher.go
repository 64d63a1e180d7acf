package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const confirmTimeout = 5 * time.Second

// Publisher sends domain events to the inventory exchange and waits for the
// broker to confirm each one.
type Publisher struct {
	*session
	mu sync.Mutex
}

func NewPublisher(url string) (*Publisher, error) {
	s, err := openSession(url)
	if err != nil {
		return nil, err
	}
	if err := s.channel.Confirm(false); err != nil {
		return nil, s.fail("enable confirms", err)
	}
	return &Publisher{session: s}, nil
}

func newMessage(payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal payload: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    now,
		Body:         body,
	}, nil
}

func (p *Publisher) Publish(routingKey string, payload any) error {
	msg, err := newMessage(payload, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), confirmTimeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("confirm %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("broker nacked %s (message %s)", routingKey, msg.MessageId)
	}

	log.Printf("[RabbitMQ] published %s message=%s", routingKey, msg.MessageId)
	return nil
}
