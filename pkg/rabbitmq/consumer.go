package rabbitmq

import (
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueName           = "inventory-service.reservations"
	DeadLetterQueueName = QueueName + ".dead"
	ReservationKey      = "reservation.*"
)

// Consumer reads reservation commands. Messages nacked without requeue end up
// in DeadLetterQueueName.
type Consumer struct {
	*session
}

func NewConsumer(url string, prefetch int) (*Consumer, error) {
	s, err := openSession(url)
	if err != nil {
		return nil, err
	}
	ch := s.channel

	if _, err := ch.QueueDeclare(DeadLetterQueueName, true, false, false, false, nil); err != nil {
		return nil, s.fail("declare dead letter queue", err)
	}
	if err := ch.QueueBind(DeadLetterQueueName, ReservationKey, DeadLetterExchange, false, nil); err != nil {
		return nil, s.fail("bind dead letter queue", err)
	}

	q, err := ch.QueueDeclare(QueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	})
	if err != nil {
		return nil, s.fail("declare queue", err)
	}
	if err := ch.QueueBind(q.Name, ReservationKey, ExchangeName, false, nil); err != nil {
		return nil, s.fail("bind queue", err)
	}

	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return nil, s.fail("qos", err)
		}
	}
	return &Consumer{session: s}, nil
}

// Consume starts delivery with manual acknowledgement.
func (c *Consumer) Consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(QueueName, "inventory-service", false, false, false, false, nil)
	if err != nil {
		return nil, c.fail("consume", err)
	}
	log.Printf("[RabbitMQ] consuming %s from queue %s", ReservationKey, QueueName)
	return msgs, nil
}
