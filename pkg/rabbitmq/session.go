package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "inventory"
	ExchangeKind = "topic"

	// Rejected commands are dead-lettered here instead of being dropped.
	DeadLetterExchange = "inventory.dlx"
)

// session is one connection with one channel on which the inventory
// exchanges are declared.
type session struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func openSession(url string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	s := &session{conn: conn, channel: ch}

	for _, name := range []string{ExchangeName, DeadLetterExchange} {
		if err := ch.ExchangeDeclare(name, ExchangeKind, true, false, false, false, nil); err != nil {
			s.Close()
			return nil, fmt.Errorf("rabbitmq declare exchange %s: %w", name, err)
		}
	}
	return s, nil
}

// fail closes the session and wraps err, for use during setup.
func (s *session) fail(step string, err error) error {
	s.Close()
	return fmt.Errorf("rabbitmq %s: %w", step, err)
}

func (s *session) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
