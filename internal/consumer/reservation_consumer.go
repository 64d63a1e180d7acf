package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	KeyReserve = "reservation.reserve"
	KeyConfirm = "reservation.confirm"
	KeyExpire  = "reservation.expire"
)

// ReservationMessage is the body of every reservation.* message. Confirm and
// expire only read ReservationID.
type ReservationMessage struct {
	ReservationID string    `json:"reservation_id"`
	EventID       uint      `json:"event_id"`
	CategoryID    uint      `json:"category_id"`
	TicketIDs     []uint    `json:"ticket_ids"`
	ValidUntil    time.Time `json:"valid_until"`
	FullName      string    `json:"full_name"`
	Email         string    `json:"email"`
}

// ReservationConsumer applies reservation commands of the reservation
// subsystem to the ticket pool.
type ReservationConsumer struct {
	tickets service.TicketService
	timeout time.Duration
}

func NewReservationConsumer(tickets service.TicketService, timeout time.Duration) *ReservationConsumer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ReservationConsumer{tickets: tickets, timeout: timeout}
}

func (rc *ReservationConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			rc.handleMessage(msg)
		}
		log.Println("[ReservationConsumer] channel closed, stopping consumer")
	}()
}

func (rc *ReservationConsumer) handleMessage(msg amqp.Delivery) {
	var body ReservationMessage
	if err := json.Unmarshal(msg.Body, &body); err != nil || body.ReservationID == "" {
		log.Printf("[ReservationConsumer] dead-lettering malformed %s message: %v", msg.RoutingKey, err)
		msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), rc.timeout)
	defer cancel()

	err := rc.apply(ctx, msg.RoutingKey, body)
	switch {
	case err == nil:
		log.Printf("[ReservationConsumer] applied %s for reservation %s", msg.RoutingKey, body.ReservationID)
		msg.Ack(false)
	case retryable(err) && !msg.Redelivered:
		log.Printf("[ReservationConsumer] %s for reservation %s will be retried: %v", msg.RoutingKey, body.ReservationID, err)
		msg.Nack(false, true)
	default:
		log.Printf("[ReservationConsumer] rejecting %s for reservation %s: %v", msg.RoutingKey, body.ReservationID, err)
		msg.Nack(false, false)
	}
}

var errUnknownCommand = errors.New("unknown routing key")

func (rc *ReservationConsumer) apply(ctx context.Context, routingKey string, body ReservationMessage) error {
	switch routingKey {
	case KeyReserve:
		_, err := rc.tickets.ReserveUnits(ctx, service.ReserveRequest{
			EventID:       body.EventID,
			CategoryID:    body.CategoryID,
			TicketIDs:     body.TicketIDs,
			ReservationID: body.ReservationID,
			ValidUntil:    body.ValidUntil,
			FullName:      body.FullName,
			Email:         body.Email,
		})
		return err
	case KeyConfirm:
		return rc.tickets.ConfirmReservation(ctx, body.ReservationID)
	case KeyExpire:
		return rc.tickets.ExpireReservation(ctx, body.ReservationID)
	}
	return fmt.Errorf("%w: %s", errUnknownCommand, routingKey)
}

// retryable reports whether redelivering the message may succeed: capacity
// conflicts and infrastructure failures. Rejected commands are final. A
// message is redelivered once; a second failure sends it to the dead-letter
// queue.
func retryable(err error) bool {
	switch {
	case errors.Is(err, service.ErrConflict):
		return true
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrIllegalState),
		errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrReservationNotActive),
		errors.Is(err, errUnknownCommand):
		return false
	}
	return true
}
