package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/metrics"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionRequest struct {
	FullName           string
	Email              string
	Language           string
	SelectedCategoryID *uint
}

// SeatAssigned is published for every subscriber who got a unit.
type SeatAssigned struct {
	EventID        uint      `json:"event_id"`
	SubscriptionID uint      `json:"subscription_id"`
	ReservationID  string    `json:"reservation_id"`
	TicketID       uint      `json:"ticket_id"`
	CategoryID     uint      `json:"category_id"`
	ValidUntil     time.Time `json:"valid_until"`
}

type WaitingQueueService interface {
	Subscribe(ctx context.Context, eventID uint, req SubscriptionRequest) (*models.WaitingQueueSubscription, error)
	DistributeAvailableSeats(ctx context.Context, eventID uint) (int, error)
	HandleWaitingTickets(ctx context.Context) error
	CountWaiting(ctx context.Context, eventID uint) (int64, error)
}

type waitingQueueService struct {
	tx              TxRunner
	eventRepo       repository.EventRepository
	categoryRepo    repository.CategoryRepository
	ticketRepo      repository.TicketRepository
	reservationRepo repository.ReservationRepository
	waitingRepo     repository.WaitingQueueRepository
	emailRepo       repository.EmailRepository
	pool            unitPool
	publisher       EventPublisher
	reservationTTL  time.Duration
	now             func() time.Time
}

func NewWaitingQueueService(
	tx TxRunner,
	eventRepo repository.EventRepository,
	categoryRepo repository.CategoryRepository,
	ticketRepo repository.TicketRepository,
	reservationRepo repository.ReservationRepository,
	waitingRepo repository.WaitingQueueRepository,
	emailRepo repository.EmailRepository,
	publisher EventPublisher,
	reservationTTL time.Duration,
) WaitingQueueService {
	return &waitingQueueService{
		tx:              tx,
		eventRepo:       eventRepo,
		categoryRepo:    categoryRepo,
		ticketRepo:      ticketRepo,
		reservationRepo: reservationRepo,
		waitingRepo:     waitingRepo,
		emailRepo:       emailRepo,
		pool:            unitPool{tickets: ticketRepo},
		publisher:       publisher,
		reservationTTL:  reservationTTL,
		now:             time.Now,
	}
}

func (s *waitingQueueService) Subscribe(ctx context.Context, eventID uint, req SubscriptionRequest) (*models.WaitingQueueSubscription, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || strings.TrimSpace(req.FullName) == "" {
		return nil, validationError(CodeInvalidName)
	}

	var sub *models.WaitingQueueSubscription
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID); err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if req.SelectedCategoryID != nil {
			if _, err := s.categoryRepo.FindActiveForUpdate(ctx, tx, eventID, *req.SelectedCategoryID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return validationError(CodeUnknownCategory)
				}
				return err
			}
		}
		_, err := s.waitingRepo.FindActiveByEmail(ctx, tx, eventID, email)
		if err == nil {
			return ErrAlreadySubscribed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		sub = &models.WaitingQueueSubscription{
			EventID:            eventID,
			FullName:           strings.TrimSpace(req.FullName),
			Email:              email,
			Language:           req.Language,
			SelectedCategoryID: req.SelectedCategoryID,
			Status:             models.SubscriptionWaiting,
			Creation:           s.now(),
		}
		if err := s.waitingRepo.Create(ctx, tx, sub); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadySubscribed
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return sub, nil
}

// DistributeAvailableSeats serves WAITING subscribers of one event in arrival
// order, one unit each, RELEASED units before FREE ones. It stops at the first
// subscriber that cannot be served. Whatever is still RELEASED afterwards
// becomes FREE, so running it again without intervening changes is a no-op.
func (s *waitingQueueService) DistributeAvailableSeats(ctx context.Context, eventID uint) (int, error) {
	var assigned []SeatAssigned
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		assigned = nil
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		subs, err := s.waitingRepo.LoadWaitingForUpdate(ctx, tx, eventID)
		if err != nil {
			return err
		}

		if len(subs) > 0 {
			categories, err := s.categoryRepo.FindActiveByEvent(ctx, tx, eventID)
			if err != nil {
				return err
			}
			unbounded, err := s.categoryRepo.FindUnboundedByEvent(ctx, tx, eventID)
			if err != nil {
				return err
			}
			byID := make(map[uint]models.TicketCategory, len(categories))
			for _, c := range categories {
				byID[c.ID] = c
			}

			for _, sub := range subs {
				ticketID, category, ok, err := s.pickUnit(ctx, tx, eventID, sub, byID, unbounded)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				seat, err := s.assign(ctx, tx, event, sub, ticketID, category)
				if err != nil {
					return err
				}
				assigned = append(assigned, seat)
			}
		}

		released, err := s.ticketRepo.LockReleased(ctx, tx, eventID)
		if err != nil {
			return err
		}
		return s.ticketRepo.UpdateStatus(ctx, tx, released, models.TicketFree)
	})
	if err != nil {
		return 0, translateTxError(err)
	}

	for _, seat := range assigned {
		publish(s.publisher, "waitingqueue.assigned", seat)
	}
	metrics.SeatsDistributed(eventID, len(assigned))
	if len(assigned) > 0 {
		log.Printf("[WaitingQueue] assigned %d seats for event %d", len(assigned), eventID)
	}
	return len(assigned), nil
}

// pickUnit finds the unit for one subscriber: a unit of the requested bounded
// category when it has one, otherwise an unbound unit drawn for the requested
// unbounded category or, lacking one, the unbounded category expiring last.
func (s *waitingQueueService) pickUnit(ctx context.Context, tx *gorm.DB, eventID uint, sub models.WaitingQueueSubscription, byID map[uint]models.TicketCategory, unbounded []models.TicketCategory) (uint, models.TicketCategory, bool, error) {
	var target *models.TicketCategory
	if sub.SelectedCategoryID != nil {
		if c, ok := byID[*sub.SelectedCategoryID]; ok {
			if c.Bounded {
				id, found, err := s.pool.takeOne(ctx, tx, eventID, &c.ID)
				if err != nil || found {
					return id, c, found, err
				}
			} else {
				target = &c
			}
		}
	}
	if target == nil {
		if len(unbounded) == 0 {
			return 0, models.TicketCategory{}, false, nil
		}
		target = &unbounded[0]
	}
	id, found, err := s.pool.takeOne(ctx, tx, eventID, nil)
	return id, *target, found, err
}

func (s *waitingQueueService) assign(ctx context.Context, tx *gorm.DB, event *models.Event, sub models.WaitingQueueSubscription, ticketID uint, category models.TicketCategory) (SeatAssigned, error) {
	reservation := &models.Reservation{
		ID:         uuid.NewString(),
		EventID:    event.ID,
		Status:     models.ReservationPending,
		ValidUntil: s.now().Add(s.reservationTTL),
		FullName:   sub.FullName,
		Email:      sub.Email,
	}
	if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
		return SeatAssigned{}, err
	}
	if err := s.ticketRepo.Reserve(ctx, tx, []uint{ticketID}, reservation.ID, &category.ID); err != nil {
		return SeatAssigned{}, err
	}
	if err := s.waitingRepo.FlagAsPending(ctx, tx, sub.ID, reservation.ID); err != nil {
		return SeatAssigned{}, err
	}
	if err := s.emailRepo.Enqueue(ctx, tx, &models.EmailMessage{
		EventID:   event.ID,
		Recipient: sub.Email,
		Subject:   fmt.Sprintf("A seat is available for %s", event.DisplayName),
		Body: fmt.Sprintf("Hello %s,\n\na %s ticket has been reserved for you until %s.\nReservation: %s\n",
			sub.FullName, category.Name, reservation.ValidUntil.In(event.Location()).Format(time.RFC1123), reservation.ID),
	}); err != nil {
		return SeatAssigned{}, err
	}
	return SeatAssigned{
		EventID:        event.ID,
		SubscriptionID: sub.ID,
		ReservationID:  reservation.ID,
		TicketID:       ticketID,
		CategoryID:     category.ID,
		ValidUntil:     reservation.ValidUntil,
	}, nil
}

// HandleWaitingTickets distributes seats for every event with waiting
// subscribers or released units. Each event runs in its own transaction and a
// failing event does not stop the others.
func (s *waitingQueueService) HandleWaitingTickets(ctx context.Context) error {
	ids, err := s.eventRepo.FindIDsPendingDistribution(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		if _, err := s.DistributeAvailableSeats(ctx, id); err != nil {
			log.Printf("[WaitingQueue] distribution failed for event %d: %v", id, err)
			errs = append(errs, fmt.Errorf("event %d: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func (s *waitingQueueService) CountWaiting(ctx context.Context, eventID uint) (int64, error) {
	return s.waitingRepo.CountWaiting(ctx, eventID)
}
