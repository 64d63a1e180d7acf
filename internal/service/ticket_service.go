package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/metrics"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"gorm.io/gorm"
)

type ReserveRequest struct {
	EventID       uint
	CategoryID    uint
	TicketIDs     []uint
	ReservationID string
	ValidUntil    time.Time
	FullName      string
	Email         string
}

// TicketService drives pool units through their lifecycle on behalf of the
// reservation subsystem.
type TicketService interface {
	ReserveUnits(ctx context.Context, req ReserveRequest) (*models.Reservation, error)
	ConfirmReservation(ctx context.Context, reservationID string) error
	ExpireReservation(ctx context.Context, reservationID string) error
	CleanupExpiredReservations(ctx context.Context, before time.Time) (int, error)
	CheckIn(ctx context.Context, ticketID uint) (*models.Ticket, error)
	ReleaseTicket(ctx context.Context, ticketID uint, username string) (*models.Ticket, error)
}

type ticketService struct {
	tx              TxRunner
	eventRepo       repository.EventRepository
	categoryRepo    repository.CategoryRepository
	ticketRepo      repository.TicketRepository
	reservationRepo repository.ReservationRepository
	waitingRepo     repository.WaitingQueueRepository
	reservationTTL  time.Duration
	now             func() time.Time
}

func NewTicketService(
	tx TxRunner,
	eventRepo repository.EventRepository,
	categoryRepo repository.CategoryRepository,
	ticketRepo repository.TicketRepository,
	reservationRepo repository.ReservationRepository,
	waitingRepo repository.WaitingQueueRepository,
	reservationTTL time.Duration,
) TicketService {
	return &ticketService{
		tx:              tx,
		eventRepo:       eventRepo,
		categoryRepo:    categoryRepo,
		ticketRepo:      ticketRepo,
		reservationRepo: reservationRepo,
		waitingRepo:     waitingRepo,
		reservationTTL:  reservationTTL,
		now:             time.Now,
	}
}

func uniqueSorted(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReserveUnits moves the given units to PENDING under the reservation. Units
// must be available and belong to the category, or to the unbound pool when
// the category is unbounded. Nothing is reserved unless every unit qualifies.
// Units already held by the same reservation count as reserved, so a repeated
// command succeeds without changes.
func (s *ticketService) ReserveUnits(ctx context.Context, req ReserveRequest) (*models.Reservation, error) {
	ids := uniqueSorted(req.TicketIDs)
	if len(ids) == 0 || req.ReservationID == "" {
		return nil, validationError(CodeInvalidTransition)
	}

	var reservation *models.Reservation
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, req.EventID); err != nil {
			return notFound(err, ErrEventNotFound)
		}
		category, err := s.categoryRepo.FindActiveForUpdate(ctx, tx, req.EventID, req.CategoryID)
		if err != nil {
			return notFound(err, ErrCategoryNotFound)
		}

		tickets, err := s.ticketRepo.LockByIDs(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(tickets) != len(ids) {
			return ErrTicketNotFound
		}
		var toReserve []uint
		for _, t := range tickets {
			if t.EventID != req.EventID {
				return ErrTicketNotFound
			}
			if t.Status == models.TicketPending && t.ReservationID != nil && *t.ReservationID == req.ReservationID {
				// already held by this reservation: a repeated command
				if t.CategoryID == nil || *t.CategoryID != category.ID {
					return conflictError(CodeNotEnoughSeats)
				}
				continue
			}
			if !t.Status.CanTransitionTo(models.TicketPending) {
				return conflictError(CodeInvalidTransition)
			}
			if category.Bounded && (t.CategoryID == nil || *t.CategoryID != category.ID) {
				return conflictError(CodeNotEnoughSeats)
			}
			if !category.Bounded && t.CategoryID != nil {
				return conflictError(CodeNotEnoughSeats)
			}
			toReserve = append(toReserve, t.ID)
		}

		reservation, err = s.reservationRepo.FindByIDForUpdate(ctx, tx, req.ReservationID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			validUntil := req.ValidUntil
			if validUntil.IsZero() {
				validUntil = s.now().Add(s.reservationTTL)
			}
			reservation = &models.Reservation{
				ID:         req.ReservationID,
				EventID:    req.EventID,
				Status:     models.ReservationPending,
				ValidUntil: validUntil,
				FullName:   req.FullName,
				Email:      req.Email,
			}
			if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
				return err
			}
		case err != nil:
			return err
		case reservation.Status != models.ReservationPending || reservation.EventID != req.EventID:
			return ErrReservationNotActive
		}

		if len(toReserve) == 0 {
			return nil
		}
		return s.ticketRepo.Reserve(ctx, tx, toReserve, req.ReservationID, &category.ID)
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return reservation, nil
}

func (s *ticketService) ConfirmReservation(ctx context.Context, reservationID string) error {
	current, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return notFound(err, ErrReservationNotFound)
	}

	err = s.tx.Transact(ctx, func(tx *gorm.DB) error {
		if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, current.EventID); err != nil {
			return notFound(err, ErrEventNotFound)
		}
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return notFound(err, ErrReservationNotFound)
		}
		if reservation.Status != models.ReservationPending {
			return ErrReservationNotActive
		}

		tickets, err := s.ticketRepo.LockByReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		ids := make([]uint, 0, len(tickets))
		for _, t := range tickets {
			if !t.Status.CanTransitionTo(models.TicketAcquired) {
				return conflictError(CodeInvalidTransition)
			}
			ids = append(ids, t.ID)
		}
		if err := s.ticketRepo.UpdateStatus(ctx, tx, ids, models.TicketAcquired); err != nil {
			return err
		}
		if err := s.reservationRepo.UpdateStatus(ctx, tx, reservationID, models.ReservationComplete); err != nil {
			return err
		}
		_, err = s.waitingRepo.UpdateStatusByReservation(ctx, tx, reservationID, models.SubscriptionAcquired)
		return err
	})
	return translateTxError(err)
}

// ExpireReservation returns the reserved units to the pool as RELEASED. Units
// of bounded categories stay in their category, the others go back to the
// unbound pool. A waiting-queue subscription bound to the reservation expires.
// Expiring an already expired reservation is a no-op.
func (s *ticketService) ExpireReservation(ctx context.Context, reservationID string) error {
	current, err := s.reservationRepo.FindByID(ctx, reservationID)
	if err != nil {
		return notFound(err, ErrReservationNotFound)
	}
	if current.Status == models.ReservationExpired {
		return nil
	}

	expired := false
	err = s.tx.Transact(ctx, func(tx *gorm.DB) error {
		expired = false
		if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, current.EventID); err != nil {
			return notFound(err, ErrEventNotFound)
		}
		reservation, err := s.reservationRepo.FindByIDForUpdate(ctx, tx, reservationID)
		if err != nil {
			return notFound(err, ErrReservationNotFound)
		}
		switch reservation.Status {
		case models.ReservationExpired:
			return nil
		case models.ReservationComplete:
			return ErrReservationNotActive
		}

		categories, err := s.categoryRepo.FindActiveByEvent(ctx, tx, reservation.EventID)
		if err != nil {
			return err
		}
		bounded := boundedCategories(categories)

		tickets, err := s.ticketRepo.LockByReservation(ctx, tx, reservationID)
		if err != nil {
			return err
		}
		byCategory := make(map[uint][]uint)
		var unbound []uint
		for _, t := range tickets {
			if t.Status != models.TicketPending {
				continue
			}
			if t.CategoryID != nil && bounded[*t.CategoryID] {
				byCategory[*t.CategoryID] = append(byCategory[*t.CategoryID], t.ID)
			} else {
				unbound = append(unbound, t.ID)
			}
		}
		for categoryID, ids := range byCategory {
			if err := s.ticketRepo.Bind(ctx, tx, ids, &categoryID, models.TicketReleased); err != nil {
				return err
			}
		}
		if err := s.ticketRepo.Bind(ctx, tx, unbound, nil, models.TicketReleased); err != nil {
			return err
		}

		if err := s.reservationRepo.UpdateStatus(ctx, tx, reservationID, models.ReservationExpired); err != nil {
			return err
		}
		if _, err := s.waitingRepo.ExpireByReservation(ctx, tx, reservationID); err != nil {
			return err
		}
		expired = true
		return nil
	})
	if err != nil {
		return translateTxError(err)
	}
	if expired {
		metrics.ReservationExpired()
	}
	return nil
}

// CleanupExpiredReservations expires every PENDING reservation whose validity
// ended before the given instant, each in its own transaction.
func (s *ticketService) CleanupExpiredReservations(ctx context.Context, before time.Time) (int, error) {
	ids, err := s.reservationRepo.FindExpiredIDs(ctx, before)
	if err != nil {
		return 0, err
	}
	var errs []error
	done := 0
	for _, id := range ids {
		if err := s.ExpireReservation(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("reservation %s: %w", id, err))
			continue
		}
		done++
	}
	if done > 0 {
		log.Printf("[TicketService] expired %d reservations", done)
	}
	return done, errors.Join(errs...)
}

func (s *ticketService) CheckIn(ctx context.Context, ticketID uint) (*models.Ticket, error) {
	current, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, notFound(err, ErrTicketNotFound)
	}
	var category *models.TicketCategory
	if current.CategoryID != nil {
		if category, err = s.categoryRepo.FindByID(ctx, *current.CategoryID); err != nil {
			return nil, notFound(err, ErrCategoryNotFound)
		}
	}

	var result *models.Ticket
	err = s.tx.Transact(ctx, func(tx *gorm.DB) error {
		tickets, err := s.ticketRepo.LockByIDs(ctx, tx, []uint{ticketID})
		if err != nil {
			return err
		}
		if len(tickets) != 1 {
			return ErrTicketNotFound
		}
		ticket := tickets[0]
		if !ticket.Status.CanTransitionTo(models.TicketCheckedIn) {
			return conflictError(CodeInvalidTransition)
		}
		if category != nil && !category.CheckInAllowed(s.now()) {
			return validationError(CodeCheckInWindowClosed)
		}
		if err := s.ticketRepo.UpdateStatus(ctx, tx, []uint{ticketID}, models.TicketCheckedIn); err != nil {
			return err
		}
		ticket.Status = models.TicketCheckedIn
		result = &ticket
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return result, nil
}

// ReleaseTicket is the administrative way back from ACQUIRED or CHECKED_IN to FREE.
func (s *ticketService) ReleaseTicket(ctx context.Context, ticketID uint, username string) (*models.Ticket, error) {
	current, err := s.ticketRepo.FindByID(ctx, ticketID)
	if err != nil {
		return nil, notFound(err, ErrTicketNotFound)
	}

	var result *models.Ticket
	err = s.tx.Transact(ctx, func(tx *gorm.DB) error {
		if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, current.EventID); err != nil {
			return notFound(err, ErrEventNotFound)
		}
		tickets, err := s.ticketRepo.LockByIDs(ctx, tx, []uint{ticketID})
		if err != nil {
			return err
		}
		if len(tickets) != 1 {
			return ErrTicketNotFound
		}
		ticket := tickets[0]
		if ticket.Status != models.TicketAcquired && ticket.Status != models.TicketCheckedIn {
			return conflictError(CodeInvalidTransition)
		}

		categories, err := s.categoryRepo.FindActiveByEvent(ctx, tx, ticket.EventID)
		if err != nil {
			return err
		}
		var categoryID *uint
		if ticket.CategoryID != nil && boundedCategories(categories)[*ticket.CategoryID] {
			categoryID = ticket.CategoryID
		}
		if err := s.ticketRepo.Bind(ctx, tx, []uint{ticketID}, categoryID, models.TicketFree); err != nil {
			return err
		}
		ticket.CategoryID = categoryID
		ticket.Status = models.TicketFree
		ticket.ReservationID = nil
		result = &ticket
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	log.Printf("[TicketService] %s released ticket %d", username, ticketID)
	return result, nil
}
