package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/metrics"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"gorm.io/gorm"
)

type EventSpec struct {
	ShortName      string
	DisplayName    string
	AvailableSeats int
	Currency       string
	TimeZone       string
	Format         models.EventFormat
	PaymentMethods []models.PaymentMethod
	Categories     []CategorySpec
}

// PricesSpec carries the capacity and payment settings of an event. An empty
// Format keeps the current one.
type PricesSpec struct {
	AvailableSeats int
	Currency       string
	Format         models.EventFormat
	PaymentMethods []models.PaymentMethod
}

type EventService interface {
	CreateEvent(ctx context.Context, spec EventSpec, username string) (*models.Event, error)
	UpdateEventPrices(ctx context.Context, eventID uint, spec PricesSpec, username string) (*models.Event, error)
	GetEvent(ctx context.Context, id uint) (*models.Event, error)
	GetEventByShortName(ctx context.Context, shortName string) (*models.Event, error)
	PoolSummary(ctx context.Context, eventID uint) (*models.PoolSummary, error)
}

type eventService struct {
	tx           TxRunner
	eventRepo    repository.EventRepository
	categoryRepo repository.CategoryRepository
	ticketRepo   repository.TicketRepository
	pool         unitPool
	publisher    EventPublisher
}

func NewEventService(
	tx TxRunner,
	eventRepo repository.EventRepository,
	categoryRepo repository.CategoryRepository,
	ticketRepo repository.TicketRepository,
	publisher EventPublisher,
) EventService {
	return &eventService{
		tx:           tx,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		ticketRepo:   ticketRepo,
		pool:         unitPool{tickets: ticketRepo},
		publisher:    publisher,
	}
}

// validatePaymentMethods rejects ON_SITE payment for online events.
func validatePaymentMethods(format models.EventFormat, methods []models.PaymentMethod) []ErrorCode {
	if format != models.FormatOnline {
		return nil
	}
	for _, m := range methods {
		if m == models.PaymentOnSite {
			return []ErrorCode{CodeIncompatiblePaymentMethod}
		}
	}
	return nil
}

func validateEventSpec(spec EventSpec) []ErrorCode {
	var codes []ErrorCode
	if strings.TrimSpace(spec.ShortName) == "" || strings.TrimSpace(spec.DisplayName) == "" {
		codes = append(codes, CodeInvalidName)
	}
	if spec.AvailableSeats <= 0 {
		codes = append(codes, CodeInvalidSeats)
	}
	codes = append(codes, validatePaymentMethods(spec.Format, spec.PaymentMethods)...)

	bound := 0
	for _, c := range spec.Categories {
		codes = append(codes, validateCategorySpec(c)...)
		if c.Bounded {
			bound += c.MaxTickets
		}
	}
	if bound > spec.AvailableSeats {
		codes = append(codes, CodeOverflow)
	}
	return dedupe(codes)
}

func dedupe(codes []ErrorCode) []ErrorCode {
	seen := make(map[ErrorCode]bool, len(codes))
	out := codes[:0]
	for _, c := range codes {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// CreateEvent creates the event, one FREE unit per seat and the initial
// categories. Bounded categories take their units from the pool right away.
func (s *eventService) CreateEvent(ctx context.Context, spec EventSpec, username string) (*models.Event, error) {
	if codes := validateEventSpec(spec); len(codes) > 0 {
		return nil, validationError(codes...)
	}
	format := spec.Format
	if format == "" {
		format = models.FormatInPerson
	}
	timeZone := spec.TimeZone
	if timeZone == "" {
		timeZone = "UTC"
	}

	event := &models.Event{
		ShortName:      strings.TrimSpace(spec.ShortName),
		DisplayName:    strings.TrimSpace(spec.DisplayName),
		AvailableSeats: spec.AvailableSeats,
		Currency:       spec.Currency,
		TimeZone:       timeZone,
		Format:         format,
		PaymentMethods: spec.PaymentMethods,
	}
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		event.ID = 0
		if _, err := s.eventRepo.FindByShortNameForUpdate(ctx, tx, event.ShortName); err == nil {
			return ErrEventAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := s.eventRepo.Create(ctx, tx, event); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrEventAlreadyExists
			}
			return err
		}
		if err := s.ticketRepo.CreateUnits(ctx, tx, event.ID, event.AvailableSeats, models.TicketFree); err != nil {
			return err
		}
		for i, cs := range spec.Categories {
			category := &models.TicketCategory{EventID: event.ID, Status: models.CategoryActive, Ordinal: cs.Ordinal}
			applySpec(category, cs)
			if category.Ordinal == 0 {
				category.Ordinal = i + 1
			}
			if err := s.categoryRepo.Create(ctx, tx, category); err != nil {
				return err
			}
			if category.Bounded {
				if err := s.pool.claimUnbound(ctx, tx, event.ID, category.MaxTickets, category.ID, models.TicketFree); err != nil {
					return err
				}
			}
		}
		return nil
	})
	err = translateTxError(err)
	metrics.ObserveAllocation("create_event", err)
	if err != nil {
		return nil, err
	}

	log.Printf("[EventService] %s created event %d (%s) with %d seats and %d categories",
		username, event.ID, event.ShortName, event.AvailableSeats, len(spec.Categories))
	publish(s.publisher, "event.created", event)
	return event, nil
}

// UpdateEventPrices applies payment settings and resizes the pool. Growth adds
// RELEASED unbound units; shrinking retires unbound available units, lowest id first.
func (s *eventService) UpdateEventPrices(ctx context.Context, eventID uint, spec PricesSpec, username string) (*models.Event, error) {
	if spec.AvailableSeats <= 0 {
		return nil, validationError(CodeInvalidSeats)
	}

	var result *models.Event
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		format := event.Format
		if spec.Format != "" {
			format = spec.Format
		}
		currency := event.Currency
		if spec.Currency != "" {
			currency = spec.Currency
		}
		methods := event.PaymentMethods
		if len(spec.PaymentMethods) > 0 {
			methods = spec.PaymentMethods
		}
		if codes := validatePaymentMethods(format, methods); len(codes) > 0 {
			return validationError(codes...)
		}

		categories, err := s.categoryRepo.FindActiveByEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if models.BoundAllocation(categories) > spec.AvailableSeats {
			return validationError(CodeOverflow)
		}

		delta := spec.AvailableSeats - event.AvailableSeats
		switch {
		case delta > 0:
			if err := s.ticketRepo.CreateUnits(ctx, tx, eventID, delta, models.TicketReleased); err != nil {
				return err
			}
		case delta < 0:
			ids, err := s.ticketRepo.LockUnbound(ctx, tx, eventID, -delta, models.AvailableStatuses)
			if err != nil {
				return err
			}
			if len(ids) < -delta {
				return conflictError(CodeNotEnoughSeats)
			}
			if err := s.ticketRepo.Delete(ctx, tx, ids); err != nil {
				return err
			}
		}

		event.AvailableSeats = spec.AvailableSeats
		event.Currency = currency
		event.Format = format
		event.PaymentMethods = methods
		if err := s.eventRepo.Update(ctx, tx, event); err != nil {
			return err
		}
		result = event
		return nil
	})
	err = translateTxError(err)
	metrics.ObserveAllocation("resize_event", err)
	if err != nil {
		return nil, err
	}

	log.Printf("[EventService] %s set event %d to %d seats", username, eventID, result.AvailableSeats)
	publish(s.publisher, "event.seats_updated", result)
	return result, nil
}

func (s *eventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	return event, nil
}

func (s *eventService) GetEventByShortName(ctx context.Context, shortName string) (*models.Event, error) {
	event, err := s.eventRepo.FindByShortName(ctx, shortName)
	if err != nil {
		return nil, notFound(err, ErrEventNotFound)
	}
	return event, nil
}

func (s *eventService) PoolSummary(ctx context.Context, eventID uint) (*models.PoolSummary, error) {
	event, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	db := s.ticketRepo.GetDB()
	categories, err := s.categoryRepo.FindActiveByEvent(ctx, db, eventID)
	if err != nil {
		return nil, err
	}
	counts, err := s.ticketRepo.CountByCategoryAndStatus(ctx, db, eventID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizePool(event, categories, counts)
	if err := summary.CheckConservation(categories); err != nil {
		log.Printf("[EventService] pool of event %d is not conserved: %v", eventID, err)
		summary.Conservation = err.Error()
	}
	return &summary, nil
}
