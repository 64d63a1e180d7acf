package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/metrics"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"gorm.io/gorm"
)

type CategorySpec struct {
	Name             string
	MaxTickets       int
	Bounded          bool
	AccessRestricted bool
	PriceCts         int
	Inception        time.Time
	Expiration       time.Time
	ValidCheckInFrom *time.Time
	ValidCheckInTo   *time.Time
	Ordinal          int
}

type CategoryOrdinal struct {
	CategoryID uint
	Ordinal    int
}

type CategoryDeleted struct {
	EventID    uint   `json:"event_id"`
	CategoryID uint   `json:"category_id"`
	Username   string `json:"username"`
}

// CategoryService is the category allocation manager. Every mutation runs in
// one transaction holding the event row lock, so capacity changes of the same
// event are serialized while different events proceed in parallel.
type CategoryService interface {
	InsertCategory(ctx context.Context, eventID uint, spec CategorySpec, username string) (*models.TicketCategory, error)
	UpdateCategory(ctx context.Context, categoryID, eventID uint, spec CategorySpec, username string) (*models.TicketCategory, error)
	DeleteCategory(ctx context.Context, eventShortName string, categoryID uint, username string) error
	RearrangeCategories(ctx context.Context, eventShortName string, orderings []CategoryOrdinal, username string) error
	ListCategories(ctx context.Context, eventID uint) ([]models.TicketCategory, error)
}

type categoryService struct {
	tx           TxRunner
	eventRepo    repository.EventRepository
	categoryRepo repository.CategoryRepository
	ticketRepo   repository.TicketRepository
	pool         unitPool
	tokens       tokenLedger
	publisher    EventPublisher
}

func NewCategoryService(
	tx TxRunner,
	eventRepo repository.EventRepository,
	categoryRepo repository.CategoryRepository,
	ticketRepo repository.TicketRepository,
	tokenRepo repository.SpecialPriceRepository,
	publisher EventPublisher,
) CategoryService {
	return &categoryService{
		tx:           tx,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		ticketRepo:   ticketRepo,
		pool:         unitPool{tickets: ticketRepo},
		tokens:       tokenLedger{repo: tokenRepo},
		publisher:    publisher,
	}
}

func validateCategorySpec(spec CategorySpec) []ErrorCode {
	var codes []ErrorCode
	if strings.TrimSpace(spec.Name) == "" {
		codes = append(codes, CodeInvalidName)
	}
	if !spec.Expiration.After(spec.Inception) {
		codes = append(codes, CodeInvalidDates)
	} else if spec.ValidCheckInFrom != nil && spec.ValidCheckInTo != nil && spec.ValidCheckInTo.Before(*spec.ValidCheckInFrom) {
		codes = append(codes, CodeInvalidDates)
	}
	if spec.MaxTickets < 0 || (spec.Bounded && spec.MaxTickets == 0) {
		codes = append(codes, CodeInvalidMaxTickets)
	}
	if spec.AccessRestricted && !spec.Bounded {
		codes = append(codes, CodeRestrictedMustBeBounded)
	}
	return codes
}

func applySpec(category *models.TicketCategory, spec CategorySpec) {
	category.Name = strings.TrimSpace(spec.Name)
	category.Bounded = spec.Bounded
	category.MaxTickets = spec.MaxTickets
	if !spec.Bounded {
		category.MaxTickets = 0
	}
	category.AccessRestricted = spec.AccessRestricted
	category.PriceCts = spec.PriceCts
	category.Inception = spec.Inception
	category.Expiration = spec.Expiration
	category.ValidCheckInFrom = spec.ValidCheckInFrom
	category.ValidCheckInTo = spec.ValidCheckInTo
}

func nextOrdinal(categories []models.TicketCategory) int {
	highest := 0
	for _, c := range categories {
		if c.Ordinal > highest {
			highest = c.Ordinal
		}
	}
	return highest + 1
}

func (s *categoryService) InsertCategory(ctx context.Context, eventID uint, spec CategorySpec, username string) (*models.TicketCategory, error) {
	if codes := validateCategorySpec(spec); len(codes) > 0 {
		metrics.ObserveAllocation("insert_category", validationError(codes...))
		return nil, validationError(codes...)
	}

	var result *models.TicketCategory
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		categories, err := s.categoryRepo.FindActiveByEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if spec.Bounded && models.BoundAllocation(categories)+spec.MaxTickets > event.AvailableSeats {
			return validationError(CodeOverflow)
		}

		category := &models.TicketCategory{EventID: eventID, Status: models.CategoryActive, Ordinal: spec.Ordinal}
		applySpec(category, spec)
		if category.Ordinal == 0 {
			category.Ordinal = nextOrdinal(categories)
		}
		if err := s.categoryRepo.Create(ctx, tx, category); err != nil {
			return err
		}
		if category.Bounded {
			if err := s.pool.claimUnbound(ctx, tx, eventID, category.MaxTickets, category.ID, claimStatus(category.AccessRestricted)); err != nil {
				return err
			}
		}
		result = category
		return nil
	})
	err = translateTxError(err)
	metrics.ObserveAllocation("insert_category", err)
	if err != nil {
		return nil, err
	}

	log.Printf("[CategoryService] %s inserted category %d (%s, bounded=%t, max=%d) in event %d",
		username, result.ID, result.Name, result.Bounded, result.MaxTickets, eventID)
	publish(s.publisher, "category.created", result)
	return result, nil
}

func (s *categoryService) UpdateCategory(ctx context.Context, categoryID, eventID uint, spec CategorySpec, username string) (*models.TicketCategory, error) {
	if codes := validateCategorySpec(spec); len(codes) > 0 {
		metrics.ObserveAllocation("update_category", validationError(codes...))
		return nil, validationError(codes...)
	}

	var result *models.TicketCategory
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByIDForUpdate(ctx, tx, eventID)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		existing, err := s.categoryRepo.FindActiveForUpdate(ctx, tx, eventID, categoryID)
		if err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		categories, err := s.categoryRepo.FindActiveByEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}

		if codes, err := s.checkUpdate(ctx, tx, event, existing, categories, spec); err != nil {
			return err
		} else if len(codes) > 0 {
			return validationError(codes...)
		}

		if err := s.resize(ctx, tx, eventID, existing, spec); err != nil {
			return err
		}

		switch {
		case existing.AccessRestricted && !spec.AccessRestricted:
			if err := s.tokens.cancelPending(ctx, tx, categoryID); err != nil {
				return err
			}
		case spec.AccessRestricted && spec.MaxTickets < existing.MaxTickets:
			if err := s.tokens.trim(ctx, tx, categoryID, spec.MaxTickets); err != nil {
				return err
			}
		}

		updated := *existing
		applySpec(&updated, spec)
		if spec.Ordinal != 0 {
			updated.Ordinal = spec.Ordinal
		}
		if err := s.categoryRepo.Update(ctx, tx, &updated); err != nil {
			return err
		}
		result = &updated
		return nil
	})
	err = translateTxError(err)
	metrics.ObserveAllocation("update_category", err)
	if err != nil {
		return nil, err
	}

	log.Printf("[CategoryService] %s updated category %d of event %d (bounded=%t, max=%d)",
		username, categoryID, eventID, result.Bounded, result.MaxTickets)
	publish(s.publisher, "category.updated", result)
	return result, nil
}

// checkUpdate collects every validation failure before anything is mutated.
func (s *categoryService) checkUpdate(ctx context.Context, tx *gorm.DB, event *models.Event, existing *models.TicketCategory, categories []models.TicketCategory, spec CategorySpec) ([]ErrorCode, error) {
	var codes []ErrorCode

	if spec.Bounded {
		others := models.BoundAllocation(categories)
		if existing.Bounded {
			others -= existing.MaxTickets
		}
		if others+spec.MaxTickets > event.AvailableSeats {
			codes = append(codes, CodeOverflow)
		}
	}

	if existing.AccessRestricted && spec.AccessRestricted && spec.MaxTickets < existing.MaxTickets {
		sent, err := s.tokens.countSent(ctx, tx, existing.ID)
		if err != nil {
			return nil, err
		}
		if int(sent) > spec.MaxTickets {
			codes = append(codes, CodeNotEnoughFreeTokenForShrink)
		}
	}

	if existing.AccessRestricted && !spec.AccessRestricted {
		pending, err := s.ticketRepo.CountInCategory(ctx, tx, existing.ID, []models.TicketStatus{models.TicketPending})
		if err != nil {
			return nil, err
		}
		if pending > 0 {
			codes = append(codes, CodePendingTicketsInRestricted)
		}
	}
	return codes, nil
}

func (s *categoryService) resize(ctx context.Context, tx *gorm.DB, eventID uint, existing *models.TicketCategory, spec CategorySpec) error {
	status := claimStatus(spec.AccessRestricted)

	switch {
	case existing.Bounded && spec.Bounded:
		delta := spec.MaxTickets - existing.MaxTickets
		if delta > 0 {
			return s.pool.claimUnbound(ctx, tx, eventID, delta, existing.ID, status)
		}
		return s.pool.releaseFromCategory(ctx, tx, existing.ID, -delta)

	case existing.Bounded && !spec.Bounded:
		// Units already sold or reserved stay bound until they are freed.
		_, err := s.pool.releaseAllAvailable(ctx, tx, existing.ID)
		return err

	case !existing.Bounded && spec.Bounded:
		held, err := s.ticketRepo.CountInCategory(ctx, tx, existing.ID, models.SoldStatuses)
		if err != nil {
			return err
		}
		if int(held) > spec.MaxTickets {
			return conflictError(CodeCannotShrink)
		}
		return s.pool.claimUnbound(ctx, tx, eventID, spec.MaxTickets-int(held), existing.ID, status)
	}
	return nil
}

func (s *categoryService) DeleteCategory(ctx context.Context, eventShortName string, categoryID uint, username string) error {
	var eventID uint
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByShortNameForUpdate(ctx, tx, eventShortName)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		eventID = event.ID
		if _, err := s.categoryRepo.FindActiveForUpdate(ctx, tx, event.ID, categoryID); err != nil {
			return notFound(err, ErrCategoryNotFound)
		}

		sold, err := s.ticketRepo.CountInCategory(ctx, tx, categoryID, models.SoldStatuses)
		if err != nil {
			return err
		}
		if sold > 0 {
			return illegalStateError(CodeCategoryNotEmpty)
		}
		deleted, err := s.categoryRepo.SoftDeleteIfEmpty(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if deleted != 1 {
			return illegalStateError(CodeCategoryNotEmpty)
		}

		if _, err := s.pool.releaseAllAvailable(ctx, tx, categoryID); err != nil {
			return err
		}
		_, err = s.tokens.repo.CancelUnredeemed(ctx, tx, categoryID)
		return err
	})
	err = translateTxError(err)
	metrics.ObserveAllocation("delete_category", err)
	if err != nil {
		return err
	}

	log.Printf("[CategoryService] %s deleted category %d of event %s", username, categoryID, eventShortName)
	publish(s.publisher, "category.deleted", CategoryDeleted{EventID: eventID, CategoryID: categoryID, Username: username})
	return nil
}

func (s *categoryService) RearrangeCategories(ctx context.Context, eventShortName string, orderings []CategoryOrdinal, username string) error {
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		event, err := s.eventRepo.FindByShortNameForUpdate(ctx, tx, eventShortName)
		if err != nil {
			return notFound(err, ErrEventNotFound)
		}
		categories, err := s.categoryRepo.FindActiveByEvent(ctx, tx, event.ID)
		if err != nil {
			return err
		}
		known := make(map[uint]bool, len(categories))
		for _, c := range categories {
			known[c.ID] = true
		}
		for _, o := range orderings {
			if !known[o.CategoryID] {
				return validationError(CodeUnknownCategory)
			}
		}
		for _, o := range orderings {
			if err := s.categoryRepo.UpdateOrdinal(ctx, tx, o.CategoryID, o.Ordinal); err != nil {
				return err
			}
		}
		return nil
	})
	err = translateTxError(err)
	metrics.ObserveAllocation("rearrange_categories", err)
	if err != nil {
		return err
	}
	log.Printf("[CategoryService] %s rearranged %d categories of event %s", username, len(orderings), eventShortName)
	return nil
}

func (s *categoryService) ListCategories(ctx context.Context, eventID uint) ([]models.TicketCategory, error) {
	return s.categoryRepo.FindActiveByEvent(ctx, s.categoryRepo.GetDB(), eventID)
}
