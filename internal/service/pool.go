package service

import (
	"context"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"gorm.io/gorm"
)

// unitPool implements the claim/release primitives of the ticket pool. Each call
// either moves exactly the requested number of units or fails, leaving the
// surrounding transaction to roll back.
type unitPool struct {
	tickets repository.TicketRepository
}

// claimUnbound binds n unbound FREE/RELEASED units to the category, lowest id first.
func (p unitPool) claimUnbound(ctx context.Context, tx *gorm.DB, eventID uint, n int, categoryID uint, status models.TicketStatus) error {
	if n <= 0 {
		return nil
	}
	ids, err := p.tickets.LockUnbound(ctx, tx, eventID, n, models.AvailableStatuses)
	if err != nil {
		return err
	}
	if len(ids) < n {
		return conflictError(CodeNotEnoughSeats)
	}
	return p.tickets.Bind(ctx, tx, ids, &categoryID, status)
}

// releaseFromCategory returns n FREE/RELEASED units of the category to the
// unbound pool as RELEASED. Sold or reserved units are never touched.
func (p unitPool) releaseFromCategory(ctx context.Context, tx *gorm.DB, categoryID uint, n int) error {
	if n <= 0 {
		return nil
	}
	ids, err := p.tickets.LockInCategory(ctx, tx, categoryID, n, models.AvailableStatuses)
	if err != nil {
		return err
	}
	if len(ids) < n {
		return conflictError(CodeCannotShrink)
	}
	return p.tickets.Bind(ctx, tx, ids, nil, models.TicketReleased)
}

func (p unitPool) releaseAllAvailable(ctx context.Context, tx *gorm.DB, categoryID uint) (int, error) {
	ids, err := p.tickets.LockInCategory(ctx, tx, categoryID, 0, models.AvailableStatuses)
	if err != nil {
		return 0, err
	}
	return len(ids), p.tickets.Bind(ctx, tx, ids, nil, models.TicketReleased)
}

// takeOne locks a single unit for a waiting subscriber: RELEASED units first,
// then FREE, each by ascending id. categoryID nil means the unbound pool.
func (p unitPool) takeOne(ctx context.Context, tx *gorm.DB, eventID uint, categoryID *uint) (uint, bool, error) {
	for _, status := range []models.TicketStatus{models.TicketReleased, models.TicketFree} {
		var (
			ids []uint
			err error
		)
		if categoryID == nil {
			ids, err = p.tickets.LockUnbound(ctx, tx, eventID, 1, []models.TicketStatus{status})
		} else {
			ids, err = p.tickets.LockInCategory(ctx, tx, *categoryID, 1, []models.TicketStatus{status})
		}
		if err != nil {
			return 0, false, err
		}
		if len(ids) == 1 {
			return ids[0], true, nil
		}
	}
	return 0, false, nil
}

// claimStatus is the status of units claimed after event creation: restricted
// categories get FREE units right away for their tokens, the others RELEASED so
// the waiting queue sees them first.
func claimStatus(restricted bool) models.TicketStatus {
	if restricted {
		return models.TicketFree
	}
	return models.TicketReleased
}

func boundedCategories(categories []models.TicketCategory) map[uint]bool {
	idx := make(map[uint]bool, len(categories))
	for _, c := range categories {
		if c.Bounded {
			idx[c.ID] = true
		}
	}
	return idx
}
