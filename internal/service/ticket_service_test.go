package service

import (
	"context"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicketLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 5, categorySpec("Standard", 2, true))
	category := f.category(t, event.ID, "Standard")
	unit := f.unitIDs(t, event.ID, &category.ID, models.TicketFree)[0]

	reservationID := f.reserve(t, event.ID, category.ID, []uint{unit})
	require.NoError(t, f.tickets.ConfirmReservation(ctx, reservationID))
	assert.Equal(t, []uint{unit}, f.unitIDs(t, event.ID, &category.ID, models.TicketAcquired))

	checkedIn, err := f.tickets.CheckIn(ctx, unit)
	require.NoError(t, err)
	assert.Equal(t, models.TicketCheckedIn, checkedIn.Status)

	released, err := f.tickets.ReleaseTicket(ctx, unit, "admin")
	require.NoError(t, err)
	assert.Equal(t, models.TicketFree, released.Status)
	assert.Nil(t, released.ReservationID)
	assert.Len(t, f.unitIDs(t, event.ID, &category.ID, models.TicketFree), 2)
	f.summary(t, event.ID)
}

func TestReserveUnits_RejectsUnitsOfAnotherCategory(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, 5, categorySpec("Standard", 2, true))
	category := f.category(t, event.ID, "Standard")
	unbound := f.unitIDs(t, event.ID, nil, models.TicketFree)
	before := f.states(t, event.ID)

	_, err := f.tickets.ReserveUnits(context.Background(), ReserveRequest{
		EventID:       event.ID,
		CategoryID:    category.ID,
		TicketIDs:     unbound[:1],
		ReservationID: uuid.NewString(),
	})

	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, before, f.states(t, event.ID))
}

func TestReserveUnits_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, 5, categorySpec("General", 0, false))
	general := f.category(t, event.ID, "General")
	free := f.unitIDs(t, event.ID, nil, models.TicketFree)
	f.reserve(t, event.ID, general.ID, free[:1])
	before := f.states(t, event.ID)

	_, err := f.tickets.ReserveUnits(context.Background(), ReserveRequest{
		EventID:       event.ID,
		CategoryID:    general.ID,
		TicketIDs:     free[:3],
		ReservationID: uuid.NewString(),
	})

	assert.Equal(t, []ErrorCode{CodeInvalidTransition}, Codes(err))
	assert.Equal(t, before, f.states(t, event.ID))
}

func TestReserveUnits_RepeatedCommandIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 5, categorySpec("General", 0, false))
	general := f.category(t, event.ID, "General")
	free := f.unitIDs(t, event.ID, nil, models.TicketFree)
	req := ReserveRequest{
		EventID:       event.ID,
		CategoryID:    general.ID,
		TicketIDs:     free[:2],
		ReservationID: uuid.NewString(),
	}

	_, err := f.tickets.ReserveUnits(ctx, req)
	require.NoError(t, err)
	before := f.states(t, event.ID)

	again, err := f.tickets.ReserveUnits(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, req.ReservationID, again.ID)
	assert.Equal(t, before, f.states(t, event.ID))

	// extending the reservation reserves only the new unit
	req.TicketIDs = free[:3]
	_, err = f.tickets.ReserveUnits(ctx, req)
	require.NoError(t, err)
	assert.Len(t, f.unitIDs(t, event.ID, &general.ID, models.TicketPending), 3)
	f.summary(t, event.ID)
}

func TestReserveUnits_UnknownTicket(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, 2, categorySpec("General", 0, false))
	general := f.category(t, event.ID, "General")

	_, err := f.tickets.ReserveUnits(context.Background(), ReserveRequest{
		EventID:       event.ID,
		CategoryID:    general.ID,
		TicketIDs:     []uint{9999},
		ReservationID: uuid.NewString(),
	})

	assert.ErrorIs(t, err, ErrTicketNotFound)
}

func TestExpireReservation_ReturnsUnitsAsReleased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 6, categorySpec("Standard", 2, true), categorySpec("General", 0, false))
	standard, general := f.category(t, event.ID, "Standard"), f.category(t, event.ID, "General")
	boundUnit := f.unitIDs(t, event.ID, &standard.ID, models.TicketFree)[0]
	unboundUnit := f.unitIDs(t, event.ID, nil, models.TicketFree)[0]
	first := f.reserve(t, event.ID, standard.ID, []uint{boundUnit})
	second := f.reserve(t, event.ID, general.ID, []uint{unboundUnit})

	require.NoError(t, f.tickets.ExpireReservation(ctx, first))
	require.NoError(t, f.tickets.ExpireReservation(ctx, second))

	assert.Equal(t, []uint{boundUnit}, f.unitIDs(t, event.ID, &standard.ID, models.TicketReleased))
	assert.Equal(t, []uint{unboundUnit}, f.unitIDs(t, event.ID, nil, models.TicketReleased))
	tickets, err := f.ticketRepo.FindByReservation(ctx, first)
	require.NoError(t, err)
	assert.Empty(t, tickets)
	f.summary(t, event.ID)

	// expiring twice is a no-op
	assert.NoError(t, f.tickets.ExpireReservation(ctx, first))
}

func TestExpireReservation_CompletedReservation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 2, categorySpec("General", 0, false))
	general := f.category(t, event.ID, "General")
	reservationID := f.reserve(t, event.ID, general.ID, f.unitIDs(t, event.ID, nil, models.TicketFree)[:1])
	require.NoError(t, f.tickets.ConfirmReservation(ctx, reservationID))

	err := f.tickets.ExpireReservation(ctx, reservationID)

	assert.ErrorIs(t, err, ErrReservationNotActive)
	assert.Len(t, f.unitIDs(t, event.ID, &general.ID, models.TicketAcquired), 1)
}

func TestCleanupExpiredReservations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 4, categorySpec("General", 0, false))
	general := f.category(t, event.ID, "General")
	free := f.unitIDs(t, event.ID, nil, models.TicketFree)

	_, err := f.tickets.ReserveUnits(ctx, ReserveRequest{
		EventID:       event.ID,
		CategoryID:    general.ID,
		TicketIDs:     free[:2],
		ReservationID: uuid.NewString(),
		ValidUntil:    time.Now().Add(-time.Minute),
	})
	require.NoError(t, err)
	f.reserve(t, event.ID, general.ID, free[2:3])

	expired, err := f.tickets.CleanupExpiredReservations(ctx, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Len(t, f.unitIDs(t, event.ID, nil, models.TicketReleased), 2)
	assert.Len(t, f.unitIDs(t, event.ID, &general.ID, models.TicketPending), 1)
}

func TestCheckIn_OutsideWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	spec := categorySpec("Workshop", 1, true)
	spec.ValidCheckInFrom = ptr(time.Now().Add(48 * time.Hour))
	event := f.createEvent(t, 2, spec)
	category := f.category(t, event.ID, "Workshop")
	unit := f.unitIDs(t, event.ID, &category.ID, models.TicketFree)[0]
	require.NoError(t, f.tickets.ConfirmReservation(ctx, f.reserve(t, event.ID, category.ID, []uint{unit})))

	_, err := f.tickets.CheckIn(ctx, unit)

	assert.Equal(t, []ErrorCode{CodeCheckInWindowClosed}, Codes(err))
}

func TestCheckIn_RequiresAcquiredUnit(t *testing.T) {
	f := newFixture(t)
	event := f.createEvent(t, 2)
	unit := f.unitIDs(t, event.ID, nil, models.TicketFree)[0]

	_, err := f.tickets.CheckIn(context.Background(), unit)

	assert.Equal(t, []ErrorCode{CodeInvalidTransition}, Codes(err))
}
