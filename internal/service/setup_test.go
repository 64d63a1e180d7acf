package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/inventory-service/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// --- Test doubles ---

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(routingKey string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type sentMail struct {
	to, subject string
}

type fakeMailer struct {
	fail bool
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject})
	return nil
}

// --- Fixture ---

type fixture struct {
	db        *gorm.DB
	publisher *recordingPublisher

	events     EventService
	categories CategoryService
	tickets    TicketService
	waiting    WaitingQueueService
	special    SpecialPriceService

	ticketRepo  repository.TicketRepository
	tokenRepo   repository.SpecialPriceRepository
	emailRepo   repository.EmailRepository
	waitingRepo repository.WaitingQueueRepository
	tx          *database.Transactor
}

const testReservationTTL = 25 * time.Minute

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewSQLiteDB(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	tx := database.NewTransactor(db, database.TxOptions{MaxAttempts: 1})
	eventRepo := repository.NewEventRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	tokenRepo := repository.NewSpecialPriceRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	waitingRepo := repository.NewWaitingQueueRepository(db)
	emailRepo := repository.NewEmailRepository(db)
	publisher := &recordingPublisher{}

	return &fixture{
		db:          db,
		publisher:   publisher,
		events:      NewEventService(tx, eventRepo, categoryRepo, ticketRepo, publisher),
		categories:  NewCategoryService(tx, eventRepo, categoryRepo, ticketRepo, tokenRepo, publisher),
		tickets:     NewTicketService(tx, eventRepo, categoryRepo, ticketRepo, reservationRepo, waitingRepo, testReservationTTL),
		waiting:     NewWaitingQueueService(tx, eventRepo, categoryRepo, ticketRepo, reservationRepo, waitingRepo, emailRepo, publisher, testReservationTTL),
		special:     NewSpecialPriceService(tx, eventRepo, categoryRepo, tokenRepo, emailRepo),
		ticketRepo:  ticketRepo,
		tokenRepo:   tokenRepo,
		emailRepo:   emailRepo,
		waitingRepo: waitingRepo,
		tx:          tx,
	}
}

func categorySpec(name string, maxTickets int, bounded bool) CategorySpec {
	now := time.Now()
	return CategorySpec{
		Name:       name,
		MaxTickets: maxTickets,
		Bounded:    bounded,
		PriceCts:   1050,
		Inception:  now.Add(-time.Hour),
		Expiration: now.Add(30 * 24 * time.Hour),
	}
}

func restrictedSpec(name string, maxTickets int) CategorySpec {
	spec := categorySpec(name, maxTickets, true)
	spec.AccessRestricted = true
	return spec
}

func (f *fixture) createEvent(t *testing.T, seats int, categories ...CategorySpec) *models.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), EventSpec{
		ShortName:      "gophercon-" + uuid.NewString()[:8],
		DisplayName:    "GopherCon",
		AvailableSeats: seats,
		Currency:       "CHF",
		TimeZone:       "Europe/Zurich",
		Format:         models.FormatInPerson,
		PaymentMethods: []models.PaymentMethod{models.PaymentCreditCard},
		Categories:     categories,
	}, "admin")
	require.NoError(t, err)
	return event
}

func (f *fixture) category(t *testing.T, eventID uint, name string) models.TicketCategory {
	t.Helper()
	categories, err := f.categories.ListCategories(context.Background(), eventID)
	require.NoError(t, err)
	for _, c := range categories {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("category %q not found in event %d", name, eventID)
	return models.TicketCategory{}
}

// summary returns the pool summary and fails the test if seats are not conserved.
func (f *fixture) summary(t *testing.T, eventID uint) models.PoolSummary {
	t.Helper()
	ctx := context.Background()
	s, err := f.events.PoolSummary(ctx, eventID)
	require.NoError(t, err)
	categories, err := f.categories.ListCategories(ctx, eventID)
	require.NoError(t, err)
	require.NoError(t, s.CheckConservation(categories))
	require.Empty(t, s.Conservation)
	return *s
}

// unitIDs lists units by binding and status; a nil categoryID means the unbound pool.
func (f *fixture) unitIDs(t *testing.T, eventID uint, categoryID *uint, status models.TicketStatus) []uint {
	t.Helper()
	q := f.db.Model(&models.Ticket{}).Where("event_id = ? AND status = ?", eventID, status)
	if categoryID == nil {
		q = q.Where("category_id IS NULL")
	} else {
		q = q.Where("category_id = ?", *categoryID)
	}
	var ids []uint
	require.NoError(t, q.Order("id ASC").Pluck("id", &ids).Error)
	return ids
}

func (f *fixture) units(t *testing.T, eventID uint) []models.Ticket {
	t.Helper()
	var tickets []models.Ticket
	require.NoError(t, f.db.Where("event_id = ?", eventID).Order("id ASC").Find(&tickets).Error)
	return tickets
}

// states renders every unit of the event as "status/category".
func (f *fixture) states(t *testing.T, eventID uint) map[uint]string {
	t.Helper()
	out := make(map[uint]string)
	for _, u := range f.units(t, eventID) {
		category := "-"
		if u.CategoryID != nil {
			category = fmt.Sprint(*u.CategoryID)
		}
		out[u.ID] = string(u.Status) + "/" + category
	}
	return out
}

func (f *fixture) reserve(t *testing.T, eventID, categoryID uint, ids []uint) string {
	t.Helper()
	reservationID := uuid.NewString()
	_, err := f.tickets.ReserveUnits(context.Background(), ReserveRequest{
		EventID:       eventID,
		CategoryID:    categoryID,
		TicketIDs:     ids,
		ReservationID: reservationID,
		FullName:      "Ada Lovelace",
		Email:         "ada@example.org",
	})
	require.NoError(t, err)
	return reservationID
}

func (f *fixture) subscribe(t *testing.T, eventID uint, email string) *models.WaitingQueueSubscription {
	t.Helper()
	sub, err := f.waiting.Subscribe(context.Background(), eventID, SubscriptionRequest{
		FullName: "Subscriber " + email,
		Email:    email,
		Language: "en",
	})
	require.NoError(t, err)
	return sub
}

func ptr[T any](v T) *T {
	return &v
}
