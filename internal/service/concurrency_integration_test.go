//go:build integration

package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"github.com/Eursukkul/booking-microservice/inventory-service/pkg/database"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Run with: TEST_DB_HOST=localhost go test -tags integration ./internal/service/
func newPostgresFixture(t *testing.T) *fixture {
	t.Helper()
	if os.Getenv("TEST_DB_HOST") == "" {
		t.Skip("TEST_DB_HOST not set")
	}
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "inventory_test_db"),
	)
	db := database.NewPostgresDB(dsn)
	tx := database.NewTransactor(db, database.TxOptions{MaxAttempts: 5, LockTimeout: 2 * time.Second, Backoff: 20 * time.Millisecond})
	eventRepo := repository.NewEventRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	tokenRepo := repository.NewSpecialPriceRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	waitingRepo := repository.NewWaitingQueueRepository(db)
	emailRepo := repository.NewEmailRepository(db)

	return &fixture{
		db:          db,
		publisher:   &recordingPublisher{},
		events:      NewEventService(tx, eventRepo, categoryRepo, ticketRepo, nil),
		categories:  NewCategoryService(tx, eventRepo, categoryRepo, ticketRepo, tokenRepo, nil),
		tickets:     NewTicketService(tx, eventRepo, categoryRepo, ticketRepo, reservationRepo, waitingRepo, testReservationTTL),
		waiting:     NewWaitingQueueService(tx, eventRepo, categoryRepo, ticketRepo, reservationRepo, waitingRepo, emailRepo, nil, testReservationTTL),
		special:     NewSpecialPriceService(tx, eventRepo, categoryRepo, tokenRepo, emailRepo),
		ticketRepo:  ticketRepo,
		tokenRepo:   tokenRepo,
		emailRepo:   emailRepo,
		waitingRepo: waitingRepo,
		tx:          tx,
	}
}

func TestConcurrentInsertsNeverOversell(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 50)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// 20 x 5 units requested, only 10 can fit
			f.categories.InsertCategory(ctx, event.ID, categorySpec(fmt.Sprintf("Batch %d", i), 5, true), "load")
		}(i)
	}
	wg.Wait()

	categories, err := f.categories.ListCategories(ctx, event.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 10)
	assert.Zero(t, f.summary(t, event.ID).Allocation[models.UnboundPool])
}

func TestConcurrentDistributionAndResize(t *testing.T) {
	f := newPostgresFixture(t)
	ctx := context.Background()
	event := f.createEvent(t, 30, categorySpec("General", 0, false))
	for i := 0; i < 40; i++ {
		f.subscribe(t, event.ID, fmt.Sprintf("%s@example.org", uuid.NewString()))
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.waiting.DistributeAvailableSeats(ctx, event.ID)
		}()
		go func(i int) {
			defer wg.Done()
			f.categories.InsertCategory(ctx, event.ID, categorySpec(fmt.Sprintf("Late %d", i), 2, true), "load")
		}(i)
	}
	wg.Wait()

	s := f.summary(t, event.ID)
	assert.Equal(t, 30, s.Units)
	assert.LessOrEqual(t, s.ByStatus[models.TicketPending], 30)
}
