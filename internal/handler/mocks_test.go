package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/labstack/echo/v4"
)

// --- Mock EventService ---

type mockEventService struct {
	createFn  func(ctx context.Context, spec service.EventSpec, username string) (*models.Event, error)
	updateFn  func(ctx context.Context, id uint, spec service.PricesSpec, username string) (*models.Event, error)
	getFn     func(ctx context.Context, id uint) (*models.Event, error)
	summaryFn func(ctx context.Context, id uint) (*models.PoolSummary, error)
}

func (m *mockEventService) CreateEvent(ctx context.Context, spec service.EventSpec, username string) (*models.Event, error) {
	return m.createFn(ctx, spec, username)
}
func (m *mockEventService) UpdateEventPrices(ctx context.Context, id uint, spec service.PricesSpec, username string) (*models.Event, error) {
	return m.updateFn(ctx, id, spec, username)
}
func (m *mockEventService) GetEvent(ctx context.Context, id uint) (*models.Event, error) {
	return m.getFn(ctx, id)
}
func (m *mockEventService) GetEventByShortName(ctx context.Context, shortName string) (*models.Event, error) {
	return nil, service.ErrEventNotFound
}
func (m *mockEventService) PoolSummary(ctx context.Context, id uint) (*models.PoolSummary, error) {
	return m.summaryFn(ctx, id)
}

// --- Mock CategoryService ---

type mockCategoryService struct {
	insertFn    func(ctx context.Context, eventID uint, spec service.CategorySpec, username string) (*models.TicketCategory, error)
	updateFn    func(ctx context.Context, categoryID, eventID uint, spec service.CategorySpec, username string) (*models.TicketCategory, error)
	deleteFn    func(ctx context.Context, shortName string, categoryID uint, username string) error
	rearrangeFn func(ctx context.Context, shortName string, orderings []service.CategoryOrdinal, username string) error
	listFn      func(ctx context.Context, eventID uint) ([]models.TicketCategory, error)
}

func (m *mockCategoryService) InsertCategory(ctx context.Context, eventID uint, spec service.CategorySpec, username string) (*models.TicketCategory, error) {
	return m.insertFn(ctx, eventID, spec, username)
}
func (m *mockCategoryService) UpdateCategory(ctx context.Context, categoryID, eventID uint, spec service.CategorySpec, username string) (*models.TicketCategory, error) {
	return m.updateFn(ctx, categoryID, eventID, spec, username)
}
func (m *mockCategoryService) DeleteCategory(ctx context.Context, shortName string, categoryID uint, username string) error {
	return m.deleteFn(ctx, shortName, categoryID, username)
}
func (m *mockCategoryService) RearrangeCategories(ctx context.Context, shortName string, orderings []service.CategoryOrdinal, username string) error {
	return m.rearrangeFn(ctx, shortName, orderings, username)
}
func (m *mockCategoryService) ListCategories(ctx context.Context, eventID uint) ([]models.TicketCategory, error) {
	return m.listFn(ctx, eventID)
}

// --- Mock SpecialPriceService ---

type mockSpecialPriceService struct {
	sendFn   func(ctx context.Context, eventID, categoryID uint, assignees []service.Assignee, username string) ([]models.SpecialPriceToken, error)
	listFn   func(ctx context.Context, eventID, categoryID uint) ([]models.SpecialPriceToken, error)
	redeemFn func(ctx context.Context, code string) (*models.SpecialPriceToken, error)
}

func (m *mockSpecialPriceService) GeneratePendingCodesForCategory(ctx context.Context, categoryID uint) (int, error) {
	return 0, nil
}
func (m *mockSpecialPriceService) GeneratePendingCodes(ctx context.Context) error { return nil }
func (m *mockSpecialPriceService) CountSentTokens(ctx context.Context, categoryID uint) (int64, error) {
	return 0, nil
}
func (m *mockSpecialPriceService) SendCodes(ctx context.Context, eventID, categoryID uint, assignees []service.Assignee, username string) ([]models.SpecialPriceToken, error) {
	return m.sendFn(ctx, eventID, categoryID, assignees, username)
}
func (m *mockSpecialPriceService) RedeemCode(ctx context.Context, code string) (*models.SpecialPriceToken, error) {
	return m.redeemFn(ctx, code)
}
func (m *mockSpecialPriceService) ListTokens(ctx context.Context, eventID, categoryID uint) ([]models.SpecialPriceToken, error) {
	return m.listFn(ctx, eventID, categoryID)
}

// --- Mock WaitingQueueService ---

type mockWaitingQueueService struct {
	subscribeFn  func(ctx context.Context, eventID uint, req service.SubscriptionRequest) (*models.WaitingQueueSubscription, error)
	distributeFn func(ctx context.Context, eventID uint) (int, error)
	countFn      func(ctx context.Context, eventID uint) (int64, error)
}

func (m *mockWaitingQueueService) Subscribe(ctx context.Context, eventID uint, req service.SubscriptionRequest) (*models.WaitingQueueSubscription, error) {
	return m.subscribeFn(ctx, eventID, req)
}
func (m *mockWaitingQueueService) DistributeAvailableSeats(ctx context.Context, eventID uint) (int, error) {
	return m.distributeFn(ctx, eventID)
}
func (m *mockWaitingQueueService) HandleWaitingTickets(ctx context.Context) error { return nil }
func (m *mockWaitingQueueService) CountWaiting(ctx context.Context, eventID uint) (int64, error) {
	return m.countFn(ctx, eventID)
}

// --- Mock TicketService ---

type mockTicketService struct {
	checkInFn func(ctx context.Context, id uint) (*models.Ticket, error)
	releaseFn func(ctx context.Context, id uint, username string) (*models.Ticket, error)
}

func (m *mockTicketService) ReserveUnits(ctx context.Context, req service.ReserveRequest) (*models.Reservation, error) {
	return nil, nil
}
func (m *mockTicketService) ConfirmReservation(ctx context.Context, id string) error { return nil }
func (m *mockTicketService) ExpireReservation(ctx context.Context, id string) error  { return nil }
func (m *mockTicketService) CleanupExpiredReservations(ctx context.Context, before time.Time) (int, error) {
	return 0, nil
}
func (m *mockTicketService) CheckIn(ctx context.Context, id uint) (*models.Ticket, error) {
	return m.checkInFn(ctx, id)
}
func (m *mockTicketService) ReleaseTicket(ctx context.Context, id uint, username string) (*models.Ticket, error) {
	return m.releaseFn(ctx, id, username)
}

// --- Helpers ---

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = dto.NewValidator()
	return e
}

// newContext builds a request context; params alternate name, value.
func newContext(e *echo.Echo, method, target string, body io.Reader, user string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != "" {
		req.Header.Set(HeaderUsername, user)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func statusOf(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}
