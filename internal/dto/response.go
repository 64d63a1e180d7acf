package dto

import (
	"strconv"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/shopspring/decimal"
)

type EventResponse struct {
	ID             uint                   `json:"id"`
	ShortName      string                 `json:"short_name"`
	DisplayName    string                 `json:"display_name"`
	AvailableSeats int                    `json:"available_seats"`
	Currency       string                 `json:"currency"`
	TimeZone       string                 `json:"time_zone"`
	Format         models.EventFormat     `json:"format"`
	PaymentMethods []models.PaymentMethod `json:"payment_methods"`
	CreatedAt      time.Time              `json:"created_at"`
}

type CategoryResponse struct {
	ID               uint                  `json:"id"`
	EventID          uint                  `json:"event_id"`
	Name             string                `json:"name"`
	MaxTickets       int                   `json:"max_tickets"`
	Bounded          bool                  `json:"bounded"`
	AccessRestricted bool                  `json:"access_restricted"`
	Price            decimal.Decimal       `json:"price"`
	Inception        time.Time             `json:"inception"`
	Expiration       time.Time             `json:"expiration"`
	ValidCheckInFrom *time.Time            `json:"valid_check_in_from,omitempty"`
	ValidCheckInTo   *time.Time            `json:"valid_check_in_to,omitempty"`
	Ordinal          int                   `json:"ordinal"`
	Status           models.CategoryStatus `json:"status"`
}

// PoolResponse uses "unbound" as the key of the unbound pool.
type PoolResponse struct {
	EventID    uint                        `json:"event_id"`
	TotalSeats int                         `json:"total_seats"`
	Units      int                         `json:"units"`
	Allocation map[string]int              `json:"allocation"`
	Available  map[string]int              `json:"available"`
	ByStatus   map[models.TicketStatus]int `json:"by_status"`
	Conserved  bool                        `json:"conserved"`
	Violation  string                      `json:"violation,omitempty"`
}

type TicketResponse struct {
	ID            uint                `json:"id"`
	EventID       uint                `json:"event_id"`
	CategoryID    *uint               `json:"category_id,omitempty"`
	Status        models.TicketStatus `json:"status"`
	ReservationID *string             `json:"reservation_id,omitempty"`
}

type TokenResponse struct {
	ID             uint               `json:"id"`
	CategoryID     uint               `json:"category_id"`
	Code           string             `json:"code"`
	Status         models.TokenStatus `json:"status"`
	RecipientEmail string             `json:"recipient_email,omitempty"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
}

type SubscriptionResponse struct {
	ID                 uint                      `json:"id"`
	EventID            uint                      `json:"event_id"`
	Email              string                    `json:"email"`
	SelectedCategoryID *uint                     `json:"selected_category_id,omitempty"`
	Status             models.SubscriptionStatus `json:"status"`
	Creation           time.Time                 `json:"creation"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Codes   []string `json:"codes,omitempty"`
}

func ToEventResponse(e *models.Event) EventResponse {
	return EventResponse{
		ID:             e.ID,
		ShortName:      e.ShortName,
		DisplayName:    e.DisplayName,
		AvailableSeats: e.AvailableSeats,
		Currency:       e.Currency,
		TimeZone:       e.TimeZone,
		Format:         e.Format,
		PaymentMethods: e.PaymentMethods,
		CreatedAt:      e.CreatedAt,
	}
}

func ToCategoryResponse(c *models.TicketCategory) CategoryResponse {
	return CategoryResponse{
		ID:               c.ID,
		EventID:          c.EventID,
		Name:             c.Name,
		MaxTickets:       c.MaxTickets,
		Bounded:          c.Bounded,
		AccessRestricted: c.AccessRestricted,
		Price:            c.Price(),
		Inception:        c.Inception,
		Expiration:       c.Expiration,
		ValidCheckInFrom: c.ValidCheckInFrom,
		ValidCheckInTo:   c.ValidCheckInTo,
		Ordinal:          c.Ordinal,
		Status:           c.Status,
	}
}

func ToCategoryResponses(categories []models.TicketCategory) []CategoryResponse {
	resp := make([]CategoryResponse, len(categories))
	for i := range categories {
		resp[i] = ToCategoryResponse(&categories[i])
	}
	return resp
}

func allocationKey(id uint) string {
	if id == models.UnboundPool {
		return "unbound"
	}
	return strconv.FormatUint(uint64(id), 10)
}

func ToPoolResponse(s *models.PoolSummary) PoolResponse {
	resp := PoolResponse{
		EventID:    s.EventID,
		TotalSeats: s.TotalSeats,
		Units:      s.Units,
		Allocation: make(map[string]int, len(s.Allocation)),
		Available:  make(map[string]int, len(s.Available)),
		ByStatus:   s.ByStatus,
		Conserved:  s.Conservation == "",
		Violation:  s.Conservation,
	}
	for id, n := range s.Allocation {
		resp.Allocation[allocationKey(id)] = n
	}
	for id, n := range s.Available {
		resp.Available[allocationKey(id)] = n
	}
	return resp
}

func ToTicketResponse(t *models.Ticket) TicketResponse {
	return TicketResponse{
		ID:            t.ID,
		EventID:       t.EventID,
		CategoryID:    t.CategoryID,
		Status:        t.Status,
		ReservationID: t.ReservationID,
	}
}

func ToTokenResponses(tokens []models.SpecialPriceToken) []TokenResponse {
	resp := make([]TokenResponse, len(tokens))
	for i, t := range tokens {
		resp[i] = TokenResponse{
			ID:             t.ID,
			CategoryID:     t.CategoryID,
			Code:           t.Code,
			Status:         t.Status,
			RecipientEmail: t.RecipientEmail,
			SentAt:         t.SentAt,
		}
	}
	return resp
}

func ToSubscriptionResponse(s *models.WaitingQueueSubscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 s.ID,
		EventID:            s.EventID,
		Email:              s.Email,
		SelectedCategoryID: s.SelectedCategoryID,
		Status:             s.Status,
		Creation:           s.Creation,
	}
}
