package dto

import (
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/shopspring/decimal"
)

type CategoryRequest struct {
	Name             string          `json:"name" validate:"required"`
	MaxTickets       int             `json:"max_tickets" validate:"gte=0"`
	Bounded          bool            `json:"bounded"`
	AccessRestricted bool            `json:"access_restricted"`
	Price            decimal.Decimal `json:"price"`
	Inception        time.Time       `json:"inception" validate:"required"`
	Expiration       time.Time       `json:"expiration" validate:"required,gtfield=Inception"`
	ValidCheckInFrom *time.Time      `json:"valid_check_in_from"`
	ValidCheckInTo   *time.Time      `json:"valid_check_in_to"`
	Ordinal          int             `json:"ordinal"`
}

type CreateEventRequest struct {
	ShortName      string            `json:"short_name" validate:"required,max=128"`
	DisplayName    string            `json:"display_name" validate:"required"`
	AvailableSeats int               `json:"available_seats" validate:"required,gt=0"`
	Currency       string            `json:"currency" validate:"omitempty,len=3"`
	TimeZone       string            `json:"time_zone" validate:"required,timezone"`
	Format         string            `json:"format" validate:"required,oneof=IN_PERSON ONLINE"`
	PaymentMethods []string          `json:"payment_methods" validate:"dive,paymentmethod"`
	Categories     []CategoryRequest `json:"categories" validate:"dive"`
}

type UpdateEventRequest struct {
	AvailableSeats int      `json:"available_seats" validate:"required,gt=0"`
	Currency       string   `json:"currency" validate:"omitempty,len=3"`
	Format         string   `json:"format" validate:"omitempty,oneof=IN_PERSON ONLINE"`
	PaymentMethods []string `json:"payment_methods" validate:"dive,paymentmethod"`
}

type CategoryOrdinalRequest struct {
	CategoryID uint `json:"category_id" validate:"required"`
	Ordinal    int  `json:"ordinal"`
}

type RearrangeRequest struct {
	Categories []CategoryOrdinalRequest `json:"categories" validate:"required,min=1,dive"`
}

type AssigneeRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

type SendCodesRequest struct {
	Assignees []AssigneeRequest `json:"assignees" validate:"required,min=1,dive"`
}

type RedeemCodeRequest struct {
	Code string `json:"code" validate:"required"`
}

type SubscribeRequest struct {
	FullName           string `json:"full_name" validate:"required"`
	Email              string `json:"email" validate:"required,email"`
	Language           string `json:"language" validate:"omitempty,max=8"`
	SelectedCategoryID *uint  `json:"selected_category_id"`
}

func (r CategoryRequest) ToSpec() service.CategorySpec {
	return service.CategorySpec{
		Name:             r.Name,
		MaxTickets:       r.MaxTickets,
		Bounded:          r.Bounded,
		AccessRestricted: r.AccessRestricted,
		PriceCts:         int(r.Price.Shift(2).Round(0).IntPart()),
		Inception:        r.Inception,
		Expiration:       r.Expiration,
		ValidCheckInFrom: r.ValidCheckInFrom,
		ValidCheckInTo:   r.ValidCheckInTo,
		Ordinal:          r.Ordinal,
	}
}

func paymentMethods(raw []string) []models.PaymentMethod {
	out := make([]models.PaymentMethod, len(raw))
	for i, m := range raw {
		out[i] = models.PaymentMethod(m)
	}
	return out
}

func (r CreateEventRequest) ToSpec() service.EventSpec {
	categories := make([]service.CategorySpec, len(r.Categories))
	for i, c := range r.Categories {
		categories[i] = c.ToSpec()
	}
	return service.EventSpec{
		ShortName:      r.ShortName,
		DisplayName:    r.DisplayName,
		AvailableSeats: r.AvailableSeats,
		Currency:       r.Currency,
		TimeZone:       r.TimeZone,
		Format:         models.EventFormat(r.Format),
		PaymentMethods: paymentMethods(r.PaymentMethods),
		Categories:     categories,
	}
}

func (r UpdateEventRequest) ToSpec() service.PricesSpec {
	return service.PricesSpec{
		AvailableSeats: r.AvailableSeats,
		Currency:       r.Currency,
		Format:         models.EventFormat(r.Format),
		PaymentMethods: paymentMethods(r.PaymentMethods),
	}
}

func (r RearrangeRequest) ToOrdinals() []service.CategoryOrdinal {
	out := make([]service.CategoryOrdinal, len(r.Categories))
	for i, c := range r.Categories {
		out[i] = service.CategoryOrdinal{CategoryID: c.CategoryID, Ordinal: c.Ordinal}
	}
	return out
}

func (r SendCodesRequest) ToAssignees() []service.Assignee {
	out := make([]service.Assignee, len(r.Assignees))
	for i, a := range r.Assignees {
		out[i] = service.Assignee{FullName: a.FullName, Email: a.Email}
	}
	return out
}

func (r SubscribeRequest) ToRequest() service.SubscriptionRequest {
	return service.SubscriptionRequest{
		FullName:           r.FullName,
		Email:              r.Email,
		Language:           r.Language,
		SelectedCategoryID: r.SelectedCategoryID,
	}
}
