package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const categoryBody = `{"name":"Students","max_tickets":5,"bounded":true,"price":"10.50",
	"inception":"2026-11-01T09:00:00Z","expiration":"2026-12-01T09:00:00Z"}`

func eventLookup() *mockEventService {
	return &mockEventService{
		getFn: func(ctx context.Context, id uint) (*models.Event, error) {
			return &models.Event{ID: id, ShortName: "gophercon-eu"}, nil
		},
	}
}

func TestInsertCategory_Handler_Success(t *testing.T) {
	var gotEvent uint
	var gotSpec service.CategorySpec
	categories := &mockCategoryService{
		insertFn: func(ctx context.Context, eventID uint, spec service.CategorySpec, username string) (*models.TicketCategory, error) {
			gotEvent, gotSpec = eventID, spec
			return &models.TicketCategory{ID: 9, EventID: eventID, Name: spec.Name, MaxTickets: spec.MaxTickets, Bounded: true, PriceCts: spec.PriceCts, Status: models.CategoryActive}, nil
		},
	}
	c, rec := newContext(newEcho(), http.MethodPost, "/api/v1/events/3/categories", strings.NewReader(categoryBody), "admin", "id", "3")

	err := NewCategoryHandler(eventLookup(), categories, &mockSpecialPriceService{}).InsertCategory(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint(3), gotEvent)
	assert.Equal(t, 1050, gotSpec.PriceCts)

	var resp dto.CategoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "10.5", resp.Price.String())
	assert.Equal(t, models.CategoryActive, resp.Status)
}

func TestInsertCategory_Handler_BadRequest_MissingName(t *testing.T) {
	body := strings.Replace(categoryBody, `"Students"`, `""`, 1)
	c, _ := newContext(newEcho(), http.MethodPost, "/api/v1/events/3/categories", strings.NewReader(body), "admin", "id", "3")

	err := NewCategoryHandler(eventLookup(), &mockCategoryService{}, &mockSpecialPriceService{}).InsertCategory(c)

	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestUpdateCategory_Handler_CannotShrink(t *testing.T) {
	categories := &mockCategoryService{
		updateFn: func(ctx context.Context, categoryID, eventID uint, spec service.CategorySpec, username string) (*models.TicketCategory, error) {
			return nil, &service.Error{Kind: service.ErrConflict, Codes: []service.ErrorCode{service.CodeCannotShrink}}
		},
	}
	c, _ := newContext(newEcho(), http.MethodPut, "/api/v1/events/3/categories/9", strings.NewReader(categoryBody), "admin", "id", "3", "categoryId", "9")

	err := NewCategoryHandler(eventLookup(), categories, &mockSpecialPriceService{}).UpdateCategory(c)

	assert.ErrorIs(t, err, service.ErrConflict)
	assert.Equal(t, []service.ErrorCode{service.CodeCannotShrink}, service.Codes(err))
}

func TestDeleteCategory_Handler_UsesShortName(t *testing.T) {
	var gotShortName string
	var gotCategory uint
	categories := &mockCategoryService{
		deleteFn: func(ctx context.Context, shortName string, categoryID uint, username string) error {
			gotShortName, gotCategory = shortName, categoryID
			return nil
		},
	}
	c, rec := newContext(newEcho(), http.MethodDelete, "/api/v1/events/3/categories/9", nil, "admin", "id", "3", "categoryId", "9")

	err := NewCategoryHandler(eventLookup(), categories, &mockSpecialPriceService{}).DeleteCategory(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "gophercon-eu", gotShortName)
	assert.Equal(t, uint(9), gotCategory)
}

func TestRearrangeCategories_Handler(t *testing.T) {
	var got []service.CategoryOrdinal
	categories := &mockCategoryService{
		rearrangeFn: func(ctx context.Context, shortName string, orderings []service.CategoryOrdinal, username string) error {
			got = orderings
			return nil
		},
	}
	body := `{"categories":[{"category_id":9,"ordinal":2},{"category_id":4,"ordinal":1}]}`
	c, rec := newContext(newEcho(), http.MethodPost, "/api/v1/events/3/categories/rearrange", strings.NewReader(body), "admin", "id", "3")

	err := NewCategoryHandler(eventLookup(), categories, &mockSpecialPriceService{}).RearrangeCategories(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []service.CategoryOrdinal{{CategoryID: 9, Ordinal: 2}, {CategoryID: 4, Ordinal: 1}}, got)
}

func TestSendCodes_Handler(t *testing.T) {
	special := &mockSpecialPriceService{
		sendFn: func(ctx context.Context, eventID, categoryID uint, assignees []service.Assignee, username string) ([]models.SpecialPriceToken, error) {
			assert.Equal(t, uint(3), eventID)
			tokens := make([]models.SpecialPriceToken, len(assignees))
			for i, a := range assignees {
				tokens[i] = models.SpecialPriceToken{ID: uint(i + 1), CategoryID: categoryID, Code: "CODE", Status: models.TokenSent, RecipientEmail: a.Email}
			}
			return tokens, nil
		},
	}
	body := `{"assignees":[{"full_name":"Ada Lovelace","email":"ada@example.org"}]}`
	c, rec := newContext(newEcho(), http.MethodPost, "/api/v1/events/3/categories/9/codes", strings.NewReader(body), "admin", "id", "3", "categoryId", "9")

	err := NewCategoryHandler(eventLookup(), &mockCategoryService{}, special).SendCodes(c)

	require.NoError(t, err)
	var resp []dto.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "ada@example.org", resp[0].RecipientEmail)
	assert.Equal(t, models.TokenSent, resp[0].Status)
}

func TestListCodes_Handler_CategoryOfAnotherEvent(t *testing.T) {
	var gotEvent uint
	special := &mockSpecialPriceService{
		listFn: func(ctx context.Context, eventID, categoryID uint) ([]models.SpecialPriceToken, error) {
			gotEvent = eventID
			return nil, service.ErrCategoryNotFound
		},
	}
	c, _ := newContext(newEcho(), http.MethodGet, "/api/v1/events/1/categories/9/codes", nil, "", "id", "1", "categoryId", "9")

	err := NewCategoryHandler(eventLookup(), &mockCategoryService{}, special).ListCodes(c)

	assert.ErrorIs(t, err, service.ErrCategoryNotFound)
	assert.Equal(t, uint(1), gotEvent)
}

func TestRedeemCode_Handler_NotFound(t *testing.T) {
	special := &mockSpecialPriceService{
		redeemFn: func(ctx context.Context, code string) (*models.SpecialPriceToken, error) {
			return nil, service.ErrTokenNotFound
		},
	}
	c, _ := newContext(newEcho(), http.MethodPost, "/api/v1/codes/redeem", strings.NewReader(`{"code":"NOPE"}`), "")

	err := NewCategoryHandler(eventLookup(), &mockCategoryService{}, special).RedeemCode(c)

	assert.ErrorIs(t, err, service.ErrTokenNotFound)
}
