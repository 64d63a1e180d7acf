package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	events        service.EventService
	categories    service.CategoryService
	specialPrices service.SpecialPriceService
}

func NewCategoryHandler(events service.EventService, categories service.CategoryService, specialPrices service.SpecialPriceService) *CategoryHandler {
	return &CategoryHandler{events: events, categories: categories, specialPrices: specialPrices}
}

// RegisterRoutes mounts the category routes below /events/:id.
func (h *CategoryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:id/categories", h.ListCategories)
	g.POST("/:id/categories", h.InsertCategory)
	g.POST("/:id/categories/rearrange", h.RearrangeCategories)
	g.PUT("/:id/categories/:categoryId", h.UpdateCategory)
	g.DELETE("/:id/categories/:categoryId", h.DeleteCategory)
	g.GET("/:id/categories/:categoryId/codes", h.ListCodes)
	g.POST("/:id/categories/:categoryId/codes", h.SendCodes)
}

func (h *CategoryHandler) RegisterCodeRoutes(g *echo.Group) {
	g.POST("/redeem", h.RedeemCode)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	categories, err := h.categories.ListCategories(c.Request().Context(), eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToCategoryResponses(categories))
}

func (h *CategoryHandler) InsertCategory(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	user, err := username(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categories.InsertCategory(c.Request().Context(), eventID, req.ToSpec(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToCategoryResponse(category))
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	categoryID, err := uintParam(c, "categoryId")
	if err != nil {
		return err
	}
	user, err := username(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	category, err := h.categories.UpdateCategory(c.Request().Context(), categoryID, eventID, req.ToSpec(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToCategoryResponse(category))
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	categoryID, err := uintParam(c, "categoryId")
	if err != nil {
		return err
	}
	user, err := username(c)
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	event, err := h.events.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := h.categories.DeleteCategory(ctx, event.ShortName, categoryID, user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) RearrangeCategories(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	user, err := username(c)
	if err != nil {
		return err
	}
	var req dto.RearrangeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	event, err := h.events.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := h.categories.RearrangeCategories(ctx, event.ShortName, req.ToOrdinals(), user); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) ListCodes(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	categoryID, err := uintParam(c, "categoryId")
	if err != nil {
		return err
	}

	tokens, err := h.specialPrices.ListTokens(c.Request().Context(), eventID, categoryID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToTokenResponses(tokens))
}

func (h *CategoryHandler) SendCodes(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	categoryID, err := uintParam(c, "categoryId")
	if err != nil {
		return err
	}
	user, err := username(c)
	if err != nil {
		return err
	}
	var req dto.SendCodesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tokens, err := h.specialPrices.SendCodes(c.Request().Context(), eventID, categoryID, req.ToAssignees(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToTokenResponses(tokens))
}

func (h *CategoryHandler) RedeemCode(c echo.Context) error {
	var req dto.RedeemCodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.specialPrices.RedeemCode(c.Request().Context(), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToTokenResponses([]models.SpecialPriceToken{*token})[0])
}
