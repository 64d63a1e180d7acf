package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/labstack/echo/v4"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateEvent)
	g.GET("/:id", h.GetEvent)
	g.PUT("/:id", h.UpdateEvent)
	g.GET("/:id/pool", h.GetPool)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	user, err := username(c)
	if err != nil {
		return err
	}
	var req dto.CreateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), req.ToSpec(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	event, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

// UpdateEvent resizes the event and replaces its payment settings.
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	user, err := username(c)
	if err != nil {
		return err
	}
	var req dto.UpdateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	event, err := h.svc.UpdateEventPrices(c.Request().Context(), id, req.ToSpec(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) GetPool(c echo.Context) error {
	id, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	summary, err := h.svc.PoolSummary(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToPoolResponse(summary))
}
