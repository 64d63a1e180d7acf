package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/labstack/echo/v4"
)

type TicketHandler struct {
	svc service.TicketService
}

func NewTicketHandler(svc service.TicketService) *TicketHandler {
	return &TicketHandler{svc: svc}
}

func (h *TicketHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/:ticketId/check-in", h.CheckIn)
	g.POST("/:ticketId/release", h.Release)
}

func (h *TicketHandler) CheckIn(c echo.Context) error {
	id, err := uintParam(c, "ticketId")
	if err != nil {
		return err
	}

	ticket, err := h.svc.CheckIn(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToTicketResponse(ticket))
}

func (h *TicketHandler) Release(c echo.Context) error {
	id, err := uintParam(c, "ticketId")
	if err != nil {
		return err
	}
	user, err := username(c)
	if err != nil {
		return err
	}

	ticket, err := h.svc.ReleaseTicket(c.Request().Context(), id, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.ToTicketResponse(ticket))
}
