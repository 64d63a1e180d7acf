package handler

import (
	"net/http"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/labstack/echo/v4"
)

type WaitingQueueHandler struct {
	svc service.WaitingQueueService
}

func NewWaitingQueueHandler(svc service.WaitingQueueService) *WaitingQueueHandler {
	return &WaitingQueueHandler{svc: svc}
}

func (h *WaitingQueueHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/:id/waiting-queue", h.Subscribe)
	g.GET("/:id/waiting-queue/count", h.CountWaiting)
	g.POST("/:id/waiting-queue/distribute", h.Distribute)
}

func (h *WaitingQueueHandler) Subscribe(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.SubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub, err := h.svc.Subscribe(c.Request().Context(), eventID, req.ToRequest())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.ToSubscriptionResponse(sub))
}

func (h *WaitingQueueHandler) CountWaiting(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}

	n, err := h.svc.CountWaiting(c.Request().Context(), eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.CountResponse{Count: n})
}

// Distribute runs the distributor for one event without waiting for the
// scheduled task.
func (h *WaitingQueueHandler) Distribute(c echo.Context) error {
	eventID, err := uintParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := username(c); err != nil {
		return err
	}

	n, err := h.svc.DistributeAvailableSeats(c.Request().Context(), eventID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.CountResponse{Count: int64(n)})
}
