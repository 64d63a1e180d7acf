package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/labstack/echo/v4"
)

func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, resp := render(err)
	if code == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	_ = c.JSON(code, resp)
}

func render(err error) (int, dto.ErrorResponse) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok {
			msg = m
		}
		return he.Code, dto.ErrorResponse{Message: msg}
	}

	resp := dto.ErrorResponse{Message: err.Error()}
	for _, c := range service.Codes(err) {
		resp.Codes = append(resp.Codes, string(c))
	}
	return statusOf(err), resp
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConflict),
		errors.Is(err, service.ErrIllegalState),
		errors.Is(err, service.ErrEventAlreadyExists),
		errors.Is(err, service.ErrAlreadySubscribed),
		errors.Is(err, service.ErrReservationNotActive):
		return http.StatusConflict
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrTicketNotFound),
		errors.Is(err, service.ErrReservationNotFound),
		errors.Is(err, service.ErrTokenNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
