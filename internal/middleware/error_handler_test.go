package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/dto"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handle(t *testing.T, err error) (int, dto.ErrorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/v1/events", nil), rec)

	ErrorHandler(err, c)

	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", &service.Error{Kind: service.ErrValidation, Codes: []service.ErrorCode{service.CodeOverflow}}, http.StatusUnprocessableEntity},
		{"conflict", &service.Error{Kind: service.ErrConflict, Codes: []service.ErrorCode{service.CodeNotEnoughSeats}}, http.StatusConflict},
		{"illegal state", &service.Error{Kind: service.ErrIllegalState, Codes: []service.ErrorCode{service.CodeCategoryNotEmpty}}, http.StatusConflict},
		{"duplicate event", service.ErrEventAlreadyExists, http.StatusConflict},
		{"wrapped not found", fmt.Errorf("load: %w", service.ErrCategoryNotFound), http.StatusNotFound},
		{"echo error", echo.NewHTTPError(http.StatusBadRequest, "invalid category id"), http.StatusBadRequest},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := handle(t, tt.err)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestErrorHandler_RendersCodes(t *testing.T) {
	code, resp := handle(t, &service.Error{
		Kind:  service.ErrValidation,
		Codes: []service.ErrorCode{service.CodeIncompatiblePaymentMethod, service.CodeOverflow},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, []string{"INCOMPATIBLE_PAYMENT_METHOD", "OVERFLOW"}, resp.Codes)
	assert.Contains(t, resp.Message, "validation failed")
}

func TestErrorHandler_EchoMessage(t *testing.T) {
	_, resp := handle(t, echo.NewHTTPError(http.StatusBadRequest, "invalid event id"))

	assert.Equal(t, "invalid event id", resp.Message)
	assert.Empty(t, resp.Codes)
}
