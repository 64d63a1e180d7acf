package dto

import (
	"net/http"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var timeZoneValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	_, err := time.LoadLocation(fl.Field().String())
	return err == nil
}

var paymentMethodValidatorFunc validator.Func = func(fl validator.FieldLevel) bool {
	switch models.PaymentMethod(fl.Field().String()) {
	case models.PaymentOnSite, models.PaymentOffline, models.PaymentCreditCard, models.PaymentBankTransfer:
		return true
	}
	return false
}

// Validator plugs go-playground/validator into echo's Context.Validate.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("timezone", timeZoneValidatorFunc)
	v.RegisterValidation("paymentmethod", paymentMethodValidatorFunc)
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
