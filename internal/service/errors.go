package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/metrics"
	"github.com/Eursukkul/booking-microservice/inventory-service/pkg/database"
)

var (
	ErrEventNotFound        = errors.New("event not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrTokenNotFound        = errors.New("special price token not found")
	ErrAlreadySubscribed    = errors.New("already subscribed to the waiting queue")
	ErrEventAlreadyExists   = errors.New("event short name already in use")
	ErrReservationNotActive = errors.New("reservation is not pending")
)

// Error kinds. A *Error unwraps to exactly one of them.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrIllegalState = errors.New("illegal state")
)

func init() {
	metrics.RegisterKind(ErrValidation, "validation")
	metrics.RegisterKind(ErrConflict, "conflict")
	metrics.RegisterKind(ErrIllegalState, "illegal_state")
}

type ErrorCode string

const (
	CodeOverflow                    ErrorCode = "OVERFLOW"
	CodeNotEnoughSeats              ErrorCode = "NOT_ENOUGH_SEATS"
	CodeCannotShrink                ErrorCode = "CANNOT_SHRINK"
	CodeNotEnoughFreeTokenForShrink ErrorCode = "NOT_ENOUGH_FREE_TOKEN_FOR_SHRINK"
	CodeIncompatiblePaymentMethod   ErrorCode = "INCOMPATIBLE_PAYMENT_METHOD"
	CodeRestrictedMustBeBounded     ErrorCode = "RESTRICTED_MUST_BE_BOUNDED"
	CodePendingTicketsInRestricted  ErrorCode = "PENDING_TICKETS_IN_RESTRICTED"
	CodeInvalidName                 ErrorCode = "INVALID_NAME"
	CodeInvalidDates                ErrorCode = "INVALID_DATES"
	CodeInvalidMaxTickets           ErrorCode = "INVALID_MAX_TICKETS"
	CodeInvalidSeats                ErrorCode = "INVALID_SEATS"
	CodeCategoryNotEmpty            ErrorCode = "CATEGORY_NOT_EMPTY"
	CodeNotEnoughTokens             ErrorCode = "NOT_ENOUGH_TOKENS"
	CodeInvalidTransition           ErrorCode = "INVALID_TRANSITION"
	CodeLockContention              ErrorCode = "LOCK_CONTENTION"
	CodeUnknownCategory             ErrorCode = "UNKNOWN_CATEGORY"
	CodeCheckInWindowClosed         ErrorCode = "CHECK_IN_WINDOW_CLOSED"
)

// Error is the structured result of a rejected operation.
type Error struct {
	Kind  error
	Codes []ErrorCode
}

func (e *Error) Error() string {
	codes := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		codes[i] = string(c)
	}
	return fmt.Sprintf("%s: %s", e.Kind, strings.Join(codes, ", "))
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func (e *Error) Has(code ErrorCode) bool {
	for _, c := range e.Codes {
		if c == code {
			return true
		}
	}
	return false
}

func validationError(codes ...ErrorCode) *Error {
	return &Error{Kind: ErrValidation, Codes: codes}
}

func conflictError(codes ...ErrorCode) *Error {
	return &Error{Kind: ErrConflict, Codes: codes}
}

func illegalStateError(codes ...ErrorCode) *Error {
	return &Error{Kind: ErrIllegalState, Codes: codes}
}

// Codes returns the error codes carried by err, if any.
func Codes(err error) []ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Codes
	}
	return nil
}

// translateTxError turns exhausted lock retries into a retryable conflict.
func translateTxError(err error) error {
	if errors.Is(err, database.ErrLockConflict) {
		return conflictError(CodeLockContention)
	}
	return err
}
