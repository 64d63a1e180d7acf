package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategoryStatus string

const (
	CategoryActive    CategoryStatus = "ACTIVE"
	CategoryNotActive CategoryStatus = "NOT_ACTIVE"
)

type TicketCategory struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	EventID          uint           `gorm:"not null;index" json:"event_id"`
	Name             string         `gorm:"not null" json:"name"`
	MaxTickets       int            `gorm:"not null" json:"max_tickets"`
	Bounded          bool           `gorm:"not null" json:"bounded"`
	AccessRestricted bool           `gorm:"not null" json:"access_restricted"`
	PriceCts         int            `gorm:"not null" json:"price_cts"`
	Inception        time.Time      `gorm:"not null" json:"inception"`
	Expiration       time.Time      `gorm:"not null" json:"expiration"`
	ValidCheckInFrom *time.Time     `json:"valid_check_in_from,omitempty"`
	ValidCheckInTo   *time.Time     `json:"valid_check_in_to,omitempty"`
	Ordinal          int            `gorm:"not null" json:"ordinal"`
	Status           CategoryStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func (c *TicketCategory) Price() decimal.Decimal {
	return decimal.New(int64(c.PriceCts), -2)
}

func (c *TicketCategory) IsActive() bool {
	return c.Status == CategoryActive
}

// CheckInAllowed reports whether t falls into the category check-in window.
// An open bound means no limit on that side.
func (c *TicketCategory) CheckInAllowed(t time.Time) bool {
	if c.ValidCheckInFrom != nil && t.Before(*c.ValidCheckInFrom) {
		return false
	}
	if c.ValidCheckInTo != nil && t.After(*c.ValidCheckInTo) {
		return false
	}
	return true
}
