package models

import "time"

type EventFormat string

const (
	FormatInPerson EventFormat = "IN_PERSON"
	FormatOnline   EventFormat = "ONLINE"
)

type PaymentMethod string

const (
	PaymentOnSite       PaymentMethod = "ON_SITE"
	PaymentOffline      PaymentMethod = "OFFLINE"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentBankTransfer PaymentMethod = "BANK_TRANSFER"
)

type Event struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ShortName      string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"short_name"`
	DisplayName    string          `gorm:"not null" json:"display_name"`
	AvailableSeats int             `gorm:"not null" json:"available_seats"`
	Currency       string          `gorm:"type:varchar(3)" json:"currency"`
	TimeZone       string          `gorm:"type:varchar(64);not null" json:"time_zone"`
	Format         EventFormat     `gorm:"type:varchar(20);not null" json:"format"`
	PaymentMethods []PaymentMethod `gorm:"type:text;serializer:json" json:"payment_methods"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Location falls back to UTC when the configured zone cannot be loaded.
func (e *Event) Location() *time.Location {
	if loc, err := time.LoadLocation(e.TimeZone); err == nil {
		return loc
	}
	return time.UTC
}
