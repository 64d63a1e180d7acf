package models

import "time"

type ReservationStatus string

const (
	ReservationPending  ReservationStatus = "PENDING"
	ReservationComplete ReservationStatus = "COMPLETE"
	ReservationExpired  ReservationStatus = "EXPIRED"
)

type Reservation struct {
	ID         string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	EventID    uint              `gorm:"not null;index" json:"event_id"`
	Status     ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ValidUntil time.Time         `gorm:"not null;index" json:"valid_until"`
	FullName   string            `json:"full_name,omitempty"`
	Email      string            `json:"email,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}
