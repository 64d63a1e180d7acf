package models

import "time"

type SubscriptionStatus string

const (
	SubscriptionWaiting  SubscriptionStatus = "WAITING"
	SubscriptionPending  SubscriptionStatus = "PENDING"
	SubscriptionAcquired SubscriptionStatus = "ACQUIRED"
	SubscriptionExpired  SubscriptionStatus = "EXPIRED"
)

type WaitingQueueSubscription struct {
	ID                 uint               `gorm:"primaryKey" json:"id"`
	EventID            uint               `gorm:"not null;index" json:"event_id"`
	FullName           string             `gorm:"not null" json:"full_name"`
	Email              string             `gorm:"not null" json:"email"`
	Language           string             `gorm:"type:varchar(8)" json:"language,omitempty"`
	SelectedCategoryID *uint              `json:"selected_category_id,omitempty"`
	Status             SubscriptionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReservationID      *string            `gorm:"type:varchar(36);index" json:"reservation_id,omitempty"`
	Creation           time.Time          `gorm:"not null;index" json:"creation"`
	UpdatedAt          time.Time          `json:"updated_at"`
}
