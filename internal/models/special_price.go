package models

import "time"

type TokenStatus string

const (
	TokenPending   TokenStatus = "PENDING"
	TokenSent      TokenStatus = "SENT"
	TokenUsed      TokenStatus = "USED"
	TokenCancelled TokenStatus = "CANCELLED"
)

type SpecialPriceToken struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	CategoryID     uint        `gorm:"not null;index" json:"category_id"`
	Code           string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Status         TokenStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	RecipientName  string      `json:"recipient_name,omitempty"`
	RecipientEmail string      `json:"recipient_email,omitempty"`
	SentAt         *time.Time  `json:"sent_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}
