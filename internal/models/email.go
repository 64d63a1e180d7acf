package models

import "time"

type EmailStatus string

const (
	EmailWaiting EmailStatus = "WAITING"
	EmailSending EmailStatus = "SENDING"
	EmailSent    EmailStatus = "SENT"
	EmailError   EmailStatus = "ERROR"
)

type EmailMessage struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	EventID   uint        `gorm:"not null;index" json:"event_id"`
	Recipient string      `gorm:"not null" json:"recipient"`
	Subject   string      `gorm:"not null" json:"subject"`
	Body      string      `gorm:"type:text" json:"body"`
	Status    EmailStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	Attempts  int         `gorm:"not null" json:"attempts"`
	LastError string      `gorm:"type:text" json:"last_error,omitempty"`
	SentAt    *time.Time  `json:"sent_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
