package models

import "time"

type TicketStatus string

const (
	TicketFree      TicketStatus = "FREE"
	TicketReleased  TicketStatus = "RELEASED"
	TicketPending   TicketStatus = "PENDING"
	TicketAcquired  TicketStatus = "ACQUIRED"
	TicketCheckedIn TicketStatus = "CHECKED_IN"
)

// AvailableStatuses are the statuses a unit can be claimed or reserved from.
var AvailableStatuses = []TicketStatus{TicketFree, TicketReleased}

// SoldStatuses block category deletion and shrinking.
var SoldStatuses = []TicketStatus{TicketPending, TicketAcquired, TicketCheckedIn}

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketFree:      {TicketFree, TicketReleased, TicketPending},
	TicketReleased:  {TicketReleased, TicketFree, TicketPending},
	TicketPending:   {TicketAcquired, TicketFree, TicketReleased},
	TicketAcquired:  {TicketCheckedIn, TicketFree},
	TicketCheckedIn: {TicketFree},
}

func (s TicketStatus) IsAvailable() bool {
	return s == TicketFree || s == TicketReleased
}

func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Ticket struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	EventID       uint         `gorm:"not null;index:idx_ticket_event_category" json:"event_id"`
	CategoryID    *uint        `gorm:"index:idx_ticket_event_category" json:"category_id,omitempty"`
	Status        TicketStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	ReservationID *string      `gorm:"type:varchar(36);index" json:"reservation_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}
