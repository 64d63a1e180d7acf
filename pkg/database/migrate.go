package database

import (
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Event{},
		&models.TicketCategory{},
		&models.Ticket{},
		&models.SpecialPriceToken{},
		&models.WaitingQueueSubscription{},
		&models.Reservation{},
		&models.EmailMessage{},
	); err != nil {
		return err
	}

	// One active subscription per e-mail and event; expired or served ones may re-subscribe.
	return db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_waiting_queue_active
		ON waiting_queue_subscriptions (event_id, email)
		WHERE status IN ('WAITING', 'PENDING')
	`).Error
}
