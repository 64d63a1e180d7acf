package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EmailRepository interface {
	Enqueue(ctx context.Context, tx *gorm.DB, msg *models.EmailMessage) error
	LockSendable(ctx context.Context, tx *gorm.DB, limit int, staleBefore time.Time) ([]models.EmailMessage, error)
	MarkSending(ctx context.Context, tx *gorm.DB, ids []uint) error
	MarkSent(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error
	MarkFailed(ctx context.Context, tx *gorm.DB, id uint, reason string, status models.EmailStatus) error
	FindByEvent(ctx context.Context, eventID uint) ([]models.EmailMessage, error)
}

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) EmailRepository {
	return &emailRepository{db: db}
}

func (r *emailRepository) Enqueue(ctx context.Context, tx *gorm.DB, msg *models.EmailMessage) error {
	if msg.Status == "" {
		msg.Status = models.EmailWaiting
	}
	return tx.WithContext(ctx).Create(msg).Error
}

// LockSendable returns WAITING messages and SENDING ones claimed before
// staleBefore by a sender that never recorded a result. Rows locked by another
// sender are skipped so replicas split the outbox.
func (r *emailRepository) LockSendable(ctx context.Context, tx *gorm.DB, limit int, staleBefore time.Time) ([]models.EmailMessage, error) {
	var msgs []models.EmailMessage
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ? OR (status = ? AND updated_at < ?)", models.EmailWaiting, models.EmailSending, staleBefore).
		Order("id ASC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *emailRepository) MarkSending(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.EmailMessage{}).
		Where("id IN ?", ids).
		Update("status", models.EmailSending).Error
}

func (r *emailRepository) MarkSent(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.EmailMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":   models.EmailSent,
			"sent_at":  at,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

func (r *emailRepository) MarkFailed(ctx context.Context, tx *gorm.DB, id uint, reason string, status models.EmailStatus) error {
	return tx.WithContext(ctx).
		Model(&models.EmailMessage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"last_error": reason,
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
}

func (r *emailRepository) FindByEvent(ctx context.Context, eventID uint) ([]models.EmailMessage, error) {
	var msgs []models.EmailMessage
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}
