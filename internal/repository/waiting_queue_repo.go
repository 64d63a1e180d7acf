package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WaitingQueueRepository interface {
	Create(ctx context.Context, tx *gorm.DB, sub *models.WaitingQueueSubscription) error
	FindByID(ctx context.Context, id uint) (*models.WaitingQueueSubscription, error)
	FindActiveByEmail(ctx context.Context, tx *gorm.DB, eventID uint, email string) (*models.WaitingQueueSubscription, error)
	LoadWaitingForUpdate(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.WaitingQueueSubscription, error)
	FlagAsPending(ctx context.Context, tx *gorm.DB, id uint, reservationID string) error
	UpdateStatusByReservation(ctx context.Context, tx *gorm.DB, reservationID string, status models.SubscriptionStatus) (int64, error)
	ExpireByReservation(ctx context.Context, tx *gorm.DB, reservationID string) (int64, error)
	CountWaiting(ctx context.Context, eventID uint) (int64, error)
}

type waitingQueueRepository struct {
	db *gorm.DB
}

func NewWaitingQueueRepository(db *gorm.DB) WaitingQueueRepository {
	return &waitingQueueRepository{db: db}
}

func (r *waitingQueueRepository) Create(ctx context.Context, tx *gorm.DB, sub *models.WaitingQueueSubscription) error {
	return tx.WithContext(ctx).Create(sub).Error
}

func (r *waitingQueueRepository) FindByID(ctx context.Context, id uint) (*models.WaitingQueueSubscription, error) {
	var sub models.WaitingQueueSubscription
	if err := r.db.WithContext(ctx).First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *waitingQueueRepository) FindActiveByEmail(ctx context.Context, tx *gorm.DB, eventID uint, email string) (*models.WaitingQueueSubscription, error) {
	var sub models.WaitingQueueSubscription
	err := tx.WithContext(ctx).
		Where("event_id = ? AND email = ? AND status IN ?", eventID, email,
			[]models.SubscriptionStatus{models.SubscriptionWaiting, models.SubscriptionPending}).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// LoadWaitingForUpdate returns the WAITING subscriptions of an event in arrival order.
func (r *waitingQueueRepository) LoadWaitingForUpdate(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.WaitingQueueSubscription, error) {
	var subs []models.WaitingQueueSubscription
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ? AND status = ?", eventID, models.SubscriptionWaiting).
		Order("creation ASC, id ASC").
		Find(&subs).Error
	return subs, err
}

func (r *waitingQueueRepository) FlagAsPending(ctx context.Context, tx *gorm.DB, id uint, reservationID string) error {
	return tx.WithContext(ctx).
		Model(&models.WaitingQueueSubscription{}).
		Where("id = ? AND status = ?", id, models.SubscriptionWaiting).
		Updates(map[string]any{
			"status":         models.SubscriptionPending,
			"reservation_id": reservationID,
		}).Error
}

func (r *waitingQueueRepository) UpdateStatusByReservation(ctx context.Context, tx *gorm.DB, reservationID string, status models.SubscriptionStatus) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.WaitingQueueSubscription{}).
		Where("reservation_id = ?", reservationID).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// ExpireByReservation keeps the subscription record but drops its reservation link.
func (r *waitingQueueRepository) ExpireByReservation(ctx context.Context, tx *gorm.DB, reservationID string) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.WaitingQueueSubscription{}).
		Where("reservation_id = ? AND status = ?", reservationID, models.SubscriptionPending).
		Updates(map[string]any{
			"status":         models.SubscriptionExpired,
			"reservation_id": nil,
		})
	return res.RowsAffected, res.Error
}

func (r *waitingQueueRepository) CountWaiting(ctx context.Context, eventID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WaitingQueueSubscription{}).
		Where("event_id = ? AND status = ?", eventID, models.SubscriptionWaiting).
		Count(&count).Error
	return count, err
}
