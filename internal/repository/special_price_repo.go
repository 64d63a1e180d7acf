package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SpecialPriceRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, tokens []models.SpecialPriceToken) error
	FindByCategory(ctx context.Context, categoryID uint) ([]models.SpecialPriceToken, error)
	CountByStatus(ctx context.Context, tx *gorm.DB, categoryID uint, statuses []models.TokenStatus) (int64, error)
	LockOldest(ctx context.Context, tx *gorm.DB, categoryID uint, status models.TokenStatus, limit int) ([]models.SpecialPriceToken, error)
	LockNewest(ctx context.Context, tx *gorm.DB, categoryID uint, status models.TokenStatus, limit int) ([]models.SpecialPriceToken, error)
	LockByCode(ctx context.Context, tx *gorm.DB, code string) (*models.SpecialPriceToken, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, ids []uint, status models.TokenStatus) error
	CancelUnredeemed(ctx context.Context, tx *gorm.DB, categoryID uint) (int64, error)
	MarkSent(ctx context.Context, tx *gorm.DB, id uint, name, email string, at time.Time) error
}

type specialPriceRepository struct {
	db *gorm.DB
}

func NewSpecialPriceRepository(db *gorm.DB) SpecialPriceRepository {
	return &specialPriceRepository{db: db}
}

func (r *specialPriceRepository) CreateBatch(ctx context.Context, tx *gorm.DB, tokens []models.SpecialPriceToken) error {
	if len(tokens) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(tokens, createBatchSize).Error
}

func (r *specialPriceRepository) FindByCategory(ctx context.Context, categoryID uint) ([]models.SpecialPriceToken, error) {
	var tokens []models.SpecialPriceToken
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order("id ASC").
		Find(&tokens).Error
	return tokens, err
}

func (r *specialPriceRepository) CountByStatus(ctx context.Context, tx *gorm.DB, categoryID uint, statuses []models.TokenStatus) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.SpecialPriceToken{}).
		Where("category_id = ? AND status IN ?", categoryID, statuses).
		Count(&count).Error
	return count, err
}

func (r *specialPriceRepository) LockOldest(ctx context.Context, tx *gorm.DB, categoryID uint, status models.TokenStatus, limit int) ([]models.SpecialPriceToken, error) {
	return r.lock(ctx, tx, categoryID, status, limit, "id ASC")
}

func (r *specialPriceRepository) LockNewest(ctx context.Context, tx *gorm.DB, categoryID uint, status models.TokenStatus, limit int) ([]models.SpecialPriceToken, error) {
	return r.lock(ctx, tx, categoryID, status, limit, "id DESC")
}

func (r *specialPriceRepository) lock(ctx context.Context, tx *gorm.DB, categoryID uint, status models.TokenStatus, limit int, order string) ([]models.SpecialPriceToken, error) {
	var tokens []models.SpecialPriceToken
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category_id = ? AND status = ?", categoryID, status).
		Order(order).
		Scopes(limitTo(limit)).
		Find(&tokens).Error
	return tokens, err
}

func (r *specialPriceRepository) LockByCode(ctx context.Context, tx *gorm.DB, code string) (*models.SpecialPriceToken, error) {
	var token models.SpecialPriceToken
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&token).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *specialPriceRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, ids []uint, status models.TokenStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.SpecialPriceToken{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

func (r *specialPriceRepository) CancelUnredeemed(ctx context.Context, tx *gorm.DB, categoryID uint) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&models.SpecialPriceToken{}).
		Where("category_id = ? AND status IN ?", categoryID, []models.TokenStatus{models.TokenPending, models.TokenSent}).
		Update("status", models.TokenCancelled)
	return res.RowsAffected, res.Error
}

func (r *specialPriceRepository) MarkSent(ctx context.Context, tx *gorm.DB, id uint, name, email string, at time.Time) error {
	return tx.WithContext(ctx).
		Model(&models.SpecialPriceToken{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          models.TokenSent,
			"recipient_name":  name,
			"recipient_email": email,
			"sent_at":         at,
		}).Error
}
