package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	Create(ctx context.Context, tx *gorm.DB, category *models.TicketCategory) error
	Update(ctx context.Context, tx *gorm.DB, category *models.TicketCategory) error
	FindByID(ctx context.Context, id uint) (*models.TicketCategory, error)
	FindActiveByEvent(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.TicketCategory, error)
	FindActiveForUpdate(ctx context.Context, tx *gorm.DB, eventID, categoryID uint) (*models.TicketCategory, error)
	FindActiveRestricted(ctx context.Context) ([]models.TicketCategory, error)
	FindUnboundedByEvent(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.TicketCategory, error)
	SoftDeleteIfEmpty(ctx context.Context, tx *gorm.DB, categoryID uint) (int64, error)
	UpdateOrdinal(ctx context.Context, tx *gorm.DB, categoryID uint, ordinal int) error
	GetDB() *gorm.DB
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *categoryRepository) Create(ctx context.Context, tx *gorm.DB, category *models.TicketCategory) error {
	return tx.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) Update(ctx context.Context, tx *gorm.DB, category *models.TicketCategory) error {
	return tx.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uint) (*models.TicketCategory, error) {
	var category models.TicketCategory
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindActiveByEvent(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.TicketCategory, error) {
	var categories []models.TicketCategory
	err := tx.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, models.CategoryActive).
		Order("ordinal ASC, inception ASC, id ASC").
		Find(&categories).Error
	return categories, err
}

func (r *categoryRepository) FindActiveForUpdate(ctx context.Context, tx *gorm.DB, eventID, categoryID uint) (*models.TicketCategory, error) {
	var category models.TicketCategory
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND event_id = ? AND status = ?", categoryID, eventID, models.CategoryActive).
		First(&category).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindActiveRestricted(ctx context.Context) ([]models.TicketCategory, error) {
	var categories []models.TicketCategory
	err := r.db.WithContext(ctx).
		Where("access_restricted = ? AND status = ?", true, models.CategoryActive).
		Order("id ASC").
		Find(&categories).Error
	return categories, err
}

// FindUnboundedByEvent lists the unbounded categories of an event, the one
// expiring last first.
func (r *categoryRepository) FindUnboundedByEvent(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.TicketCategory, error) {
	var categories []models.TicketCategory
	err := tx.WithContext(ctx).
		Where("event_id = ? AND status = ? AND bounded = ?", eventID, models.CategoryActive, false).
		Order("expiration DESC, id ASC").
		Find(&categories).Error
	return categories, err
}

// SoftDeleteIfEmpty marks the category NOT_ACTIVE only when none of its units is sold or reserved.
func (r *categoryRepository) SoftDeleteIfEmpty(ctx context.Context, tx *gorm.DB, categoryID uint) (int64, error) {
	res := tx.WithContext(ctx).Exec(`
		UPDATE ticket_categories SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
		AND NOT EXISTS (SELECT 1 FROM tickets WHERE category_id = ? AND status IN ?)`,
		models.CategoryNotActive, time.Now(), categoryID, models.CategoryActive, categoryID, models.SoldStatuses)
	return res.RowsAffected, res.Error
}

func (r *categoryRepository) UpdateOrdinal(ctx context.Context, tx *gorm.DB, categoryID uint, ordinal int) error {
	return tx.WithContext(ctx).
		Model(&models.TicketCategory{}).
		Where("id = ?", categoryID).
		Update("ordinal", ordinal).Error
}
