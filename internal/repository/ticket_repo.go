package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const createBatchSize = 500

// TicketRepository exposes the pool as lockable unit sets. Every Lock* query
// acquires row locks in ascending id order.
type TicketRepository interface {
	CreateUnits(ctx context.Context, tx *gorm.DB, eventID uint, count int, status models.TicketStatus) error
	FindByID(ctx context.Context, id uint) (*models.Ticket, error)
	FindByReservation(ctx context.Context, reservationID string) ([]models.Ticket, error)
	LockUnbound(ctx context.Context, tx *gorm.DB, eventID uint, limit int, statuses []models.TicketStatus) ([]uint, error)
	LockInCategory(ctx context.Context, tx *gorm.DB, categoryID uint, limit int, statuses []models.TicketStatus) ([]uint, error)
	LockReleased(ctx context.Context, tx *gorm.DB, eventID uint) ([]uint, error)
	LockByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Ticket, error)
	LockByReservation(ctx context.Context, tx *gorm.DB, reservationID string) ([]models.Ticket, error)
	Bind(ctx context.Context, tx *gorm.DB, ids []uint, categoryID *uint, status models.TicketStatus) error
	Reserve(ctx context.Context, tx *gorm.DB, ids []uint, reservationID string, categoryID *uint) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, ids []uint, status models.TicketStatus) error
	Delete(ctx context.Context, tx *gorm.DB, ids []uint) error
	CountByCategoryAndStatus(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.StatusCount, error)
	CountInCategory(ctx context.Context, tx *gorm.DB, categoryID uint, statuses []models.TicketStatus) (int64, error)
	GetDB() *gorm.DB
}

type ticketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *ticketRepository) CreateUnits(ctx context.Context, tx *gorm.DB, eventID uint, count int, status models.TicketStatus) error {
	if count <= 0 {
		return nil
	}
	units := make([]models.Ticket, count)
	for i := range units {
		units[i] = models.Ticket{EventID: eventID, Status: status}
	}
	return tx.WithContext(ctx).CreateInBatches(units, createBatchSize).Error
}

func (r *ticketRepository) FindByID(ctx context.Context, id uint) (*models.Ticket, error) {
	var ticket models.Ticket
	if err := r.db.WithContext(ctx).First(&ticket, id).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FindByReservation(ctx context.Context, reservationID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("reservation_id = ?", reservationID).
		Order("id ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) LockUnbound(ctx context.Context, tx *gorm.DB, eventID uint, limit int, statuses []models.TicketStatus) ([]uint, error) {
	var ids []uint
	err := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ? AND category_id IS NULL AND status IN ?", eventID, statuses).
		Order("id ASC").
		Scopes(limitTo(limit)).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ticketRepository) LockInCategory(ctx context.Context, tx *gorm.DB, categoryID uint, limit int, statuses []models.TicketStatus) ([]uint, error) {
	var ids []uint
	err := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("category_id = ? AND status IN ?", categoryID, statuses).
		Order("id ASC").
		Scopes(limitTo(limit)).
		Pluck("id", &ids).Error
	return ids, err
}

// limitTo applies a row limit; zero or less means all matching rows.
func limitTo(limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			return db.Limit(limit)
		}
		return db
	}
}

func (r *ticketRepository) LockReleased(ctx context.Context, tx *gorm.DB, eventID uint) ([]uint, error) {
	var ids []uint
	err := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("event_id = ? AND status = ?", eventID, models.TicketReleased).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *ticketRepository) LockByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *ticketRepository) LockByReservation(ctx context.Context, tx *gorm.DB, reservationID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reservation_id = ?", reservationID).
		Order("id ASC").
		Find(&tickets).Error
	return tickets, err
}

// Bind moves units to a category (nil for the unbound pool) and detaches them from any reservation.
func (r *ticketRepository) Bind(ctx context.Context, tx *gorm.DB, ids []uint, categoryID *uint, status models.TicketStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"category_id":    categoryID,
			"status":         status,
			"reservation_id": nil,
		}).Error
}

func (r *ticketRepository) Reserve(ctx context.Context, tx *gorm.DB, ids []uint, reservationID string, categoryID *uint) error {
	return tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"category_id":    categoryID,
			"status":         models.TicketPending,
			"reservation_id": reservationID,
		}).Error
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, ids []uint, status models.TicketStatus) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id IN ?", ids).
		Update("status", status).Error
}

func (r *ticketRepository) Delete(ctx context.Context, tx *gorm.DB, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Ticket{}).Error
}

func (r *ticketRepository) CountByCategoryAndStatus(ctx context.Context, tx *gorm.DB, eventID uint) ([]models.StatusCount, error) {
	var rows []models.StatusCount
	err := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("category_id, status, COUNT(*) AS count").
		Where("event_id = ?", eventID).
		Group("category_id, status").
		Scan(&rows).Error
	return rows, err
}

func (r *ticketRepository) CountInCategory(ctx context.Context, tx *gorm.DB, categoryID uint, statuses []models.TicketStatus) (int64, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("category_id = ? AND status IN ?", categoryID, statuses).
		Count(&count).Error
	return count, err
}
