package repository

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReservationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error
	FindByID(ctx context.Context, id string) (*models.Reservation, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ReservationStatus) error
	FindExpiredIDs(ctx context.Context, before time.Time) ([]string, error)
}

type reservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) ReservationRepository {
	return &reservationRepository{db: db}
}

func (r *reservationRepository) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	return tx.WithContext(ctx).Create(reservation).Error
}

func (r *reservationRepository) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reservation).Error; err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error) {
	var reservation models.Reservation
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status models.ReservationStatus) error {
	return tx.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// FindExpiredIDs lists PENDING reservations whose validity ended before the given instant.
func (r *reservationRepository) FindExpiredIDs(ctx context.Context, before time.Time) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("status = ? AND valid_until < ?", models.ReservationPending, before).
		Order("valid_until ASC, id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
