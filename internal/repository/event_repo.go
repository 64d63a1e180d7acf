package repository

import (
	"context"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepository interface {
	Create(ctx context.Context, tx *gorm.DB, event *models.Event) error
	Update(ctx context.Context, tx *gorm.DB, event *models.Event) error
	FindByID(ctx context.Context, id uint) (*models.Event, error)
	FindByShortName(ctx context.Context, shortName string) (*models.Event, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error)
	FindByShortNameForUpdate(ctx context.Context, tx *gorm.DB, shortName string) (*models.Event, error)
	FindIDsPendingDistribution(ctx context.Context) ([]uint, error)
	GetDB() *gorm.DB
}

type eventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) GetDB() *gorm.DB {
	return r.db
}

func (r *eventRepository) Create(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	return tx.WithContext(ctx).Create(event).Error
}

func (r *eventRepository) Update(ctx context.Context, tx *gorm.DB, event *models.Event) error {
	return tx.WithContext(ctx).Save(event).Error
}

func (r *eventRepository) FindByID(ctx context.Context, id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByShortName(ctx context.Context, shortName string) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Where("short_name = ?", shortName).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindByIDForUpdate locks the event row. Every operation touching the event's
// pool takes this lock first, which serializes them per event.
func (r *eventRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Event, error) {
	var event models.Event
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByShortNameForUpdate(ctx context.Context, tx *gorm.DB, shortName string) (*models.Event, error) {
	var event models.Event
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("short_name = ?", shortName).
		First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// FindIDsPendingDistribution returns events with waiting subscribers or RELEASED units.
func (r *eventRepository) FindIDsPendingDistribution(ctx context.Context) ([]uint, error) {
	db := r.db.WithContext(ctx)
	waiting := db.Model(&models.WaitingQueueSubscription{}).
		Select("event_id").
		Where("status = ?", models.SubscriptionWaiting)
	released := db.Model(&models.Ticket{}).
		Select("event_id").
		Where("status = ?", models.TicketReleased)

	var ids []uint
	err := db.Model(&models.Event{}).
		Where("id IN (?) OR id IN (?)", waiting, released).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}
