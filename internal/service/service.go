package service

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"
)

// TxRunner runs a unit of work in one database transaction.
type TxRunner interface {
	Transact(ctx context.Context, fn func(tx *gorm.DB) error) error
	DB() *gorm.DB
}

// EventPublisher broadcasts domain events. A nil publisher disables broadcasting.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

func publish(p EventPublisher, routingKey string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(routingKey, payload); err != nil {
		log.Printf("[Publisher] failed to publish %s: %v", routingKey, err)
	}
}

func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
