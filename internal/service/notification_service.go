package service

import (
	"context"
	"log"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"gorm.io/gorm"
)

// Mailer delivers a single plain text message.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type NotificationService interface {
	SendWaitingMessages(ctx context.Context) (int, error)
}

// SENDING messages older than this are assumed abandoned by a crashed sender.
const staleSendingAfter = 10 * time.Minute

type notificationService struct {
	tx          TxRunner
	emailRepo   repository.EmailRepository
	mailer      Mailer
	batchSize   int
	maxAttempts int
	now         func() time.Time
}

// NewNotificationService drains the email outbox through mailer. With a nil
// mailer messages stay queued.
func NewNotificationService(tx TxRunner, emailRepo repository.EmailRepository, mailer Mailer, batchSize, maxAttempts int) NotificationService {
	if batchSize <= 0 {
		batchSize = 50
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &notificationService{
		tx:          tx,
		emailRepo:   emailRepo,
		mailer:      mailer,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// SendWaitingMessages sends one batch of WAITING messages. The batch is
// claimed as SENDING in its own transaction and each result is recorded
// afterwards, so no lock is held while talking to the mail server. A failed
// message goes back to WAITING until it has used up its attempts, then
// becomes ERROR.
func (s *notificationService) SendWaitingMessages(ctx context.Context) (int, error) {
	if s.mailer == nil {
		return 0, nil
	}
	msgs, err := s.claim(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, m := range msgs {
		sendErr := s.mailer.Send(ctx, m.Recipient, m.Subject, m.Body)
		err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
			if sendErr == nil {
				return s.emailRepo.MarkSent(ctx, tx, m.ID, s.now())
			}
			status := models.EmailWaiting
			if m.Attempts+1 >= s.maxAttempts {
				status = models.EmailError
			}
			return s.emailRepo.MarkFailed(ctx, tx, m.ID, sendErr.Error(), status)
		})
		if err != nil {
			return sent, translateTxError(err)
		}
		if sendErr != nil {
			log.Printf("[Notification] sending message %d to %s failed (attempt %d): %v", m.ID, m.Recipient, m.Attempts+1, sendErr)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *notificationService) claim(ctx context.Context) ([]models.EmailMessage, error) {
	var msgs []models.EmailMessage
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		var err error
		msgs, err = s.emailRepo.LockSendable(ctx, tx, s.batchSize, s.now().Add(-staleSendingAfter))
		if err != nil {
			return err
		}
		ids := make([]uint, len(msgs))
		for i, m := range msgs {
			ids[i] = m.ID
		}
		return s.emailRepo.MarkSending(ctx, tx, ids)
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return msgs, nil
}
