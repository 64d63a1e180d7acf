package service

import (
	"context"
	"testing"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) enqueue(t *testing.T, to string) {
	t.Helper()
	require.NoError(t, f.emailRepo.Enqueue(context.Background(), f.db, &models.EmailMessage{
		EventID:   1,
		Recipient: to,
		Subject:   "Seat available",
		Body:      "hello",
	}))
}

func TestSendWaitingMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enqueue(t, "a@example.org")
	f.enqueue(t, "b@example.org")
	mailer := &fakeMailer{}
	svc := NewNotificationService(f.tx, f.emailRepo, mailer, 10, 3)

	sent, err := svc.SendWaitingMessages(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []sentMail{{to: "a@example.org", subject: "Seat available"}, {to: "b@example.org", subject: "Seat available"}}, mailer.sent)
	msgs, err := f.emailRepo.FindByEvent(ctx, 1)
	require.NoError(t, err)
	for _, m := range msgs {
		assert.Equal(t, models.EmailSent, m.Status)
		assert.Equal(t, 1, m.Attempts)
		assert.NotNil(t, m.SentAt)
	}

	sent, err = svc.SendWaitingMessages(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestSendWaitingMessages_GivesUpAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enqueue(t, "a@example.org")
	svc := NewNotificationService(f.tx, f.emailRepo, &fakeMailer{fail: true}, 10, 2)

	for i := 0; i < 3; i++ {
		sent, err := svc.SendWaitingMessages(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
	}

	msgs, err := f.emailRepo.FindByEvent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.EmailError, msgs[0].Status)
	assert.Equal(t, 2, msgs[0].Attempts)
	assert.Equal(t, "smtp unavailable", msgs[0].LastError)
}

func TestSendWaitingMessages_NoMailerKeepsQueue(t *testing.T) {
	f := newFixture(t)
	f.enqueue(t, "a@example.org")
	svc := NewNotificationService(f.tx, f.emailRepo, nil, 10, 3)

	sent, err := svc.SendWaitingMessages(context.Background())

	require.NoError(t, err)
	assert.Zero(t, sent)
	msgs, err := f.emailRepo.FindByEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.EmailWaiting, msgs[0].Status)
}

type mailerFunc func(ctx context.Context, to, subject, body string) error

func (f mailerFunc) Send(ctx context.Context, to, subject, body string) error {
	return f(ctx, to, subject, body)
}

func TestSendWaitingMessages_SendsAfterClaimCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enqueue(t, "a@example.org")
	var during []models.EmailStatus
	mailer := mailerFunc(func(ctx context.Context, to, subject, body string) error {
		msgs, err := f.emailRepo.FindByEvent(ctx, 1)
		require.NoError(t, err)
		during = append(during, msgs[0].Status)
		return nil
	})

	sent, err := NewNotificationService(f.tx, f.emailRepo, mailer, 10, 3).SendWaitingMessages(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []models.EmailStatus{models.EmailSending}, during)
	msgs, err := f.emailRepo.FindByEvent(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.EmailSent, msgs[0].Status)
}

func TestSendWaitingMessages_ReclaimsAbandonedSends(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.enqueue(t, "stale@example.org")
	f.enqueue(t, "inflight@example.org")
	require.NoError(t, f.db.Model(&models.EmailMessage{}).
		Where("recipient = ?", "stale@example.org").
		UpdateColumns(map[string]any{"status": models.EmailSending, "updated_at": time.Now().Add(-time.Hour)}).Error)
	require.NoError(t, f.db.Model(&models.EmailMessage{}).
		Where("recipient = ?", "inflight@example.org").
		UpdateColumns(map[string]any{"status": models.EmailSending, "updated_at": time.Now()}).Error)
	mailer := &fakeMailer{}

	sent, err := NewNotificationService(f.tx, f.emailRepo, mailer, 10, 3).SendWaitingMessages(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []sentMail{{to: "stale@example.org", subject: "Seat available"}}, mailer.sent)
}
