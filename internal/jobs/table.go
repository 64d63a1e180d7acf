package jobs

import (
	"context"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/service"
)

const (
	CleanupExpiredReservations    = "cleanup-expired-reservations"
	SendOfflinePaymentReminders   = "send-offline-payment-reminders"
	SendTicketAssignmentReminders = "send-ticket-assignment-reminders"
	GenerateSpecialPriceCodes     = "generate-special-price-codes"
	SendEmails                    = "send-emails"
	ProcessReservationRequests    = "process-reservation-requests"
	ProcessReleasedTickets        = "process-released-tickets"
	CleanupUnreferencedBlobs      = "cleanup-unreferenced-blobs"
	CleanupDemoAccounts           = "cleanup-demo-accounts"
)

// Collaborators owned by other subsystems. Their tasks are registered only
// when an implementation is supplied.
type (
	OfflinePaymentReminder interface {
		SendReminders(ctx context.Context) error
	}
	AssignmentReminder interface {
		SendReminders(ctx context.Context) error
	}
	ReservationRequestProcessor interface {
		ProcessPending(ctx context.Context) error
	}
	BlobCleaner interface {
		CleanupUnreferenced(ctx context.Context) error
	}
	DemoAccountCleaner interface {
		CleanupExpired(ctx context.Context) error
	}
)

type Deps struct {
	Tickets       service.TicketService
	WaitingQueue  service.WaitingQueueService
	SpecialPrices service.SpecialPriceService
	Notifications service.NotificationService

	PaymentReminders    OfflinePaymentReminder
	AssignmentReminders AssignmentReminder
	ReservationRequests ReservationRequestProcessor
	Blobs               BlobCleaner
	DemoAccounts        DemoAccountCleaner

	// DemoProfile enables the demo account cleanup.
	DemoProfile bool
	// ExpirySlack delays expiry past a reservation's validity.
	ExpirySlack time.Duration
	Now         func() time.Time
}

// Table builds the reconciliation tasks. intervals overrides the nominal
// interval per task name.
func Table(d Deps, intervals map[string]time.Duration) []Task {
	now := d.Now
	if now == nil {
		now = time.Now
	}
	every := func(name string, def time.Duration) time.Duration {
		if v, ok := intervals[name]; ok && v > 0 {
			return v
		}
		return def
	}

	tasks := []Task{
		{
			Name:     CleanupExpiredReservations,
			Interval: every(CleanupExpiredReservations, 30*time.Second),
			Run: func(ctx context.Context) error {
				_, err := d.Tickets.CleanupExpiredReservations(ctx, now().Add(-d.ExpirySlack))
				return err
			},
		},
		{
			Name:     GenerateSpecialPriceCodes,
			Interval: every(GenerateSpecialPriceCodes, 30*time.Second),
			Run:      d.SpecialPrices.GeneratePendingCodes,
		},
		{
			Name:     SendEmails,
			Interval: every(SendEmails, 5*time.Second),
			Run: func(ctx context.Context) error {
				_, err := d.Notifications.SendWaitingMessages(ctx)
				return err
			},
		},
		{
			Name:     ProcessReleasedTickets,
			Interval: every(ProcessReleasedTickets, 30*time.Second),
			Run:      d.WaitingQueue.HandleWaitingTickets,
		},
	}

	if d.PaymentReminders != nil {
		tasks = append(tasks, Task{SendOfflinePaymentReminders, every(SendOfflinePaymentReminders, 30*time.Minute), d.PaymentReminders.SendReminders})
	}
	if d.AssignmentReminders != nil {
		tasks = append(tasks, Task{SendTicketAssignmentReminders, every(SendTicketAssignmentReminders, 30*time.Minute), d.AssignmentReminders.SendReminders})
	}
	if d.ReservationRequests != nil {
		tasks = append(tasks, Task{ProcessReservationRequests, every(ProcessReservationRequests, 5*time.Second), d.ReservationRequests.ProcessPending})
	}
	if d.Blobs != nil {
		tasks = append(tasks, Task{CleanupUnreferencedBlobs, every(CleanupUnreferencedBlobs, time.Hour), d.Blobs.CleanupUnreferenced})
	}
	if d.DemoProfile && d.DemoAccounts != nil {
		tasks = append(tasks, Task{CleanupDemoAccounts, every(CleanupDemoAccounts, time.Hour), d.DemoAccounts.CleanupExpired})
	}
	return tasks
}
