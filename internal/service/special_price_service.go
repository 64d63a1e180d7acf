package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Eursukkul/booking-microservice/inventory-service/internal/models"
	"github.com/Eursukkul/booking-microservice/inventory-service/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Assignee struct {
	FullName string
	Email    string
}

type SpecialPriceService interface {
	GeneratePendingCodesForCategory(ctx context.Context, categoryID uint) (int, error)
	GeneratePendingCodes(ctx context.Context) error
	CountSentTokens(ctx context.Context, categoryID uint) (int64, error)
	SendCodes(ctx context.Context, eventID, categoryID uint, assignees []Assignee, username string) ([]models.SpecialPriceToken, error)
	RedeemCode(ctx context.Context, code string) (*models.SpecialPriceToken, error)
	ListTokens(ctx context.Context, eventID, categoryID uint) ([]models.SpecialPriceToken, error)
}

// sentStatuses are tokens already in the hands of an assignee.
var sentStatuses = []models.TokenStatus{models.TokenSent, models.TokenUsed}

var liveTokenStatuses = []models.TokenStatus{models.TokenPending, models.TokenSent, models.TokenUsed}

// tokenLedger is the token bookkeeping shared with the category manager.
type tokenLedger struct {
	repo repository.SpecialPriceRepository
}

func (l tokenLedger) countSent(ctx context.Context, tx *gorm.DB, categoryID uint) (int64, error) {
	return l.repo.CountByStatus(ctx, tx, categoryID, sentStatuses)
}

// topUp creates PENDING tokens until the category has one live token per unit.
func (l tokenLedger) topUp(ctx context.Context, tx *gorm.DB, category *models.TicketCategory) (int, error) {
	live, err := l.repo.CountByStatus(ctx, tx, category.ID, liveTokenStatuses)
	if err != nil {
		return 0, err
	}
	missing := category.MaxTickets - int(live)
	if missing <= 0 {
		return 0, nil
	}
	tokens := make([]models.SpecialPriceToken, missing)
	for i := range tokens {
		tokens[i] = models.SpecialPriceToken{
			CategoryID: category.ID,
			Code:       newTokenCode(),
			Status:     models.TokenPending,
		}
	}
	return missing, l.repo.CreateBatch(ctx, tx, tokens)
}

// trim cancels the newest PENDING tokens exceeding the category capacity.
func (l tokenLedger) trim(ctx context.Context, tx *gorm.DB, categoryID uint, capacity int) error {
	live, err := l.repo.CountByStatus(ctx, tx, categoryID, liveTokenStatuses)
	if err != nil {
		return err
	}
	excess := int(live) - capacity
	if excess <= 0 {
		return nil
	}
	tokens, err := l.repo.LockNewest(ctx, tx, categoryID, models.TokenPending, excess)
	if err != nil {
		return err
	}
	if len(tokens) < excess {
		return validationError(CodeNotEnoughFreeTokenForShrink)
	}
	return l.repo.UpdateStatus(ctx, tx, tokenIDs(tokens), models.TokenCancelled)
}

func (l tokenLedger) cancelPending(ctx context.Context, tx *gorm.DB, categoryID uint) error {
	tokens, err := l.repo.LockOldest(ctx, tx, categoryID, models.TokenPending, 0)
	if err != nil {
		return err
	}
	return l.repo.UpdateStatus(ctx, tx, tokenIDs(tokens), models.TokenCancelled)
}

func tokenIDs(tokens []models.SpecialPriceToken) []uint {
	ids := make([]uint, len(tokens))
	for i, t := range tokens {
		ids[i] = t.ID
	}
	return ids
}

func newTokenCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}

type specialPriceService struct {
	tx           TxRunner
	eventRepo    repository.EventRepository
	categoryRepo repository.CategoryRepository
	tokenRepo    repository.SpecialPriceRepository
	emailRepo    repository.EmailRepository
	ledger       tokenLedger
	now          func() time.Time
}

func NewSpecialPriceService(
	tx TxRunner,
	eventRepo repository.EventRepository,
	categoryRepo repository.CategoryRepository,
	tokenRepo repository.SpecialPriceRepository,
	emailRepo repository.EmailRepository,
) SpecialPriceService {
	return &specialPriceService{
		tx:           tx,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		tokenRepo:    tokenRepo,
		emailRepo:    emailRepo,
		ledger:       tokenLedger{repo: tokenRepo},
		now:          time.Now,
	}
}

func (s *specialPriceService) GeneratePendingCodesForCategory(ctx context.Context, categoryID uint) (int, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return 0, notFound(err, ErrCategoryNotFound)
	}
	if !category.IsActive() || !category.AccessRestricted {
		return 0, nil
	}

	created := 0
	err = s.tx.Transact(ctx, func(tx *gorm.DB) error {
		if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, category.EventID); err != nil {
			return notFound(err, ErrEventNotFound)
		}
		locked, err := s.categoryRepo.FindActiveForUpdate(ctx, tx, category.EventID, categoryID)
		if err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		if !locked.AccessRestricted {
			return nil
		}
		created, err = s.ledger.topUp(ctx, tx, locked)
		return err
	})
	if err != nil {
		return 0, translateTxError(err)
	}
	if created > 0 {
		log.Printf("[SpecialPriceService] generated %d codes for category %d", created, categoryID)
	}
	return created, nil
}

// GeneratePendingCodes tops up every active restricted category. A failing
// category does not stop the others.
func (s *specialPriceService) GeneratePendingCodes(ctx context.Context) error {
	categories, err := s.categoryRepo.FindActiveRestricted(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, c := range categories {
		if _, err := s.GeneratePendingCodesForCategory(ctx, c.ID); err != nil {
			errs = append(errs, fmt.Errorf("category %d: %w", c.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *specialPriceService) CountSentTokens(ctx context.Context, categoryID uint) (int64, error) {
	return s.ledger.countSent(ctx, s.tx.DB(), categoryID)
}

func (s *specialPriceService) SendCodes(ctx context.Context, eventID, categoryID uint, assignees []Assignee, username string) ([]models.SpecialPriceToken, error) {
	category, err := s.categoryOf(ctx, eventID, categoryID)
	if err != nil {
		return nil, err
	}
	if !category.AccessRestricted {
		return nil, validationError(CodeUnknownCategory)
	}

	var sent []models.SpecialPriceToken
	err = s.tx.Transact(ctx, func(tx *gorm.DB) error {
		sent = nil
		if _, err := s.eventRepo.FindByIDForUpdate(ctx, tx, category.EventID); err != nil {
			return notFound(err, ErrEventNotFound)
		}
		if _, err := s.categoryRepo.FindActiveForUpdate(ctx, tx, category.EventID, categoryID); err != nil {
			return notFound(err, ErrCategoryNotFound)
		}
		tokens, err := s.tokenRepo.LockOldest(ctx, tx, categoryID, models.TokenPending, len(assignees))
		if err != nil {
			return err
		}
		if len(tokens) < len(assignees) {
			return conflictError(CodeNotEnoughTokens)
		}
		now := s.now()
		for i, a := range assignees {
			token := tokens[i]
			if err := s.tokenRepo.MarkSent(ctx, tx, token.ID, a.FullName, a.Email, now); err != nil {
				return err
			}
			if err := s.emailRepo.Enqueue(ctx, tx, &models.EmailMessage{
				EventID:   category.EventID,
				Recipient: a.Email,
				Subject:   "Your access code for " + category.Name,
				Body:      fmt.Sprintf("Hello %s,\n\nuse the code %s to access %s.\n", a.FullName, token.Code, category.Name),
			}); err != nil {
				return err
			}
			token.Status = models.TokenSent
			token.RecipientName = a.FullName
			token.RecipientEmail = a.Email
			token.SentAt = &now
			sent = append(sent, token)
		}
		return nil
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	log.Printf("[SpecialPriceService] %s sent %d codes of category %d", username, len(sent), categoryID)
	return sent, nil
}

func (s *specialPriceService) RedeemCode(ctx context.Context, code string) (*models.SpecialPriceToken, error) {
	var token *models.SpecialPriceToken
	err := s.tx.Transact(ctx, func(tx *gorm.DB) error {
		var err error
		token, err = s.tokenRepo.LockByCode(ctx, tx, code)
		if err != nil {
			return notFound(err, ErrTokenNotFound)
		}
		if token.Status != models.TokenSent {
			return conflictError(CodeInvalidTransition)
		}
		token.Status = models.TokenUsed
		return s.tokenRepo.UpdateStatus(ctx, tx, []uint{token.ID}, models.TokenUsed)
	})
	if err != nil {
		return nil, translateTxError(err)
	}
	return token, nil
}

func (s *specialPriceService) ListTokens(ctx context.Context, eventID, categoryID uint) ([]models.SpecialPriceToken, error) {
	if _, err := s.categoryOf(ctx, eventID, categoryID); err != nil {
		return nil, err
	}
	return s.tokenRepo.FindByCategory(ctx, categoryID)
}

// categoryOf loads a category of the given event; a category of another event is not found.
func (s *specialPriceService) categoryOf(ctx context.Context, eventID, categoryID uint) (*models.TicketCategory, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, notFound(err, ErrCategoryNotFound)
	}
	if category.EventID != eventID {
		return nil, ErrCategoryNotFound
	}
	return category, nil
}
