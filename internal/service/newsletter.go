package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/models"
)

const newsletterConcurrency = 5

type NewsletterService struct {
	db      *gorm.DB
	mailer  Mailer
	baseURL string
	logger  *zap.Logger
}

// NewNewsletterService creates the service. baseURL prefixes the
// unsubscribe link appended to every issue.
func NewNewsletterService(db *gorm.DB, mailer Mailer, baseURL string, logger *zap.Logger) *NewsletterService {
	return &NewsletterService{db: db, mailer: mailer, baseURL: strings.TrimRight(baseURL, "/"), logger: logger}
}

// Subscribe adds email to the list. Subscribing an existing address is a
// no-op, and re-activates it if it had unsubscribed.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (*models.NewsletterSubscriber, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	email = strings.ToLower(addr.Address)

	var sub models.NewsletterSubscriber
	err = s.db.WithContext(ctx).Where("email = ?", email).First(&sub).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		sub = models.NewsletterSubscriber{Email: email, Active: true}
		if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
			return nil, fmt.Errorf("failed to subscribe: %w", err)
		}
		return &sub, nil
	case err != nil:
		return nil, err
	}

	if !sub.Active {
		err := s.db.WithContext(ctx).Model(&sub).Updates(map[string]any{
			"active":          true,
			"unsubscribed_at": nil,
		}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to re-activate subscriber: %w", err)
		}
		sub.Active = true
		sub.UnsubscribedAt = nil
	}
	return &sub, nil
}

// Unsubscribe deactivates the subscriber holding token.
func (s *NewsletterService) Unsubscribe(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotFound
	}
	now := time.Now()
	result := s.db.WithContext(ctx).Model(&models.NewsletterSubscriber{}).
		Where("unsubscribe_token = ?", token).
		Updates(map[string]any{"active": false, "unsubscribed_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *NewsletterService) ListSubscribers(ctx context.Context, activeOnly bool) ([]models.NewsletterSubscriber, error) {
	query := s.db.WithContext(ctx).Order("created_at ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var subs []models.NewsletterSubscriber
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (s *NewsletterService) CreateIssue(ctx context.Context, subject, body string) (*models.NewsletterIssue, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: subject and body are required", ErrInvalidInput)
	}
	issue := &models.NewsletterIssue{Subject: titleCaser.String(subject), Body: body}
	if err := s.db.WithContext(ctx).Create(issue).Error; err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	return issue, nil
}

func (s *NewsletterService) unsubscribeURL(token string) string {
	return fmt.Sprintf("%s/api/v1/newsletter/unsubscribe/%s", s.baseURL, token)
}

// SendIssue mails the issue to every active subscriber. The issue is
// claimed before delivery, so a second call returns ErrConflict. Individual
// delivery failures are logged and counted, not returned.
func (s *NewsletterService) SendIssue(ctx context.Context, id uuid.UUID) (*models.NewsletterIssue, error) {
	var issue models.NewsletterIssue
	if err := s.db.WithContext(ctx).First(&issue, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}

	if issue.SentAt != nil {
		return nil, fmt.Errorf("%w: issue was already sent", ErrConflict)
	}

	// Subscribers are loaded before the claim so a failed read leaves the
	// issue sendable.
	subs, err := s.ListSubscribers(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscribers: %w", err)
	}

	now := time.Now()
	claim := s.db.WithContext(ctx).Model(&models.NewsletterIssue{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", now)
	if claim.Error != nil {
		return nil, claim.Error
	}
	if claim.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: issue was already sent", ErrConflict)
	}

	var delivered atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(newsletterConcurrency)
	for _, sub := range subs {
		g.Go(func() error {
			body := issue.Body + "\n\n--\nUnsubscribe: " + s.unsubscribeURL(sub.UnsubscribeToken)
			err := s.mailer.SendEmail(gctx, sub.Email, issue.Subject, body)
			newsletterDeliveries.WithLabelValues(outcome(err)).Inc()
			if err != nil {
				s.logger.Warn("Newsletter delivery failed",
					zap.String("issue_id", issue.ID.String()),
					zap.String("email", sub.Email),
					zap.Error(err))
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	issue.SentAt = &now
	issue.RecipientCount = int(delivered.Load())
	if err := s.db.WithContext(ctx).Model(&issue).Update("recipient_count", issue.RecipientCount).Error; err != nil {
		return nil, fmt.Errorf("failed to record delivery count: %w", err)
	}
	s.logger.Info("Newsletter sent",
		zap.String("issue_id", issue.ID.String()),
		zap.Int("subscribers", len(subs)),
		zap.Int("delivered", issue.RecipientCount))
	return &issue, nil
}
