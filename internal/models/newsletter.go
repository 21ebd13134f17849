package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NewsletterSubscriber struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Email            string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	UnsubscribeToken string     `gorm:"size:64;not null;uniqueIndex" json:"-"`
	Active           bool       `gorm:"not null;default:true" json:"active"`
	UnsubscribedAt   *time.Time `json:"unsubscribed_at,omitempty"`
}

func (NewsletterSubscriber) TableName() string {
	return "newsletter_subscribers"
}

func (s *NewsletterSubscriber) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.UnsubscribeToken == "" {
		s.UnsubscribeToken = uuid.NewString()
	}
	return nil
}

// NewsletterIssue is one newsletter sent to all active subscribers.
type NewsletterIssue struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	Subject        string     `gorm:"size:255;not null" json:"subject"`
	Body           string     `gorm:"type:text;not null" json:"body"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	RecipientCount int        `gorm:"not null;default:0" json:"recipient_count"`
}

func (NewsletterIssue) TableName() string {
	return "newsletter_issues"
}

func (i *NewsletterIssue) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
