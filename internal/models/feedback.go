package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	FeedbackStatusOpen       = "open"
	FeedbackStatusInProgress = "in_progress"
	FeedbackStatusResolved   = "resolved"
	FeedbackStatusClosed     = "closed"
)

type Feedback struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	UserID      *uuid.UUID     `gorm:"type:uuid" json:"user_id,omitempty"`
	Type        string         `gorm:"size:20;not null" json:"type"` // bug, feature, general
	Title       string         `gorm:"size:255;not null" json:"title"`
	Description string         `gorm:"type:text;not null" json:"description"`
	Priority    string         `gorm:"size:20;default:'medium'" json:"priority"`
	Status      string         `gorm:"size:20;default:'open'" json:"status"`
	UserAgent   string         `json:"user_agent"`
	URL         string         `json:"url"`
	AdminNotes  string         `gorm:"type:text" json:"admin_notes"`
}

// TableName returns the table name for the Feedback model
func (Feedback) TableName() string {
	return "feedback"
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.Priority == "" {
		f.Priority = "medium"
	}
	if f.Status == "" {
		f.Status = FeedbackStatusOpen
	}
	return nil
}

// IsFeedbackStatus reports whether status is a known feedback status.
func IsFeedbackStatus(status string) bool {
	switch status {
	case FeedbackStatusOpen, FeedbackStatusInProgress, FeedbackStatusResolved, FeedbackStatusClosed:
		return true
	}
	return false
}

// FeedbackFilters represents filters for listing feedback
type FeedbackFilters struct {
	Type     string `json:"type,omitempty"`
	Status   string `json:"status,omitempty"`
	Priority string `json:"priority,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
