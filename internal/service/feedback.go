package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/models"
	"github.com/pageza/savorly/backend/internal/types"
)

var feedbackTypes = map[string]bool{"bug": true, "feature": true, "general": true}

var feedbackPriorities = map[string]bool{"low": true, "medium": true, "high": true, "critical": true}

// FeedbackNotifier is told about each new piece of feedback.
type FeedbackNotifier interface {
	NotifyFeedback(ctx context.Context, fb *models.Feedback) error
}

type FeedbackService struct {
	db       *gorm.DB
	notifier FeedbackNotifier
	logger   *zap.Logger
}

func NewFeedbackService(db *gorm.DB, notifier FeedbackNotifier, logger *zap.Logger) *FeedbackService {
	return &FeedbackService{db: db, notifier: notifier, logger: logger}
}

// CreateFeedback stores feedback; userID is nil for anonymous reports.
func (s *FeedbackService) CreateFeedback(ctx context.Context, req *types.CreateFeedbackRequest, userID *uuid.UUID) (*models.Feedback, error) {
	fb := &models.Feedback{
		UserID:      userID,
		Type:        strings.ToLower(strings.TrimSpace(req.Type)),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Priority:    strings.ToLower(strings.TrimSpace(req.Priority)),
		UserAgent:   req.UserAgent,
		URL:         req.URL,
		Status:      models.FeedbackStatusOpen,
	}
	if fb.Priority == "" {
		fb.Priority = "medium"
	}
	switch {
	case !feedbackTypes[fb.Type]:
		return nil, fmt.Errorf("%w: type must be bug, feature or general", ErrInvalidInput)
	case !feedbackPriorities[fb.Priority]:
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, fb.Priority)
	case fb.Title == "" || fb.Description == "":
		return nil, fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}

	if err := s.db.WithContext(ctx).Create(fb).Error; err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyFeedback(ctx, fb); err != nil {
			s.logger.Warn("Feedback notification failed", zap.String("feedback_id", fb.ID.String()), zap.Error(err))
		}
	}
	return fb, nil
}

func (s *FeedbackService) GetFeedback(ctx context.Context, id uuid.UUID) (*models.Feedback, error) {
	var fb models.Feedback
	if err := s.db.WithContext(ctx).First(&fb, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &fb, nil
}

// ListFeedback returns feedback newest first.
func (s *FeedbackService) ListFeedback(ctx context.Context, filters models.FeedbackFilters) ([]models.Feedback, error) {
	query := s.db.WithContext(ctx).Model(&models.Feedback{})
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.Priority != "" {
		query = query.Where("priority = ?", filters.Priority)
	}
	limit := filters.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	var out []models.Feedback
	if err := query.Order("created_at DESC").Limit(limit).Offset(filters.Offset).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	return out, nil
}

// UpdateStatus moves feedback through its workflow.
func (s *FeedbackService) UpdateStatus(ctx context.Context, id uuid.UUID, status, adminNotes string) (*models.Feedback, error) {
	if !models.IsFeedbackStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	updates := map[string]any{"status": status}
	if adminNotes != "" {
		updates["admin_notes"] = adminNotes
	}

	result := s.db.WithContext(ctx).Model(&models.Feedback{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update feedback status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetFeedback(ctx, id)
}
