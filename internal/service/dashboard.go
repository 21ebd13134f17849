package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pageza/savorly/backend/internal/models"
)

// DashboardStats summarises the site for administrators.
type DashboardStats struct {
	Users             int64 `json:"users"`
	Recipes           int64 `json:"recipes"`
	Cocktails         int64 `json:"cocktails"`
	Products          int64 `json:"products"`
	ActiveSubscribers int64 `json:"active_subscribers"`
	Favorites         int64 `json:"favorites"`
	Ratings           int64 `json:"ratings"`
	RecipesLastWeek   int64 `json:"recipes_last_week"`
	OpenFeedback      int64 `json:"open_feedback"`
}

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats runs the counts concurrently.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	weekAgo := time.Now().AddDate(0, 0, -7)

	counts := []struct {
		dst   *int64
		model any
		where []any
	}{
		{&stats.Users, &models.User{}, nil},
		{&stats.Recipes, &models.Recipe{}, []any{"kind = ?", models.KindRecipe}},
		{&stats.Cocktails, &models.Recipe{}, []any{"kind = ?", models.KindCocktail}},
		{&stats.Products, &models.Product{}, nil},
		{&stats.ActiveSubscribers, &models.NewsletterSubscriber{}, []any{"active = ?", true}},
		{&stats.Favorites, &models.RecipeFavorite{}, nil},
		{&stats.Ratings, &models.RecipeRating{}, nil},
		{&stats.RecipesLastWeek, &models.Recipe{}, []any{"created_at >= ?", weekAgo}},
		{&stats.OpenFeedback, &models.Feedback{}, []any{"status = ?", models.FeedbackStatusOpen}},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, c := range counts {
		g.Go(func() error {
			q := s.db.WithContext(gctx).Model(c.model)
			if len(c.where) > 0 {
				q = q.Where(c.where[0], c.where[1:]...)
			}
			return q.Count(c.dst).Error
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TopRated returns the best rated recipes that have at least one rating.
func (s *DashboardService) TopRated(ctx context.Context, limit int) ([]models.Recipe, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	var recipes []models.Recipe
	err := s.db.WithContext(ctx).
		Where("rating_count > 0").
		Order("average_rating DESC, rating_count DESC").
		Limit(limit).
		Find(&recipes).Error
	return recipes, err
}
