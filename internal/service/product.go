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

// ProductService manages marketplace products.
type ProductService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewProductService(db *gorm.DB, logger *zap.Logger) *ProductService {
	return &ProductService{db: db, logger: logger}
}

func validateProduct(p *models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case p.PriceCents < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	case p.Stock < 0:
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	case len(p.Currency) != 3:
		return fmt.Errorf("%w: currency must be a 3-letter code", ErrInvalidInput)
	}
	return nil
}

func (s *ProductService) checkRecipe(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: linked recipe does not exist", ErrInvalidInput)
	}
	return nil
}

// CreateProduct adds a product from req.
func (s *ProductService) CreateProduct(ctx context.Context, req *types.ProductRequest) (*models.Product, error) {
	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    normalizeCategory(req.Category),
		PriceCents:  req.PriceCents,
		Currency:    strings.ToUpper(req.Currency),
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		RecipeID:    req.RecipeID,
		Active:      req.Active == nil || *req.Active,
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.checkRecipe(ctx, p.RecipeID); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		// gorm skips false when the column has a default
		if !p.Active {
			return tx.Model(p).Update("active", false).Error
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.logger.Info("Product created", zap.String("product_id", p.ID.String()), zap.String("name", p.Name))
	return p, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UpdateProduct applies the non-zero fields of req.
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *types.ProductRequest) (*models.Product, error) {
	p, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		p.Name = strings.TrimSpace(req.Name)
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Category != "" {
		p.Category = normalizeCategory(req.Category)
	}
	if req.PriceCents > 0 {
		p.PriceCents = req.PriceCents
	}
	if req.Currency != "" {
		p.Currency = strings.ToUpper(req.Currency)
	}
	if req.Stock > 0 {
		p.Stock = req.Stock
	}
	if req.ImageURL != "" {
		p.ImageURL = req.ImageURL
	}
	if req.RecipeID != nil {
		if err := s.checkRecipe(ctx, req.RecipeID); err != nil {
			return nil, err
		}
		p.RecipeID = req.RecipeID
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(p).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return p, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListProducts returns one page of products, cheapest first, and the total.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, int64, error) {
	query := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Product{})
		if filter.Category != "" {
			q = q.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
		}
		if filter.Search != "" {
			pattern := likePattern(filter.Search)
			q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
		}
		if filter.ActiveOnly {
			q = q.Where("active = ?", true)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit, offset := pageBounds(filter.Limit, filter.Offset)
	var products []models.Product
	if err := query().Order("price_cents ASC, name ASC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// AdjustStock adds delta to the stock level. A change that would leave the
// stock negative is refused with ErrInvalidInput.
func (s *ProductService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to adjust stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := s.GetProduct(ctx, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: insufficient stock", ErrInvalidInput)
	}
	return s.GetProduct(ctx, id)
}
