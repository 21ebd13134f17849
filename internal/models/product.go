package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a marketplace item, optionally linked to the recipe it supports.
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Category    string         `gorm:"size:50;index" json:"category"`
	PriceCents  int64          `gorm:"not null" json:"price_cents"`
	Currency    string         `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Stock       int            `gorm:"not null;default:0" json:"stock"`
	ImageURL    string         `gorm:"size:512" json:"image_url"`
	RecipeID    *uuid.UUID     `gorm:"type:uuid" json:"recipe_id,omitempty"`
	Active      bool           `gorm:"not null;default:true" json:"active"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	return nil
}

// ProductFilter narrows ListProducts.
type ProductFilter struct {
	Category   string
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
