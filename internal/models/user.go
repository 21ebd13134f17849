package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`
	Username           string           `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email              string           `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash       string           `gorm:"not null" json:"-"`
	Role               string           `gorm:"size:20;not null;default:'user'" json:"role"`
	PreferredSystem    string           `gorm:"size:10;not null;default:'metric'" json:"preferred_system"`
	DietaryPreferences JSONBStringArray `gorm:"type:jsonb" json:"dietary_preferences"`
	Allergens          JSONBStringArray `gorm:"type:jsonb" json:"allergens"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.PreferredSystem == "" {
		u.PreferredSystem = "metric"
	}
	return nil
}

// IsAdmin reports whether the user may use the admin dashboard.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
