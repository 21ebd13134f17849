package service

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors mapped to HTTP status codes by middleware.ErrorHandler.
var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnavailable        = errors.New("service unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// notFound turns gorm's missing-record error into ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
