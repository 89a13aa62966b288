package service

import (
	"context"
	"errors"
	"fmt"

	"unimart/internal/events"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnknownAccount     = errors.New("account does not exist")
	ErrWrongPassword      = errors.New("invalid password")
	ErrNoListings         = errors.New("no products found")
	ErrInvalidPrice       = errors.New("price must be a non-negative number")
	ErrPhotosDisabled     = errors.New("photo storage is not configured")
	ErrUnsupportedPhoto   = errors.New("unsupported photo format")
	ErrPhotoTooLarge      = errors.New("photo exceeds the size limit")
)

// MissingFieldError names the first required field that was absent or blank.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func missing(field string) error {
	return &MissingFieldError{Field: field}
}

// EventPublisher receives lifecycle events. *events.Publisher satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, ev events.Event) error
}
