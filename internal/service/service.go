// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"
)

// Service errors.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNameRequired    = errors.New("photo name is required")
	ErrInvalidCategory = errors.New("invalid photo category")
	ErrUserNotFound    = errors.New("user not found")
	ErrTimeout         = errors.New("downstream operation timed out")
)

// Publisher delivers domain events to attached subscribers.
type Publisher interface {
	Publish(channel string, payload any)
}

// withTimeout bounds a downstream call. Zero means no bound beyond the
// caller's context.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// isTimeout reports whether a downstream call failed because the bounded
// context expired, so callers can distinguish a slow store from a failed one.
func isTimeout(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
}
