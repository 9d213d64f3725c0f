package storage

import (
	"context"
	"time"
)

// AuthStorage defines interface for storing client session on disk.
// Only one session (the current user) is stored at a time.
type AuthStorage interface {
	// SaveAuth stores authentication data, replacing the previous session
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored authentication data
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes stored authentication data (logout)
	// Returns ErrAuthNotFound if no auth data exists
	DeleteAuth(ctx context.Context) error
}

// AuthData represents authentication information in storage
type AuthData struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	UserID       string `json:"user_id"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`         // срок access token, unix seconds
	RefreshUntil int64  `json:"refresh_expires_at"` // срок refresh token, unix seconds
}

// AccessExpired сообщает, истек ли access token к моменту now
func (a *AuthData) AccessExpired(now time.Time) bool {
	return !now.Before(time.Unix(a.ExpiresAt, 0))
}

// RefreshExpired сообщает, истек ли refresh token к моменту now
func (a *AuthData) RefreshExpired(now time.Time) bool {
	return !now.Before(time.Unix(a.RefreshUntil, 0))
}
