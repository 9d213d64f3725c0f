package storage

import (
	"context"
	"time"

	"github.com/iudanet/bookshelf/internal/models"
)

// TokenStorage defines interface for refresh token bookkeeping:
// every issued refresh token is outstanding, revoked ones are blacklisted
type TokenStorage interface {
	// SaveOutstandingToken records a freshly issued refresh token
	SaveOutstandingToken(ctx context.Context, token *models.OutstandingToken) error

	// GetOutstandingToken retrieves refresh token record by jti
	// Returns ErrTokenNotFound if token was never issued or already purged
	GetOutstandingToken(ctx context.Context, jti string) (*models.OutstandingToken, error)

	// BlacklistToken marks outstanding token as revoked
	// Returns ErrTokenNotFound if token is not outstanding
	// Blacklisting an already blacklisted token is a no-op
	BlacklistToken(ctx context.Context, jti string, at time.Time) error

	// IsBlacklisted reports whether token with given jti was revoked
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// DeleteExpiredTokens removes outstanding tokens (and their blacklist entries)
	// that expired before now. Returns number of deleted tokens
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error)
}
