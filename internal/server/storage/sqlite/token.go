package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

// SaveOutstandingToken records a freshly issued refresh token
func (s *Storage) SaveOutstandingToken(ctx context.Context, token *models.OutstandingToken) error {
	query := `
		INSERT INTO outstanding_tokens (jti, user_id, token, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.JTI,
		token.UserID,
		token.Token,
		token.CreatedAt.Unix(),
		token.ExpiresAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save outstanding token: %w", err)
	}

	return nil
}

// GetOutstandingToken retrieves refresh token record by jti
func (s *Storage) GetOutstandingToken(ctx context.Context, jti string) (*models.OutstandingToken, error) {
	query := `
		SELECT jti, user_id, token, created_at, expires_at
		FROM outstanding_tokens
		WHERE jti = ?
	`

	token := &models.OutstandingToken{}
	var createdAt, expiresAt int64

	err := s.db.QueryRowContext(ctx, query, jti).Scan(
		&token.JTI,
		&token.UserID,
		&token.Token,
		&createdAt,
		&expiresAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to get outstanding token: %w", err)
	}

	token.CreatedAt = time.Unix(createdAt, 0).UTC()
	token.ExpiresAt = time.Unix(expiresAt, 0).UTC()

	return token, nil
}

// BlacklistToken marks outstanding token as revoked
func (s *Storage) BlacklistToken(ctx context.Context, jti string, at time.Time) error {
	// INSERT ... SELECT вставляет строку только для outstanding токена,
	// OR IGNORE делает повторный отзыв идемпотентным
	query := `
		INSERT OR IGNORE INTO blacklisted_tokens (jti, blacklisted_at)
		SELECT jti, ? FROM outstanding_tokens WHERE jti = ?
	`

	if _, err := s.db.ExecContext(ctx, query, at.Unix(), jti); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	// Различаем "уже в blacklist" и "неизвестный токен"
	if _, err := s.GetOutstandingToken(ctx, jti); err != nil {
		return err
	}

	return nil
}

// IsBlacklisted reports whether token with given jti was revoked
func (s *Storage) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE jti = ?)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, jti).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}

	return exists, nil
}

// DeleteExpiredTokens removes expired outstanding tokens,
// blacklist entries go away by ON DELETE CASCADE
func (s *Storage) DeleteExpiredTokens(ctx context.Context, now time.Time) (int, error) {
	query := `DELETE FROM outstanding_tokens WHERE expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
