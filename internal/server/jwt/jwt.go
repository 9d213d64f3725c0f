package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

const (
	// Issuer значение claim iss для всех токенов сервиса
	Issuer = "bookshelf"

	// DefaultAccessTokenTTL время жизни access token
	DefaultAccessTokenTTL = 15 * time.Minute
	// DefaultRefreshTokenTTL время жизни refresh token
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken возвращается для любого непригодного токена:
// неверный формат, подпись, истекший срок, чужой тип или отозванный refresh token
var ErrInvalidToken = errors.New("invalid token")

// TokenType тип токена (claim token_type)
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

// Claims представляет JWT claims сервиса
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	TokenType TokenType `json:"token_type"`
	gojwt.RegisteredClaims
}

// Pair пара токенов, выдаваемая при логине
type Pair struct {
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	Access           string
	Refresh          string
}

// Service выдает, проверяет и отзывает токены.
// Access token stateless, refresh token дополнительно учитывается в TokenStorage.
type Service struct {
	tokens          storage.TokenStorage
	now             func() time.Time
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// Option настраивает Service
type Option func(*Service)

// WithClock подменяет источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new token service
// secret should be a cryptographically secure random string
func NewService(secret string, accessTokenTTL, refreshTokenTTL time.Duration, tokens storage.TokenStorage, opts ...Option) *Service {
	s := &Service{
		secret:          []byte(secret),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
		tokens:          tokens,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Issue создает пару access/refresh токенов для пользователя
// и регистрирует refresh token как outstanding
func (s *Service) Issue(ctx context.Context, user *models.User) (*Pair, error) {
	access, accessExpiresAt, err := s.IssueAccess(user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	jti := uuid.New().String()
	refreshExpiresAt := now.Add(s.refreshTokenTTL)

	refresh, err := s.sign(user, RefreshToken, jti, now, refreshExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	outstanding := &models.OutstandingToken{
		JTI:       jti,
		UserID:    user.ID,
		Token:     refresh,
		CreatedAt: now,
		ExpiresAt: refreshExpiresAt,
	}

	if err := s.tokens.SaveOutstandingToken(ctx, outstanding); err != nil {
		return nil, fmt.Errorf("failed to save refresh token: %w", err)
	}

	return &Pair{
		Access:           access,
		Refresh:          refresh,
		AccessExpiresAt:  accessExpiresAt,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// IssueAccess создает новый access token
func (s *Service) IssueAccess(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTokenTTL)

	token, err := s.sign(user, AccessToken, uuid.New().String(), now, expiresAt)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to create access token: %w", err)
	}

	return token, expiresAt, nil
}

// ValidateAccess проверяет подпись, срок действия и тип access token
func (s *Service) ValidateAccess(token string) (*Claims, error) {
	return s.parse(token, AccessToken)
}

// ValidateRefresh проверяет refresh token: подпись, срок действия, тип,
// а также что токен был выдан сервисом и не отозван
func (s *Service) ValidateRefresh(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token, RefreshToken)
	if err != nil {
		return nil, err
	}

	if _, err := s.tokens.GetOutstandingToken(ctx, claims.ID); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, fmt.Errorf("%w: refresh token is not outstanding", ErrInvalidToken)
		}
		return nil, fmt.Errorf("failed to get outstanding token: %w", err)
	}

	blacklisted, err := s.tokens.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("%w: token is blacklisted", ErrInvalidToken)
	}

	return claims, nil
}

// Revoke отзывает refresh token пользователя userID.
// Access токены, выданные ранее, остаются валидными до истечения срока.
func (s *Service) Revoke(ctx context.Context, userID, token string) error {
	claims, err := s.ValidateRefresh(ctx, token)
	if err != nil {
		return err
	}

	if claims.UserID != userID {
		return fmt.Errorf("%w: token belongs to another user", ErrInvalidToken)
	}

	if err := s.tokens.BlacklistToken(ctx, claims.ID, s.now()); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return fmt.Errorf("%w: refresh token is not outstanding", ErrInvalidToken)
		}
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

func (s *Service) sign(user *models.User, tokenType TokenType, jti string, now, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		TokenType: tokenType,
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID,
			Issuer:    Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(expiresAt),
		},
	}

	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (s *Service) parse(tokenString string, want TokenType) (*Claims, error) {
	parser := gojwt.NewParser(
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithIssuer(Issuer),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *gojwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != want {
		return nil, fmt.Errorf("%w: expected %s token, got %q", ErrInvalidToken, want, claims.TokenType)
	}

	if claims.UserID == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing identity claims", ErrInvalidToken)
	}

	return claims, nil
}
