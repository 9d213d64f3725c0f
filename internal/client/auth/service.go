package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/bookshelf/internal/client/api"
	"github.com/iudanet/bookshelf/internal/client/storage"
	"github.com/iudanet/bookshelf/internal/validation"
	pkgapi "github.com/iudanet/bookshelf/pkg/api"
)

// ExpirySkew запас времени: access token, истекающий раньше, считается просроченным
const ExpirySkew = 30 * time.Second

var (
	// ErrNotAuthenticated нет сохраненной сессии
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrSessionExpired refresh token истек или отозван, нужен повторный login
	ErrSessionExpired = errors.New("session expired")
)

// Service управляет сессией клиента: login, обновление access token, logout
type Service struct {
	apiClient APIClient
	authStore storage.AuthStorage
	logger    *slog.Logger
	now       func() time.Time
}

// Option настраивает Service
type Option func(*Service)

// WithClock подменяет источник времени (для тестов)
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger задает логгер для некритичных ошибок
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService создает новый сервис авторизации
func NewService(apiClient APIClient, authStore storage.AuthStorage, opts ...Option) *Service {
	s := &Service{
		apiClient: apiClient,
		authStore: authStore,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register регистрирует нового пользователя.
// Сессию не создает: после регистрации нужен Login.
func (s *Service) Register(ctx context.Context, name, email, password string) (*pkgapi.RegisterResponse, error) {
	input := validation.RegisterInput{
		Name:     strings.TrimSpace(name),
		Email:    validation.NormalizeEmail(email),
		Password: password,
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Register(ctx, pkgapi.RegisterRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return resp, nil
}

// Login выполняет аутентификацию и сохраняет сессию
func (s *Service) Login(ctx context.Context, email, password string) (*storage.AuthData, error) {
	input := validation.LoginInput{
		Email:    validation.NormalizeEmail(email),
		Password: password,
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	resp, err := s.apiClient.Login(ctx, pkgapi.LoginRequest{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	access, err := parseClaims(resp.Access)
	if err != nil {
		return nil, fmt.Errorf("invalid access token: %w", err)
	}
	refresh, err := parseClaims(resp.Refresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	authData := &storage.AuthData{
		Email:        access.Email,
		Name:         access.Name,
		UserID:       access.UserID,
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		ExpiresAt:    access.ExpiresAt.Unix(),
		RefreshUntil: refresh.ExpiresAt.Unix(),
	}

	if err := s.authStore.SaveAuth(ctx, authData); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	return authData, nil
}

// Status возвращает сохраненную сессию.
// Возвращает ErrNotAuthenticated, если сессии нет.
func (s *Service) Status(ctx context.Context) (*storage.AuthData, error) {
	authData, err := s.authStore.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}
	return authData, nil
}

// AccessToken возвращает действующий access token,
// при необходимости обновляя его через refresh token.
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	authData, err := s.Status(ctx)
	if err != nil {
		return "", err
	}

	now := s.now()
	if !authData.AccessExpired(now.Add(ExpirySkew)) {
		return authData.AccessToken, nil
	}

	if authData.RefreshExpired(now) {
		s.dropSession(ctx)
		return "", ErrSessionExpired
	}

	resp, err := s.apiClient.Refresh(ctx, authData.RefreshToken)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			// refresh token отозван или пользователь удален
			s.dropSession(ctx)
			return "", ErrSessionExpired
		}
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}

	claims, err := parseClaims(resp.Access)
	if err != nil {
		return "", fmt.Errorf("invalid access token: %w", err)
	}

	authData.AccessToken = resp.Access
	authData.ExpiresAt = claims.ExpiresAt.Unix()

	if err := s.authStore.SaveAuth(ctx, authData); err != nil {
		return "", fmt.Errorf("failed to save auth data: %w", err)
	}

	return authData.AccessToken, nil
}

// Logout выполняет выход из системы
// Удаляет локальные данные авторизации и уведомляет сервер (best effort)
func (s *Service) Logout(ctx context.Context) error {
	authData, err := s.Status(ctx)
	if err != nil {
		return err
	}

	if !authData.RefreshExpired(s.now()) {
		access, err := s.AccessToken(ctx)
		switch {
		case err != nil:
			s.logger.Warn("failed to get access token for logout", "error", err)
		default:
			// Не прерываем процесс, если сервер недоступен
			if logoutErr := s.apiClient.Logout(ctx, access, authData.RefreshToken); logoutErr != nil {
				s.logger.Warn("failed to logout on server", "error", logoutErr)
			}
		}
	}

	// Всегда удаляем локальные данные, даже если сервер недоступен
	if err := s.authStore.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}

	return nil
}

func (s *Service) dropSession(ctx context.Context) {
	if err := s.authStore.DeleteAuth(ctx); err != nil && !errors.Is(err, storage.ErrAuthNotFound) {
		s.logger.Warn("failed to delete expired session", "error", err)
	}
}

// tokenClaims claims, которые сервер кладет в токены
type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// parseClaims читает claims без проверки подписи: ключ есть только у сервера,
// клиенту нужны лишь срок действия и данные пользователя
func parseClaims(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, errors.New("token has no expiration")
	}
	return claims, nil
}
