package auth

import (
	"context"

	pkgapi "github.com/iudanet/bookshelf/pkg/api"
)

// APIClient defines server calls needed for session management.
// Implemented by api.Client.
type APIClient interface {
	// Register регистрирует нового пользователя
	Register(ctx context.Context, req pkgapi.RegisterRequest) (*pkgapi.RegisterResponse, error)

	// Login выполняет аутентификацию и возвращает пару токенов
	Login(ctx context.Context, req pkgapi.LoginRequest) (*pkgapi.TokenResponse, error)

	// Refresh получает новый access token по refresh token
	Refresh(ctx context.Context, refreshToken string) (*pkgapi.AccessResponse, error)

	// Logout отзывает refresh token на сервере
	Logout(ctx context.Context, accessToken, refreshToken string) error
}
