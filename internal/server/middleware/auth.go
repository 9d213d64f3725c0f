package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/handlers"
	"github.com/iudanet/bookshelf/internal/server/jwt"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

// AccessValidator проверяет access token
type AccessValidator interface {
	ValidateAccess(token string) (*jwt.Claims, error)
}

// UserGetter находит пользователя по ID
type UserGetter interface {
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
}

// AuthMiddleware создает middleware для проверки JWT access token.
// Пользователь из токена загружается из хранилища и кладется в контекст
// (handlers.UserFromContext).
func AuthMiddleware(logger *slog.Logger, tokens AccessValidator, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Извлекаем токен из заголовка Authorization
			if r.Header.Get("Authorization") == "" {
				logger.WarnContext(ctx, "Missing Authorization header")
				handlers.SendError(w, logger, "missing token", http.StatusUnauthorized)
				return
			}

			// Ожидаем формат: "Bearer <token>"
			tokenString, ok := handlers.BearerToken(r)
			if !ok {
				logger.WarnContext(ctx, "Invalid Authorization header format")
				handlers.SendError(w, logger, "invalid token format", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateAccess(tokenString)
			if err != nil {
				logger.WarnContext(ctx, "Invalid access token", slog.Any("error", err))
				handlers.SendError(w, logger, "invalid token", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByID(ctx, claims.UserID)
			if err != nil {
				if errors.Is(err, storage.ErrUserNotFound) {
					logger.WarnContext(ctx, "Token for unknown user", slog.String("user_id", claims.UserID))
					handlers.SendError(w, logger, "user not found", http.StatusUnauthorized)
					return
				}
				logger.ErrorContext(ctx, "Failed to load user", slog.Any("error", err))
				handlers.SendError(w, logger, "internal server error", http.StatusInternalServerError)
				return
			}

			logger.DebugContext(ctx, "User authenticated", slog.String("user_id", user.ID))

			// Передаем запрос дальше с обновленным контекстом
			next.ServeHTTP(w, r.WithContext(handlers.WithUser(ctx, user)))
		})
	}
}
