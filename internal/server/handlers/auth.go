package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/bookshelf/internal/crypto"
	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/jwt"
	"github.com/iudanet/bookshelf/internal/server/storage"
	"github.com/iudanet/bookshelf/internal/validation"
	"github.com/iudanet/bookshelf/pkg/api"
)

// TokenService определяет операции с токенами, нужные AuthHandler
type TokenService interface {
	Issue(ctx context.Context, user *models.User) (*jwt.Pair, error)
	IssueAccess(user *models.User) (string, time.Time, error)
	ValidateRefresh(ctx context.Context, token string) (*jwt.Claims, error)
	Revoke(ctx context.Context, userID, token string) error
}

// AuthHandler обрабатывает запросы авторизации
type AuthHandler struct {
	logger      *slog.Logger
	userStorage storage.UserStorage
	tokens      TokenService
	now         func() time.Time
}

// NewAuthHandler создает новый handler для авторизации
func NewAuthHandler(logger *slog.Logger, userStorage storage.UserStorage, tokens TokenService) *AuthHandler {
	return &AuthHandler{
		logger:      logger,
		userStorage: userStorage,
		tokens:      tokens,
		now:         time.Now,
	}
}

// Register обрабатывает POST /register/
// Регистрация нового пользователя
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Парсим request body
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode register request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	input := validation.RegisterInput{
		Name:     strings.TrimSpace(req.Name),
		Email:    validation.NormalizeEmail(req.Email),
		Password: req.Password,
	}

	if err := input.Validate(); err != nil {
		h.handleValidationError(w, r, err)
		return
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to hash password", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	// Генерируем UUID для пользователя
	userID := uuid.New().String()

	user := &models.User{
		ID:           userID,
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    h.now().UTC(),
	}

	// Сохраняем в БД
	if err := h.userStorage.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserAlreadyExists) {
			h.logger.WarnContext(ctx, "user already exists", slog.String("email", input.Email))
			sendValidationError(w, h.logger, validation.Errors{
				"email": {"user with this email already exists."},
			})
			return
		}
		h.logger.ErrorContext(ctx, "failed to create user", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user registered successfully",
		slog.String("email", input.Email),
		slog.String("user_id", userID))

	resp := api.RegisterResponse{
		UserID:  userID,
		Message: "User registered successfully",
	}

	SendJSON(w, h.logger, resp, http.StatusCreated)
}

// Login обрабатывает POST /login/
// Аутентификация пользователя по email и паролю
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "failed to decode login request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	input := validation.LoginInput{
		Email:    validation.NormalizeEmail(req.Email),
		Password: req.Password,
	}

	if err := input.Validate(); err != nil {
		h.handleValidationError(w, r, err)
		return
	}

	// Неизвестный email и неверный пароль дают одинаковый ответ
	user, err := h.userStorage.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "login failed: user not found", slog.String("email", input.Email))
			SendError(w, h.logger, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := crypto.VerifyPassword(input.Password, user.PasswordHash); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			h.logger.WarnContext(ctx, "login failed: invalid password", slog.String("user_id", user.ID))
			SendError(w, h.logger, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to verify password", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	pair, err := h.tokens.Issue(ctx, user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue tokens", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	// Обновляем last_login
	if err := h.userStorage.UpdateLastLogin(ctx, user.ID, h.now().UTC()); err != nil {
		// Не критичная ошибка, логируем но не прерываем
		h.logger.WarnContext(ctx, "failed to update last login", slog.Any("error", err))
	}

	h.logger.InfoContext(ctx, "user logged in successfully", slog.String("user_id", user.ID))

	resp := api.TokenResponse{
		Access:  pair.Access,
		Refresh: pair.Refresh,
	}

	SendJSON(w, h.logger, resp, http.StatusOK)
}

// Refresh обрабатывает POST /refresh/
// Выдает новый access token по refresh token из тела запроса.
// Для совместимости refresh token также принимается в Authorization: Bearer.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "failed to decode refresh request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	refreshToken := strings.TrimSpace(req.Refresh)
	if refreshToken == "" {
		refreshToken, _ = BearerToken(r)
	}
	if refreshToken == "" {
		SendError(w, h.logger, "refresh token is required", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.ValidateRefresh(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrInvalidToken) {
			h.logger.WarnContext(ctx, "invalid refresh token", slog.Any("error", err))
			SendError(w, h.logger, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to validate refresh token", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	// Получаем пользователя для генерации нового access token
	user, err := h.userStorage.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.logger.WarnContext(ctx, "refresh for deleted user", slog.String("user_id", claims.UserID))
			SendError(w, h.logger, "user not found", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to get user", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	access, _, err := h.tokens.IssueAccess(user)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue access token", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "access token refreshed", slog.String("user_id", user.ID))

	SendJSON(w, h.logger, api.AccessResponse{Access: access}, http.StatusOK)
}

// Logout обрабатывает POST /logout/
// Отзывает refresh token текущего пользователя. Требует AuthMiddleware.
// Access токены, выданные ранее, остаются валидными до истечения срока.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, ok := UserFromContext(ctx)
	if !ok {
		h.logger.ErrorContext(ctx, "user not found in context")
		SendError(w, h.logger, "authentication required", http.StatusUnauthorized)
		return
	}

	var req api.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.WarnContext(ctx, "failed to decode logout request", slog.Any("error", err))
		sendDecodeError(w, h.logger, err)
		return
	}

	refreshToken := strings.TrimSpace(req.Refresh)
	if refreshToken == "" {
		sendValidationError(w, h.logger, validation.Errors{
			"refresh": {"This field is required."},
		})
		return
	}

	if err := h.tokens.Revoke(ctx, user.ID, refreshToken); err != nil {
		if errors.Is(err, jwt.ErrInvalidToken) {
			h.logger.WarnContext(ctx, "logout with invalid refresh token",
				slog.String("user_id", user.ID),
				slog.Any("error", err))
			SendError(w, h.logger, "invalid refresh token", http.StatusUnauthorized)
			return
		}
		h.logger.ErrorContext(ctx, "failed to revoke refresh token", slog.Any("error", err))
		SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "user logged out successfully", slog.String("user_id", user.ID))

	SendJSON(w, h.logger, api.MessageResponse{Message: "Successfully logged out"}, http.StatusResetContent)
}

// handleValidationError отвечает 400 с ошибками по полям
// или 500, если ошибка не связана с валидацией
func (h *AuthHandler) handleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		h.logger.WarnContext(r.Context(), "validation failed", slog.Any("error", err))
		sendValidationError(w, h.logger, verrs)
		return
	}
	h.logger.ErrorContext(r.Context(), "failed to validate request", slog.Any("error", err))
	SendError(w, h.logger, "internal server error", http.StatusInternalServerError)
}

// BearerToken извлекает токен из заголовка Authorization: Bearer <token>.
// Схема сравнивается без учета регистра.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}

	return token, true
}
