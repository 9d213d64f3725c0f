package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/bookshelf/internal/crypto"
	"github.com/iudanet/bookshelf/internal/models"
	"github.com/iudanet/bookshelf/internal/server/jwt"
	"github.com/iudanet/bookshelf/pkg/api"
)

// failingTokenService возвращает ошибку на любую операцию
type failingTokenService struct {
	err error
}

func (f *failingTokenService) Issue(ctx context.Context, user *models.User) (*jwt.Pair, error) {
	return nil, f.err
}

func (f *failingTokenService) IssueAccess(user *models.User) (string, time.Time, error) {
	return "", time.Time{}, f.err
}

func (f *failingTokenService) ValidateRefresh(ctx context.Context, token string) (*jwt.Claims, error) {
	return nil, f.err
}

func (f *failingTokenService) Revoke(ctx context.Context, userID, token string) error {
	return f.err
}

func TestAuthHandler_Register_Success(t *testing.T) {
	logger := setupTestLogger()
	userStorage := newMockUserStorage()
	handler := NewAuthHandler(logger, userStorage, newTestTokenService(newMockTokenStorage()))

	req := newJSONRequest(t, http.MethodPost, "/register/", api.RegisterRequest{
		Name:     "  Alice  ",
		Email:    "alice@Example.COM",
		Password: "s3cret-pass",
	})

	w := httptest.NewRecorder()
	handler.Register(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response api.RegisterResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.NotEmpty(t, response.UserID)
	assert.Equal(t, "User registered successfully", response.Message)

	// Email нормализован, пароль сохранен только в виде bcrypt хеша
	user, err := userStorage.GetUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, response.UserID, user.ID)
	assert.Equal(t, "Alice", user.Name)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)
	assert.NoError(t, crypto.VerifyPassword("s3cret-pass", user.PasswordHash))
	assert.Nil(t, user.LastLogin)
}

func TestAuthHandler_Register_InvalidJSON(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), newTestTokenService(newMockTokenStorage()))

	req := httptest.NewRequest(http.MethodPost, "/register/", bytes.NewReader([]byte("invalid json")))
	w := httptest.NewRecorder()
	handler.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decodeError(t, w).Message)
}

func TestAuthHandler_Register_WrongFieldType(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), newTestTokenService(newMockTokenStorage()))

	body := `{"name":"Alice","email":12345,"password":"s3cret-pass"}`
	req := httptest.NewRequest(http.MethodPost, "/register/", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	handler.Register(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "validation failed", resp.Message)
	assert.Equal(t, []string{"Not a valid string."}, resp.Fields["email"])
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), newTestTokenService(newMockTokenStorage()))

	tests := []struct {
		name    string
		request api.RegisterRequest
		field   string
	}{
		{
			name:    "missing name",
			request: api.RegisterRequest{Email: "a@example.com", Password: "password1"},
			field:   "name",
		},
		{
			name:    "blank name",
			request: api.RegisterRequest{Name: "   ", Email: "a@example.com", Password: "password1"},
			field:   "name",
		},
		{
			name:    "missing email",
			request: api.RegisterRequest{Name: "A", Password: "password1"},
			field:   "email",
		},
		{
			name:    "invalid email",
			request: api.RegisterRequest{Name: "A", Email: "not-an-email", Password: "password1"},
			field:   "email",
		},
		{
			name:    "missing password",
			request: api.RegisterRequest{Name: "A", Email: "a@example.com"},
			field:   "password",
		},
		{
			name:    "short password",
			request: api.RegisterRequest{Name: "A", Email: "a@example.com", Password: "short"},
			field:   "password",
		},
		{
			name:    "password too long",
			request: api.RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("p", 73)},
			field:   "password",
		},
		{
			// 40 символов, но 80 байт: bcrypt такой пароль не примет
			name:    "multibyte password too long",
			request: api.RegisterRequest{Name: "A", Email: "a@example.com", Password: strings.Repeat("é", 40)},
			field:   "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/register/", tt.request)
			w := httptest.NewRecorder()
			handler.Register(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Contains(t, resp.Fields, tt.field)
		})
	}
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Existing", "taken@example.com", "password1")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	req := newJSONRequest(t, http.MethodPost, "/register/", api.RegisterRequest{
		Name:     "Other",
		Email:    "taken@example.com",
		Password: "password2",
	})
	w := httptest.NewRecorder()
	handler.Register(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, []string{"user with this email already exists."}, resp.Fields["email"])
}

func TestAuthHandler_Register_StorageError(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.createError = errors.New("database connection failed")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	req := newJSONRequest(t, http.MethodPost, "/register/", api.RegisterRequest{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "password1",
	})
	w := httptest.NewRecorder()
	handler.Register(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeError(t, w).Message)
}

func TestAuthHandler_Login_Success(t *testing.T) {
	userStorage := newMockUserStorage()
	user := userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	tokenService := newTestTokenService(newMockTokenStorage())
	handler := NewAuthHandler(setupTestLogger(), userStorage, tokenService)

	req := newJSONRequest(t, http.MethodPost, "/login/", api.LoginRequest{
		Email:    "alice@example.com",
		Password: "password1",
	})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.NotEmpty(t, response.Access)
	assert.NotEmpty(t, response.Refresh)

	claims, err := tokenService.ValidateAccess(response.Access)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Alice", claims.Name)

	_, err = tokenService.ValidateRefresh(context.Background(), response.Refresh)
	require.NoError(t, err)

	assert.NotNil(t, user.LastLogin, "last_login should be updated")
}

func TestAuthHandler_Login_InvalidJSON(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), newTestTokenService(newMockTokenStorage()))

	req := httptest.NewRequest(http.MethodPost, "/login/", bytes.NewReader([]byte("{")))
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_EmptyFields(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), newTestTokenService(newMockTokenStorage()))

	tests := []struct {
		name    string
		request api.LoginRequest
		field   string
	}{
		{"empty email", api.LoginRequest{Password: "password1"}, "email"},
		{"empty password", api.LoginRequest{Email: "alice@example.com"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/login/", tt.request)
			w := httptest.NewRecorder()
			handler.Login(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w).Fields, tt.field)
		})
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	tests := []struct {
		name    string
		request api.LoginRequest
	}{
		{"unknown email", api.LoginRequest{Email: "nobody@example.com", Password: "password1"}},
		{"wrong password", api.LoginRequest{Email: "alice@example.com", Password: "wrong-password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/login/", tt.request)
			w := httptest.NewRecorder()
			handler.Login(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "invalid credentials", decodeError(t, w).Message)
		})
	}
}

func TestAuthHandler_Login_StorageError(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.getUserError = errors.New("database connection failed")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	req := newJSONRequest(t, http.MethodPost, "/login/", api.LoginRequest{Email: "alice@example.com", Password: "password1"})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthHandler_Login_SaveTokenError(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	tokenStorage := newMockTokenStorage()
	tokenStorage.saveError = errors.New("failed to save token")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(tokenStorage))

	req := newJSONRequest(t, http.MethodPost, "/login/", api.LoginRequest{Email: "alice@example.com", Password: "password1"})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthHandler_Login_UpdateLastLoginError(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	userStorage.updateLastLogin = func(ctx context.Context, userID string, loginTime time.Time) error {
		return errors.New("failed to update last login")
	}
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	req := newJSONRequest(t, http.MethodPost, "/login/", api.LoginRequest{Email: "alice@example.com", Password: "password1"})
	w := httptest.NewRecorder()
	handler.Login(w, req)

	// Ошибка обновления last_login не должна прерывать логин
	assert.Equal(t, http.StatusOK, w.Code)
}

// login выполняет вход и возвращает пару токенов
func login(t *testing.T, handler *AuthHandler, email, password string) api.TokenResponse {
	t.Helper()

	req := newJSONRequest(t, http.MethodPost, "/login/", api.LoginRequest{Email: email, Password: password})
	w := httptest.NewRecorder()
	handler.Login(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var tokens api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tokens))
	return tokens
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	tokenService := newTestTokenService(newMockTokenStorage())
	handler := NewAuthHandler(setupTestLogger(), userStorage, tokenService)

	tokens := login(t, handler, "alice@example.com", "password1")

	req := newJSONRequest(t, http.MethodPost, "/refresh/", api.RefreshRequest{Refresh: tokens.Refresh})
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response api.AccessResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	claims, err := tokenService.ValidateAccess(response.Access)
	require.NoError(t, err)
	assert.Equal(t, "user1", claims.UserID)
}

func TestAuthHandler_Refresh_BearerFallback(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	tokens := login(t, handler, "alice@example.com", "password1")

	req := httptest.NewRequest(http.MethodPost, "/refresh/", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.Refresh)
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	tokens := login(t, handler, "alice@example.com", "password1")

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"missing token", "", "refresh token is required"},
		{"garbage", "not-a-token", "invalid refresh token"},
		{"access token instead of refresh", tokens.Access, "invalid refresh token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/refresh/", api.RefreshRequest{Refresh: tt.token})
			w := httptest.NewRecorder()
			handler.Refresh(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.message, decodeError(t, w).Message)
		})
	}
}

func TestAuthHandler_Refresh_DeletedUser(t *testing.T) {
	userStorage := newMockUserStorage()
	userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	handler := NewAuthHandler(setupTestLogger(), userStorage, newTestTokenService(newMockTokenStorage()))

	tokens := login(t, handler, "alice@example.com", "password1")
	require.NoError(t, userStorage.DeleteUser(context.Background(), "user1"))

	req := newJSONRequest(t, http.MethodPost, "/refresh/", api.RefreshRequest{Refresh: tokens.Refresh})
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Refresh_StorageError(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), &failingTokenService{err: errors.New("db down")})

	req := newJSONRequest(t, http.MethodPost, "/refresh/", api.RefreshRequest{Refresh: "some-token"})
	w := httptest.NewRecorder()
	handler.Refresh(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	userStorage := newMockUserStorage()
	alice := userStorage.addUser(t, "user1", "Alice", "alice@example.com", "password1")
	bob := userStorage.addUser(t, "user2", "Bob", "bob@example.com", "password2")
	tokenService := newTestTokenService(newMockTokenStorage())
	handler := NewAuthHandler(setupTestLogger(), userStorage, tokenService)

	aliceTokens := login(t, handler, "alice@example.com", "password1")

	logout := func(user *models.User, body any) *httptest.ResponseRecorder {
		req := newJSONRequest(t, http.MethodPost, "/logout/", body)
		req = req.WithContext(WithUser(req.Context(), user))
		w := httptest.NewRecorder()
		handler.Logout(w, req)
		return w
	}

	t.Run("missing refresh", func(t *testing.T) {
		w := logout(alice, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decodeError(t, w).Fields, "refresh")
	})

	t.Run("foreign refresh token", func(t *testing.T) {
		w := logout(bob, api.LogoutRequest{Refresh: aliceTokens.Refresh})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("success", func(t *testing.T) {
		w := logout(alice, api.LogoutRequest{Refresh: aliceTokens.Refresh})
		require.Equal(t, http.StatusResetContent, w.Code)

		var response api.MessageResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Successfully logged out", response.Message)
	})

	t.Run("refresh after logout fails", func(t *testing.T) {
		req := newJSONRequest(t, http.MethodPost, "/refresh/", api.RefreshRequest{Refresh: aliceTokens.Refresh})
		w := httptest.NewRecorder()
		handler.Refresh(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("second logout fails", func(t *testing.T) {
		w := logout(alice, api.LogoutRequest{Refresh: aliceTokens.Refresh})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("access token still valid", func(t *testing.T) {
		_, err := tokenService.ValidateAccess(aliceTokens.Access)
		assert.NoError(t, err)
	})
}

func TestAuthHandler_Logout_NoUserInContext(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), newTestTokenService(newMockTokenStorage()))

	req := newJSONRequest(t, http.MethodPost, "/logout/", api.LogoutRequest{Refresh: "token"})
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Logout_StorageError(t *testing.T) {
	handler := NewAuthHandler(setupTestLogger(), newMockUserStorage(), &failingTokenService{err: errors.New("db down")})

	req := newJSONRequest(t, http.MethodPost, "/logout/", api.LogoutRequest{Refresh: "token"})
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: "user1"}))
	w := httptest.NewRecorder()
	handler.Logout(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		token  string
		ok     bool
	}{
		{"valid", "Bearer abc", "abc", true},
		{"lowercase scheme", "bearer abc", "abc", true},
		{"missing header", "", "", false},
		{"no scheme", "abc", "", false},
		{"basic scheme", "Basic abc", "", false},
		{"only scheme", "Bearer", "", false},
		{"empty token", "Bearer  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			token, ok := BearerToken(req)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}
