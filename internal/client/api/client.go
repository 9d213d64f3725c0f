package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/iudanet/bookshelf/pkg/api"
)

var (
	// ErrUnauthorized сервер отклонил учетные данные или токен (401)
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound ресурс не найден или принадлежит другому пользователю (404)
	ErrNotFound = errors.New("not found")
)

// APIError ошибка, возвращенная сервером
type APIError struct {
	Fields     map[string][]string
	Message    string
	StatusCode int
}

// Error реализует интерфейс error
func (e *APIError) Error() string {
	msg := fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	if len(e.Fields) == 0 {
		return msg
	}

	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], " "))
	}

	return msg + " (" + strings.Join(parts, "; ") + ")"
}

// Unwrap позволяет проверять статус через errors.Is
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Токен уходит только на тот же host:port, что и исходный запрос
				auth := via[0].Header.Get("Authorization")
				if auth != "" && req.URL.Host == via[0].URL.Host {
					req.Header.Set("Authorization", auth)
				} else {
					req.Header.Del("Authorization")
				}
				return nil
			},
		},
	}
}

// Register регистрирует нового пользователя
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	var resp api.RegisterResponse
	if err := c.doRequest(ctx, http.MethodPost, "/register/", "", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/login/", "", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Refresh получает новый access token по refresh token
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.AccessResponse, error) {
	var resp api.AccessResponse
	req := api.RefreshRequest{Refresh: refreshToken}
	if err := c.doRequest(ctx, http.MethodPost, "/refresh/", "", req, &resp); err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	return &resp, nil
}

// Logout отзывает refresh token на сервере
func (c *Client) Logout(ctx context.Context, accessToken, refreshToken string) error {
	req := api.LogoutRequest{Refresh: refreshToken}
	if err := c.doRequest(ctx, http.MethodPost, "/logout/", accessToken, req, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// ListBooks возвращает книги текущего пользователя
func (c *Client) ListBooks(ctx context.Context, accessToken string) ([]api.Book, error) {
	var books []api.Book
	if err := c.doRequest(ctx, http.MethodGet, "/books/", accessToken, nil, &books); err != nil {
		return nil, fmt.Errorf("list books request failed: %w", err)
	}
	return books, nil
}

// GetBook возвращает книгу по ID
func (c *Client) GetBook(ctx context.Context, accessToken string, id int64) (*api.Book, error) {
	var book api.Book
	if err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/books/%d/", id), accessToken, nil, &book); err != nil {
		return nil, fmt.Errorf("get book request failed: %w", err)
	}
	return &book, nil
}

// CreateBook создает книгу
func (c *Client) CreateBook(ctx context.Context, accessToken string, req api.BookRequest) (*api.Book, error) {
	var book api.Book
	if err := c.doRequest(ctx, http.MethodPost, "/books/", accessToken, req, &book); err != nil {
		return nil, fmt.Errorf("create book request failed: %w", err)
	}
	return &book, nil
}

// UpdateBook полностью заменяет поля книги
func (c *Client) UpdateBook(ctx context.Context, accessToken string, id int64, req api.BookRequest) (*api.Book, error) {
	var book api.Book
	if err := c.doRequest(ctx, http.MethodPut, fmt.Sprintf("/books/%d/update/", id), accessToken, req, &book); err != nil {
		return nil, fmt.Errorf("update book request failed: %w", err)
	}
	return &book, nil
}

// DeleteBook удаляет книгу
func (c *Client) DeleteBook(ctx context.Context, accessToken string, id int64) error {
	if err := c.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/books/%d/delete/", id), accessToken, nil, nil); err != nil {
		return fmt.Errorf("delete book request failed: %w", err)
	}
	return nil
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBody)
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
		apiErr.Message = errResp.Message
		if apiErr.Message == "" {
			apiErr.Message = errResp.Error
		}
		apiErr.Fields = errResp.Fields
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
