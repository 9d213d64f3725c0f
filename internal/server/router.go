package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/iudanet/bookshelf/internal/server/handlers"
	"github.com/iudanet/bookshelf/internal/server/jwt"
	"github.com/iudanet/bookshelf/internal/server/middleware"
	"github.com/iudanet/bookshelf/internal/server/service"
	"github.com/iudanet/bookshelf/internal/server/storage"
)

// Store объединяет хранилища, нужные HTTP API
type Store interface {
	storage.UserStorage
	storage.BookStorage
	Ping(ctx context.Context) error
}

// Config содержит параметры HTTP сервера
type Config struct {
	Addr               string
	Version            string
	CORSAllowedOrigins []string
	TrustedProxies     []string
	AuthRateLimit      int
	AuthRateWindow     time.Duration
}

// NewRouter собирает маршруты и цепочку middleware:
// recovery -> logging -> CORS -> mux -> (rate limit | auth) -> handler
func NewRouter(logger *slog.Logger, cfg Config, store Store, tokens *jwt.Service, limiter *middleware.RateLimiter) http.Handler {
	healthHandler := handlers.NewHealthHandler(logger, store, cfg.Version)
	authHandler := handlers.NewAuthHandler(logger, store, tokens)
	booksHandler := handlers.NewBooksHandler(logger, service.NewBookService(store))

	requireAuth := middleware.AuthMiddleware(logger, tokens, store)
	rateLimit := middleware.RateLimitMiddleware(limiter)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/{$}", healthHandler.Health)

	// Публичные маршруты авторизации
	mux.Handle("POST /register/{$}", rateLimit(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /login/{$}", rateLimit(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /refresh/{$}", authHandler.Refresh)

	// Маршруты, требующие access token
	mux.Handle("POST /logout/{$}", requireAuth(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /books/{$}", requireAuth(http.HandlerFunc(booksHandler.List)))
	mux.Handle("POST /books/{$}", requireAuth(http.HandlerFunc(booksHandler.Create)))
	mux.Handle("GET /books/user/{user_id}/{$}", requireAuth(http.HandlerFunc(booksHandler.ListByUser)))
	mux.Handle("GET /books/{id}/{$}", requireAuth(http.HandlerFunc(booksHandler.Get)))
	mux.Handle("PUT /books/{id}/update/{$}", requireAuth(http.HandlerFunc(booksHandler.Update)))
	mux.Handle("DELETE /books/{id}/delete/{$}", requireAuth(http.HandlerFunc(booksHandler.Delete)))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         600,
	})

	var handler http.Handler = mux
	handler = corsHandler.Handler(handler)
	handler = middleware.AccessLog(logger, "GET /health/{$}")(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)

	return handler
}
