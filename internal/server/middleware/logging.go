package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// unmatchedRoute подставляется, когда ServeMux не нашел подходящий шаблон
const unmatchedRoute = "unmatched"

// statusRecorder запоминает код ответа и число записанных байт
type statusRecorder struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.status = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.size += int64(n)
	return n, err
}

// Unwrap открывает исходный writer для http.ResponseController
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// AccessLog пишет одну запись на запрос: метод, шаблон маршрута, статус,
// длительность и размер ответа.
//
// Логируется шаблон из ServeMux (например "PUT /books/{id}/update/{$}"),
// а не r.URL.Path. Заголовки, query string и тело не логируются.
// Маршруты из quiet (по шаблону) не логируются, если ответ успешный.
func AccessLog(logger *slog.Logger, quiet ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(quiet))
	for _, route := range quiet {
		skip[route] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			// ServeMux заполняет r.Pattern у того же *http.Request
			route := r.Pattern
			if route == "" {
				route = unmatchedRoute
			}

			level := levelForStatus(rec.status)
			if _, ok := skip[route]; ok && level == slog.LevelInfo {
				return
			}

			logger.LogAttrs(r.Context(), level, "HTTP request",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.size),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
