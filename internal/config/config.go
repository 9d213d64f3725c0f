// Package config загружает настройки сервера из .env файлов,
// переменных окружения и флагов командной строки.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingSecret возвращается, если не задан SECRET_KEY
var ErrMissingSecret = errors.New("SECRET_KEY is required")

// Config содержит настройки сервера
type Config struct {
	CORSAllowedOrigins []string      // разрешенные origin для CORS
	TrustedProxies     []string      // прокси (IP или CIDR), чьим X-Forwarded-For можно верить
	SecretKey          string        // секрет подписи JWT (HS256)
	Addr               string        // адрес HTTP сервера
	DBPath             string        // путь к файлу SQLite
	AccessTokenTTL     time.Duration // время жизни access token
	RefreshTokenTTL    time.Duration // время жизни refresh token
	AuthRateWindow     time.Duration // окно rate limit для /login/ и /register/
	AuthRateLimit      int           // запросов в окне с одного IP
	LogLevel           slog.Level    // уровень логирования
	ShowVersion        bool          // -version: вывести версию и выйти
}

// Load читает конфигурацию. Приоритет: флаги > окружение > .env.local > .env > значения по умолчанию.
// args - аргументы командной строки без имени программы.
func Load(args []string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		SecretKey: os.Getenv("SECRET_KEY"),
		Addr:      getEnv("ADDR", ":8000"),
		DBPath:    getEnv("DB_PATH", "bookshelf.db"),
	}

	var err error
	if cfg.AccessTokenTTL, err = getEnvAsDuration("ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RefreshTokenTTL, err = getEnvAsDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.AuthRateWindow, err = getEnvAsDuration("AUTH_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = getEnvAsInt("AUTH_RATE_LIMIT", 10); err != nil {
		return nil, err
	}

	origins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	proxies := os.Getenv("TRUSTED_PROXIES")
	logLevel := getEnv("LOG_LEVEL", "info")

	fs := flag.NewFlagSet("bookshelf-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address (env ADDR)")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "path to SQLite database (env DB_PATH)")
	fs.StringVar(&origins, "cors-origins", origins, "comma-separated CORS allowed origins (env CORS_ALLOWED_ORIGINS)")
	fs.StringVar(&proxies, "trusted-proxies", proxies, "comma-separated proxy IPs or CIDRs allowed to set X-Forwarded-For (env TRUSTED_PROXIES)")
	fs.StringVar(&logLevel, "log-level", logLevel, "log level: debug, info, warn, error (env LOG_LEVEL)")
	fs.DurationVar(&cfg.AccessTokenTTL, "access-ttl", cfg.AccessTokenTTL, "access token lifetime (env ACCESS_TOKEN_TTL)")
	fs.DurationVar(&cfg.RefreshTokenTTL, "refresh-ttl", cfg.RefreshTokenTTL, "refresh token lifetime (env REFRESH_TOKEN_TTL)")
	fs.IntVar(&cfg.AuthRateLimit, "auth-rate-limit", cfg.AuthRateLimit, "login/register requests per window per IP (env AUTH_RATE_LIMIT)")
	fs.DurationVar(&cfg.AuthRateWindow, "auth-rate-window", cfg.AuthRateWindow, "login/register rate limit window (env AUTH_RATE_WINDOW)")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "show version information")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}

	cfg.CORSAllowedOrigins = splitList(origins)
	cfg.TrustedProxies = splitList(proxies)

	if cfg.ShowVersion {
		return cfg, nil
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные и взаимосвязанные параметры
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecret
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive, got %s", c.AccessTokenTTL)
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("refresh token TTL (%s) must be longer than access token TTL (%s)", c.RefreshTokenTTL, c.AccessTokenTTL)
	}
	if c.AuthRateLimit < 1 {
		return fmt.Errorf("auth rate limit must be at least 1, got %d", c.AuthRateLimit)
	}
	if c.AuthRateWindow <= 0 {
		return fmt.Errorf("auth rate window must be positive, got %s", c.AuthRateWindow)
	}
	return nil
}

// loadEnvFiles загружает .env.local и .env, если они существуют.
// Уже заданные переменные окружения не перезаписываются.
// Отсутствующий файл не ошибка, а синтаксически битый - ошибка.
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// getEnv возвращает переменную окружения или значение по умолчанию
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
