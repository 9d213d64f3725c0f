package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv сбрасывает все переменные конфигурации на время теста
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SECRET_KEY", "ADDR", "DB_PATH", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"CORS_ALLOWED_ORIGINS", "LOG_LEVEL", "AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW",
		"TRUSTED_PROXIES",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.SecretKey)
	assert.Equal(t, ":8000", cfg.Addr)
	assert.Equal(t, "bookshelf.db", cfg.DBPath)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 10, cfg.AuthRateLimit)
	assert.Equal(t, time.Minute, cfg.AuthRateWindow)
	assert.Empty(t, cfg.TrustedProxies)
	assert.False(t, cfg.ShowVersion)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ADDR", ":9000")
	t.Setenv("DB_PATH", "/tmp/books.db")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "24h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example ,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTH_RATE_LIMIT", "3")
	t.Setenv("AUTH_RATE_WINDOW", "30s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 172.16.0.0/12")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/tmp/books.db", cfg.DBPath)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 3, cfg.AuthRateLimit)
	assert.Equal(t, 30*time.Second, cfg.AuthRateWindow)
	assert.Equal(t, []string{"10.0.0.1", "172.16.0.0/12"}, cfg.TrustedProxies)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cret")
	t.Setenv("ADDR", ":9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1")

	cfg, err := Load([]string{"-addr", ":7000", "-log-level", "warn", "-db", "other.db", "-access-ttl", "1m", "-trusted-proxies", "127.0.0.1,::1"})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "other.db", cfg.DBPath)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel)
	assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"127.0.0.1", "::1"}, cfg.TrustedProxies)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv не перезаписывает заданные переменные, поэтому удаляем их совсем
	require.NoError(t, os.Unsetenv("SECRET_KEY"))
	require.NoError(t, os.Unsetenv("ADDR"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET_KEY=from-dotenv\nADDR=:1111\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.local"), []byte("ADDR=:2222\n"), 0o600))
	t.Chdir(dir)

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.SecretKey)
	assert.Equal(t, ":2222", cfg.Addr, ".env.local takes precedence over .env")
}

func TestLoad_MalformedEnvFile(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.Unsetenv("SECRET_KEY"))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SECRET_KEY=\"unterminated\n"), 0o600))
	t.Chdir(dir)

	cfg, err := Load(nil)
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), ".env")
	assert.NotErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{
			name: "missing secret",
			env:  map[string]string{},
		},
		{
			name: "invalid duration",
			env:  map[string]string{"SECRET_KEY": "s", "ACCESS_TOKEN_TTL": "fifteen"},
		},
		{
			name: "invalid rate limit",
			env:  map[string]string{"SECRET_KEY": "s", "AUTH_RATE_LIMIT": "many"},
		},
		{
			name: "zero rate limit",
			env:  map[string]string{"SECRET_KEY": "s", "AUTH_RATE_LIMIT": "0"},
		},
		{
			name: "refresh shorter than access",
			env:  map[string]string{"SECRET_KEY": "s", "ACCESS_TOKEN_TTL": "1h", "REFRESH_TOKEN_TTL": "30m"},
		},
		{
			name: "invalid log level",
			env:  map[string]string{"SECRET_KEY": "s", "LOG_LEVEL": "loud"},
		},
		{
			name: "unknown flag",
			env:  map[string]string{"SECRET_KEY": "s"},
			args: []string{"-unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load(tt.args)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load(nil)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_VersionSkipsValidation(t *testing.T) {
	clearEnv(t)

	cfg, err := Load([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, cfg.ShowVersion)
}
