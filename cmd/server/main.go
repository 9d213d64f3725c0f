package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iudanet/bookshelf/internal/config"
	"github.com/iudanet/bookshelf/internal/server"
	"github.com/iudanet/bookshelf/internal/server/jwt"
	"github.com/iudanet/bookshelf/internal/server/storage/sqlite"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", "error", err)
		}
	}()

	// Просроченные refresh токены больше не нужны ни для проверки, ни для logout
	purged, err := store.DeleteExpiredTokens(ctx, time.Now())
	if err != nil {
		logger.Warn("failed to purge expired tokens", "error", err)
	} else if purged > 0 {
		logger.Info("purged expired tokens", "count", purged)
	}

	tokens := jwt.NewService(cfg.SecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, store)

	srv, err := server.New(logger, server.Config{
		Addr:               cfg.Addr,
		Version:            Version,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		TrustedProxies:     cfg.TrustedProxies,
		AuthRateLimit:      cfg.AuthRateLimit,
		AuthRateWindow:     cfg.AuthRateWindow,
	}, store, tokens)
	if err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	logger.Info("Bookshelf server starting",
		"addr", cfg.Addr,
		"db", cfg.DBPath,
		"version", Version,
	)

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server stopped: %w", err)
	}

	logger.Info("Bookshelf server stopped")
	return nil
}

func printVersion() {
	fmt.Printf("Bookshelf Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
