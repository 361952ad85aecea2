package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solarnotify/internal/config"
	"solarnotify/internal/domain/notification"
	"solarnotify/internal/infra/email"
	"solarnotify/internal/infra/ratelimit"
	"solarnotify/internal/infra/sms"
	"solarnotify/internal/infra/store"
	"solarnotify/internal/infra/template"
	"solarnotify/internal/router"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded", "port", cfg.Server.Port, "mode", cfg.Server.Mode)

	// ==========================================
	// Dependency Injection (Manual Wiring)
	// ==========================================

	// Postgres Store
	pgStore, err := store.NewPostgresStore(cfg.Database.DSN())
	if err != nil {
		slog.Error("failed to initialize postgres store", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()
	slog.Info("postgres store initialized", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)

	// Recipient Rate Limiter
	recipientLimiter := ratelimit.NewRedisRecipientLimiter(
		cfg.Redis.Address,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.RecipientRateLimit.MaxPerHour,
	)
	defer recipientLimiter.Close()
	slog.Info("recipient rate limiter initialized", "max_per_hour", cfg.RecipientRateLimit.MaxPerHour)

	// Template resolution + email rendering
	resolver := template.NewMergeTagResolver(cfg.Brand.Name, cfg.Brand.CurrencyLocale)
	emailRenderer := template.NewHTMLRenderer(cfg.Brand.Name, resolver)

	// Channel senders
	emailSender := email.NewSMTPSender(
		cfg.Email.Host,
		cfg.Email.Port,
		cfg.Email.Username,
		cfg.Email.Password,
		cfg.Email.FromAddress,
		cfg.Brand.Name,
		cfg.Email.ReplyTo,
	)
	smsSender := sms.NewTermiiSender(
		cfg.SMS.APIKey,
		cfg.SMS.SenderID,
		cfg.SMS.BaseURL,
		cfg.SMS.CountryCode,
		cfg.SMS.MaxLength,
	)

	// Service
	notificationService := notification.NewService(
		pgStore,
		pgStore.PreOrders(),
		resolver,
		emailRenderer,
		recipientLimiter,
		emailSender,
		smsSender,
	)

	// Handler
	notificationHandler := notification.NewHandler(notificationService)

	// Router
	r := router.New(cfg, notificationHandler)

	// ==========================================
	// HTTP Server with Graceful Shutdown
	// ==========================================

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Give outstanding requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server exited gracefully")
}
