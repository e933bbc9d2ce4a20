// Command api is the Uvent backend server.
//
// Usage:
//
//	uvent-api
//	API_PORT=8080 uvent-api
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

	"github.com/joho/godotenv"

	"github.com/RevinPahlevi/Uvent-Backend/internal/api"
	"github.com/RevinPahlevi/Uvent-Backend/internal/api/handler"
	"github.com/RevinPahlevi/Uvent-Backend/internal/cache"
	"github.com/RevinPahlevi/Uvent-Backend/internal/config"
	"github.com/RevinPahlevi/Uvent-Backend/internal/db"
	docs "github.com/RevinPahlevi/Uvent-Backend/internal/documentation"
	"github.com/RevinPahlevi/Uvent-Backend/internal/event"
	"github.com/RevinPahlevi/Uvent-Backend/internal/feedback"
	"github.com/RevinPahlevi/Uvent-Backend/internal/maintenance"
	"github.com/RevinPahlevi/Uvent-Backend/internal/notifications"
	"github.com/RevinPahlevi/Uvent-Backend/internal/registration"
	"github.com/RevinPahlevi/Uvent-Backend/internal/scheduler"
	"github.com/RevinPahlevi/Uvent-Backend/internal/user"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Stores and services
	events := event.NewStore(pool.Pool)
	registrations := registration.NewStore(pool.Pool)
	feedbacks := feedback.NewStore(pool.Pool)
	docStore := docs.NewStore(pool.Pool)
	ledger := notifications.NewLedgerStore(pool.Pool)
	users := user.NewService(pool.Pool, cfg.JWTSecret, cfg.JWTExpiration)

	// Push sender (nil when FCM is not configured; gateway degrades to in-app only)
	fcmSender, err := notifications.NewFCMSender(ctx, cfg.FCMCredentialsFile, logger)
	if err != nil {
		logger.Error("Failed to initialize FCM", "error", err)
		os.Exit(1)
	}
	var pusher notifications.Pusher
	if fcmSender != nil {
		pusher = fcmSender
		logger.Info("FCM push delivery enabled")
	} else {
		logger.Info("FCM push delivery disabled (no FIREBASE_CREDENTIALS_FILE)")
	}
	gateway := notifications.NewGateway(ledger, ledger, pusher, logger)

	// Lifecycle scheduler: arms start/end reminders for approved events
	sched := scheduler.New(events, ledger, gateway, scheduler.Config{
		Horizon:           cfg.SchedulerHorizon,
		RecomputeInterval: cfg.RecomputeInterval,
		SweepInterval:     cfg.BackupSweepEvery,
		StartLag:          cfg.SchedulerStartLag,
	}, logger)
	sched.Start(ctx)
	defer sched.Stop()

	// Retention tickers
	go maintenance.Start(ctx, pool.Pool, maintenance.Config{
		CleanupInterval: 30 * time.Minute,
		NotificationTTL: cfg.NotificationTTL,
		StaleTokenAfter: cfg.StaleTokenAfter,
	}, logger)

	// HTTP surface
	appCache := cache.New(cfg.CacheEnabled)
	h := handler.New(handler.Deps{
		Events:        events,
		Registrations: registrations,
		Feedbacks:     feedbacks,
		Docs:          docStore,
		Ledger:        ledger,
		Users:         users,
		Notifier:      gateway,
		DB:            pool,
		Cache:         appCache,
	})
	router := api.NewRouter(api.Deps{
		Handler:  h,
		Verifier: users,
		Config:   cfg,
	})

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting Uvent API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
