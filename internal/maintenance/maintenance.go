// Package maintenance runs periodic retention tasks as Go tickers. All
// scheduled work lives in-process since the API is already a persistent,
// long-running service.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Config controls maintenance task intervals and retention windows.
// A zero interval disables the task.
type Config struct {
	CleanupInterval time.Duration // how often retention runs
	NotificationTTL time.Duration // read notifications older than this are purged
	StaleTokenAfter time.Duration // push tokens unused this long are deactivated
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CleanupInterval: 30 * time.Minute,
		NotificationTTL: 30 * 24 * time.Hour,
		StaleTokenAfter: 90 * 24 * time.Hour,
	}
}

// Start launches the retention ticker and blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, pool *pgxpool.Pool, cfg Config, logger *slog.Logger) {
	if cfg.CleanupInterval <= 0 {
		return
	}
	logger.Info("maintenance ticker started",
		"cleanup", cfg.CleanupInterval,
		"notification_ttl", cfg.NotificationTTL,
		"stale_token_after", cfg.StaleTokenAfter)

	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			RunOnce(ctx, pool, cfg, logger)
		case <-ctx.Done():
			logger.Info("maintenance ticker stopped")
			return
		}
	}
}

// RunOnce executes a single retention pass. The CLI uses it for manual sweeps.
func RunOnce(ctx context.Context, pool *pgxpool.Pool, cfg Config, logger *slog.Logger) {
	purgeReadNotifications(ctx, pool, cfg.NotificationTTL, logger)
	deactivateStaleTokens(ctx, pool, cfg.StaleTokenAfter, logger)
}

// purgeReadNotifications drops read notifications past the retention
// window. Unread ones are kept regardless of age.
func purgeReadNotifications(ctx context.Context, pool *pgxpool.Pool, ttl time.Duration, logger *slog.Logger) {
	if ttl <= 0 {
		return
	}
	tag, err := pool.Exec(ctx, `
		DELETE FROM notifications
		WHERE is_read = true
		  AND created_at < NOW() - make_interval(secs => $1)`,
		ttl.Seconds())
	if err != nil {
		logger.Warn("cleanup: purge of read notifications failed", "error", err)
	} else if tag.RowsAffected() > 0 {
		logger.Info("cleanup: purged read notifications", "count", tag.RowsAffected())
	}
}

// deactivateStaleTokens retires push endpoints that have not been refreshed
// recently. Deactivation rather than deletion keeps the device history.
func deactivateStaleTokens(ctx context.Context, pool *pgxpool.Pool, after time.Duration, logger *slog.Logger) {
	if after <= 0 {
		return
	}
	tag, err := pool.Exec(ctx, `
		UPDATE user_fcm_tokens
		SET is_active = false
		WHERE is_active = true
		  AND last_used_at < NOW() - make_interval(secs => $1)`,
		after.Seconds())
	if err != nil {
		logger.Warn("cleanup: stale token deactivation failed", "error", err)
	} else if tag.RowsAffected() > 0 {
		logger.Info("cleanup: deactivated stale push tokens", "count", tag.RowsAffected())
	}
}
