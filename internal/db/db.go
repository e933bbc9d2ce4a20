// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RevinPahlevi/Uvent-Backend/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and scheduler
// layers use. Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Users
		"user_by_email": "SELECT id, name, email, password, phone, is_admin, created_at FROM users WHERE email = $1",
		"user_by_id":    "SELECT id, name, email, password, phone, is_admin, created_at FROM users WHERE id = $1",
		"insert_user":   "INSERT INTO users (name, email, password, phone, is_admin) VALUES ($1, $2, $3, $4, $5) RETURNING id",

		// Events
		"insert_event": `INSERT INTO events
			(title, type, date, time_start, time_end, platform_type, location_detail, quota, thumbnail_uri, creator_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		"approved_events":   eventSelect + " WHERE e.status = 'approved' ORDER BY e.date DESC, e.time_start DESC",
		"events_by_creator": eventSelect + " WHERE e.creator_id = $1 ORDER BY e.date DESC, e.time_start DESC",
		"event_by_id":       eventSelect + " WHERE e.id = $1",
		"pending_events":    eventSelect + " WHERE e.status = 'pending' ORDER BY e.created_at ASC",
		"set_event_status":  "UPDATE events SET status = $2 WHERE id = $1",

		// Event horizon (approved only; instants are date + local time-of-day)
		"events_ending_between": eventSelect + `
			WHERE e.status = 'approved'
			  AND (e.date + e.time_end) > $1
			  AND (e.date + e.time_end) <= $2
			ORDER BY (e.date + e.time_end) ASC
			LIMIT 50`,
		"events_already_ended": eventSelect + `
			WHERE e.status = 'approved'
			  AND (e.date + e.time_end) <= $1
			ORDER BY (e.date + e.time_end) ASC`,
		"events_starting_between": eventSelect + `
			WHERE e.status = 'approved'
			  AND (e.date + e.time_start) > $1
			  AND (e.date + e.time_start) <= $2
			ORDER BY (e.date + e.time_start) ASC
			LIMIT 50`,
		"events_already_running": eventSelect + `
			WHERE e.status = 'approved'
			  AND (e.date + e.time_start) <= $1
			  AND (e.date + e.time_end) > $1
			ORDER BY (e.date + e.time_start) ASC`,

		// Registrations
		"registration_exists": "SELECT id FROM registrations WHERE event_id = $1 AND (user_id = $2 OR nim = $3) LIMIT 1",
		"insert_registration": `INSERT INTO registrations
			(event_id, user_id, name, nim, fakultas, jurusan, email, phone, krs_uri)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		"registrations_by_nim": `SELECT r.id, r.event_id, r.user_id, r.name, r.nim, r.fakultas, r.jurusan,
			r.email, r.phone, r.krs_uri, r.created_at,
			e.title, to_char(e.date, 'YYYY-MM-DD'), to_char(e.time_start, 'HH24:MI'), to_char(e.time_end, 'HH24:MI'),
			e.platform_type, e.location_detail, e.thumbnail_uri
			FROM registrations r
			LEFT JOIN events e ON r.event_id = e.id
			WHERE r.nim = $1
			ORDER BY r.created_at DESC`,
		"registrations_by_user": `SELECT r.id, r.event_id, r.user_id, r.name, r.nim, r.fakultas, r.jurusan,
			r.email, r.phone, r.krs_uri, r.created_at,
			e.title, to_char(e.date, 'YYYY-MM-DD'), to_char(e.time_start, 'HH24:MI'), to_char(e.time_end, 'HH24:MI'),
			e.platform_type, e.location_detail, e.thumbnail_uri
			FROM registrations r
			LEFT JOIN events e ON r.event_id = e.id
			WHERE r.user_id = $1
			ORDER BY r.created_at DESC`,
		"delete_registration": "DELETE FROM registrations WHERE id = $1",
		"nim_taken_for_edit":  "SELECT 1 FROM registrations WHERE event_id = $1 AND nim = $2 AND id <> $3 LIMIT 1",

		// Feedback
		"feedback_exists": "SELECT id FROM feedbacks WHERE event_id = $1 AND user_id = $2 LIMIT 1",
		"insert_feedback": "INSERT INTO feedbacks (event_id, user_id, rating, review, photo_uri) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		"feedback_by_event": `SELECT f.id, f.event_id, f.user_id, f.rating, f.review, f.photo_uri, f.created_at, u.name
			FROM feedbacks f
			LEFT JOIN users u ON f.user_id = u.id
			WHERE f.event_id = $1
			ORDER BY f.created_at DESC`,
		"feedback_owner":  "SELECT user_id FROM feedbacks WHERE id = $1",
		"update_feedback": "UPDATE feedbacks SET rating = COALESCE($2, rating), review = COALESCE($3, review), photo_uri = $4 WHERE id = $1",
		"delete_feedback": "DELETE FROM feedbacks WHERE id = $1",

		// Documentation
		"insert_documentation": "INSERT INTO documentations (event_id, user_id, description, photo_uri) VALUES ($1, $2, $3, $4) RETURNING id",
		"documentation_by_event": `SELECT d.id, d.event_id, d.user_id, d.description, d.photo_uri, d.created_at, u.name
			FROM documentations d
			LEFT JOIN users u ON d.user_id = u.id
			WHERE d.event_id = $1
			ORDER BY d.created_at DESC`,
		"documentation_owner":  "SELECT user_id FROM documentations WHERE id = $1",
		"delete_documentation": "DELETE FROM documentations WHERE id = $1",

		// Notification ledger
		"insert_notification": `INSERT INTO notifications (user_id, title, body, type, related_id, notification_data)
			VALUES ($1, $2, $3, $4, $5, $6)`,
		"notifications_by_user": `SELECT id, title, body, type, related_id, is_read, created_at, notification_data
			FROM notifications
			WHERE user_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3`,
		"unread_count":        "SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE",
		"mark_read":           "UPDATE notifications SET is_read = TRUE WHERE id = $1",
		"mark_all_read":       "UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE",
		"delete_notification": "DELETE FROM notifications WHERE id = $1",

		// Audience resolution (scheduler dedup source of truth)
		"registrants_needing_feedback": `SELECT r.user_id
			FROM registrations r
			WHERE r.event_id = $1
			  AND r.user_id IS NOT NULL
			  AND r.user_id NOT IN (
				SELECT n.user_id FROM notifications n
				WHERE n.type = $2 AND n.related_id = $1
			  )
			  AND r.user_id NOT IN (
				SELECT f.user_id FROM feedbacks f WHERE f.event_id = $1
			  )
			ORDER BY r.user_id`,
		"registrants_needing_reminder": `SELECT r.user_id
			FROM registrations r
			WHERE r.event_id = $1
			  AND r.user_id IS NOT NULL
			  AND r.user_id NOT IN (
				SELECT n.user_id FROM notifications n
				WHERE n.type = $2 AND n.related_id = $1
			  )
			ORDER BY r.user_id`,

		// FCM tokens
		"active_tokens": "SELECT fcm_token FROM user_fcm_tokens WHERE user_id = $1 AND is_active = TRUE",
		"upsert_token": `INSERT INTO user_fcm_tokens (user_id, fcm_token, device_id, device_type, app_version)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (fcm_token) DO UPDATE SET
				user_id = EXCLUDED.user_id,
				device_id = EXCLUDED.device_id,
				device_type = EXCLUDED.device_type,
				app_version = EXCLUDED.app_version,
				is_active = TRUE,
				last_used_at = NOW()`,
		"deactivate_token": "UPDATE user_fcm_tokens SET is_active = FALSE WHERE fcm_token = $1",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}

const eventSelect = `SELECT e.id, e.title, e.type, to_char(e.date, 'YYYY-MM-DD'),
	to_char(e.time_start, 'HH24:MI'), to_char(e.time_end, 'HH24:MI'),
	(e.date + e.time_start) AS starts_at, (e.date + e.time_end) AS ends_at,
	e.platform_type, e.location_detail, e.quota, e.thumbnail_uri, e.creator_id, e.status, e.created_at
	FROM events e`
