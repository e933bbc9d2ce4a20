package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerStore persists notification records and answers the audience and
// push-token queries. All statements are prepared in internal/db.
type LedgerStore struct {
	pool *pgxpool.Pool
}

func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// Insert writes one in-app notification. No idempotency key is enforced
// here; the audience query pre-filters already-notified users.
func (s *LedgerStore) Insert(ctx context.Context, rec Record) error {
	data := rec.Data
	if data == nil {
		data = map[string]string{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal notification data: %w", err)
	}

	_, err = s.pool.Exec(ctx, "insert_notification",
		rec.UserID, rec.Title, rec.Body, rec.Kind, rec.RelatedID, payload)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ByUser returns a page of a user's notifications, newest first, plus the
// user's unread count.
func (s *LedgerStore) ByUser(ctx context.Context, userID, limit, offset int) ([]Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.pool.Query(ctx, "notifications_by_user", userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("notifications by user: %w", err)
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		var raw []byte
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Kind, &n.RelatedID, &n.IsRead, &n.CreatedAt, &raw); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &n.Data)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var unread int
	if err := s.pool.QueryRow(ctx, "unread_count", userID).Scan(&unread); err != nil {
		return nil, 0, fmt.Errorf("unread count: %w", err)
	}
	return out, unread, nil
}

// MarkRead flags one notification as read. Returns false when the id does
// not exist.
func (s *LedgerStore) MarkRead(ctx context.Context, id int) (bool, error) {
	tag, err := s.pool.Exec(ctx, "mark_read", id)
	if err != nil {
		return false, fmt.Errorf("mark read: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// MarkAllRead flags every unread notification for a user, returning the
// affected count.
func (s *LedgerStore) MarkAllRead(ctx context.Context, userID int) (int64, error) {
	tag, err := s.pool.Exec(ctx, "mark_all_read", userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Delete removes one notification. Returns false when the id does not exist.
func (s *LedgerStore) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := s.pool.Exec(ctx, "delete_notification", id)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// RegistrantsNeedingReminder resolves the audience for (event, kind):
// non-anonymous registrants minus users already holding a ledger row of this
// kind for the event, and (for feedback reminders) minus users who already
// submitted feedback. Returns an empty slice when there is nothing to do.
func (s *LedgerStore) RegistrantsNeedingReminder(ctx context.Context, eventID int, kind string) ([]int, error) {
	stmt := "registrants_needing_reminder"
	if kind == KindFeedbackReminder {
		stmt = "registrants_needing_feedback"
	}

	rows, err := s.pool.Query(ctx, stmt, eventID, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	defer rows.Close()

	var userIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan registrant: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

// --------------------------------------------------------------------------
// Push token lifecycle
// --------------------------------------------------------------------------

// ActiveTokens returns a user's active push endpoints.
func (s *LedgerStore) ActiveTokens(ctx context.Context, userID int) ([]string, error) {
	rows, err := s.pool.Query(ctx, "active_tokens", userID)
	if err != nil {
		return nil, fmt.Errorf("active tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// SaveToken registers or refreshes a device's FCM token.
func (s *LedgerStore) SaveToken(ctx context.Context, userID int, token string, deviceID, deviceType, appVersion *string) error {
	dt := "android"
	if deviceType != nil && *deviceType != "" {
		dt = *deviceType
	}
	_, err := s.pool.Exec(ctx, "upsert_token", userID, token, deviceID, dt, appVersion)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// DeactivateToken retires an endpoint the push subsystem reported invalid.
func (s *LedgerStore) DeactivateToken(ctx context.Context, token string) error {
	if _, err := s.pool.Exec(ctx, "deactivate_token", token); err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}
	return nil
}
