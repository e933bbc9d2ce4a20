// Package registration handles event enrollment. Registrations may be
// anonymous (no user id); anonymous rows never receive notifications.
package registration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicate means the user or NIM is already registered for the event.
	ErrDuplicate = errors.New("already registered for this event")
	// ErrNotFound is returned when a registration id does not exist.
	ErrNotFound = errors.New("registration not found")
)

// Registration is one participant's enrollment, joined with a summary of the
// event it belongs to.
type Registration struct {
	ID        int       `json:"registration_id"`
	EventID   int       `json:"event_id"`
	UserID    *int      `json:"user_id"`
	Name      string    `json:"name"`
	NIM       string    `json:"nim"`
	Fakultas  string    `json:"fakultas"`
	Jurusan   string    `json:"jurusan"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	KRSURI    *string   `json:"krs_uri"`
	CreatedAt time.Time `json:"created_at"`

	EventTitle     *string `json:"event_title"`
	EventDate      *string `json:"date"`
	TimeStart      *string `json:"time_start"`
	TimeEnd        *string `json:"time_end"`
	PlatformType   *string `json:"platform_type"`
	LocationDetail *string `json:"location_detail"`
	ThumbnailURI   *string `json:"thumbnail_uri"`
}

// NewRegistration is the enrollment payload.
type NewRegistration struct {
	EventID  int
	UserID   *int
	Name     string
	NIM      string
	Fakultas string
	Jurusan  string
	Email    string
	Phone    string
	KRSURI   *string
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create enrolls a participant, rejecting duplicates by user id or NIM.
func (s *Store) Create(ctx context.Context, r NewRegistration) (int, error) {
	var existing int
	err := s.pool.QueryRow(ctx, "registration_exists", r.EventID, r.UserID, r.NIM).Scan(&existing)
	if err == nil {
		return 0, ErrDuplicate
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("check registration: %w", err)
	}

	var id int
	err = s.pool.QueryRow(ctx, "insert_registration",
		r.EventID, r.UserID, r.Name, r.NIM, r.Fakultas, r.Jurusan, r.Email, r.Phone, r.KRSURI,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert registration: %w", err)
	}
	return id, nil
}

// ByNIM returns a student's registrations, newest first.
func (s *Store) ByNIM(ctx context.Context, nim string) ([]Registration, error) {
	return s.query(ctx, "registrations_by_nim", nim)
}

// ByUser returns a user's registrations, newest first.
func (s *Store) ByUser(ctx context.Context, userID int) ([]Registration, error) {
	return s.query(ctx, "registrations_by_user", userID)
}

// Cancel removes a registration.
func (s *Store) Cancel(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, "delete_registration", id)
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NIMAvailableForEdit reports whether a NIM is free for an event, ignoring
// the registration being edited.
func (s *Store) NIMAvailableForEdit(ctx context.Context, eventID int, nim string, registrationID int) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, "nim_taken_for_edit", eventID, nim, registrationID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check nim: %w", err)
	}
	return false, nil
}

func (s *Store) query(ctx context.Context, stmt string, args ...any) ([]Registration, error) {
	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	defer rows.Close()

	var out []Registration
	for rows.Next() {
		var r Registration
		if err := rows.Scan(
			&r.ID, &r.EventID, &r.UserID, &r.Name, &r.NIM, &r.Fakultas, &r.Jurusan,
			&r.Email, &r.Phone, &r.KRSURI, &r.CreatedAt,
			&r.EventTitle, &r.EventDate, &r.TimeStart, &r.TimeEnd,
			&r.PlatformType, &r.LocationDetail, &r.ThumbnailURI,
		); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
