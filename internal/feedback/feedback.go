// Package feedback stores post-event reviews. A feedback row for
// (event, user) suppresses further feedback reminders to that user.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicate means the user already reviewed this event.
	ErrDuplicate = errors.New("feedback already submitted for this event")
	// ErrNotFound is returned when a feedback id does not exist.
	ErrNotFound = errors.New("feedback not found")
	// ErrForbidden means the caller does not own the feedback row.
	ErrForbidden = errors.New("feedback belongs to another user")
)

type Feedback struct {
	ID        int       `json:"id"`
	EventID   int       `json:"event_id"`
	UserID    int       `json:"user_id"`
	Rating    int       `json:"rating"`
	Review    *string   `json:"review"`
	PhotoURI  *string   `json:"photo_uri"`
	CreatedAt time.Time `json:"created_at"`
	UserName  *string   `json:"user_name"`
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a review, one per (event, user).
func (s *Store) Create(ctx context.Context, eventID, userID, rating int, review, photoURI *string) (int, error) {
	var existing int
	err := s.pool.QueryRow(ctx, "feedback_exists", eventID, userID).Scan(&existing)
	if err == nil {
		return 0, ErrDuplicate
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("check feedback: %w", err)
	}

	var id int
	err = s.pool.QueryRow(ctx, "insert_feedback", eventID, userID, rating, review, photoURI).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert feedback: %w", err)
	}
	return id, nil
}

// ByEvent lists reviews for an event, newest first.
func (s *Store) ByEvent(ctx context.Context, eventID int) ([]Feedback, error) {
	rows, err := s.pool.Query(ctx, "feedback_by_event", eventID)
	if err != nil {
		return nil, fmt.Errorf("feedback by event: %w", err)
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.EventID, &f.UserID, &f.Rating, &f.Review, &f.PhotoURI, &f.CreatedAt, &f.UserName); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update edits a review after verifying ownership. Nil rating/review keep
// the current value; photoURI always overwrites.
func (s *Store) Update(ctx context.Context, id, userID int, rating *int, review, photoURI *string) error {
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "update_feedback", id, rating, review, photoURI); err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return nil
}

// Delete removes a review after verifying ownership.
func (s *Store) Delete(ctx context.Context, id, userID int) error {
	if err := s.checkOwner(ctx, id, userID); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "delete_feedback", id); err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	return nil
}

func (s *Store) checkOwner(ctx context.Context, id, userID int) error {
	var owner int
	err := s.pool.QueryRow(ctx, "feedback_owner", id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("feedback owner: %w", err)
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}
