// Package docs stores post-event photos and notes uploaded by participants
// after the documentation reminder fires. The package is deliberately not
// named after its directory: go/build ignores files declaring "package
// documentation".
package docs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound  = errors.New("documentation not found")
	ErrForbidden = errors.New("documentation belongs to another user")
)

type Documentation struct {
	ID          int       `json:"id"`
	EventID     int       `json:"event_id"`
	UserID      int       `json:"user_id"`
	Description *string   `json:"description"`
	PhotoURI    *string   `json:"photo_uri"`
	CreatedAt   time.Time `json:"created_at"`
	UserName    *string   `json:"user_name"`
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, eventID, userID int, description, photoURI *string) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx, "insert_documentation", eventID, userID, description, photoURI).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert documentation: %w", err)
	}
	return id, nil
}

func (s *Store) ByEvent(ctx context.Context, eventID int) ([]Documentation, error) {
	rows, err := s.pool.Query(ctx, "documentation_by_event", eventID)
	if err != nil {
		return nil, fmt.Errorf("documentation by event: %w", err)
	}
	defer rows.Close()

	var out []Documentation
	for rows.Next() {
		var d Documentation
		if err := rows.Scan(&d.ID, &d.EventID, &d.UserID, &d.Description, &d.PhotoURI, &d.CreatedAt, &d.UserName); err != nil {
			return nil, fmt.Errorf("scan documentation: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id, userID int) error {
	var owner int
	err := s.pool.QueryRow(ctx, "documentation_owner", id).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("documentation owner: %w", err)
	}
	if owner != userID {
		return ErrForbidden
	}
	if _, err := s.pool.Exec(ctx, "delete_documentation", id); err != nil {
		return fmt.Errorf("delete documentation: %w", err)
	}
	return nil
}
