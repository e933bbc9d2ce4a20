package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs event queries against Postgres via prepared statements
// registered in internal/db.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Create inserts a pending event and returns its id.
func (s *Store) Create(ctx context.Context, e NewEvent) (int, error) {
	var id int
	err := s.pool.QueryRow(ctx, "insert_event",
		e.Title, e.Type, e.Date, e.TimeStart, e.TimeEnd,
		e.PlatformType, e.LocationDetail, e.Quota, e.ThumbnailURI, e.CreatorID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return id, nil
}

// Approved returns all approved events, newest date first.
func (s *Store) Approved(ctx context.Context) ([]Event, error) {
	return s.queryEvents(ctx, "approved_events")
}

// ByCreator returns every event a user created, regardless of status.
func (s *Store) ByCreator(ctx context.Context, userID int) ([]Event, error) {
	return s.queryEvents(ctx, "events_by_creator", userID)
}

// Pending returns events awaiting admin review, oldest first.
func (s *Store) Pending(ctx context.Context) ([]Event, error) {
	return s.queryEvents(ctx, "pending_events")
}

// ByID returns a single event.
func (s *Store) ByID(ctx context.Context, id int) (*Event, error) {
	rows, err := s.queryEvents(ctx, "event_by_id", id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// SetStatus transitions an event's approval status.
func (s *Store) SetStatus(ctx context.Context, id int, status string) error {
	tag, err := s.pool.Exec(ctx, "set_event_status", id, status)
	if err != nil {
		return fmt.Errorf("set event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --------------------------------------------------------------------------
// Horizon queries (approved events only, soonest transition first)
// --------------------------------------------------------------------------

// EndingBetween returns approved events whose end instant lies in
// (low, high], ascending by end instant.
func (s *Store) EndingBetween(ctx context.Context, low, high time.Time) ([]Event, error) {
	return s.queryEvents(ctx, "events_ending_between", wall(low), wall(high))
}

// AlreadyEnded returns approved events whose end instant is <= asOf.
// Unbounded look-back; the ledger makes repeat processing a no-op.
func (s *Store) AlreadyEnded(ctx context.Context, asOf time.Time) ([]Event, error) {
	return s.queryEvents(ctx, "events_already_ended", wall(asOf))
}

// StartingBetween returns approved events whose start instant lies in
// (low, high], ascending by start instant.
func (s *Store) StartingBetween(ctx context.Context, low, high time.Time) ([]Event, error) {
	return s.queryEvents(ctx, "events_starting_between", wall(low), wall(high))
}

// AlreadyRunning returns approved events with start <= asOf < end.
func (s *Store) AlreadyRunning(ctx context.Context, asOf time.Time) ([]Event, error) {
	return s.queryEvents(ctx, "events_already_running", wall(asOf))
}

// --------------------------------------------------------------------------
// Scan helpers
// --------------------------------------------------------------------------

func (s *Store) queryEvents(ctx context.Context, stmt string, args ...any) ([]Event, error) {
	rows, err := s.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(rows pgx.Rows) (Event, error) {
	var e Event
	err := rows.Scan(
		&e.ID, &e.Title, &e.Type, &e.Date, &e.TimeStart, &e.TimeEnd,
		&e.StartsAt, &e.EndsAt,
		&e.PlatformType, &e.LocationDetail, &e.Quota, &e.ThumbnailURI,
		&e.CreatorID, &e.Status, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return e, ErrNotFound
		}
		return e, fmt.Errorf("scan event: %w", err)
	}
	// Event timestamp columns are zoneless wall-clock values; rebind them to
	// the process's local zone so arithmetic against time.Now() is stable.
	e.StartsAt = asLocal(e.StartsAt)
	e.EndsAt = asLocal(e.EndsAt)
	return e, nil
}

// wall strips the zone from an instant, matching the zoneless date+time
// arithmetic in the horizon statements.
func wall(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

func asLocal(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.Local)
}
