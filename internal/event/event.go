// Package event owns the event model and its queries, including the horizon
// queries the lifecycle scheduler recomputes its timers from.
package event

import (
	"errors"
	"time"
)

// Approval statuses. Only approved events participate in scheduling.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ErrNotFound is returned when an event id does not exist.
var ErrNotFound = errors.New("event not found")

// Event is a scheduled activity. Start and end instants combine the calendar
// date with a local time-of-day; StartsAt/EndsAt carry the composed wall-clock
// instants and are what the scheduler compares against.
type Event struct {
	ID             int       `json:"id"`
	Title          string    `json:"title"`
	Type           string    `json:"type"`
	Date           string    `json:"date"` // YYYY-MM-DD
	TimeStart      string    `json:"time_start"`
	TimeEnd        string    `json:"time_end"`
	StartsAt       time.Time `json:"-"`
	EndsAt         time.Time `json:"-"`
	PlatformType   string    `json:"platform_type"`
	LocationDetail string    `json:"location_detail"`
	Quota          int       `json:"quota"`
	ThumbnailURI   *string   `json:"thumbnail_uri"`
	CreatorID      *int      `json:"creator_id"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ended reports whether the event's end instant has passed. An event whose
// end equals now has ended.
func (e Event) Ended(now time.Time) bool {
	return !e.EndsAt.After(now)
}

// Started reports whether the event's start instant has passed.
func (e Event) Started(now time.Time) bool {
	return !e.StartsAt.After(now)
}

// Running reports whether start <= now < end.
func (e Event) Running(now time.Time) bool {
	return e.Started(now) && e.EndsAt.After(now)
}

// NewEvent is the payload for creating an event. Events are created pending
// and become schedulable only after admin approval.
type NewEvent struct {
	Title          string
	Type           string
	Date           string // YYYY-MM-DD
	TimeStart      string // HH:MM
	TimeEnd        string // HH:MM
	PlatformType   string
	LocationDetail string
	Quota          int
	ThumbnailURI   *string
	CreatorID      *int
}
