package event

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.Local)
}

func TestEndedBoundary(t *testing.T) {
	now := at(15, 0)
	tests := []struct {
		name string
		ends time.Time
		want bool
	}{
		{"ended an hour ago", at(14, 0), true},
		{"ends exactly now", at(15, 0), true},
		{"ends one minute from now", at(15, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{EndsAt: tt.ends}
			if got := e.Ended(now); got != tt.want {
				t.Errorf("Ended() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunningWindow(t *testing.T) {
	now := at(15, 0)
	tests := []struct {
		name   string
		starts time.Time
		ends   time.Time
		want   bool
	}{
		{"mid event", at(14, 0), at(16, 0), true},
		{"starts exactly now", at(15, 0), at(16, 0), true},
		{"ends exactly now", at(13, 0), at(15, 0), false},
		{"not started yet", at(16, 0), at(18, 0), false},
		{"already over", at(10, 0), at(12, 0), false},
		{
			// spans midnight: started yesterday evening, ends tonight
			"spans midnight",
			time.Date(2026, 3, 13, 22, 0, 0, 0, time.Local),
			time.Date(2026, 3, 14, 16, 0, 0, 0, time.Local),
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Event{StartsAt: tt.starts, EndsAt: tt.ends}
			if got := e.Running(now); got != tt.want {
				t.Errorf("Running() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWallStripsZone(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	in := time.Date(2026, 3, 14, 9, 30, 0, 0, loc)
	got := wall(in)
	if got.Hour() != 9 || got.Minute() != 30 {
		t.Errorf("wall() = %v, want 09:30 wall clock preserved", got)
	}
	if got.Location() != time.UTC {
		t.Errorf("wall() location = %v, want UTC", got.Location())
	}
}
