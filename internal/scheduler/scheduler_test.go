package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/RevinPahlevi/Uvent-Backend/internal/event"
	"github.com/RevinPahlevi/Uvent-Backend/internal/notifications"
)

type fakeHorizon struct {
	mu          sync.Mutex
	running     []event.Event
	starting    []event.Event
	ended       []event.Event
	ending      []event.Event
	endingCalls int
}

func (f *fakeHorizon) AlreadyRunning(context.Context, time.Time) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, nil
}

func (f *fakeHorizon) StartingBetween(context.Context, time.Time, time.Time) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starting, nil
}

func (f *fakeHorizon) AlreadyEnded(context.Context, time.Time) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ended, nil
}

func (f *fakeHorizon) EndingBetween(context.Context, time.Time, time.Time) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endingCalls++
	return f.ending, nil
}

func (f *fakeHorizon) endingQueries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.endingCalls
}

// setEnding replaces the upcoming end window, the way a freshly approved
// event would appear between passes.
func (f *fakeHorizon) setEnding(es ...event.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ending = es
}

// markEnded moves an upcoming end transition into the past branch, the way
// the passage of real time would.
func (f *fakeHorizon) markEnded(e event.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ending = nil
	f.ended = []event.Event{e}
}

type fakeAudience struct {
	mu        sync.Mutex
	audiences map[string][]int // kind -> user ids; drained on first read per kind
	calls     []string
}

func (f *fakeAudience) RegistrantsNeedingReminder(_ context.Context, eventID int, kind string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, kind)
	ids := f.audiences[kind]
	delete(f.audiences, kind) // ledger dedup: a delivered audience empties out
	return ids, nil
}

type dispatched struct {
	userIDs []int
	title   string
	body    string
	kind    string
	related int
	data    map[string]string
}

type fakeDispatcher struct {
	mu    sync.Mutex
	sent  []dispatched
	fired chan dispatched
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{fired: make(chan dispatched, 16)}
}

func (f *fakeDispatcher) SendMany(_ context.Context, userIDs []int, title, body, kind string, relatedID int, data map[string]string) notifications.BatchOutcome {
	d := dispatched{userIDs: userIDs, title: title, body: body, kind: kind, related: relatedID, data: data}
	f.mu.Lock()
	f.sent = append(f.sent, d)
	f.mu.Unlock()
	f.fired <- d
	return notifications.BatchOutcome{Success: len(userIDs)}
}

func (f *fakeDispatcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventAt(id int, title string, start, end time.Time) event.Event {
	return event.Event{ID: id, Title: title, StartsAt: start, EndsAt: end}
}

func newTestScheduler(h *fakeHorizon, a *fakeAudience, d *fakeDispatcher, at time.Time) *Scheduler {
	s := New(h, a, d, Config{Horizon: 24 * time.Hour}, discard())
	s.now = func() time.Time { return at }
	return s
}

func waitDispatch(t *testing.T, d *fakeDispatcher) dispatched {
	t.Helper()
	select {
	case got := <-d.fired:
		return got
	case <-time.After(2 * time.Second):
		t.Fatal("no dispatch within 2s")
		return dispatched{}
	}
}

func TestRecomputeFiresAlreadyPastSynchronously(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	ev := eventAt(1, "Seminar AI", now.Add(-2*time.Hour), now.Add(-time.Hour))

	h := &fakeHorizon{ended: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{notifications.KindFeedbackReminder: {4, 7}}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.Recompute(context.Background(), TransitionEnd)

	if d.count() != 1 {
		t.Fatalf("dispatches = %d, want 1", d.count())
	}
	got := d.sent[0]
	if got.kind != notifications.KindFeedbackReminder {
		t.Errorf("kind = %q", got.kind)
	}
	if got.title != "Event Selesai! 🎉" {
		t.Errorf("title = %q", got.title)
	}
	if want := `Event "Seminar AI" telah selesai! Berikan feedbackmu 📝`; got.body != want {
		t.Errorf("body = %q, want %q", got.body, want)
	}
	if got.data["action"] != "add_feedback" || got.data["event_title"] != "Seminar AI" {
		t.Errorf("data = %v", got.data)
	}
	if got.related != 1 || len(got.userIDs) != 2 {
		t.Errorf("related = %d, users = %v", got.related, got.userIDs)
	}
}

func TestRecomputeStartTransitionMessage(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	ev := eventAt(2, "Workshop Robotik", now.Add(-time.Minute), now.Add(time.Hour))

	h := &fakeHorizon{running: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{notifications.KindDocumentationReminder: {9}}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.Recompute(context.Background(), TransitionStart)

	got := waitDispatch(t, d)
	if got.kind != notifications.KindDocumentationReminder {
		t.Errorf("kind = %q", got.kind)
	}
	if got.title != "Event Dimulai! 🚀" {
		t.Errorf("title = %q", got.title)
	}
	if want := `Event "Workshop Robotik" telah dimulai! Jangan lupa abadikan momen dan unggah dokumentasimu 📸`; got.body != want {
		t.Errorf("body = %q, want %q", got.body, want)
	}
	if got.data["action"] != "add_documentation" {
		t.Errorf("data = %v", got.data)
	}
}

func TestTimerFiresAtTransitionInstant(t *testing.T) {
	now := time.Now()
	ev := eventAt(3, "Lomba Poster", now.Add(-time.Hour), now.Add(80*time.Millisecond))

	h := &fakeHorizon{ending: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{notifications.KindFeedbackReminder: {1}}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.Recompute(context.Background(), TransitionEnd)
	if d.count() != 0 {
		t.Fatal("dispatched before the transition instant")
	}

	// By the time the timer fires the event has crossed into the past branch.
	h.markEnded(ev)
	got := waitDispatch(t, d)
	if got.related != 3 {
		t.Errorf("related = %d, want 3", got.related)
	}
	s.Stop()
}

func TestTimerFireTriggersRecompute(t *testing.T) {
	now := time.Now()
	ev := eventAt(6, "Workshop Go", now.Add(-time.Hour), now.Add(80*time.Millisecond))
	late := eventAt(9, "Kajian Rutin", now.Add(time.Hour), now.Add(2*time.Hour))

	h := &fakeHorizon{ending: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{notifications.KindFeedbackReminder: {2}}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.Recompute(context.Background(), TransitionEnd)
	if got := h.endingQueries(); got != 1 {
		t.Fatalf("ending queries after initial recompute = %d, want 1", got)
	}

	// An event approved after the pass must be picked up by the recompute
	// the fire triggers, not wait out the next cadence tick.
	h.markEnded(ev)
	h.setEnding(late)

	waitDispatch(t, d)

	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		_, armed := s.timers[TransitionEnd][late.ID]
		s.mu.Unlock()
		if armed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no timer armed for the late event after the fire")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := h.endingQueries(); got < 2 {
		t.Errorf("ending queries after fire = %d, want >= 2", got)
	}
	s.Stop()
}

func TestEmptyAudienceDispatchesNothing(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	ev := eventAt(4, "Bazar Kampus", now.Add(-3*time.Hour), now.Add(-time.Hour))

	h := &fakeHorizon{ended: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.Recompute(context.Background(), TransitionEnd)

	if d.count() != 0 {
		t.Errorf("dispatches = %d, want 0 for an empty audience", d.count())
	}
	if len(a.calls) != 1 || a.calls[0] != notifications.KindFeedbackReminder {
		t.Errorf("audience calls = %v", a.calls)
	}
}

func TestRepeatSweepIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	ev := eventAt(5, "Seminar AI", now.Add(-3*time.Hour), now.Add(-time.Hour))

	h := &fakeHorizon{ended: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{notifications.KindFeedbackReminder: {2}}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.sweep(context.Background(), TransitionEnd)
	s.sweep(context.Background(), TransitionEnd)
	s.sweep(context.Background(), TransitionEnd)

	if d.count() != 1 {
		t.Errorf("dispatches = %d, want exactly 1 across repeat sweeps", d.count())
	}
}

func TestSweepOnceCoversBothTransitions(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	running := eventAt(11, "Bazar Kampus", now.Add(-time.Minute), now.Add(2*time.Hour))
	ended := eventAt(12, "Webinar Karir", now.Add(-5*time.Hour), now.Add(-time.Hour))

	h := &fakeHorizon{running: []event.Event{running}, ended: []event.Event{ended}}
	a := &fakeAudience{audiences: map[string][]int{
		notifications.KindDocumentationReminder: {3},
		notifications.KindFeedbackReminder:      {3},
	}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.SweepOnce(context.Background())

	if d.count() != 2 {
		t.Fatalf("dispatches = %d, want one per transition", d.count())
	}
}

func TestRecomputeReplacesArmedTimers(t *testing.T) {
	now := time.Now()
	ev := eventAt(6, "Pentas Seni", now.Add(-time.Hour), now.Add(60*time.Millisecond))

	h := &fakeHorizon{ending: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{notifications.KindFeedbackReminder: {1}}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.Recompute(context.Background(), TransitionEnd)

	// The event gets rejected before its timer fires: the next recompute
	// must drop the armed timer.
	h.mu.Lock()
	h.ending = nil
	h.mu.Unlock()
	s.Recompute(context.Background(), TransitionEnd)

	time.Sleep(150 * time.Millisecond)
	if d.count() != 0 {
		t.Errorf("dispatches = %d, want 0 after the timer was replaced", d.count())
	}
}

func TestTransitionsAreIndependent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	running := eventAt(7, "Kelas Fotografi", now.Add(-time.Minute), now.Add(2*time.Hour))
	ended := eventAt(8, "Donor Darah", now.Add(-5*time.Hour), now.Add(-time.Hour))

	h := &fakeHorizon{running: []event.Event{running}, ended: []event.Event{ended}}
	a := &fakeAudience{audiences: map[string][]int{
		notifications.KindDocumentationReminder: {1},
		notifications.KindFeedbackReminder:      {1},
	}}
	d := newFakeDispatcher()
	s := newTestScheduler(h, a, d, now)

	s.Recompute(context.Background(), TransitionStart)
	s.Recompute(context.Background(), TransitionEnd)

	if d.count() != 2 {
		t.Fatalf("dispatches = %d, want 2", d.count())
	}
	kinds := map[string]int{}
	for _, sent := range d.sent {
		kinds[sent.kind]++
	}
	if kinds[notifications.KindDocumentationReminder] != 1 || kinds[notifications.KindFeedbackReminder] != 1 {
		t.Errorf("kinds = %v", kinds)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	now := time.Now()
	ev := eventAt(9, "Seminar AI", now.Add(-2*time.Hour), now.Add(-time.Hour))

	h := &fakeHorizon{ended: []event.Event{ev}}
	a := &fakeAudience{audiences: map[string][]int{notifications.KindFeedbackReminder: {3}}}
	d := newFakeDispatcher()
	s := New(h, a, d, Config{
		Horizon:           24 * time.Hour,
		RecomputeInterval: time.Hour,
		SweepInterval:     time.Hour,
		StartLag:          time.Millisecond,
	}, discard())

	s.Start(context.Background())
	waitDispatch(t, d)
	s.Stop()

	if d.count() != 1 {
		t.Errorf("dispatches = %d, want 1", d.count())
	}
}
