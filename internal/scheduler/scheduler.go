// Package scheduler arms one-shot timers for approved-event lifecycle
// transitions and dispatches the matching reminder when each fires.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RevinPahlevi/Uvent-Backend/internal/event"
	"github.com/RevinPahlevi/Uvent-Backend/internal/metrics"
	"github.com/RevinPahlevi/Uvent-Backend/internal/notifications"
)

// Transition names the lifecycle edge a timer tracks.
type Transition string

const (
	TransitionStart Transition = "start"
	TransitionEnd   Transition = "end"
)

// HorizonStore answers the two questions each transition needs: which
// approved events cross the edge inside a window, and which already have.
type HorizonStore interface {
	StartingBetween(ctx context.Context, low, high time.Time) ([]event.Event, error)
	AlreadyRunning(ctx context.Context, asOf time.Time) ([]event.Event, error)
	EndingBetween(ctx context.Context, low, high time.Time) ([]event.Event, error)
	AlreadyEnded(ctx context.Context, asOf time.Time) ([]event.Event, error)
}

// AudienceStore resolves which registrants still need a given reminder.
type AudienceStore interface {
	RegistrantsNeedingReminder(ctx context.Context, eventID int, kind string) ([]int, error)
}

// Dispatcher fans a composed message out to an audience.
type Dispatcher interface {
	SendMany(ctx context.Context, userIDs []int, title, body, kind string, relatedID int, data map[string]string) notifications.BatchOutcome
}

// Config carries the scheduler cadences. Zero values fall back to defaults.
type Config struct {
	Horizon           time.Duration // how far ahead timers are armed
	RecomputeInterval time.Duration // full timer-set rebuild cadence
	SweepInterval     time.Duration // backup pass over already-past transitions
	StartLag          time.Duration // delay before the first recompute at boot
}

func (c Config) withDefaults() Config {
	if c.Horizon <= 0 {
		c.Horizon = 24 * time.Hour
	}
	if c.RecomputeInterval <= 0 {
		c.RecomputeInterval = 15 * time.Minute
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = 5 * time.Minute
	}
	if c.StartLag < 0 {
		c.StartLag = 0
	}
	return c
}

// Scheduler keeps one in-memory timer set per transition. Timers are a
// latency optimization only: the recompute and the backup sweep re-derive
// everything from the database, so a lost timer delays a reminder by at
// most one sweep interval.
type Scheduler struct {
	events   HorizonStore
	audience AudienceStore
	dispatch Dispatcher
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	timers map[Transition]map[int]*time.Timer

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(events HorizonStore, audience AudienceStore, dispatch Dispatcher, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		events:   events,
		audience: audience,
		dispatch: dispatch,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      time.Now,
		timers: map[Transition]map[int]*time.Timer{
			TransitionStart: {},
			TransitionEnd:   {},
		},
	}
}

// Start launches the recompute and sweep loops. It returns immediately;
// the first recompute runs after the configured start lag so the rest of
// the process can finish booting first.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.recomputeLoop(ctx)
	go s.sweepLoop(ctx)

	s.logger.Info("lifecycle scheduler started",
		"horizon", s.cfg.Horizon,
		"recompute_interval", s.cfg.RecomputeInterval,
		"sweep_interval", s.cfg.SweepInterval)
}

// Stop cancels both loops, waits for them, and releases every armed timer.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for tr, set := range s.timers {
		for id, t := range set {
			t.Stop()
			delete(set, id)
		}
		metrics.TimersArmed.WithLabelValues(string(tr)).Set(0)
	}
	s.logger.Info("lifecycle scheduler stopped")
}

func (s *Scheduler) recomputeLoop(ctx context.Context) {
	defer s.wg.Done()

	select {
	case <-time.After(s.cfg.StartLag):
	case <-ctx.Done():
		return
	}
	s.Recompute(ctx, TransitionStart)
	s.Recompute(ctx, TransitionEnd)

	ticker := time.NewTicker(s.cfg.RecomputeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Recompute(ctx, TransitionStart)
			s.Recompute(ctx, TransitionEnd)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.SweepOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SweepOnce runs a single backup-sweep pass over both transitions. The
// ticker loop and the admin CLI share it.
func (s *Scheduler) SweepOnce(ctx context.Context) {
	s.sweep(ctx, TransitionStart)
	s.sweep(ctx, TransitionEnd)
}

// Recompute rebuilds one transition's timer set from the database: cancel
// everything armed, fire already-past transitions synchronously, then arm
// one timer per event crossing the edge inside the horizon.
func (s *Scheduler) Recompute(ctx context.Context, tr Transition) {
	metrics.SchedulerRecomputes.WithLabelValues(string(tr)).Inc()
	now := s.now()

	s.clearTimers(tr)

	past, upcoming, err := s.window(ctx, tr, now)
	if err != nil {
		metrics.SchedulerErrors.WithLabelValues(string(tr)).Inc()
		s.logger.Error("timer recompute failed", "transition", tr, "error", err)
		return
	}

	for _, e := range past {
		s.deliver(ctx, tr, e)
	}

	armed := 0
	for _, e := range upcoming {
		fireAt := transitionInstant(tr, e)
		delay := fireAt.Sub(now)
		if delay < 0 {
			delay = 0
		}
		s.armTimer(ctx, tr, e, delay)
		armed++
	}

	metrics.TimersArmed.WithLabelValues(string(tr)).Set(float64(armed))
	s.logger.Info("timer set recomputed",
		"transition", tr, "fired_past", len(past), "armed", armed)
}

// sweep covers the already-past branch only. The ledger dedup query makes
// repeat passes over the same event deliver nothing.
func (s *Scheduler) sweep(ctx context.Context, tr Transition) {
	past, err := s.pastEvents(ctx, tr, s.now())
	if err != nil {
		metrics.SchedulerErrors.WithLabelValues(string(tr)).Inc()
		s.logger.Error("backup sweep failed", "transition", tr, "error", err)
		return
	}
	for _, e := range past {
		s.deliver(ctx, tr, e)
	}
}

func (s *Scheduler) window(ctx context.Context, tr Transition, now time.Time) (past, upcoming []event.Event, err error) {
	high := now.Add(s.cfg.Horizon)
	switch tr {
	case TransitionStart:
		if past, err = s.events.AlreadyRunning(ctx, now); err != nil {
			return nil, nil, fmt.Errorf("already running: %w", err)
		}
		if upcoming, err = s.events.StartingBetween(ctx, now, high); err != nil {
			return nil, nil, fmt.Errorf("starting between: %w", err)
		}
	case TransitionEnd:
		if past, err = s.events.AlreadyEnded(ctx, now); err != nil {
			return nil, nil, fmt.Errorf("already ended: %w", err)
		}
		if upcoming, err = s.events.EndingBetween(ctx, now, high); err != nil {
			return nil, nil, fmt.Errorf("ending between: %w", err)
		}
	}
	return past, upcoming, nil
}

func (s *Scheduler) pastEvents(ctx context.Context, tr Transition, now time.Time) ([]event.Event, error) {
	if tr == TransitionStart {
		return s.events.AlreadyRunning(ctx, now)
	}
	return s.events.AlreadyEnded(ctx, now)
}

func (s *Scheduler) armTimer(ctx context.Context, tr Transition, e event.Event, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.timers[tr][e.ID]; ok {
		prev.Stop()
	}
	id := e.ID
	s.timers[tr][id] = time.AfterFunc(delay, func() {
		s.onTimerFire(ctx, tr, id)
	})
}

// onTimerFire re-reads the event window rather than trusting the armed
// snapshot: the event may have been rejected or rescheduled since.
func (s *Scheduler) onTimerFire(ctx context.Context, tr Transition, eventID int) {
	s.mu.Lock()
	delete(s.timers[tr], eventID)
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	past, err := s.pastEvents(ctx, tr, s.now())
	if err != nil {
		metrics.SchedulerErrors.WithLabelValues(string(tr)).Inc()
		s.logger.Error("timer fire lookup failed", "transition", tr, "event_id", eventID, "error", err)
		return
	}
	for _, e := range past {
		if e.ID == eventID {
			s.deliver(ctx, tr, e)
			break
		}
	}

	// Re-arm the transition right away so events created or rescheduled
	// since the last pass do not wait out the recompute cadence.
	if ctx.Err() == nil {
		s.Recompute(ctx, tr)
	}
}

// deliver resolves the audience and dispatches the transition's reminder.
// An empty audience is the normal idempotent outcome on repeat passes.
func (s *Scheduler) deliver(ctx context.Context, tr Transition, e event.Event) {
	kind := transitionKind(tr)

	userIDs, err := s.audience.RegistrantsNeedingReminder(ctx, e.ID, kind)
	if err != nil {
		metrics.SchedulerErrors.WithLabelValues(string(tr)).Inc()
		s.logger.Error("audience resolution failed",
			"transition", tr, "event_id", e.ID, "error", err)
		return
	}
	if len(userIDs) == 0 {
		return
	}

	metrics.SchedulerFires.WithLabelValues(string(tr)).Inc()
	title, body, data := composeMessage(tr, e)
	batch := s.dispatch.SendMany(ctx, userIDs, title, body, kind, e.ID, data)

	s.logger.Info("lifecycle reminder dispatched",
		"transition", tr, "event_id", e.ID, "event_title", e.Title,
		"recipients", len(userIDs), "success", batch.Success, "failed", batch.Failed)
}

func transitionInstant(tr Transition, e event.Event) time.Time {
	if tr == TransitionStart {
		return e.StartsAt
	}
	return e.EndsAt
}

func transitionKind(tr Transition) string {
	if tr == TransitionStart {
		return notifications.KindDocumentationReminder
	}
	return notifications.KindFeedbackReminder
}

func composeMessage(tr Transition, e event.Event) (title, body string, data map[string]string) {
	data = map[string]string{"event_title": e.Title}
	if tr == TransitionStart {
		data["action"] = "add_documentation"
		return "Event Dimulai! 🚀",
			fmt.Sprintf(`Event "%s" telah dimulai! Jangan lupa abadikan momen dan unggah dokumentasimu 📸`, e.Title),
			data
	}
	data["action"] = "add_feedback"
	return "Event Selesai! 🎉",
		fmt.Sprintf(`Event "%s" telah selesai! Berikan feedbackmu 📝`, e.Title),
		data
}

func (s *Scheduler) clearTimers(tr Transition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers[tr] {
		t.Stop()
		delete(s.timers[tr], id)
	}
}
