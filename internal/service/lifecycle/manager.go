package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
)

// Scheduler arms and cancels alarm timers.
type Scheduler interface {
	ScheduleNext(ctx context.Context) (*alarm.Resolved, error)
	ScheduleAt(ctx context.Context, id int64, at time.Time) error
	Cancel(ctx context.Context, id int64) error
	Armed() (alarm.Resolved, bool)
}

// Repository is the part of the alarm storage the lifecycle mutates.
type Repository interface {
	ByID(ctx context.Context, id int64) (*alarm.Definition, error)
	UpdateEnabled(ctx context.Context, id int64, enabled bool) error
	Delete(ctx context.Context, id int64) error
}

// RingHook is notified when an alarm starts firing.
type RingHook func(ctx context.Context, episode Episode, def *alarm.Definition)

// Manager owns the lifecycle of every alarm episode.
type Manager struct {
	// scheduler arms the timer slot.
	scheduler Scheduler
	// repo stores alarm definitions.
	repo Repository
	// now returns the current time.
	now func() time.Time
	// ring is notified when an alarm fires.
	ring RingHook

	// mu protects episodes.
	mu sync.Mutex
	// episodes maps alarm IDs to their current episode.
	episodes map[int64]*Episode
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the clock used for snooze instants.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRingHook sets the callback notified when an alarm starts firing.
func WithRingHook(hook RingHook) Option {
	return func(m *Manager) {
		m.ring = hook
	}
}

// NewManager creates a lifecycle manager.
func NewManager(scheduler Scheduler, repo Repository, opts ...Option) *Manager {
	m := &Manager{
		scheduler: scheduler,
		repo:      repo,
		now:       time.Now,
		episodes:  make(map[int64]*Episode),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// ScheduleNext runs a scheduling pass and starts a fresh episode for the
// winner. While the slot holds a pending snooze the pass is deferred so the
// snooze timer stays armed; dismissing the alarm runs the pass.
func (m *Manager) ScheduleNext(ctx context.Context) (*alarm.Resolved, error) {
	if snoozed, ok := m.snoozed(ctx); ok {
		logger.DebugKV(ctx, "Scheduling pass deferred by snoozed alarm",
			"snoozed_id", snoozed.ID,
			"until", snoozed.TriggerAt.Format(time.RFC3339))

		return &snoozed, nil
	}

	next, err := m.scheduler.ScheduleNext(ctx)
	if err != nil || next == nil {
		return next, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// A ringing alarm keeps its episode until it is snoozed or dismissed.
	if current, ok := m.episodes[next.ID]; ok && current.State == StateFiring {
		return next, nil
	}

	m.episodes[next.ID] = &Episode{
		ID:    next.ID,
		State: StateScheduled,
		Until: next.TriggerAt,
	}

	return next, nil
}

// ScheduleAt arms the alarm for an explicit instant. The single slot no
// longer holds any other alarm's snooze afterwards, so such episodes end.
func (m *Manager) ScheduleAt(ctx context.Context, id int64, at time.Time) error {
	if err := m.scheduler.ScheduleAt(ctx, id, at); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for otherID, current := range m.episodes {
		if otherID != id && current.State == StateSnoozed {
			demote(current)
		}
	}

	return nil
}

// Cancel removes the timer of the alarm and forgets its episode unless it is ringing.
func (m *Manager) Cancel(ctx context.Context, id int64) error {
	if err := m.scheduler.Cancel(ctx, id); err != nil {
		return err
	}

	m.forget(id)

	return nil
}

// OnFire moves the alarm into the firing state. It is the timer callback.
func (m *Manager) OnFire(ctx context.Context, id int64) {
	logCtx := logger.WithKV(logger.WithName(ctx, "lifecycle"), "alarm_id", id)

	def, err := m.repo.ByID(ctx, id)
	if err != nil {
		logger.WarnKV(logCtx, "Fired alarm is gone", "error", err)
		m.forget(id)

		return
	}

	if !def.Enabled {
		logger.WarnKV(logCtx, "Fired alarm is disabled, ignoring")
		m.forget(id)

		return
	}

	m.mu.Lock()

	current, ok := m.episodes[id]
	if !ok || current.State == StateDismissed {
		current = &Episode{ID: id}
		m.episodes[id] = current
	}

	current.State = StateFiring
	current.Until = time.Time{}
	episode := *current

	m.mu.Unlock()

	logger.InfoKV(logCtx, "Alarm is firing", "label", def.Label, "snoozes", episode.Snoozes)

	if m.ring != nil {
		m.ring(logCtx, episode, def)
	}
}

// Snooze re-arms a firing alarm after its snooze duration. When snoozing is
// disabled or the limit is reached the alarm is dismissed instead and the
// outcome reports LimitReached.
func (m *Manager) Snooze(ctx context.Context, id int64) (SnoozeOutcome, error) {
	logCtx := logger.WithKV(logger.WithName(ctx, "lifecycle"), "alarm_id", id)

	def, err := m.repo.ByID(ctx, id)
	if err != nil {
		return SnoozeOutcome{}, fmt.Errorf("load alarm %d: %w", id, err)
	}

	m.mu.Lock()

	current, ok := m.episodes[id]
	if !ok || current.State != StateFiring {
		m.mu.Unlock()

		return SnoozeOutcome{}, fmt.Errorf("%w: alarm %d", ErrNotFiring, id)
	}

	if !def.Snooze.Enabled || current.Snoozes >= def.Snooze.MaxCount {
		count := current.Snoozes
		m.mu.Unlock()

		logger.InfoKV(logCtx, "Snooze refused, dismissing", "snoozes", count, "max", def.Snooze.MaxCount)

		outcome := SnoozeOutcome{
			LimitReached: true,
			Count:        count,
		}

		return outcome, m.Dismiss(ctx, id)
	}

	until := m.now().Add(def.Snooze.Duration)
	current.State = StateSnoozed
	current.Snoozes++
	current.Until = until
	count := current.Snoozes

	m.mu.Unlock()

	if err = m.scheduler.ScheduleAt(ctx, id, until); err != nil {
		m.mu.Lock()
		current.State = StateFiring
		current.Snoozes--
		current.Until = time.Time{}
		m.mu.Unlock()

		return SnoozeOutcome{}, fmt.Errorf("snooze alarm %d: %w", id, err)
	}

	logger.InfoKV(logCtx, "Alarm snoozed", "snoozes", count, "until", until.Format(time.RFC3339))

	return SnoozeOutcome{
		Snoozed: true,
		Count:   count,
		Until:   until,
	}, nil
}

// Dismiss ends the episode of a firing or snoozed alarm. One-time alarms are
// disabled; then a fresh scheduling pass runs.
func (m *Manager) Dismiss(ctx context.Context, id int64) error {
	logCtx := logger.WithKV(logger.WithName(ctx, "lifecycle"), "alarm_id", id)

	m.mu.Lock()

	current, ok := m.episodes[id]
	if !ok || (current.State != StateFiring && current.State != StateSnoozed) {
		m.mu.Unlock()

		return fmt.Errorf("%w: alarm %d", ErrNotFiring, id)
	}

	wasSnoozed := current.State == StateSnoozed
	current.State = StateDismissed
	current.Until = time.Time{}

	m.mu.Unlock()

	if wasSnoozed {
		if err := m.scheduler.Cancel(ctx, id); err != nil {
			return fmt.Errorf("cancel snoozed alarm %d: %w", id, err)
		}
	}

	def, err := m.repo.ByID(ctx, id)
	switch {
	case errors.Is(err, alarm.ErrNotFound):
		logger.WarnKV(logCtx, "Dismissed alarm is gone")
	case err != nil:
		return fmt.Errorf("load alarm %d: %w", id, err)
	case !def.IsRepeating():
		if err = m.repo.UpdateEnabled(ctx, id, false); err != nil {
			return fmt.Errorf("disable one-time alarm %d: %w", id, err)
		}

		logger.InfoKV(logCtx, "One-time alarm disabled after dismissal")
	}

	logger.InfoKV(logCtx, "Alarm dismissed")

	if _, err = m.ScheduleNext(ctx); err != nil {
		return fmt.Errorf("reschedule after dismissal: %w", err)
	}

	return nil
}

// SetEnabled switches an alarm on or off and reschedules.
func (m *Manager) SetEnabled(ctx context.Context, id int64, enabled bool) (*alarm.Resolved, error) {
	if err := m.repo.UpdateEnabled(ctx, id, enabled); err != nil {
		return nil, fmt.Errorf("update alarm %d: %w", id, err)
	}

	if !enabled {
		if err := m.scheduler.Cancel(ctx, id); err != nil {
			return nil, err
		}

		m.drop(id)
	}

	return m.ScheduleNext(ctx)
}

// Delete cancels the timer of an alarm, removes it and reschedules.
func (m *Manager) Delete(ctx context.Context, id int64) (*alarm.Resolved, error) {
	if err := m.scheduler.Cancel(ctx, id); err != nil {
		return nil, err
	}

	if err := m.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete alarm %d: %w", id, err)
	}

	m.drop(id)

	return m.ScheduleNext(ctx)
}

// Episode returns a copy of the current episode of the alarm.
func (m *Manager) Episode(id int64) (Episode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.episodes[id]
	if !ok {
		return Episode{}, false
	}

	return *current, true
}

// snoozed returns the snoozed alarm whose timer still holds the slot.
// Snoozes whose timer was replaced or already expired are demoted.
func (m *Manager) snoozed(ctx context.Context) (alarm.Resolved, bool) {
	var (
		armed, isArmed = m.scheduler.Armed()
		now            = m.now()
	)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, current := range m.episodes {
		if current.State != StateSnoozed {
			continue
		}

		if isArmed && armed.ID == id && current.Until.After(now) {
			return alarm.Resolved{ID: id, TriggerAt: current.Until}, true
		}

		logger.InfoKV(ctx, "Snoozed alarm no longer holds the timer", "snoozed_id", id)
		demote(current)
	}

	return alarm.Resolved{}, false
}

// demote returns a snoozed episode to Scheduled, keeping its snooze count
// in case its timer fires late.
func demote(current *Episode) {
	current.State = StateScheduled
	current.Until = time.Time{}
}

// forget removes the episode of id unless the alarm is ringing.
func (m *Manager) forget(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.episodes[id]; ok && current.State == StateFiring {
		return
	}

	delete(m.episodes, id)
}

// drop removes the episode of id unconditionally.
func (m *Manager) drop(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.episodes, id)
}
