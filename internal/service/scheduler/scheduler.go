package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
	"github.com/oshokin/sunrise-alarm/internal/service/selector"
)

// Scheduler arms at most one alarm timer at a time.
type Scheduler struct {
	// repo stores alarm definitions.
	repo Repository
	// solar provides solar events for solar-relative alarms.
	solar SolarSource
	// timers arms the wake-up timers.
	timers TimerCapability
	// onFire receives expired timers.
	onFire alarm.FireFunc
	// now returns the current time in the zone alarms are evaluated in.
	now func() time.Time
	// slot is the single armed timer.
	slot slot
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the clock. The returned time's location is the zone
// alarm times are resolved in.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a scheduler. onFire is invoked when an armed timer expires.
func New(repo Repository, solar SolarSource, timers TimerCapability, onFire alarm.FireFunc, opts ...Option) *Scheduler {
	s := &Scheduler{
		repo:   repo,
		solar:  solar,
		timers: timers,
		onFire: onFire,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ScheduleNext runs a full scheduling pass and arms the nearest alarm.
// It returns nil without error when no enabled alarm resolves to a future
// instant; the slot is emptied in that case.
func (s *Scheduler) ScheduleNext(ctx context.Context) (*alarm.Resolved, error) {
	ctx = logger.WithName(ctx, "scheduler")

	defs, err := s.repo.EnabledAlarms(ctx)
	if err != nil {
		return nil, fmt.Errorf("load enabled alarms: %w", err)
	}

	table := s.solarTable(ctx, defs)
	now := s.now()

	result := selector.SelectNext(defs, table, now)
	for _, skip := range result.Skipped {
		logger.WarnKV(ctx, "Alarm skipped in this pass", "alarm_id", skip.ID, "reason", skip.Reason)
	}

	if result.Next == nil {
		if err = s.clear(ctx); err != nil {
			return nil, err
		}

		logger.InfoKV(ctx, "No alarm to schedule", "enabled", len(defs))

		return nil, nil //nolint:nilnil // Nothing to arm is a valid outcome.
	}

	next := *result.Next

	// Persisted first, so a crash before arming leaves a recoverable record.
	if err = s.repo.UpdateCalculatedTime(ctx, next.ID, next.TriggerAt); err != nil {
		return nil, fmt.Errorf("persist calculated time of alarm %d: %w", next.ID, err)
	}

	if err = s.arm(ctx, next.ID, next.TriggerAt); err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Alarm scheduled",
		"alarm_id", next.ID,
		"trigger_at", next.TriggerAt.Format(time.RFC3339),
		"in", next.TriggerAt.Sub(now).Round(time.Second).String(),
		"candidates", len(result.Candidates))

	return &next, nil
}

// ScheduleAt arms the alarm for an explicit instant, bypassing resolution.
func (s *Scheduler) ScheduleAt(ctx context.Context, id int64, at time.Time) error {
	ctx = logger.WithName(ctx, "scheduler")

	if now := s.now(); !at.After(now) {
		return fmt.Errorf("%w: instant %s is not after %s", alarm.ErrValidation,
			at.Format(time.RFC3339), now.Format(time.RFC3339))
	}

	if err := s.repo.UpdateCalculatedTime(ctx, id, at); err != nil {
		return fmt.Errorf("persist calculated time of alarm %d: %w", id, err)
	}

	if err := s.arm(ctx, id, at); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Alarm scheduled at explicit instant", "alarm_id", id, "trigger_at", at.Format(time.RFC3339))

	return nil
}

// Cancel removes the timer of the alarm. Cancelling an alarm that is not
// armed succeeds.
func (s *Scheduler) Cancel(ctx context.Context, id int64) error {
	s.slot.mu.Lock()
	defer s.slot.mu.Unlock()

	if err := s.timers.Cancel(ctx, id); err != nil {
		return fmt.Errorf("%w: cancel alarm %d: %w", alarm.ErrPlatformFailure, id, err)
	}

	if s.slot.release(id) {
		logger.DebugKV(ctx, "Alarm timer cancelled", "alarm_id", id)
	}

	return nil
}

// Armed returns the alarm currently held by the timer slot.
func (s *Scheduler) Armed() (alarm.Resolved, bool) {
	return s.slot.get()
}

// solarTable fetches today's events when at least one alarm needs them.
// A failing source degrades to no table, so explicit-time alarms still resolve.
func (s *Scheduler) solarTable(ctx context.Context, defs []*alarm.Definition) *alarm.SolarTable {
	needed := false

	for _, def := range defs {
		if def.UsesSolarEvents() {
			needed = true

			break
		}
	}

	if !needed || s.solar == nil {
		return nil
	}

	table, err := s.solar.TodayEvents(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Solar events are unavailable, solar alarms are skipped", "error", err)

		return nil
	}

	return table
}

// arm points the slot at id, cancelling the previously armed alarm first.
func (s *Scheduler) arm(ctx context.Context, id int64, at time.Time) error {
	if !s.timers.Permitted() {
		logger.ErrorKV(ctx, "Exact timers are not permitted", "alarm_id", id)

		return fmt.Errorf("%w: alarm %d", alarm.ErrPermissionDenied, id)
	}

	s.slot.mu.Lock()
	defer s.slot.mu.Unlock()

	if previous := s.slot.current; s.slot.armed && previous.ID != id {
		if err := s.timers.Cancel(ctx, previous.ID); err != nil {
			return fmt.Errorf("%w: cancel superseded alarm %d: %w", alarm.ErrPlatformFailure, previous.ID, err)
		}

		s.slot.release(previous.ID)
		logger.DebugKV(ctx, "Superseded alarm timer cancelled", "alarm_id", previous.ID)
	}

	if err := s.timers.Arm(ctx, id, at, s.fire); err != nil {
		if errors.Is(err, alarm.ErrPermissionDenied) {
			return fmt.Errorf("arm alarm %d: %w", id, err)
		}

		return fmt.Errorf("%w: arm alarm %d: %w", alarm.ErrPlatformFailure, id, err)
	}

	s.slot.set(id, at)

	return nil
}

// clear empties the slot when no alarm qualifies any more.
func (s *Scheduler) clear(ctx context.Context) error {
	s.slot.mu.Lock()
	defer s.slot.mu.Unlock()

	if !s.slot.armed {
		return nil
	}

	id := s.slot.current.ID
	if err := s.timers.Cancel(ctx, id); err != nil {
		return fmt.Errorf("%w: cancel alarm %d: %w", alarm.ErrPlatformFailure, id, err)
	}

	s.slot.release(id)

	return nil
}

// fire empties the slot and hands the expired alarm to the callback.
func (s *Scheduler) fire(ctx context.Context, id int64) {
	s.slot.mu.Lock()
	s.slot.release(id)
	s.slot.mu.Unlock()

	logger.InfoKV(ctx, "Alarm timer expired", "alarm_id", id)

	if s.onFire != nil {
		s.onFire(ctx, id)
	}
}
