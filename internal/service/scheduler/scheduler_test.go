package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

type fixture struct {
	journal *journal
	repo    *memoryRepository
	solar   *staticSolar
	timers  *fakeTimers
	sched   *Scheduler
	fired   chan int64
}

func newFixture(now time.Time, defs ...*alarm.Definition) *fixture {
	j := new(journal)
	f := &fixture{
		journal: j,
		repo:    newMemoryRepository(j, defs...),
		solar:   &staticSolar{table: sunriseTable()},
		timers:  newFakeTimers(j),
		fired:   make(chan int64, 1),
	}

	f.sched = New(f.repo, f.solar, f.timers,
		func(_ context.Context, id int64) { f.fired <- id },
		WithClock(func() time.Time { return now }))

	return f
}

// TestScheduleNext_ArmsEarliestAfterPersisting verifies the winner is persisted before its timer is armed.
func TestScheduleNext_ArmsEarliestAfterPersisting(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0),
		explicitAlarm(1, at(16, 7, 0)),
		beforeSunrise(2, 30*time.Minute),
	)

	next, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)
	require.NotNil(t, next)
	require.Equal(t, int64(2), next.ID)
	require.True(t, at(16, 6, 0).Equal(next.TriggerAt))

	require.Equal(t, []string{"persist 2", "arm 2"}, f.journal.list())
	require.True(t, at(16, 6, 0).Equal(f.repo.calculated(2)))

	armed, ok := f.sched.Armed()
	require.True(t, ok)
	require.Equal(t, int64(2), armed.ID)
}

// TestScheduleNext_Idempotent verifies two back-to-back passes arm the same instant without error.
func TestScheduleNext_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0), explicitAlarm(1, at(16, 7, 0)))

	first, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)

	second, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.True(t, first.TriggerAt.Equal(second.TriggerAt))
	require.Len(t, f.timers.snapshot(), 1)
}

// TestScheduleNext_NothingToSchedule verifies an empty pass succeeds and empties the slot.
func TestScheduleNext_NothingToSchedule(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0), explicitAlarm(1, at(16, 7, 0)))

	_, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)

	require.NoError(t, f.repo.UpdateEnabled(t.Context(), 1, false))

	next, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)
	require.Nil(t, next)
	require.Empty(t, f.timers.snapshot())

	_, ok := f.sched.Armed()
	require.False(t, ok)
}

// TestScheduleNext_PermissionDenied verifies denial is reported and distinguishable from an empty pass.
func TestScheduleNext_PermissionDenied(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0), explicitAlarm(1, at(16, 7, 0)))
	f.timers.permitted = false

	next, err := f.sched.ScheduleNext(t.Context())
	require.ErrorIs(t, err, alarm.ErrPermissionDenied)
	require.NotErrorIs(t, err, alarm.ErrPlatformFailure)
	require.Nil(t, next)
	require.Empty(t, f.timers.snapshot())
}

// TestScheduleNext_PlatformFailure verifies unexpected arm errors are wrapped.
func TestScheduleNext_PlatformFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0), explicitAlarm(1, at(16, 7, 0)))
	f.timers.armErr = errPlatform

	_, err := f.sched.ScheduleNext(t.Context())
	require.ErrorIs(t, err, alarm.ErrPlatformFailure)
	require.ErrorIs(t, err, errPlatform)

	_, ok := f.sched.Armed()
	require.False(t, ok)
}

// TestScheduleNext_SolarSourceFailure verifies explicit alarms still resolve without solar data.
func TestScheduleNext_SolarSourceFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0),
		explicitAlarm(1, at(16, 9, 0)),
		beforeSunrise(2, 30*time.Minute),
	)
	f.solar.table = nil
	f.solar.err = errPlatform

	next, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)
	require.Equal(t, int64(1), next.ID)
}

// TestScheduleNext_SkipsSolarSourceWhenUnused verifies explicit-only passes never query solar data.
func TestScheduleNext_SkipsSolarSourceWhenUnused(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0), explicitAlarm(1, at(16, 9, 0)))

	_, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)
	require.Zero(t, f.solar.calls.Load())
}

// TestScheduleNext_SingleSlot verifies a new winner supersedes the previously armed alarm.
func TestScheduleNext_SingleSlot(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0),
		explicitAlarm(1, at(16, 9, 0)),
		explicitAlarm(2, at(16, 8, 0)),
	)

	_, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)

	require.NoError(t, f.sched.ScheduleAt(t.Context(), 1, at(16, 5, 10)))

	armed := f.timers.snapshot()
	require.Len(t, armed, 1)
	require.True(t, at(16, 5, 10).Equal(armed[1]))
	require.Contains(t, f.journal.list(), "cancel 2")
}

// TestScheduleNext_Concurrent verifies concurrent passes converge on one armed timer.
func TestScheduleNext_Concurrent(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0),
		explicitAlarm(1, at(16, 9, 0)),
		explicitAlarm(2, at(16, 8, 0)),
		beforeSunrise(3, 0),
	)

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 8)
	)

	for range 8 {
		wg.Go(func() {
			_, err := f.sched.ScheduleNext(context.Background())
			errs <- err
		})
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	armed := f.timers.snapshot()
	require.Len(t, armed, 1)
	require.True(t, at(16, 6, 30).Equal(armed[3]))
}

// TestScheduleAt_RejectsPastInstant verifies the explicit instant must be in the future.
func TestScheduleAt_RejectsPastInstant(t *testing.T) {
	t.Parallel()

	now := at(16, 5, 0)
	f := newFixture(now, explicitAlarm(1, at(16, 7, 0)))

	require.ErrorIs(t, f.sched.ScheduleAt(t.Context(), 1, now), alarm.ErrValidation)
	require.ErrorIs(t, f.sched.ScheduleAt(t.Context(), 1, now.Add(-time.Minute)), alarm.ErrValidation)
	require.Empty(t, f.journal.list())

	require.ErrorIs(t, f.sched.ScheduleAt(t.Context(), 42, now.Add(time.Minute)), alarm.ErrNotFound)
}

// TestCancel_Idempotent verifies cancelling twice, or never-armed alarms, succeeds.
func TestCancel_Idempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0), explicitAlarm(1, at(16, 7, 0)))

	_, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)

	require.NoError(t, f.sched.Cancel(t.Context(), 1))
	require.NoError(t, f.sched.Cancel(t.Context(), 1))
	require.NoError(t, f.sched.Cancel(t.Context(), 99))
	require.Empty(t, f.timers.snapshot())

	_, ok := f.sched.Armed()
	require.False(t, ok)
}

// TestFire_ReleasesSlotAndNotifies verifies an expired timer reaches the fire callback.
func TestFire_ReleasesSlotAndNotifies(t *testing.T) {
	t.Parallel()

	f := newFixture(at(16, 5, 0), explicitAlarm(1, at(16, 7, 0)))

	_, err := f.sched.ScheduleNext(t.Context())
	require.NoError(t, err)

	f.timers.expire(t.Context(), 1)

	require.Equal(t, int64(1), <-f.fired)

	_, ok := f.sched.Armed()
	require.False(t, ok)
}
