package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

//nolint:gochecknoglobals // Shared read-only test zone.
var msk = time.FixedZone("MSK", 3*60*60)

// at builds an instant on 2026-10-DD in the test zone.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, msk)
}

// journal records collaborator calls in order.
type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) list() []string {
	j.mu.Lock()
	defer j.mu.Unlock()

	return append([]string(nil), j.entries...)
}

// memoryRepository is an in-memory alarm store for tests.
type memoryRepository struct {
	mu      sync.Mutex
	alarms  map[int64]*alarm.Definition
	journal *journal
	loadErr error
}

func newMemoryRepository(j *journal, defs ...*alarm.Definition) *memoryRepository {
	r := &memoryRepository{
		alarms:  make(map[int64]*alarm.Definition, len(defs)),
		journal: j,
	}

	for _, def := range defs {
		r.alarms[def.ID] = def.Clone()
	}

	return r
}

func (r *memoryRepository) EnabledAlarms(_ context.Context) ([]*alarm.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loadErr != nil {
		return nil, r.loadErr
	}

	defs := make([]*alarm.Definition, 0, len(r.alarms))
	for _, def := range r.alarms {
		if def.Enabled {
			defs = append(defs, def.Clone())
		}
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })

	return defs, nil
}

func (r *memoryRepository) ByID(_ context.Context, id int64) (*alarm.Definition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.alarms[id]
	if !ok {
		return nil, alarm.ErrNotFound
	}

	return def.Clone(), nil
}

func (r *memoryRepository) UpdateCalculatedTime(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.alarms[id]
	if !ok {
		return alarm.ErrNotFound
	}

	def.CalculatedTime = at
	r.journal.add("persist %d", id)

	return nil
}

func (r *memoryRepository) UpdateEnabled(_ context.Context, id int64, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.alarms[id]
	if !ok {
		return alarm.ErrNotFound
	}

	def.Enabled = enabled

	return nil
}

func (r *memoryRepository) calculated(id int64) time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.alarms[id].CalculatedTime
}

// staticSolar returns a fixed table or error.
type staticSolar struct {
	table *alarm.SolarTable
	err   error
	calls atomic.Int32
}

func (s *staticSolar) TodayEvents(_ context.Context) (*alarm.SolarTable, error) {
	s.calls.Add(1)

	return s.table, s.err
}

// fakeTimers records armed timers without running them.
type fakeTimers struct {
	mu        sync.Mutex
	permitted bool
	armErr    error
	armed     map[int64]time.Time
	fires     map[int64]alarm.FireFunc
	journal   *journal
}

func newFakeTimers(j *journal) *fakeTimers {
	return &fakeTimers{
		permitted: true,
		armed:     make(map[int64]time.Time),
		fires:     make(map[int64]alarm.FireFunc),
		journal:   j,
	}
}

func (f *fakeTimers) Permitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.permitted
}

func (f *fakeTimers) Arm(_ context.Context, id int64, at time.Time, fire alarm.FireFunc) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.armErr != nil {
		return f.armErr
	}

	f.armed[id] = at
	f.fires[id] = fire
	f.journal.add("arm %d", id)

	return nil
}

func (f *fakeTimers) Cancel(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.armed, id)
	delete(f.fires, id)
	f.journal.add("cancel %d", id)

	return nil
}

// expire simulates the timer of id going off.
func (f *fakeTimers) expire(ctx context.Context, id int64) {
	f.mu.Lock()
	fire := f.fires[id]
	delete(f.armed, id)
	delete(f.fires, id)
	f.mu.Unlock()

	if fire != nil {
		fire(ctx, id)
	}
}

func (f *fakeTimers) snapshot() map[int64]time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make(map[int64]time.Time, len(f.armed))
	for id, at := range f.armed {
		result[id] = at
	}

	return result
}

var errPlatform = errors.New("timer service crashed")

func explicitAlarm(id int64, pick time.Time) *alarm.Definition {
	return &alarm.Definition{
		ID:      id,
		Label:   fmt.Sprintf("alarm %d", id),
		Mode:    alarm.At{Anchor: alarm.ExplicitAnchor(pick)},
		Enabled: true,
		Snooze:  alarm.DefaultSnooze(),
		Volume:  alarm.DefaultVolume,
	}
}

func beforeSunrise(id int64, offset time.Duration) *alarm.Definition {
	def := explicitAlarm(id, time.Time{})
	def.Mode = alarm.Before{Anchor: alarm.SolarAnchor(alarm.Sunrise), Offset: offset}

	return def
}

func sunriseTable() *alarm.SolarTable {
	table := alarm.NewSolarTable(at(16, 0, 5))
	table.Set(alarm.Sunrise, at(16, 6, 30).UTC())
	table.Set(alarm.Sunset, at(16, 19, 30).UTC())

	return table
}
