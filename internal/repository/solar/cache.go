package solar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
	"github.com/oshokin/sunrise-alarm/internal/logger"
)

// Source computes the solar table of a calendar day.
type Source interface {
	EventsOn(ctx context.Context, day time.Time) (*alarm.SolarTable, error)
}

var (
	// ErrUnavailable is returned when no table could be produced and none is cached.
	ErrUnavailable = errors.New("solar events are unavailable")

	errInconsistentTable = errors.New("solar events are out of order")
)

// Cache serves today's solar table, recomputing it when the validity window
// expires or the calendar day changes.
type Cache struct {
	// source computes fresh tables.
	source Source
	// ttl is how long a computed table is reused.
	ttl time.Duration
	// now returns the current time in the zone alarms are evaluated in.
	now func() time.Time

	// mu protects the cached table.
	mu sync.Mutex
	// table is the last good table.
	table *alarm.SolarTable
	// day is the calendar day table belongs to.
	day time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock overrides the clock of the cache.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache wraps source with a cache keeping tables for ttl.
func NewCache(source Source, ttl time.Duration, opts ...CacheOption) *Cache {
	c := &Cache{
		source: source,
		ttl:    ttl,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// TodayEvents returns the solar table of the current day. When a fresh table
// cannot be produced the last good table is returned with a warning, even if
// it belongs to another day.
func (c *Cache) TodayEvents(ctx context.Context) (*alarm.SolarTable, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		now   = c.now()
		today = startOfDay(now)
	)

	if c.table != nil && c.day.Equal(today) && now.Sub(c.table.UpdatedAt) < c.ttl {
		return c.table.Clone(), nil
	}

	table, err := c.source.EventsOn(ctx, now)
	if err == nil {
		err = checkOrder(table)
	}

	if err == nil {
		c.table = table
		c.day = today

		logger.DebugKV(ctx, "Solar events refreshed", "day", today.Format(time.DateOnly))

		return table.Clone(), nil
	}

	if c.table == nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	logger.WarnKV(ctx, "Using stale solar events",
		"error", err,
		"age", now.Sub(c.table.UpdatedAt).Round(time.Second).String(),
		"day", c.day.Format(time.DateOnly))

	return c.table.Clone(), nil
}

// Invalidate drops the cached table, forcing a recomputation on next use.
// The dropped table no longer serves as a fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.table = nil
	c.day = time.Time{}
}

// checkOrder rejects tables whose present events are not chronological.
func checkOrder(table *alarm.SolarTable) error {
	if table == nil {
		return ErrUnavailable
	}

	var previous time.Time

	for _, ev := range alarm.SolarEvents() {
		at, ok := table.Get(ev)
		if !ok {
			continue
		}

		if !previous.IsZero() && at.Before(previous) {
			return fmt.Errorf("%w: %s at %s", errInconsistentTable, ev, at.Format(time.RFC3339))
		}

		previous = at
	}

	return nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()

	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
