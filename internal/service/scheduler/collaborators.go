package scheduler

import (
	"context"
	"time"

	"github.com/oshokin/sunrise-alarm/internal/domain/alarm"
)

// Repository is the alarm storage the scheduler reads from and writes back to.
type Repository interface {
	// EnabledAlarms returns copies of all enabled alarm definitions.
	EnabledAlarms(ctx context.Context) ([]*alarm.Definition, error)
	// ByID returns a copy of one definition or alarm.ErrNotFound.
	ByID(ctx context.Context, id int64) (*alarm.Definition, error)
	// UpdateCalculatedTime stores the trigger instant the alarm is armed for.
	UpdateCalculatedTime(ctx context.Context, id int64, at time.Time) error
	// UpdateEnabled switches an alarm on or off.
	UpdateEnabled(ctx context.Context, id int64, enabled bool) error
}

// SolarSource provides today's solar events for the configured location.
// The returned table may be stale.
type SolarSource interface {
	TodayEvents(ctx context.Context) (*alarm.SolarTable, error)
}

// TimerCapability arms and cancels exact wake-up timers keyed by alarm ID.
type TimerCapability interface {
	// Permitted reports whether exact timers may currently be armed.
	Permitted() bool
	// Arm schedules fire to run for id at the given instant, replacing any
	// timer already armed for id.
	Arm(ctx context.Context, id int64, at time.Time, fire alarm.FireFunc) error
	// Cancel removes the timer of id. Unknown ids are not an error.
	Cancel(ctx context.Context, id int64) error
}
